// Package export writes courses, timetables, tasks and study sessions to
// CSV, JSON, XLSX and iCalendar files.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sadopc/studydesk/internal/store"
)

type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatXLSX
	FormatICS
)

// Formats lists every format in picker order.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatICS}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "CSV (tasks)"
	case FormatJSON:
		return "JSON (everything)"
	case FormatXLSX:
		return "Excel workbook"
	case FormatICS:
		return "iCalendar (timetable)"
	}
	return "unknown"
}

func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatXLSX:
		return "xlsx"
	case FormatICS:
		return "ics"
	}
	return "txt"
}

// Snapshot is everything an export may need.
type Snapshot struct {
	ExportedAt time.Time
	Student    *store.Student
	Courses    []store.Course
	Schedules  []store.ClassSchedule
	Tasks      []store.Task
	Sessions   []store.StudySession
}

func (s Snapshot) courseIndex() map[int64]*store.Course {
	idx := make(map[int64]*store.Course, len(s.Courses))
	for i := range s.Courses {
		idx[s.Courses[i].ID] = &s.Courses[i]
	}
	return idx
}

// Source reads the rows that go into a snapshot.
type Source interface {
	GetProfile(ctx context.Context) (*store.Student, error)
	ListCourses(ctx context.Context) ([]store.Course, error)
	ListSchedules(ctx context.Context) ([]store.ClassSchedule, error)
	ListTasks(ctx context.Context) ([]store.Task, error)
	ListSessions(ctx context.Context, f store.SessionFilter) ([]store.StudySession, error)
}

// Collect reads a snapshot from src.
func Collect(ctx context.Context, src Source, now time.Time) (Snapshot, error) {
	snap := Snapshot{ExportedAt: now}
	var err error
	if snap.Student, err = src.GetProfile(ctx); err != nil {
		return snap, fmt.Errorf("collect profile: %w", err)
	}
	if snap.Courses, err = src.ListCourses(ctx); err != nil {
		return snap, fmt.Errorf("collect courses: %w", err)
	}
	if snap.Schedules, err = src.ListSchedules(ctx); err != nil {
		return snap, fmt.Errorf("collect schedules: %w", err)
	}
	if snap.Tasks, err = src.ListTasks(ctx); err != nil {
		return snap, fmt.Errorf("collect tasks: %w", err)
	}
	if snap.Sessions, err = src.ListSessions(ctx, store.SessionFilter{}); err != nil {
		return snap, fmt.Errorf("collect sessions: %w", err)
	}
	return snap, nil
}

// Filename is the default export file name for f on the snapshot's date.
func Filename(f Format, at time.Time) string {
	return fmt.Sprintf("studydesk-export-%s.%s", at.Format("2006-01-02"), f.Ext())
}

// Write exports snap in format f into dir and returns the file path.
func Write(f Format, snap Snapshot, dir string) (string, error) {
	path := filepath.Join(dir, Filename(f, snap.ExportedAt))
	var err error
	switch f {
	case FormatCSV:
		err = ToCSV(snap.Tasks, snap.courseIndex(), path)
	case FormatJSON:
		err = ToJSON(snap, path)
	case FormatXLSX:
		err = ToXLSX(snap, path)
	case FormatICS:
		err = ToICS(snap.Courses, snap.Schedules, path, snap.ExportedAt)
	default:
		err = fmt.Errorf("unknown export format %d", f)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func taskStatus(t store.Task, now time.Time) string {
	switch {
	case t.IsCompleted:
		return "Completed"
	case t.IsOverdue(now):
		return "Overdue"
	}
	return "Pending"
}

func courseName(courses map[int64]*store.Course, id int64) string {
	if c, ok := courses[id]; ok {
		return c.CourseName
	}
	return "Unknown"
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
