package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Profile    *jsonProfile  `json:"profile,omitempty"`
	Courses    []jsonCourse  `json:"courses"`
	Tasks      []jsonTask    `json:"tasks"`
	Sessions   []jsonSession `json:"study_sessions"`
	StudyTotal string        `json:"study_total"`
}

type jsonProfile struct {
	FullName        string `json:"full_name"`
	University      string `json:"university,omitempty"`
	Major           string `json:"major,omitempty"`
	Semester        string `json:"current_semester"`
	Email           string `json:"email,omitempty"`
	DailyGoalHours  int    `json:"daily_study_goal_hours"`
	CurrentStreak   int    `json:"current_streak"`
	TotalStudyHours int    `json:"total_study_hours"`
}

type jsonCourse struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Code       string         `json:"code"`
	Instructor string         `json:"instructor,omitempty"`
	Credits    int            `json:"credits"`
	Semester   string         `json:"semester"`
	Color      string         `json:"color"`
	Active     bool           `json:"active"`
	Schedules  []jsonSchedule `json:"schedules"`
}

type jsonSchedule struct {
	Days     []string `json:"days"`
	Start    string   `json:"start_time"`
	End      string   `json:"end_time"`
	Location string   `json:"location,omitempty"`
}

type jsonTask struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"course_id"`
	Course      string `json:"course"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type jsonSession struct {
	ID          int64  `json:"id"`
	Course      string `json:"course,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	Notes       string `json:"notes,omitempty"`
}

// ToJSON writes the profile, courses with their schedules, tasks and study
// sessions as one document.
func ToJSON(snap Snapshot, path string) error {
	courses := snap.courseIndex()
	out := jsonExport{
		ExportedAt: snap.ExportedAt.UTC().Format(time.RFC3339),
		Courses:    []jsonCourse{},
		Tasks:      []jsonTask{},
		Sessions:   []jsonSession{},
	}

	if p := snap.Student; p != nil {
		out.Profile = &jsonProfile{
			FullName:        p.FullName,
			University:      p.University,
			Major:           p.Major,
			Semester:        p.CurrentSemester,
			Email:           p.Email,
			DailyGoalHours:  p.DailyStudyGoalHours,
			CurrentStreak:   p.CurrentStreak,
			TotalStudyHours: p.TotalStudyHours,
		}
	}

	for _, c := range snap.Courses {
		jc := jsonCourse{
			ID:         c.ID,
			Name:       c.CourseName,
			Code:       c.CourseCode,
			Instructor: c.Instructor,
			Credits:    c.Credits,
			Semester:   c.Semester,
			Color:      c.Color,
			Active:     c.IsActive,
			Schedules:  []jsonSchedule{},
		}
		for _, cs := range snap.Schedules {
			if cs.CourseID != c.ID {
				continue
			}
			jc.Schedules = append(jc.Schedules, jsonSchedule{
				Days:     cs.DaysList(),
				Start:    cs.StartTime,
				End:      cs.EndTime,
				Location: cs.Location,
			})
		}
		out.Courses = append(out.Courses, jc)
	}

	for _, t := range snap.Tasks {
		jt := jsonTask{
			ID:          t.ID,
			CourseID:    t.CourseID,
			Course:      courseName(courses, t.CourseID),
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate.Local().Format(time.RFC3339),
			Priority:    t.Priority,
			Status:      taskStatus(t, snap.ExportedAt),
		}
		if t.CompletedAt != nil {
			jt.CompletedAt = t.CompletedAt.Local().Format(time.RFC3339)
		}
		out.Tasks = append(out.Tasks, jt)
	}

	var total int64
	for _, s := range snap.Sessions {
		js := jsonSession{
			ID:          s.ID,
			StartTime:   s.StartTime.Local().Format(time.RFC3339),
			DurationSec: s.Duration,
			Duration:    formatDuration(s.Duration),
			Notes:       s.Notes,
		}
		if s.CourseID != nil {
			js.Course = courseName(courses, *s.CourseID)
		}
		if s.EndTime != nil {
			js.EndTime = s.EndTime.Local().Format(time.RFC3339)
		}
		total += s.Duration
		out.Sessions = append(out.Sessions, js)
	}
	out.StudyTotal = formatDuration(total)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
