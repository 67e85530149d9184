// Package dashboard aggregates courses, schedules, tasks and study time into
// the numbers shown on the home screen.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// PendingPreviewLimit caps the pending tasks listed on the home screen.
const PendingPreviewLimit = 5

// OnTrackPercentage is the weekly progress at which a student is on track.
const OnTrackPercentage = 70

// DefaultWeeklyGoal applies when neither the profile nor the preferences
// name a goal.
const DefaultWeeklyGoal = 20

type ScheduleWithCourse struct {
	Schedule store.ClassSchedule
	Course   store.Course
}

func (s ScheduleWithCourse) TimeRange() string       { return s.Schedule.TimeRange() }
func (s ScheduleWithCourse) DisplayLocation() string { return s.Schedule.DisplayLocation() }

type TaskWithCourse struct {
	Task   store.Task
	Course store.Course
}

// Stats is the home screen snapshot.
type Stats struct {
	Student  *store.Student
	Semester string

	ActiveCourseCount int
	TotalCredits      int
	TotalClassHours   time.Duration

	PendingTaskCount  int
	OverdueTaskCount  int
	DueTodayTaskCount int

	CurrentStreak       int
	WeeklyStudyGoal     int
	WeeklyStudyProgress int
	TodayStudyTime      time.Duration

	TodayClasses    []ScheduleWithCourse
	TomorrowClasses []ScheduleWithCourse
	PendingTasks    []TaskWithCourse
}

// WeeklyProgressPercentage is progress over goal, rounded to a whole
// percent. It is 0 when no goal is set.
func (s Stats) WeeklyProgressPercentage() int {
	if s.WeeklyStudyGoal <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.WeeklyStudyProgress) / float64(s.WeeklyStudyGoal)))
}

func (s Stats) IsOnTrack() bool {
	return s.WeeklyProgressPercentage() >= OnTrackPercentage
}

func (s Stats) HasUrgentTasks() bool {
	return s.OverdueTaskCount > 0 || s.DueTodayTaskCount > 0
}

// Input holds everything Build needs. Counts come from the store; lists are
// joined and filtered in memory.
type Input struct {
	Now     time.Time
	Student *store.Student

	ActiveCourses     []store.Course
	TodaySchedules    []store.ClassSchedule
	TomorrowSchedules []store.ClassSchedule
	PendingTasks      []store.Task

	TotalCredits     int
	TotalClassHours  time.Duration
	PendingTaskCount int
	OverdueTaskCount int

	WeeklyGoalPref      int
	WeeklyStudyProgress int
	TodayStudyTime      time.Duration
}

// Semester returns the profile's current semester, or the default one.
func Semester(st *store.Student) string {
	if st != nil && st.CurrentSemester != "" {
		return st.CurrentSemester
	}
	return store.DefaultSemester
}

// WeeklyGoal is seven times the profile's daily goal, zero included. The
// preference, then DefaultWeeklyGoal, apply only when there is no profile.
func WeeklyGoal(st *store.Student, pref int) int {
	if st != nil {
		return max(st.DailyStudyGoalHours, 0) * 7
	}
	if pref > 0 {
		return pref
	}
	return DefaultWeeklyGoal
}

// Build computes the home screen stats. It performs no I/O.
func Build(in Input) Stats {
	semester := Semester(in.Student)

	semesterCourses := make(map[int64]store.Course)
	active := make(map[int64]store.Course, len(in.ActiveCourses))
	for _, c := range in.ActiveCourses {
		active[c.ID] = c
		if c.IsCurrentSemester(semester) {
			semesterCourses[c.ID] = c
		}
	}

	st := Stats{
		Student:             in.Student,
		Semester:            semester,
		ActiveCourseCount:   len(semesterCourses),
		TotalCredits:        in.TotalCredits,
		TotalClassHours:     in.TotalClassHours,
		PendingTaskCount:    in.PendingTaskCount,
		OverdueTaskCount:    in.OverdueTaskCount,
		DueTodayTaskCount:   CountDueToday(in.PendingTasks, in.Now),
		WeeklyStudyGoal:     WeeklyGoal(in.Student, in.WeeklyGoalPref),
		WeeklyStudyProgress: in.WeeklyStudyProgress,
		TodayStudyTime:      in.TodayStudyTime,
		TodayClasses:        joinSchedules(in.TodaySchedules, semesterCourses),
		TomorrowClasses:     joinSchedules(in.TomorrowSchedules, semesterCourses),
	}
	if in.Student != nil {
		st.CurrentStreak = in.Student.CurrentStreak
	}

	preview := in.PendingTasks
	if len(preview) > PendingPreviewLimit {
		preview = preview[:PendingPreviewLimit]
	}
	for _, t := range preview {
		if c, ok := active[t.CourseID]; ok {
			st.PendingTasks = append(st.PendingTasks, TaskWithCourse{Task: t, Course: c})
		}
	}
	sort.SliceStable(st.PendingTasks, func(i, j int) bool {
		return st.PendingTasks[i].Task.DueDate.Before(st.PendingTasks[j].Task.DueDate)
	})
	return st
}

// CountDueToday counts pending tasks due within now's calendar day.
func CountDueToday(tasks []store.Task, now time.Time) int {
	start := repository.StartOfDay(now)
	end := start.AddDate(0, 0, 1)
	n := 0
	for _, t := range tasks {
		if t.IsCompleted {
			continue
		}
		due := t.DueDate.In(now.Location())
		if !due.Before(start) && due.Before(end) {
			n++
		}
	}
	return n
}

func joinSchedules(schedules []store.ClassSchedule, courses map[int64]store.Course) []ScheduleWithCourse {
	sorted := append([]store.ClassSchedule(nil), schedules...)
	repository.SortByStartTime(sorted)

	var out []ScheduleWithCourse
	for _, cs := range sorted {
		if c, ok := courses[cs.CourseID]; ok {
			out = append(out, ScheduleWithCourse{Schedule: cs, Course: c})
		}
	}
	return out
}
