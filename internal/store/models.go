package store

import (
	"strings"
	"time"
)

// Priority values accepted for tasks.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Priorities lists the allowed task priorities in ascending order.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

const (
	DefaultSemester = "Semester 1"
	DefaultMotto    = "Keep learning, keep growing!"
	// ProfileID is the primary key of the one and only student row.
	ProfileID = 1
)

// Semesters lists the selectable semesters.
var Semesters = []string{"Semester 1", "Semester 2"}

// CourseColors is the palette offered for new courses.
var CourseColors = []string{"#2196F3", "#4CAF50", "#FF9800", "#F44336", "#9C27B0", "#009688"}

// CreditOptions lists the credit values offered by the course form.
var CreditOptions = []int{2, 3, 6, 9, 10, 11}

// Weekdays is the canonical order used for timetables and summaries.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type Student struct {
	ID                  int64     `db:"id"`
	FullName            string    `db:"full_name" validate:"notblank"`
	University          string    `db:"university"`
	Major               string    `db:"major"`
	CurrentSemester     string    `db:"current_semester"`
	Email               string    `db:"email" validate:"omitempty,email"`
	PhoneNumber         string    `db:"phone_number"`
	DailyStudyGoalHours int       `db:"daily_study_goal_hours" validate:"gte=0,lte=24"`
	Motto               string    `db:"motto"`
	CurrentStreak       int       `db:"current_streak"`
	TotalStudyHours     int       `db:"total_study_hours"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// FirstName is the first word of the full name, used for greetings.
func (s Student) FirstName() string {
	fields := strings.Fields(s.FullName)
	if len(fields) == 0 {
		return s.FullName
	}
	return fields[0]
}

// Initials returns two upper-case letters for avatars ("MF" for "Michael Franco").
func (s Student) Initials() string {
	names := strings.Fields(s.FullName)
	var out string
	switch {
	case len(names) >= 2:
		out = string([]rune(names[0])[0]) + string([]rune(names[1])[0])
	case len(names) == 1 && len([]rune(names[0])) >= 2:
		out = string([]rune(names[0])[:2])
	case len(names) == 1:
		r := string([]rune(names[0])[0])
		out = r + r
	default:
		out = "ME"
	}
	return strings.ToUpper(out)
}

func (s Student) IsProfileComplete() bool {
	return strings.TrimSpace(s.FullName) != "" &&
		strings.TrimSpace(s.University) != "" &&
		strings.TrimSpace(s.Major) != ""
}

func (s Student) HasActiveStreak() bool { return s.CurrentStreak > 0 }

type Course struct {
	ID         int64     `db:"id"`
	CourseName string    `db:"course_name"`
	CourseCode string    `db:"course_code"`
	Instructor string    `db:"instructor"`
	Credits    int       `db:"credits" validate:"gt=0"`
	Semester   string    `db:"semester" validate:"notblank"`
	Color      string    `db:"color"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// RecommendedStudyHours is the weekly self-study rule of thumb: two hours per credit.
func (c Course) RecommendedStudyHours() int { return c.Credits * 2 }

func (c Course) IsCurrentSemester(semester string) bool { return c.Semester == semester }

type ClassSchedule struct {
	ID        int64     `db:"id"`
	CourseID  int64     `db:"course_id"`
	Days      string    `db:"days" validate:"notblank"`
	StartTime string    `db:"start_time" validate:"notblank"`
	EndTime   string    `db:"end_time" validate:"notblank"`
	Location  string    `db:"location"`
	CreatedAt time.Time `db:"created_at"`
}

// DaysList splits the comma-delimited days column.
func (cs ClassSchedule) DaysList() []string {
	var days []string
	for _, d := range strings.Split(cs.Days, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, d)
		}
	}
	return days
}

// IsOnDay reports whether day is one of the schedule's days (case-insensitive).
func (cs ClassSchedule) IsOnDay(day string) bool {
	for _, d := range cs.DaysList() {
		if strings.EqualFold(d, day) {
			return true
		}
	}
	return false
}

func (cs ClassSchedule) TimeRange() string { return cs.StartTime + " - " + cs.EndTime }

func (cs ClassSchedule) DisplayLocation() string {
	if strings.TrimSpace(cs.Location) == "" {
		return "Location TBA"
	}
	return cs.Location
}

type Task struct {
	ID          int64      `db:"id"`
	CourseID    int64      `db:"course_id"`
	Title       string     `db:"title" validate:"notblank"`
	Description string     `db:"description"`
	DueDate     time.Time  `db:"due_date"`
	DueTime     string     `db:"due_time"`
	Priority    string     `db:"priority" validate:"oneof=Low Medium High"`
	IsCompleted bool       `db:"is_completed"`
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (t Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted && t.DueDate.Before(now)
}

// IsDueSoon reports a pending task due within the next 24 hours.
func (t Task) IsDueSoon(now time.Time) bool {
	if t.IsCompleted {
		return false
	}
	left := t.DueDate.Sub(now)
	return left >= 0 && left <= 24*time.Hour
}

func (t Task) PriorityLabel() string {
	switch strings.ToLower(t.Priority) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

type StudySession struct {
	ID        int64      `db:"id"`
	CourseID  *int64     `db:"course_id"`
	StartTime time.Time  `db:"start_time"`
	EndTime   *time.Time `db:"end_time"`
	Duration  int64      `db:"duration"` // seconds
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
}

func (s StudySession) Running() bool { return s.EndTime == nil }

type Setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	CourseID *int64
	From     *time.Time
	To       *time.Time
	Limit    int
}

// DailyStudy is study time per course per day.
type DailyStudy struct {
	Date         string `db:"day"`
	CourseID     int64  `db:"course_id"`
	CourseCode   string `db:"course_code"`
	CourseColor  string `db:"color"`
	TotalSeconds int64  `db:"total_seconds"`
	SessionCount int    `db:"session_count"`
}
