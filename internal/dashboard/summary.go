package dashboard

import (
	"strings"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// WeeklySummary returns the seven weekdays, Monday first, with the number of
// schedule blocks meeting on each.
func WeeklySummary(schedules []store.ClassSchedule) []repository.DayCount {
	return repository.WeeklySummary(schedules)
}

// CourseDetail is a course with its schedule blocks.
type CourseDetail struct {
	Course       store.Course
	Schedules    []store.ClassSchedule
	PendingTasks int
}

func NewCourseDetail(c store.Course, schedules []store.ClassSchedule, pending int) CourseDetail {
	sorted := append([]store.ClassSchedule(nil), schedules...)
	repository.SortByStartTime(sorted)
	return CourseDetail{Course: c, Schedules: sorted, PendingTasks: pending}
}

// WeeklySessionCount is the number of schedule blocks.
func (d CourseDetail) WeeklySessionCount() int { return len(d.Schedules) }

func (d CourseDetail) HasSchedules() bool { return len(d.Schedules) > 0 }

// ClassDays lists the distinct weekdays the course meets, in week order.
func (d CourseDetail) ClassDays() []string {
	var out []string
	for _, day := range store.Weekdays {
		if d.HasClassOn(day) {
			out = append(out, day)
		}
	}
	return out
}

// FormattedDays abbreviates ClassDays, as in "Mon, Wed".
func (d CourseDetail) FormattedDays() string {
	days := d.ClassDays()
	for i, day := range days {
		days[i] = day[:3]
	}
	return strings.Join(days, ", ")
}

func (d CourseDetail) HasClassOn(day string) bool {
	for _, cs := range d.Schedules {
		if cs.IsOnDay(day) {
			return true
		}
	}
	return false
}

func (d CourseDetail) SchedulesOn(day string) []store.ClassSchedule {
	var out []store.ClassSchedule
	for _, cs := range d.Schedules {
		if cs.IsOnDay(day) {
			out = append(out, cs)
		}
	}
	return out
}

// DaySchedule is one weekday of the timetable.
type DaySchedule struct {
	Day     string
	Classes []ScheduleWithCourse
}

// BuildDaySchedule collects the blocks meeting on day whose course is known.
func BuildDaySchedule(day string, schedules []store.ClassSchedule, courses []store.Course) DaySchedule {
	byID := make(map[int64]store.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	var onDay []store.ClassSchedule
	for _, cs := range schedules {
		if cs.IsOnDay(day) {
			onDay = append(onDay, cs)
		}
	}
	return DaySchedule{Day: day, Classes: joinSchedules(onDay, byID)}
}

// Timetable builds a DaySchedule for every weekday, Monday first.
func Timetable(schedules []store.ClassSchedule, courses []store.Course) []DaySchedule {
	out := make([]DaySchedule, len(store.Weekdays))
	for i, day := range store.Weekdays {
		out[i] = BuildDaySchedule(day, schedules, courses)
	}
	return out
}

func (d DaySchedule) ClassCount() int  { return len(d.Classes) }
func (d DaySchedule) HasClasses() bool { return len(d.Classes) > 0 }

// FirstClassTime is the earliest start time, or "" on a free day.
func (d DaySchedule) FirstClassTime() string {
	first := ""
	for _, c := range d.Classes {
		if first == "" || repository.CompareClock(c.Schedule.StartTime, first) < 0 {
			first = c.Schedule.StartTime
		}
	}
	return first
}

// LastClassTime is the latest end time, or "" on a free day.
func (d DaySchedule) LastClassTime() string {
	last := ""
	for _, c := range d.Classes {
		if last == "" || repository.CompareClock(c.Schedule.EndTime, last) > 0 {
			last = c.Schedule.EndTime
		}
	}
	return last
}
