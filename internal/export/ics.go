package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

var byDay = map[string]string{
	"monday":    "MO",
	"tuesday":   "TU",
	"wednesday": "WE",
	"thursday":  "TH",
	"friday":    "FR",
	"saturday":  "SA",
	"sunday":    "SU",
}

// scheduleUID is stable per schedule row so a re-import updates events
// instead of duplicating them.
func scheduleUID(id int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "studydesk:schedule:%d", id)).String()
}

// ToICS writes one weekly recurring event per schedule block of an active
// course. The first occurrence falls in the week containing weekOf, in
// weekOf's location. Blocks with unparsable times or days are skipped.
func ToICS(courses []store.Course, schedules []store.ClassSchedule, path string, weekOf time.Time) error {
	cal := BuildCalendar(courses, schedules, weekOf)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ics file: %w", err)
	}
	defer f.Close()

	if err := cal.SerializeTo(f); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}

// BuildCalendar assembles the timetable calendar without writing it.
func BuildCalendar(courses []store.Course, schedules []store.ClassSchedule, weekOf time.Time) *ics.Calendar {
	byID := make(map[int64]store.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//studydesk//timetable//EN")
	cal.SetName("Class timetable")

	monday := repository.StartOfWeek(weekOf)
	for _, cs := range schedules {
		c, ok := byID[cs.CourseID]
		if !ok || !c.IsActive {
			continue
		}
		start, ok1 := repository.ParseClock(cs.StartTime)
		end, ok2 := repository.ParseClock(cs.EndTime)
		if !ok1 || !ok2 || end <= start {
			continue
		}
		first, rule := firstDay(cs)
		if first < 0 {
			continue
		}

		day := monday.AddDate(0, 0, first)
		ev := cal.AddEvent(scheduleUID(cs.ID))
		ev.SetDtStampTime(weekOf)
		setWallClock(ev, ics.ComponentPropertyDtStart, onDay(day, start))
		setWallClock(ev, ics.ComponentPropertyDtEnd, onDay(day, end))
		ev.SetSummary(strings.TrimSpace(c.CourseCode + " " + c.CourseName))
		ev.SetLocation(cs.DisplayLocation())
		if c.Instructor != "" {
			ev.SetDescription("Instructor: " + c.Instructor)
		}
		ev.AddRrule("FREQ=WEEKLY;BYDAY=" + rule)
	}
	return cal
}

// onDay places a clock offset on day's calendar date in day's location, so
// a DST change on that date does not shift the wall-clock time.
func onDay(day time.Time, clock time.Duration) time.Time {
	y, m, d := day.Date()
	h := int(clock / time.Hour)
	mins := int(clock % time.Hour / time.Minute)
	return time.Date(y, m, d, h, mins, 0, 0, day.Location())
}

// setWallClock writes t as UTC, as floating local time for time.Local, or
// as local time tagged with its zone name.
func setWallClock(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	switch name := t.Location().String(); name {
	case "UTC":
		ev.SetProperty(prop, t.Format("20060102T150405Z"))
	case "Local", "":
		ev.SetProperty(prop, t.Format("20060102T150405"))
	default:
		ev.SetProperty(prop, t.Format("20060102T150405"),
			&ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{name}})
	}
}

// firstDay returns the index from Monday of the block's earliest weekday and
// the BYDAY list in week order. The index is -1 when no day is recognized.
func firstDay(cs store.ClassSchedule) (int, string) {
	first := -1
	var codes []string
	for i, d := range store.Weekdays {
		if !cs.IsOnDay(d) {
			continue
		}
		if first < 0 {
			first = i
		}
		codes = append(codes, byDay[strings.ToLower(d)])
	}
	return first, strings.Join(codes, ",")
}
