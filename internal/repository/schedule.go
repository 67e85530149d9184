package repository

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

type ScheduleStore interface {
	SaveSchedule(ctx context.Context, cs store.ClassSchedule) (int64, error)
	GetSchedule(ctx context.Context, id int64) (*store.ClassSchedule, error)
	ListSchedules(ctx context.Context) ([]store.ClassSchedule, error)
	ListSchedulesByCourse(ctx context.Context, courseID int64) ([]store.ClassSchedule, error)
	ListSchedulesByDay(ctx context.Context, day string) ([]store.ClassSchedule, error)
	ReplaceCourseSchedules(ctx context.Context, courseID int64, schedules []store.ClassSchedule) error
	DeleteSchedule(ctx context.Context, id int64) error
}

type ScheduleRepository struct {
	store ScheduleStore
	log   *zap.Logger
}

func NewScheduleRepository(s ScheduleStore, log *zap.Logger) *ScheduleRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleRepository{store: s, log: log.Named("schedules")}
}

var scheduleRules = []rule{
	{"Days", "At least one day must be selected"},
	{"StartTime", "Start time and end time are required"},
	{"EndTime", "Start time and end time are required"},
}

// Validate checks a schedule block without writing it.
func (r *ScheduleRepository) Validate(cs store.ClassSchedule) error {
	if err := checkStruct(cs, scheduleRules); err != nil {
		return err
	}
	if len(cs.DaysList()) == 0 {
		return invalid("Days", "At least one day must be selected")
	}
	if CompareClock(cs.StartTime, cs.EndTime) >= 0 {
		return invalid("EndTime", "End time must be after start time")
	}
	return nil
}

func (r *ScheduleRepository) ValidateAndSave(ctx context.Context, cs store.ClassSchedule) (int64, error) {
	if err := r.Validate(cs); err != nil {
		return 0, err
	}
	return r.store.SaveSchedule(ctx, cs)
}

// SaveCourseSchedules replaces every block of a course. Nothing is written
// unless all blocks validate.
func (r *ScheduleRepository) SaveCourseSchedules(ctx context.Context, courseID int64, schedules []store.ClassSchedule) error {
	for _, cs := range schedules {
		if err := r.Validate(cs); err != nil {
			return err
		}
	}
	if err := r.store.ReplaceCourseSchedules(ctx, courseID, schedules); err != nil {
		return err
	}
	r.log.Debug("course schedules replaced", zap.Int64("course_id", courseID), zap.Int("count", len(schedules)))
	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, id int64) (*store.ClassSchedule, error) {
	return r.store.GetSchedule(ctx, id)
}

func (r *ScheduleRepository) All(ctx context.Context) ([]store.ClassSchedule, error) {
	return r.store.ListSchedules(ctx)
}

func (r *ScheduleRepository) ByCourse(ctx context.Context, courseID int64) ([]store.ClassSchedule, error) {
	return r.store.ListSchedulesByCourse(ctx, courseID)
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteSchedule(ctx, id)
}

// OnDay returns the blocks meeting on day, confirmed by exact
// case-insensitive membership, sorted by start time.
func (r *ScheduleRepository) OnDay(ctx context.Context, day string) ([]store.ClassSchedule, error) {
	candidates, err := r.store.ListSchedulesByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]store.ClassSchedule, 0, len(candidates))
	for _, cs := range candidates {
		if cs.IsOnDay(day) {
			out = append(out, cs)
		}
	}
	SortByStartTime(out)
	return out, nil
}

// Today returns the blocks for day, the name of the current weekday.
func (r *ScheduleRepository) Today(ctx context.Context, day string) ([]store.ClassSchedule, error) {
	return r.OnDay(ctx, day)
}

// Tomorrow returns the blocks for the weekday after today.
func (r *ScheduleRepository) Tomorrow(ctx context.Context, today string) ([]store.ClassSchedule, error) {
	return r.OnDay(ctx, NextWeekday(today))
}

// ForDays returns the blocks meeting on any of days, without duplicates.
func (r *ScheduleRepository) ForDays(ctx context.Context, days []string) ([]store.ClassSchedule, error) {
	seen := make(map[int64]bool)
	var out []store.ClassSchedule
	for _, d := range days {
		blocks, err := r.OnDay(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, cs := range blocks {
			if !seen[cs.ID] {
				seen[cs.ID] = true
				out = append(out, cs)
			}
		}
	}
	SortByStartTime(out)
	return out, nil
}

func (r *ScheduleRepository) WeeklySummary(ctx context.Context) ([]DayCount, error) {
	all, err := r.store.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	return WeeklySummary(all), nil
}

// DayCount is the number of schedule blocks meeting on Day.
type DayCount struct {
	Day   string
	Count int
}

// WeeklySummary counts blocks per weekday, Monday first. A block meeting on
// three days counts once on each.
func WeeklySummary(schedules []store.ClassSchedule) []DayCount {
	out := make([]DayCount, len(store.Weekdays))
	for i, d := range store.Weekdays {
		out[i].Day = d
		for _, cs := range schedules {
			if cs.IsOnDay(d) {
				out[i].Count++
			}
		}
	}
	return out
}

// SortByStartTime orders blocks chronologically, stable on ties.
func SortByStartTime(schedules []store.ClassSchedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		return CompareClock(schedules[i].StartTime, schedules[j].StartTime) < 0
	})
}

// NextWeekday returns the day name after day, wrapping Sunday to Monday.
// Unknown names return "".
func NextWeekday(day string) string {
	for i, d := range store.Weekdays {
		if strings.EqualFold(d, day) {
			return store.Weekdays[(i+1)%len(store.Weekdays)]
		}
	}
	return ""
}
