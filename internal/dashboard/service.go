package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// GoalPrefs reads the weekly goal preference.
type GoalPrefs interface {
	Int(ctx context.Context, key string) (int, error)
}

// Service loads dashboard inputs from the repositories.
type Service struct {
	courses   *repository.CourseRepository
	schedules *repository.ScheduleRepository
	tasks     *repository.TaskRepository
	students  *repository.StudentRepository
	study     *repository.StudyRepository
	prefs     GoalPrefs
	log       *zap.Logger
}

func NewService(
	courses *repository.CourseRepository,
	schedules *repository.ScheduleRepository,
	tasks *repository.TaskRepository,
	students *repository.StudentRepository,
	study *repository.StudyRepository,
	prefs GoalPrefs,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		courses:   courses,
		schedules: schedules,
		tasks:     tasks,
		students:  students,
		study:     study,
		prefs:     prefs,
		log:       log.Named("dashboard"),
	}
}

// Load gathers the home screen stats as of now. The first failing read
// aborts the load.
func (s *Service) Load(ctx context.Context, now time.Time) (Stats, error) {
	var in Input
	var err error
	in.Now = now

	if in.Student, err = s.students.Profile(ctx); err != nil {
		return Stats{}, fmt.Errorf("load profile: %w", err)
	}
	semester := Semester(in.Student)

	if in.ActiveCourses, err = s.courses.Active(ctx); err != nil {
		return Stats{}, fmt.Errorf("load courses: %w", err)
	}
	today := now.Weekday().String()
	if in.TodaySchedules, err = s.schedules.Today(ctx, today); err != nil {
		return Stats{}, fmt.Errorf("load today's classes: %w", err)
	}
	if in.TomorrowSchedules, err = s.schedules.Tomorrow(ctx, today); err != nil {
		return Stats{}, fmt.Errorf("load tomorrow's classes: %w", err)
	}
	if in.PendingTasks, err = s.tasks.Pending(ctx); err != nil {
		return Stats{}, fmt.Errorf("load pending tasks: %w", err)
	}

	if in.TotalCredits, err = s.courses.TotalCreditsBySemester(ctx, semester); err != nil {
		return Stats{}, fmt.Errorf("load credits: %w", err)
	}
	if in.TotalClassHours, err = s.courses.TotalClassHours(ctx, semester); err != nil {
		return Stats{}, fmt.Errorf("load class hours: %w", err)
	}
	if in.PendingTaskCount, err = s.tasks.PendingCount(ctx); err != nil {
		return Stats{}, fmt.Errorf("load pending count: %w", err)
	}
	if in.OverdueTaskCount, err = s.tasks.OverdueCount(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("load overdue count: %w", err)
	}

	if s.prefs != nil {
		if in.WeeklyGoalPref, err = s.prefs.Int(ctx, store.KeyWeeklyStudyGoal); err != nil {
			s.log.Warn("weekly goal preference unreadable", zap.Error(err))
		}
	}
	if in.WeeklyStudyProgress, err = s.study.WeeklyHours(ctx, now); err != nil {
		return Stats{}, fmt.Errorf("load weekly study: %w", err)
	}
	dayStart := repository.StartOfDay(now)
	if in.TodayStudyTime, err = s.study.StudiedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return Stats{}, fmt.Errorf("load today's study: %w", err)
	}

	st := Build(in)
	s.log.Debug("dashboard loaded",
		zap.String("semester", st.Semester),
		zap.Int("pending", st.PendingTaskCount),
		zap.Int("overdue", st.OverdueTaskCount),
	)
	return st, nil
}

// CourseDetail loads a course with its blocks and pending task count.
func (s *Service) CourseDetail(ctx context.Context, id int64) (CourseDetail, error) {
	c, err := s.courses.Get(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	schedules, err := s.schedules.ByCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	pending, err := s.tasks.PendingCountByCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	return NewCourseDetail(*c, schedules, pending), nil
}

// Timetable loads the weekly timetable for the active courses.
func (s *Service) Timetable(ctx context.Context) ([]DaySchedule, error) {
	courses, err := s.courses.Active(ctx)
	if err != nil {
		return nil, err
	}
	schedules, err := s.schedules.All(ctx)
	if err != nil {
		return nil, err
	}
	return Timetable(schedules, courses), nil
}
