package tui

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/dashboard"
	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// Services bundles what the screens read and write.
type Services struct {
	Store     *store.Store
	Prefs     *store.Preferences
	Courses   *repository.CourseRepository
	Schedules *repository.ScheduleRepository
	Tasks     *repository.TaskRepository
	Students  *repository.StudentRepository
	Study     *repository.StudyRepository
	Dashboard *dashboard.Service

	ExportDir string
	Log       *zap.Logger
	Now       func() time.Time
}

// NewServices wires the repositories over s.
func NewServices(s *store.Store, exportDir string, log *zap.Logger) Services {
	if log == nil {
		log = zap.NewNop()
	}
	svc := Services{
		Store:     s,
		Prefs:     s.Preferences(),
		Courses:   repository.NewCourseRepository(s, log),
		Schedules: repository.NewScheduleRepository(s, log),
		Tasks:     repository.NewTaskRepository(s, log),
		Students:  repository.NewStudentRepository(s, log),
		Study:     repository.NewStudyRepository(s, log),
		ExportDir: exportDir,
		Log:       log.Named("tui"),
		Now:       time.Now,
	}
	svc.Dashboard = dashboard.NewService(svc.Courses, svc.Schedules, svc.Tasks, svc.Students, svc.Study, svc.Prefs, log)
	return svc
}

// semester is the profile's current semester.
func (s Services) semester(ctx context.Context) (string, error) {
	p, err := s.Students.Profile(ctx)
	if err != nil {
		return "", err
	}
	return dashboard.Semester(p), nil
}
