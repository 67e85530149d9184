package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

// CourseStore is the slice of the store the course repository needs.
type CourseStore interface {
	SaveCourse(ctx context.Context, c store.Course) (int64, error)
	GetCourse(ctx context.Context, id int64) (*store.Course, error)
	ListCourses(ctx context.Context) ([]store.Course, error)
	ListActiveCourses(ctx context.Context) ([]store.Course, error)
	ListCoursesBySemester(ctx context.Context, semester string) ([]store.Course, error)
	SearchCourses(ctx context.Context, query string) ([]store.Course, error)
	CourseCodeExists(ctx context.Context, code string) (bool, error)
	ArchiveCourse(ctx context.Context, id int64) error
	UnarchiveCourse(ctx context.Context, id int64) error
	DeleteCourse(ctx context.Context, id int64) error
	TotalCreditsBySemester(ctx context.Context, semester string) (int, error)
	ListSchedulesByCourse(ctx context.Context, courseID int64) ([]store.ClassSchedule, error)
}

type CourseRepository struct {
	store CourseStore
	log   *zap.Logger
}

func NewCourseRepository(s CourseStore, log *zap.Logger) *CourseRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &CourseRepository{store: s, log: log.Named("courses")}
}

var courseRules = []rule{
	{"Credits", "Credits must be greater than 0"},
	{"Semester", "Semester cannot be empty"},
}

// ValidateAndSave checks c and writes it, returning the row id. New courses
// may not reuse the code of an active course. New courses start active.
func (r *CourseRepository) ValidateAndSave(ctx context.Context, c store.Course) (int64, error) {
	if c.ID == 0 {
		exists, err := r.store.CourseCodeExists(ctx, c.CourseCode)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, invalid("CourseCode", fmt.Sprintf("Course code %s already exists", c.CourseCode))
		}
		c.IsActive = true
	}
	if err := checkStruct(c, courseRules); err != nil {
		return 0, err
	}

	id, err := r.store.SaveCourse(ctx, c)
	if err != nil {
		return 0, err
	}
	r.log.Debug("course saved", zap.Int64("id", id), zap.String("code", c.CourseCode))
	return id, nil
}

func (r *CourseRepository) Get(ctx context.Context, id int64) (*store.Course, error) {
	return r.store.GetCourse(ctx, id)
}

func (r *CourseRepository) All(ctx context.Context) ([]store.Course, error) {
	return r.store.ListCourses(ctx)
}

func (r *CourseRepository) Active(ctx context.Context) ([]store.Course, error) {
	return r.store.ListActiveCourses(ctx)
}

func (r *CourseRepository) BySemester(ctx context.Context, semester string) ([]store.Course, error) {
	return r.store.ListCoursesBySemester(ctx, semester)
}

func (r *CourseRepository) Search(ctx context.Context, query string) ([]store.Course, error) {
	return r.store.SearchCourses(ctx, query)
}

func (r *CourseRepository) Archive(ctx context.Context, id int64) error {
	if err := r.store.ArchiveCourse(ctx, id); err != nil {
		return err
	}
	r.log.Info("course archived", zap.Int64("id", id))
	return nil
}

func (r *CourseRepository) Unarchive(ctx context.Context, id int64) error {
	return r.store.UnarchiveCourse(ctx, id)
}

// Delete removes the course along with its schedules and tasks.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteCourse(ctx, id); err != nil {
		return err
	}
	r.log.Info("course deleted", zap.Int64("id", id))
	return nil
}

func (r *CourseRepository) TotalCreditsBySemester(ctx context.Context, semester string) (int, error) {
	return r.store.TotalCreditsBySemester(ctx, semester)
}

// TotalClassHours is the weekly time spent in class for a semester's active
// courses: each block's length times the number of days it meets.
func (r *CourseRepository) TotalClassHours(ctx context.Context, semester string) (time.Duration, error) {
	courses, err := r.store.ListCoursesBySemester(ctx, semester)
	if err != nil {
		return 0, err
	}
	var total time.Duration
	for _, c := range courses {
		schedules, err := r.store.ListSchedulesByCourse(ctx, c.ID)
		if err != nil {
			return 0, err
		}
		for _, cs := range schedules {
			total += ClockSpan(cs.StartTime, cs.EndTime) * time.Duration(len(cs.DaysList()))
		}
	}
	return total, nil
}
