package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const courseColumns = `id, course_name, course_code, instructor, credits, semester, color, is_active, created_at, updated_at`

// SaveCourse inserts c when c.ID is 0 and upserts it by id otherwise.
// It returns the row id.
func (s *Store) SaveCourse(ctx context.Context, c Course) (int64, error) {
	now := ts(time.Now())
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.Color == "" {
		c.Color = CourseColors[0]
	}

	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO courses (course_name, course_code, instructor, credits, semester, color, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CourseName, c.CourseCode, c.Instructor, c.Credits, c.Semester, c.Color,
			boolInt(c.IsActive), ts(c.CreatedAt), now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert course: %w", err)
		}
		id, _ := res.LastInsertId()
		s.publish(TableCourses)
		return id, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, course_name, course_code, instructor, credits, semester, color, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_name = excluded.course_name,
			course_code = excluded.course_code,
			instructor = excluded.instructor,
			credits = excluded.credits,
			semester = excluded.semester,
			color = excluded.color,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		c.ID, c.CourseName, c.CourseCode, c.Instructor, c.Credits, c.Semester, c.Color,
		boolInt(c.IsActive), ts(c.CreatedAt), now,
	)
	if err != nil {
		return 0, fmt.Errorf("save course %d: %w", c.ID, err)
	}
	s.publish(TableCourses)
	return c.ID, nil
}

func (s *Store) GetCourse(ctx context.Context, id int64) (*Course, error) {
	c := &Course{}
	err := s.db.GetContext(ctx, c, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) listCourses(ctx context.Context, op, where string, args ...any) ([]Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY course_code, course_name`

	var courses []Course
	if err := s.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// ListCourses returns every course, archived ones included.
func (s *Store) ListCourses(ctx context.Context) ([]Course, error) {
	return s.listCourses(ctx, "list courses", "")
}

func (s *Store) ListActiveCourses(ctx context.Context) ([]Course, error) {
	return s.listCourses(ctx, "list active courses", `is_active = 1`)
}

// ListCoursesBySemester returns the active courses of a semester.
func (s *Store) ListCoursesBySemester(ctx context.Context, semester string) ([]Course, error) {
	return s.listCourses(ctx, "list courses by semester", `semester = ? AND is_active = 1`, semester)
}

// SearchCourses matches name, code or instructor among active courses.
func (s *Store) SearchCourses(ctx context.Context, query string) ([]Course, error) {
	like := "%" + query + "%"
	return s.listCourses(ctx, "search courses",
		`is_active = 1 AND (course_name LIKE ? OR course_code LIKE ? OR instructor LIKE ?)`,
		like, like, like)
}

func (s *Store) ListCoursesByInstructor(ctx context.Context, instructor string) ([]Course, error) {
	return s.listCourses(ctx, "list courses by instructor",
		`instructor = ? AND is_active = 1`, instructor)
}

// DeleteCourse removes the course; its schedules and tasks go with it.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete course %d: %w", id, ErrNotFound)
	}
	s.publish(TableCourses, TableSchedules, TableTasks, TableSessions)
	return nil
}

func (s *Store) setCourseActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolInt(active), ts(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set course %d active=%t: %w", id, active, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set course %d active=%t: %w", id, active, ErrNotFound)
	}
	s.publish(TableCourses)
	return nil
}

// ArchiveCourse hides the course from active lists. Rows are kept.
func (s *Store) ArchiveCourse(ctx context.Context, id int64) error {
	return s.setCourseActive(ctx, id, false)
}

func (s *Store) UnarchiveCourse(ctx context.Context, id int64) error {
	return s.setCourseActive(ctx, id, true)
}

func (s *Store) TotalCreditsBySemester(ctx context.Context, semester string) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(credits), 0) FROM courses WHERE semester = ? AND is_active = 1`, semester)
	if err != nil {
		return 0, fmt.Errorf("total credits for %q: %w", semester, err)
	}
	return total, nil
}

func (s *Store) TotalActiveCredits(ctx context.Context) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(credits), 0) FROM courses WHERE is_active = 1`)
	if err != nil {
		return 0, fmt.Errorf("total active credits: %w", err)
	}
	return total, nil
}

func (s *Store) CourseCountBySemester(ctx context.Context, semester string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM courses WHERE semester = ? AND is_active = 1`, semester)
	if err != nil {
		return 0, fmt.Errorf("course count for %q: %w", semester, err)
	}
	return n, nil
}

func (s *Store) ActiveCourseCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM courses WHERE is_active = 1`); err != nil {
		return 0, fmt.Errorf("active course count: %w", err)
	}
	return n, nil
}

// CourseCodeExists reports whether an active course already uses code.
func (s *Store) CourseCodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM courses WHERE course_code = ? AND is_active = 1`, code)
	if err != nil {
		return false, fmt.Errorf("course code exists %q: %w", code, err)
	}
	return n > 0, nil
}

func (s *Store) DeleteAllCourses(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("delete all courses: %w", err)
	}
	s.publish(TableCourses, TableSchedules, TableTasks, TableSessions)
	return nil
}
