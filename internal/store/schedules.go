package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const scheduleColumns = `id, course_id, days, start_time, end_time, location, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveSchedule(ctx context.Context, db execer, cs ClassSchedule) (int64, error) {
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = time.Now()
	}
	if cs.ID == 0 {
		res, err := db.ExecContext(ctx, `
			INSERT INTO class_schedules (course_id, days, start_time, end_time, location, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			cs.CourseID, cs.Days, cs.StartTime, cs.EndTime, cs.Location, ts(cs.CreatedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("insert schedule: %w", err)
		}
		id, _ := res.LastInsertId()
		return id, nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO class_schedules (id, course_id, days, start_time, end_time, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_id = excluded.course_id,
			days = excluded.days,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			location = excluded.location`,
		cs.ID, cs.CourseID, cs.Days, cs.StartTime, cs.EndTime, cs.Location, ts(cs.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("save schedule %d: %w", cs.ID, err)
	}
	return cs.ID, nil
}

// SaveSchedule inserts or upserts one schedule block.
func (s *Store) SaveSchedule(ctx context.Context, cs ClassSchedule) (int64, error) {
	id, err := saveSchedule(ctx, s.db, cs)
	if err != nil {
		return 0, err
	}
	s.publish(TableSchedules)
	return id, nil
}

// SaveSchedules writes all blocks in one transaction.
func (s *Store) SaveSchedules(ctx context.Context, schedules []ClassSchedule) ([]int64, error) {
	var ids []int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, cs := range schedules {
			id, err := saveSchedule(ctx, tx, cs)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(TableSchedules)
	return ids, nil
}

// ReplaceCourseSchedules swaps a course's blocks for schedules atomically.
func (s *Store) ReplaceCourseSchedules(ctx context.Context, courseID int64, schedules []ClassSchedule) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_schedules WHERE course_id = ?`, courseID); err != nil {
			return fmt.Errorf("clear schedules for course %d: %w", courseID, err)
		}
		for _, cs := range schedules {
			cs.ID = 0
			cs.CourseID = courseID
			if _, err := saveSchedule(ctx, tx, cs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(TableSchedules)
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (*ClassSchedule, error) {
	cs := &ClassSchedule{}
	err := s.db.GetContext(ctx, cs, `SELECT `+scheduleColumns+` FROM class_schedules WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get schedule %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule %d: %w", id, err)
	}
	return cs, nil
}

func (s *Store) listSchedules(ctx context.Context, op, where string, args ...any) ([]ClassSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM class_schedules`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY start_time, id`

	var out []ClassSchedule
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]ClassSchedule, error) {
	return s.listSchedules(ctx, "list schedules", "")
}

func (s *Store) ListSchedulesByCourse(ctx context.Context, courseID int64) ([]ClassSchedule, error) {
	return s.listSchedules(ctx, "list schedules by course", `course_id = ?`, courseID)
}

// ListSchedulesByDay is a LIKE prefilter on the days column. It can return
// false positives; callers confirm membership with ClassSchedule.IsOnDay.
func (s *Store) ListSchedulesByDay(ctx context.Context, day string) ([]ClassSchedule, error) {
	return s.listSchedules(ctx, "list schedules by day", `days LIKE ?`, "%"+day+"%")
}

func (s *Store) ListSchedulesByLocation(ctx context.Context, location string) ([]ClassSchedule, error) {
	return s.listSchedules(ctx, "list schedules by location", `location = ?`, location)
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM class_schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete schedule %d: %w", id, ErrNotFound)
	}
	s.publish(TableSchedules)
	return nil
}

func (s *Store) DeleteSchedulesByCourse(ctx context.Context, courseID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM class_schedules WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("delete schedules for course %d: %w", courseID, err)
	}
	s.publish(TableSchedules)
	return nil
}

func (s *Store) ScheduleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM class_schedules`); err != nil {
		return 0, fmt.Errorf("schedule count: %w", err)
	}
	return n, nil
}

func (s *Store) CourseHasSchedules(ctx context.Context, courseID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM class_schedules WHERE course_id = ?`, courseID)
	if err != nil {
		return false, fmt.Errorf("course %d has schedules: %w", courseID, err)
	}
	return n > 0, nil
}

func (s *Store) DeleteAllSchedules(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM class_schedules`); err != nil {
		return fmt.Errorf("delete all schedules: %w", err)
	}
	s.publish(TableSchedules)
	return nil
}

// inTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
