package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const taskColumns = `id, course_id, title, description, due_date, due_time, priority,
	is_completed, completed_at, created_at, updated_at`

// SaveTask inserts t when t.ID is 0 and upserts it by id otherwise.
// completed_at is kept consistent with is_completed.
func (s *Store) SaveTask(ctx context.Context, t Task) (int64, error) {
	now := ts(time.Now())
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	switch {
	case t.IsCompleted && t.CompletedAt == nil:
		t.CompletedAt = &now
	case !t.IsCompleted:
		t.CompletedAt = nil
	}

	if t.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO tasks (course_id, title, description, due_date, due_time, priority,
				is_completed, completed_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.CourseID, t.Title, t.Description, ts(t.DueDate), t.DueTime, t.Priority,
			boolInt(t.IsCompleted), tsPtr(t.CompletedAt), ts(t.CreatedAt), now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert task: %w", err)
		}
		id, _ := res.LastInsertId()
		s.publish(TableTasks)
		return id, nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, course_id, title, description, due_date, due_time, priority,
			is_completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course_id = excluded.course_id,
			title = excluded.title,
			description = excluded.description,
			due_date = excluded.due_date,
			due_time = excluded.due_time,
			priority = excluded.priority,
			is_completed = excluded.is_completed,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		t.ID, t.CourseID, t.Title, t.Description, ts(t.DueDate), t.DueTime, t.Priority,
		boolInt(t.IsCompleted), tsPtr(t.CompletedAt), ts(t.CreatedAt), now,
	)
	if err != nil {
		return 0, fmt.Errorf("save task %d: %w", t.ID, err)
	}
	s.publish(TableTasks)
	return t.ID, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	t := &Task{}
	err := s.db.GetContext(ctx, t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (s *Store) listTasks(ctx context.Context, op, where, order string, args ...any) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if where != "" {
		query += ` WHERE ` + where
	}
	if order == "" {
		order = `due_date ASC, id ASC`
	}
	query += ` ORDER BY ` + order

	var tasks []Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	return s.listTasks(ctx, "list tasks", "", "")
}

func (s *Store) ListTasksByCourse(ctx context.Context, courseID int64) ([]Task, error) {
	return s.listTasks(ctx, "list tasks by course", `course_id = ?`, "", courseID)
}

// ListPendingTasks returns incomplete tasks, soonest due first.
func (s *Store) ListPendingTasks(ctx context.Context) ([]Task, error) {
	return s.listTasks(ctx, "list pending tasks", `is_completed = 0`, "")
}

// ListCompletedTasks returns completed tasks, most recently completed first.
func (s *Store) ListCompletedTasks(ctx context.Context) ([]Task, error) {
	return s.listTasks(ctx, "list completed tasks", `is_completed = 1`, `completed_at DESC, id DESC`)
}

func (s *Store) ListOverdueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	return s.listTasks(ctx, "list overdue tasks", `is_completed = 0 AND due_date < ?`, "", ts(now))
}

// ListTasksDueBetween returns pending tasks with from <= due_date < to.
func (s *Store) ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]Task, error) {
	return s.listTasks(ctx, "list tasks due between",
		`is_completed = 0 AND due_date >= ? AND due_date < ?`, "", ts(from), ts(to))
}

func (s *Store) ListTasksByPriority(ctx context.Context, priority string) ([]Task, error) {
	return s.listTasks(ctx, "list tasks by priority", `priority = ? AND is_completed = 0`, "", priority)
}

// SearchTasks matches title or description.
func (s *Store) SearchTasks(ctx context.Context, query string) ([]Task, error) {
	like := "%" + query + "%"
	return s.listTasks(ctx, "search tasks", `title LIKE ? OR description LIKE ?`, "", like, like)
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	s.publish(TableTasks)
	return nil
}

func (s *Store) DeleteTasksByCourse(ctx context.Context, courseID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("delete tasks for course %d: %w", courseID, err)
	}
	s.publish(TableTasks)
	return nil
}

func (s *Store) MarkTaskComplete(ctx context.Context, id int64, at time.Time) error {
	return s.setTaskCompleted(ctx, id, true, &at)
}

func (s *Store) MarkTaskIncomplete(ctx context.Context, id int64) error {
	return s.setTaskCompleted(ctx, id, false, nil)
}

func (s *Store) setTaskCompleted(ctx context.Context, id int64, done bool, at *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET is_completed = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		boolInt(done), tsPtr(at), ts(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("set task %d completed=%t: %w", id, done, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set task %d completed=%t: %w", id, done, ErrNotFound)
	}
	s.publish(TableTasks)
	return nil
}

func (s *Store) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Store) PendingTaskCount(ctx context.Context) (int, error) {
	return s.count(ctx, "pending task count", `SELECT COUNT(*) FROM tasks WHERE is_completed = 0`)
}

func (s *Store) PendingTaskCountByCourse(ctx context.Context, courseID int64) (int, error) {
	return s.count(ctx, "pending task count by course",
		`SELECT COUNT(*) FROM tasks WHERE course_id = ? AND is_completed = 0`, courseID)
}

func (s *Store) CompletedTaskCount(ctx context.Context) (int, error) {
	return s.count(ctx, "completed task count", `SELECT COUNT(*) FROM tasks WHERE is_completed = 1`)
}

func (s *Store) OverdueTaskCount(ctx context.Context, now time.Time) (int, error) {
	return s.count(ctx, "overdue task count",
		`SELECT COUNT(*) FROM tasks WHERE is_completed = 0 AND due_date < ?`, ts(now))
}

func (s *Store) DeleteCompletedTasks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE is_completed = 1`)
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}
	n, _ := res.RowsAffected()
	s.publish(TableTasks)
	return n, nil
}

func (s *Store) DeleteAllTasks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("delete all tasks: %w", err)
	}
	s.publish(TableTasks)
	return nil
}
