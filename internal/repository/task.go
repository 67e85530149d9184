package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

type TaskStore interface {
	SaveTask(ctx context.Context, t store.Task) (int64, error)
	GetTask(ctx context.Context, id int64) (*store.Task, error)
	ListTasks(ctx context.Context) ([]store.Task, error)
	ListTasksByCourse(ctx context.Context, courseID int64) ([]store.Task, error)
	ListPendingTasks(ctx context.Context) ([]store.Task, error)
	ListCompletedTasks(ctx context.Context) ([]store.Task, error)
	ListOverdueTasks(ctx context.Context, now time.Time) ([]store.Task, error)
	ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]store.Task, error)
	ListTasksByPriority(ctx context.Context, priority string) ([]store.Task, error)
	SearchTasks(ctx context.Context, query string) ([]store.Task, error)
	MarkTaskComplete(ctx context.Context, id int64, at time.Time) error
	MarkTaskIncomplete(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error
	DeleteCompletedTasks(ctx context.Context) (int64, error)
	PendingTaskCount(ctx context.Context) (int, error)
	PendingTaskCountByCourse(ctx context.Context, courseID int64) (int, error)
	CompletedTaskCount(ctx context.Context) (int, error)
	OverdueTaskCount(ctx context.Context, now time.Time) (int, error)
}

type TaskRepository struct {
	store TaskStore
	log   *zap.Logger
}

func NewTaskRepository(s TaskStore, log *zap.Logger) *TaskRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskRepository{store: s, log: log.Named("tasks")}
}

// TaskStats summarizes the task list.
type TaskStats struct {
	Total     int
	Pending   int
	Completed int
	Overdue   int
}

// ValidateAndSave checks t and writes it. The due date must lie after now
// only for new tasks; existing tasks may keep a past due date.
func (r *TaskRepository) ValidateAndSave(ctx context.Context, t store.Task, now time.Time) (int64, error) {
	if err := checkStruct(t, []rule{{"Title", "Task title cannot be empty"}}); err != nil {
		return 0, err
	}
	if t.ID == 0 && t.DueDate.Before(now) {
		return 0, invalid("DueDate", "Due date must be in the future")
	}
	if err := checkStruct(t, []rule{{"Priority", "Invalid priority. Must be Low, Medium, or High"}}); err != nil {
		return 0, err
	}

	id, err := r.store.SaveTask(ctx, t)
	if err != nil {
		return 0, err
	}
	r.log.Debug("task saved", zap.Int64("id", id), zap.Int64("course_id", t.CourseID))
	return id, nil
}

// ToggleCompletion flips the task's completed flag and returns the new state.
func (r *TaskRepository) ToggleCompletion(ctx context.Context, id int64, now time.Time) (bool, error) {
	t, err := r.store.GetTask(ctx, id)
	if err != nil {
		return false, err
	}
	if t.IsCompleted {
		return false, r.store.MarkTaskIncomplete(ctx, id)
	}
	return true, r.store.MarkTaskComplete(ctx, id, now)
}

func (r *TaskRepository) Statistics(ctx context.Context, now time.Time) (TaskStats, error) {
	var st TaskStats
	var err error
	if st.Pending, err = r.store.PendingTaskCount(ctx); err != nil {
		return st, err
	}
	if st.Completed, err = r.store.CompletedTaskCount(ctx); err != nil {
		return st, err
	}
	if st.Overdue, err = r.store.OverdueTaskCount(ctx, now); err != nil {
		return st, err
	}
	st.Total = st.Pending + st.Completed
	return st, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*store.Task, error) {
	return r.store.GetTask(ctx, id)
}

func (r *TaskRepository) All(ctx context.Context) ([]store.Task, error) {
	return r.store.ListTasks(ctx)
}

func (r *TaskRepository) ByCourse(ctx context.Context, courseID int64) ([]store.Task, error) {
	return r.store.ListTasksByCourse(ctx, courseID)
}

func (r *TaskRepository) Pending(ctx context.Context) ([]store.Task, error) {
	return r.store.ListPendingTasks(ctx)
}

func (r *TaskRepository) Completed(ctx context.Context) ([]store.Task, error) {
	return r.store.ListCompletedTasks(ctx)
}

func (r *TaskRepository) PendingCount(ctx context.Context) (int, error) {
	return r.store.PendingTaskCount(ctx)
}

func (r *TaskRepository) PendingCountByCourse(ctx context.Context, courseID int64) (int, error) {
	return r.store.PendingTaskCountByCourse(ctx, courseID)
}

func (r *TaskRepository) OverdueCount(ctx context.Context, now time.Time) (int, error) {
	return r.store.OverdueTaskCount(ctx, now)
}

func (r *TaskRepository) Overdue(ctx context.Context, now time.Time) ([]store.Task, error) {
	return r.store.ListOverdueTasks(ctx, now)
}

func (r *TaskRepository) HighPriorityPending(ctx context.Context) ([]store.Task, error) {
	return r.store.ListTasksByPriority(ctx, store.PriorityHigh)
}

// DueToday returns pending tasks due on now's calendar day in now's location.
func (r *TaskRepository) DueToday(ctx context.Context, now time.Time) ([]store.Task, error) {
	start := StartOfDay(now)
	return r.store.ListTasksDueBetween(ctx, start, start.AddDate(0, 0, 1))
}

// DueThisWeek returns pending tasks due within the next seven days.
func (r *TaskRepository) DueThisWeek(ctx context.Context, now time.Time) ([]store.Task, error) {
	return r.store.ListTasksDueBetween(ctx, now, now.AddDate(0, 0, 7))
}

func (r *TaskRepository) Search(ctx context.Context, query string) ([]store.Task, error) {
	return r.store.SearchTasks(ctx, query)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteTask(ctx, id)
}

func (r *TaskRepository) ClearCompleted(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteCompletedTasks(ctx)
	if err != nil {
		return 0, err
	}
	r.log.Info("completed tasks cleared", zap.Int64("count", n))
	return n, nil
}

// StartOfDay is midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
