package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

// ErrSessionRunning is returned by Start while another session is open.
var ErrSessionRunning = errors.New("a study session is already running")

type StudyStore interface {
	StartSession(ctx context.Context, courseID *int64, at time.Time) (*store.StudySession, error)
	StopSession(ctx context.Context, id int64, at time.Time) (*store.StudySession, error)
	GetRunningSession(ctx context.Context) (*store.StudySession, error)
	UpdateSessionNotes(ctx context.Context, id int64, notes string) error
	ListSessions(ctx context.Context, f store.SessionFilter) ([]store.StudySession, error)
	StudySecondsBetween(ctx context.Context, from, to time.Time) (int64, error)
	DailyStudySummary(ctx context.Context, from, to time.Time) ([]store.DailyStudy, error)
	AddStudyHours(ctx context.Context, hours int) error
}

type StudyRepository struct {
	store StudyStore
	log   *zap.Logger
}

func NewStudyRepository(s StudyStore, log *zap.Logger) *StudyRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudyRepository{store: s, log: log.Named("study")}
}

// Start opens a session. Only one session may run at a time.
func (r *StudyRepository) Start(ctx context.Context, courseID *int64, now time.Time) (*store.StudySession, error) {
	running, err := r.store.GetRunningSession(ctx)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, ErrSessionRunning
	}
	return r.store.StartSession(ctx, courseID, now)
}

// Stop closes the running session and credits its whole hours to the
// profile's lifetime total. It returns nil when nothing was running.
func (r *StudyRepository) Stop(ctx context.Context, now time.Time) (*store.StudySession, error) {
	running, err := r.store.GetRunningSession(ctx)
	if err != nil || running == nil {
		return nil, err
	}
	return r.finish(ctx, running.ID, now)
}

// Log records a finished session of length d ending at end, as the focus
// timer does after each completed work interval. Only the session it opens
// is closed, even if another one starts in between.
func (r *StudyRepository) Log(ctx context.Context, courseID *int64, end time.Time, d time.Duration) (*store.StudySession, error) {
	running, err := r.store.GetRunningSession(ctx)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, ErrSessionRunning
	}
	opened, err := r.store.StartSession(ctx, courseID, end.Add(-d))
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, opened.ID, end)
}

func (r *StudyRepository) finish(ctx context.Context, id int64, end time.Time) (*store.StudySession, error) {
	done, err := r.store.StopSession(ctx, id, end)
	if err != nil {
		return nil, err
	}
	if hours := int(done.Duration / 3600); hours > 0 {
		if err := r.store.AddStudyHours(ctx, hours); err != nil {
			return done, err
		}
	}
	r.log.Info("study session stopped", zap.Int64("id", done.ID), zap.Int64("seconds", done.Duration))
	return done, nil
}

func (r *StudyRepository) Running(ctx context.Context) (*store.StudySession, error) {
	return r.store.GetRunningSession(ctx)
}

func (r *StudyRepository) UpdateNotes(ctx context.Context, id int64, notes string) error {
	return r.store.UpdateSessionNotes(ctx, id, notes)
}

func (r *StudyRepository) List(ctx context.Context, f store.SessionFilter) ([]store.StudySession, error) {
	return r.store.ListSessions(ctx, f)
}

// WeeklyHours is the whole number of hours studied since Monday 00:00 of
// now's week.
func (r *StudyRepository) WeeklyHours(ctx context.Context, now time.Time) (int, error) {
	start := StartOfWeek(now)
	secs, err := r.store.StudySecondsBetween(ctx, start, start.AddDate(0, 0, 7))
	if err != nil {
		return 0, err
	}
	return int(secs / 3600), nil
}

// StudiedBetween totals finished sessions starting in [from, to).
func (r *StudyRepository) StudiedBetween(ctx context.Context, from, to time.Time) (time.Duration, error) {
	secs, err := r.store.StudySecondsBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func (r *StudyRepository) DailySummary(ctx context.Context, from, to time.Time) ([]store.DailyStudy, error) {
	return r.store.DailyStudySummary(ctx, from, to)
}

// StartOfWeek is Monday 00:00 of t's week in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
