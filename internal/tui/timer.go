package tui

import (
	"context"
	"time"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// timerState tracks the current state of the study timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

const defaultIdleTimeout = 5 * time.Minute

// timerModel drives the open study session. Paused time is not studied
// time: stopping records the session as ending at start plus elapsed.
type timerModel struct {
	study *repository.StudyRepository
	now   func() time.Time

	state     timerState
	startTime time.Time
	elapsed   time.Duration
	pausedAt  time.Time
	pauseGap  time.Duration

	courseID   *int64
	courseName string
	sessionID  int64

	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(study *repository.StudyRepository, now func() time.Time) timerModel {
	if now == nil {
		now = time.Now
	}
	return timerModel{
		study:        study,
		now:          now,
		state:        timerStopped,
		lastActivity: now(),
		idleTimeout:  defaultIdleTimeout,
	}
}

func (t *timerModel) setIdleTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultIdleTimeout
	}
	t.idleTimeout = d
}

// start opens a session for courseID (nil for general study).
func (t *timerModel) start(ctx context.Context, courseID *int64, courseName string) error {
	session, err := t.study.Start(ctx, courseID, t.now())
	if err != nil {
		return err
	}
	t.attach(session, courseName)
	return nil
}

// attach resumes display of a session that was already open, e.g. one left
// running by a previous run of the program.
func (t *timerModel) attach(session *store.StudySession, courseName string) {
	t.state = timerRunning
	t.startTime = session.StartTime
	t.elapsed = t.now().Sub(session.StartTime)
	t.pauseGap = 0
	t.courseID = session.CourseID
	t.courseName = courseName
	t.sessionID = session.ID
	t.lastActivity = t.now()
	t.isIdle = false
}

func (t *timerModel) stop(ctx context.Context) (*store.StudySession, error) {
	if t.state == timerStopped {
		return nil, nil
	}
	end := t.startTime.Add(t.currentElapsed())
	session, err := t.study.Stop(ctx, end)
	if err != nil {
		return nil, err
	}
	t.state = timerStopped
	t.elapsed = 0
	t.sessionID = 0
	return session, nil
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += t.now().Sub(t.pausedAt)
	t.state = timerRunning
	t.isIdle = false
	t.lastActivity = t.now()
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t *timerModel) tick() {
	if t.state != timerRunning {
		return
	}
	t.elapsed = t.now().Sub(t.startTime) - t.pauseGap
	if t.now().Sub(t.lastActivity) > t.idleTimeout && !t.isIdle {
		t.isIdle = true
		t.pause()
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
	}
}

func (t timerModel) running() bool { return t.state != timerStopped }

func (t timerModel) paused() bool { return t.state == timerPaused }

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	default:
		return t.now().Sub(t.startTime) - t.pauseGap
	}
}
