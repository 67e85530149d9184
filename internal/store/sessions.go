package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

const sessionColumns = `id, course_id, start_time, end_time, duration, notes, created_at`

// StartSession opens a study session, optionally tied to a course.
func (s *Store) StartSession(ctx context.Context, courseID *int64, at time.Time) (*StudySession, error) {
	at = ts(at)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO study_sessions (course_id, start_time, created_at) VALUES (?, ?, ?)`,
		courseID, at, at,
	)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	id, _ := res.LastInsertId()
	s.publish(TableSessions)
	return s.GetSession(ctx, id)
}

// StopSession closes a running session and records its duration in seconds.
func (s *Store) StopSession(ctx context.Context, id int64, at time.Time) (*StudySession, error) {
	cur, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.Running() {
		return cur, nil
	}

	at = ts(at)
	duration := int64(at.Sub(cur.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE study_sessions SET end_time = ?, duration = ? WHERE id = ?`, at, duration, id)
	if err != nil {
		return nil, fmt.Errorf("stop session %d: %w", id, err)
	}
	s.publish(TableSessions)
	return s.GetSession(ctx, id)
}

func (s *Store) GetSession(ctx context.Context, id int64) (*StudySession, error) {
	ss := &StudySession{}
	err := s.db.GetContext(ctx, ss, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return ss, nil
}

// GetRunningSession returns the newest open session, or nil when none runs.
func (s *Store) GetRunningSession(ctx context.Context) (*StudySession, error) {
	ss := &StudySession{}
	err := s.db.GetContext(ctx, ss, `SELECT `+sessionColumns+`
		FROM study_sessions WHERE end_time IS NULL ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get running session: %w", err)
	}
	return ss, nil
}

func (s *Store) UpdateSessionNotes(ctx context.Context, id int64, notes string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE study_sessions SET notes = ? WHERE id = ?`, notes, id); err != nil {
		return fmt.Errorf("update session %d notes: %w", id, err)
	}
	s.publish(TableSessions)
	return nil
}

func (s *Store) ListSessions(ctx context.Context, f SessionFilter) ([]StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE 1=1`
	var args []any

	if f.CourseID != nil {
		query += ` AND course_id = ?`
		args = append(args, *f.CourseID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, ts(*f.From))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, ts(*f.To))
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	var sessions []StudySession
	if err := s.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// StudySecondsBetween sums finished sessions that started in [from, to).
func (s *Store) StudySecondsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(duration), 0) FROM study_sessions
		WHERE end_time IS NOT NULL AND start_time >= ? AND start_time < ?`,
		ts(from), ts(to),
	)
	if err != nil {
		return 0, fmt.Errorf("study seconds: %w", err)
	}
	return total, nil
}

type sessionSpan struct {
	StartTime  time.Time `db:"start_time"`
	CourseID   int64     `db:"course_id"`
	CourseCode string    `db:"course_code"`
	Color      string    `db:"color"`
	Duration   int64     `db:"duration"`
}

// DailyStudySummary groups finished sessions in [from, to) by calendar day
// in from's location and by course. Sessions without a course are reported
// with CourseID 0.
func (s *Store) DailyStudySummary(ctx context.Context, from, to time.Time) ([]DailyStudy, error) {
	var spans []sessionSpan
	err := s.db.SelectContext(ctx, &spans, `
		SELECT ss.start_time AS start_time,
		       COALESCE(ss.course_id, 0) AS course_id,
		       COALESCE(c.course_code, 'General') AS course_code,
		       COALESCE(c.color, '#607D8B') AS color,
		       COALESCE(ss.duration, 0) AS duration
		FROM study_sessions ss
		LEFT JOIN courses c ON c.id = ss.course_id
		WHERE ss.end_time IS NOT NULL
		  AND ss.start_time >= ? AND ss.start_time < ?
		ORDER BY ss.start_time`,
		ts(from), ts(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily study summary: %w", err)
	}

	type bucket struct {
		day      string
		courseID int64
	}
	loc := from.Location()
	index := make(map[bucket]int)
	var out []DailyStudy
	for _, sp := range spans {
		k := bucket{sp.StartTime.In(loc).Format("2006-01-02"), sp.CourseID}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, DailyStudy{Date: k.day, CourseID: sp.CourseID, CourseCode: sp.CourseCode, CourseColor: sp.Color})
		}
		out[i].TotalSeconds += sp.Duration
		out[i].SessionCount++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CourseCode < out[j].CourseCode
	})
	return out, nil
}
