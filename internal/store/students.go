package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const studentColumns = `id, full_name, university, major, current_semester, email, phone_number,
	daily_study_goal_hours, motto, current_streak, total_study_hours, created_at, updated_at`

// GetProfile returns the student profile, or nil when none has been saved.
func (s *Store) GetProfile(ctx context.Context) (*Student, error) {
	st := &Student{}
	err := s.db.GetContext(ctx, st, `SELECT `+studentColumns+` FROM student_profile WHERE id = ?`, ProfileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return st, nil
}

// UpsertProfile writes st as the single profile row. The id is forced to 1.
func (s *Store) UpsertProfile(ctx context.Context, st Student) error {
	now := ts(time.Now())
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_profile (id, full_name, university, major, current_semester, email,
			phone_number, daily_study_goal_hours, motto, current_streak, total_study_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			university = excluded.university,
			major = excluded.major,
			current_semester = excluded.current_semester,
			email = excluded.email,
			phone_number = excluded.phone_number,
			daily_study_goal_hours = excluded.daily_study_goal_hours,
			motto = excluded.motto,
			current_streak = excluded.current_streak,
			total_study_hours = excluded.total_study_hours,
			updated_at = excluded.updated_at`,
		ProfileID, st.FullName, st.University, st.Major, st.CurrentSemester, st.Email,
		st.PhoneNumber, st.DailyStudyGoalHours, st.Motto, st.CurrentStreak, st.TotalStudyHours,
		ts(st.CreatedAt), now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	s.publish(TableStudents)
	return nil
}

// updateProfile runs a partial UPDATE of the profile row and stamps updated_at.
func (s *Store) updateProfile(ctx context.Context, op, set string, args ...any) error {
	args = append(args, ts(time.Now()), ProfileID)
	_, err := s.db.ExecContext(ctx,
		`UPDATE student_profile SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.publish(TableStudents)
	return nil
}

func (s *Store) UpdateBasicInfo(ctx context.Context, fullName, university, major, semester string) error {
	return s.updateProfile(ctx, "update basic info",
		`full_name = ?, university = ?, major = ?, current_semester = ?`, fullName, university, major, semester)
}

func (s *Store) UpdateContactInfo(ctx context.Context, email, phone string) error {
	return s.updateProfile(ctx, "update contact info",
		`email = ?, phone_number = ?`, email, phone)
}

func (s *Store) UpdateStudyGoal(ctx context.Context, hours int) error {
	return s.updateProfile(ctx, "update study goal", `daily_study_goal_hours = ?`, hours)
}

func (s *Store) UpdateMotto(ctx context.Context, motto string) error {
	return s.updateProfile(ctx, "update motto", `motto = ?`, motto)
}

func (s *Store) UpdateStreak(ctx context.Context, streak int) error {
	return s.updateProfile(ctx, "update streak", `current_streak = ?`, streak)
}

// AddStudyHours increments the lifetime study hour counter.
func (s *Store) AddStudyHours(ctx context.Context, hours int) error {
	return s.updateProfile(ctx, "add study hours",
		`total_study_hours = total_study_hours + ?`, hours)
}

func (s *Store) UpdateSemester(ctx context.Context, semester string) error {
	return s.updateProfile(ctx, "update semester", `current_semester = ?`, semester)
}

func (s *Store) ProfileExists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM student_profile`); err != nil {
		return false, fmt.Errorf("profile exists: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteProfile(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM student_profile`); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	s.publish(TableStudents)
	return nil
}
