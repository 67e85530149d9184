package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

type StudentStore interface {
	GetProfile(ctx context.Context) (*store.Student, error)
	UpsertProfile(ctx context.Context, st store.Student) error
	UpdateBasicInfo(ctx context.Context, fullName, university, major, semester string) error
	UpdateContactInfo(ctx context.Context, email, phone string) error
	UpdateStudyGoal(ctx context.Context, hours int) error
	UpdateMotto(ctx context.Context, motto string) error
	UpdateStreak(ctx context.Context, streak int) error
	AddStudyHours(ctx context.Context, hours int) error
	UpdateSemester(ctx context.Context, semester string) error
	ProfileExists(ctx context.Context) (bool, error)
	DeleteProfile(ctx context.Context) error
}

// StreakPrefs records the last day a streak was counted.
type StreakPrefs interface {
	IsStreakValid(ctx context.Context, now time.Time) (bool, error)
	LastStreakDate(ctx context.Context, loc *time.Location) (time.Time, error)
	UpdateStreakDate(ctx context.Context, now time.Time) error
}

type StudentRepository struct {
	store StudentStore
	log   *zap.Logger
}

func NewStudentRepository(s StudentStore, log *zap.Logger) *StudentRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentRepository{store: s, log: log.Named("student")}
}

var studentRules = []rule{
	{"FullName", "Name cannot be empty"},
	{"Email", "Invalid email address"},
	{"DailyStudyGoalHours", "Daily study goal must be between 0 and 24 hours"},
}

// NewDefaultStudent is the profile created on first run.
func NewDefaultStudent(fullName string) store.Student {
	return store.Student{
		ID:                  store.ProfileID,
		FullName:            fullName,
		CurrentSemester:     store.DefaultSemester,
		DailyStudyGoalHours: 4,
		Motto:               store.DefaultMotto,
	}
}

// Profile returns the stored profile or nil.
func (r *StudentRepository) Profile(ctx context.Context) (*store.Student, error) {
	return r.store.GetProfile(ctx)
}

// GetOrCreate returns the profile, creating a default one named
// defaultName when none exists yet.
func (r *StudentRepository) GetOrCreate(ctx context.Context, defaultName string) (*store.Student, error) {
	p, err := r.store.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	if err := r.store.UpsertProfile(ctx, NewDefaultStudent(defaultName)); err != nil {
		return nil, err
	}
	r.log.Info("default profile created")
	return r.store.GetProfile(ctx)
}

// Save validates st and writes it as the single profile row.
func (r *StudentRepository) Save(ctx context.Context, st store.Student) error {
	st.ID = store.ProfileID
	if err := checkStruct(st, studentRules); err != nil {
		return err
	}
	if st.CurrentSemester == "" {
		st.CurrentSemester = store.DefaultSemester
	}
	return r.store.UpsertProfile(ctx, st)
}

func (r *StudentRepository) UpdateBasicInfo(ctx context.Context, fullName, university, major, semester string) error {
	if err := checkStruct(store.Student{FullName: fullName}, studentRules[:1]); err != nil {
		return err
	}
	return r.store.UpdateBasicInfo(ctx, fullName, university, major, semester)
}

func (r *StudentRepository) UpdateContactInfo(ctx context.Context, email, phone string) error {
	if err := checkStruct(store.Student{FullName: "-", Email: email}, studentRules[1:2]); err != nil {
		return err
	}
	return r.store.UpdateContactInfo(ctx, email, phone)
}

func (r *StudentRepository) UpdateStudyGoal(ctx context.Context, hours int) error {
	if err := checkStruct(store.Student{FullName: "-", DailyStudyGoalHours: hours}, studentRules[2:]); err != nil {
		return err
	}
	return r.store.UpdateStudyGoal(ctx, hours)
}

func (r *StudentRepository) UpdateMotto(ctx context.Context, motto string) error {
	return r.store.UpdateMotto(ctx, motto)
}

func (r *StudentRepository) UpdateSemester(ctx context.Context, semester string) error {
	if semester == "" {
		return invalid("CurrentSemester", "Semester cannot be empty")
	}
	return r.store.UpdateSemester(ctx, semester)
}

func (r *StudentRepository) AddStudyHours(ctx context.Context, hours int) error {
	if hours <= 0 {
		return nil
	}
	return r.store.AddStudyHours(ctx, hours)
}

// IncrementStreak adds one to the streak. It is a no-op without a profile.
func (r *StudentRepository) IncrementStreak(ctx context.Context) error {
	p, err := r.store.GetProfile(ctx)
	if err != nil || p == nil {
		return err
	}
	return r.store.UpdateStreak(ctx, p.CurrentStreak+1)
}

func (r *StudentRepository) ResetStreak(ctx context.Context) error {
	return r.store.UpdateStreak(ctx, 0)
}

func (r *StudentRepository) Exists(ctx context.Context) (bool, error) {
	return r.store.ProfileExists(ctx)
}

func (r *StudentRepository) IsProfileComplete(ctx context.Context) (bool, error) {
	p, err := r.store.GetProfile(ctx)
	if err != nil || p == nil {
		return false, err
	}
	return p.IsProfileComplete(), nil
}

func (r *StudentRepository) Delete(ctx context.Context) error {
	return r.store.DeleteProfile(ctx)
}

// CheckIn maintains the daily streak: the first check-in of a day extends
// the streak when the previous one was yesterday and restarts it at 1
// otherwise. Later check-ins on the same day change nothing.
func (r *StudentRepository) CheckIn(ctx context.Context, now time.Time, prefs StreakPrefs) (int, error) {
	p, err := r.store.GetProfile(ctx)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}

	last, err := prefs.LastStreakDate(ctx, now.Location())
	if err != nil {
		return 0, err
	}
	today := StartOfDay(now)
	if !last.IsZero() && last.Equal(today) {
		return p.CurrentStreak, nil
	}

	valid, err := prefs.IsStreakValid(ctx, now)
	if err != nil {
		return 0, err
	}
	streak := 1
	if valid {
		streak = p.CurrentStreak + 1
	}
	if err := r.store.UpdateStreak(ctx, streak); err != nil {
		return 0, err
	}
	if err := prefs.UpdateStreakDate(ctx, now); err != nil {
		return 0, err
	}
	r.log.Debug("streak checked in", zap.Int("streak", streak))
	return streak, nil
}
