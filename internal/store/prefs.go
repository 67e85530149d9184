package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Preference keys stored in the settings table.
const (
	KeyThemeMode              = "theme_mode"
	KeyFirstRun               = "first_run"
	KeyLastStreakDate         = "last_streak_date"
	KeyCurrentSemester        = "current_semester"
	KeyClassRemindersEnabled  = "class_reminders_enabled"
	KeyClassReminderMinutes   = "class_reminder_minutes"
	KeyTaskRemindersEnabled   = "task_reminders_enabled"
	KeyStreakRemindersEnabled = "streak_reminders_enabled"
	KeyDailyStudyGoal         = "daily_study_goal"
	KeyWeeklyStudyGoal        = "weekly_study_goal"
	KeyOnboardingComplete     = "onboarding_complete"
	KeyFocusWork              = "focus_work"
	KeyFocusBreak             = "focus_break"
	KeyFocusLongBreak         = "focus_long_break"
	KeyFocusCount             = "focus_count"
	KeyIdleTimeout            = "idle_timeout"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

const streakDateLayout = "2006-01-02"

var defaultSettings = []Setting{
	{KeyThemeMode, ThemeSystem},
	{KeyFirstRun, "true"},
	{KeyLastStreakDate, ""},
	{KeyCurrentSemester, DefaultSemester},
	{KeyClassRemindersEnabled, "true"},
	{KeyClassReminderMinutes, "15"},
	{KeyTaskRemindersEnabled, "true"},
	{KeyStreakRemindersEnabled, "true"},
	{KeyDailyStudyGoal, "4"},
	{KeyWeeklyStudyGoal, "20"},
	{KeyOnboardingComplete, "false"},
	{KeyFocusWork, "1500"},
	{KeyFocusBreak, "300"},
	{KeyFocusLongBreak, "900"},
	{KeyFocusCount, "4"},
	{KeyIdleTimeout, "300"},
}

// DefaultSetting returns the built-in value for key and whether one exists.
func DefaultSetting(key string) (string, bool) {
	for _, d := range defaultSettings {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// Preferences is a typed view over the settings table. Missing or
// unparsable values fall back to their defaults.
type Preferences struct {
	s *Store
}

func (s *Store) Preferences() *Preferences { return &Preferences{s: s} }

func (p *Preferences) String(ctx context.Context, key string) (string, error) {
	v, err := p.s.GetSetting(ctx, key)
	if errors.Is(err, ErrNotFound) {
		def, _ := DefaultSetting(key)
		return def, nil
	}
	return v, err
}

func (p *Preferences) Int(ctx context.Context, key string) (int, error) {
	v, err := p.String(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		def, _ := DefaultSetting(key)
		n, _ = strconv.Atoi(def)
	}
	return n, nil
}

func (p *Preferences) Bool(ctx context.Context, key string) (bool, error) {
	v, err := p.String(ctx, key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		def, _ := DefaultSetting(key)
		b, _ = strconv.ParseBool(def)
	}
	return b, nil
}

func (p *Preferences) SetString(ctx context.Context, key, value string) error {
	return p.s.SetSetting(ctx, key, value)
}

func (p *Preferences) SetInt(ctx context.Context, key string, value int) error {
	return p.s.SetSetting(ctx, key, strconv.Itoa(value))
}

func (p *Preferences) SetBool(ctx context.Context, key string, value bool) error {
	return p.s.SetSetting(ctx, key, strconv.FormatBool(value))
}

func (p *Preferences) ThemeMode(ctx context.Context) (string, error) {
	v, err := p.String(ctx, KeyThemeMode)
	if err != nil {
		return "", err
	}
	switch v {
	case ThemeLight, ThemeDark, ThemeSystem:
		return v, nil
	}
	return ThemeSystem, nil
}

func (p *Preferences) SetThemeMode(ctx context.Context, mode string) error {
	switch mode {
	case ThemeLight, ThemeDark, ThemeSystem:
		return p.SetString(ctx, KeyThemeMode, mode)
	}
	return fmt.Errorf("set theme mode: unknown mode %q", mode)
}

func (p *Preferences) CurrentSemester(ctx context.Context) (string, error) {
	v, err := p.String(ctx, KeyCurrentSemester)
	if err != nil {
		return "", err
	}
	if v == "" {
		return DefaultSemester, nil
	}
	return v, nil
}

func (p *Preferences) IsFirstRun(ctx context.Context) (bool, error) {
	return p.Bool(ctx, KeyFirstRun)
}

// CompleteOnboarding clears the first-run flag and records onboarding.
func (p *Preferences) CompleteOnboarding(ctx context.Context) error {
	if err := p.SetBool(ctx, KeyFirstRun, false); err != nil {
		return err
	}
	return p.SetBool(ctx, KeyOnboardingComplete, true)
}

// UpdateStreakDate records now's calendar day as the last streak day.
func (p *Preferences) UpdateStreakDate(ctx context.Context, now time.Time) error {
	return p.SetString(ctx, KeyLastStreakDate, now.Format(streakDateLayout))
}

// LastStreakDate returns the last recorded streak day, or the zero time.
func (p *Preferences) LastStreakDate(ctx context.Context, loc *time.Location) (time.Time, error) {
	v, err := p.String(ctx, KeyLastStreakDate)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation(streakDateLayout, v, loc)
	if err != nil {
		return time.Time{}, nil
	}
	return d, nil
}

// IsStreakValid reports whether the last streak day is today or yesterday.
func (p *Preferences) IsStreakValid(ctx context.Context, now time.Time) (bool, error) {
	v, err := p.String(ctx, KeyLastStreakDate)
	if err != nil {
		return false, err
	}
	if v == "" {
		return false, nil
	}
	today := now.Format(streakDateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(streakDateLayout)
	return v == today || v == yesterday, nil
}

// FocusSettings configures the focus timer.
type FocusSettings struct {
	Work      time.Duration
	Break     time.Duration
	LongBreak time.Duration
	Count     int
}

func (p *Preferences) Focus(ctx context.Context) (FocusSettings, error) {
	var f FocusSettings
	keys := []string{KeyFocusWork, KeyFocusBreak, KeyFocusLongBreak, KeyFocusCount}
	vals := make([]int, len(keys))
	for i, k := range keys {
		v, err := p.Int(ctx, k)
		if err != nil {
			return f, err
		}
		vals[i] = v
	}
	f.Work = time.Duration(vals[0]) * time.Second
	f.Break = time.Duration(vals[1]) * time.Second
	f.LongBreak = time.Duration(vals[2]) * time.Second
	f.Count = vals[3]
	return f, nil
}
