package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studydesk/internal/store"
)

type settingsForm int

const (
	settingsPrefsForm settingsForm = iota
	settingsProfileForm
)

type profileFields struct {
	fullName   string
	university string
	major      string
	semester   string
	email      string
	phone      string
	dailyGoal  string
	motto      string
}

// prefFields holds preference values as the form shows them, with durations
// in minutes. The weekly goal follows the profile's daily goal.
type prefFields struct {
	focusWork      string
	focusBreak     string
	focusLongBreak string
	focusCount     string
	idleTimeout    string
	theme          string
	classReminders bool
	reminderMins   string
	taskReminders  bool
}

type settingsData struct {
	profile  *store.Student
	settings []store.Setting
}

type settingsModel struct {
	svc    Services
	width  int
	height int

	data uiState[settingsData]

	formActive bool
	form       *huh.Form
	formType   settingsForm
	profile    *profileFields
	prefs      *prefFields
}

func newSettingsModel(svc Services) settingsModel {
	return settingsModel{
		svc:     svc,
		data:    loadingState[settingsData](),
		profile: &profileFields{},
		prefs:   &prefFields{},
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	data settingsData
	err  error
}

func (s settingsModel) refresh() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		ctx := context.Background()
		p, err := svc.Students.Profile(ctx)
		if err != nil {
			return settingsDataMsg{err: err}
		}
		settings, err := svc.Store.GetAllSettings(ctx)
		if err != nil {
			return settingsDataMsg{err: err}
		}
		return settingsDataMsg{data: settingsData{profile: p, settings: settings}}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		if msg.err != nil {
			s.data = errorState[settingsData](msg.err)
			return s, nil
		}
		s.data = successState(msg.data)
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showPrefsForm()
		case key.Matches(msg, keys.Profile):
			return s.showProfileForm()
		case key.Matches(msg, keys.Refresh):
			return s, s.refresh()
		}
	}
	return s, nil
}

func (s settingsModel) getVal(k string) string {
	if d, ok := s.data.get(); ok {
		for _, setting := range d.settings {
			if setting.Key == k {
				return setting.Value
			}
		}
	}
	v, _ := store.DefaultSetting(k)
	return v
}

func wholeNumber(label string) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a whole number", label)
		}
		return nil
	}
}

func (s settingsModel) showPrefsForm() (settingsModel, tea.Cmd) {
	f := s.prefs
	*f = prefFields{
		focusWork:      secsToMin(s.getVal(store.KeyFocusWork)),
		focusBreak:     secsToMin(s.getVal(store.KeyFocusBreak)),
		focusLongBreak: secsToMin(s.getVal(store.KeyFocusLongBreak)),
		focusCount:     s.getVal(store.KeyFocusCount),
		idleTimeout:    secsToMin(s.getVal(store.KeyIdleTimeout)),
		theme:          s.getVal(store.KeyThemeMode),
		classReminders: s.getVal(store.KeyClassRemindersEnabled) == "true",
		reminderMins:   s.getVal(store.KeyClassReminderMinutes),
		taskReminders:  s.getVal(store.KeyTaskRemindersEnabled) == "true",
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus length (min)").Value(&f.focusWork).Validate(wholeNumber("Focus length")),
			huh.NewInput().Title("Short break (min)").Value(&f.focusBreak).Validate(wholeNumber("Short break")),
			huh.NewInput().Title("Long break (min)").Value(&f.focusLongBreak).Validate(wholeNumber("Long break")),
			huh.NewInput().Title("Focus intervals per round").Value(&f.focusCount).Validate(wholeNumber("Intervals")),
		).Title("Focus"),
		huh.NewGroup(
			huh.NewInput().Title("Idle timeout (min)").Value(&f.idleTimeout).Validate(wholeNumber("Idle timeout")),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("System", store.ThemeSystem),
					huh.NewOption("Light", store.ThemeLight),
					huh.NewOption("Dark", store.ThemeDark),
				).Value(&f.theme),
		).Title("General"),
		huh.NewGroup(
			huh.NewConfirm().Title("Class reminders").Value(&f.classReminders),
			huh.NewInput().Title("Remind before class (min)").Value(&f.reminderMins).Validate(wholeNumber("Reminder")),
			huh.NewConfirm().Title("Task reminders").Value(&f.taskReminders),
		).Title("Reminders"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = settingsPrefsForm
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showProfileForm() (settingsModel, tea.Cmd) {
	f := s.profile
	*f = profileFields{semester: store.DefaultSemester, dailyGoal: "4", motto: store.DefaultMotto}
	if d, ok := s.data.get(); ok && d.profile != nil {
		p := d.profile
		*f = profileFields{
			fullName:   p.FullName,
			university: p.University,
			major:      p.Major,
			semester:   p.CurrentSemester,
			email:      p.Email,
			phone:      p.PhoneNumber,
			dailyGoal:  strconv.Itoa(p.DailyStudyGoalHours),
			motto:      p.Motto,
		}
	}
	if !validSemester(f.semester) {
		f.semester = store.DefaultSemester
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&f.fullName).Validate(notBlank("Name")),
			huh.NewInput().Title("University").Value(&f.university),
			huh.NewInput().Title("Major").Value(&f.major),
			huh.NewSelect[string]().Title("Current semester").Options(huh.NewOptions(store.Semesters...)...).Value(&f.semester),
		).Title("Profile"),
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&f.email),
			huh.NewInput().Title("Phone").Value(&f.phone),
			huh.NewInput().Title("Daily study goal (hours)").Value(&f.dailyGoal).Validate(wholeNumber("Daily goal")),
			huh.NewInput().Title("Motto").Value(&f.motto),
		).Title("Goals"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = settingsProfileForm
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if s.formType == settingsProfileForm {
			return s, s.saveProfile()
		}
		return s, s.savePrefs()
	}
	return s, cmd
}

func (s settingsModel) savePrefs() tea.Cmd {
	svc := s.svc
	f := *s.prefs
	return func() tea.Msg {
		ctx := context.Background()
		p := svc.Prefs
		err := errors.Join(
			p.SetString(ctx, store.KeyFocusWork, minToSecs(f.focusWork)),
			p.SetString(ctx, store.KeyFocusBreak, minToSecs(f.focusBreak)),
			p.SetString(ctx, store.KeyFocusLongBreak, minToSecs(f.focusLongBreak)),
			p.SetString(ctx, store.KeyFocusCount, strings.TrimSpace(f.focusCount)),
			p.SetString(ctx, store.KeyIdleTimeout, minToSecs(f.idleTimeout)),
			p.SetThemeMode(ctx, f.theme),
			p.SetBool(ctx, store.KeyClassRemindersEnabled, f.classReminders),
			p.SetString(ctx, store.KeyClassReminderMinutes, strings.TrimSpace(f.reminderMins)),
			p.SetBool(ctx, store.KeyTaskRemindersEnabled, f.taskReminders),
		)
		if err != nil {
			return errStatus("Save failed", err)
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) saveProfile() tea.Cmd {
	svc := s.svc
	f := *s.profile
	var existing store.Student
	if d, ok := s.data.get(); ok && d.profile != nil {
		existing = *d.profile
	}
	return func() tea.Msg {
		ctx := context.Background()
		goal, _ := strconv.Atoi(strings.TrimSpace(f.dailyGoal))
		st := existing
		st.FullName = strings.TrimSpace(f.fullName)
		st.University = strings.TrimSpace(f.university)
		st.Major = strings.TrimSpace(f.major)
		st.CurrentSemester = f.semester
		st.Email = strings.TrimSpace(f.email)
		st.PhoneNumber = strings.TrimSpace(f.phone)
		st.DailyStudyGoalHours = goal
		st.Motto = strings.TrimSpace(f.motto)
		if err := svc.Students.Save(ctx, st); err != nil {
			return errStatus("Save failed", err)
		}
		err := errors.Join(
			svc.Prefs.SetString(ctx, store.KeyCurrentSemester, st.CurrentSemester),
			svc.Prefs.SetInt(ctx, store.KeyDailyStudyGoal, goal),
		)
		if err != nil {
			return errStatus("Save failed", err)
		}
		complete, err := svc.Students.IsProfileComplete(ctx)
		if err == nil && complete {
			if err := svc.Prefs.CompleteOnboarding(ctx); err != nil {
				return errStatus("Save failed", err)
			}
		}
		return statusMsg{text: "Profile saved"}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := "Preferences"
		if s.formType == settingsProfileForm {
			title = "Profile"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", s.form.View()),
		)
	}

	if s.data.loading() {
		return renderLoading(w, "Settings")
	}
	if msg, failed := s.data.failed(); failed {
		return renderError(w, "Settings", msg)
	}
	d, _ := s.data.get()

	rows := []string{titleStyle.Render("Profile"), ""}
	rows = append(rows, renderProfile(d.profile)...)
	rows = append(rows, "", titleStyle.Render("Preferences"), "")
	for _, setting := range d.settings {
		label := lipgloss.NewStyle().Width(26).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: edit preferences  p: edit profile"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderProfile(p *store.Student) []string {
	if p == nil {
		return []string{mutedStyle.Render("  No profile yet. Press p to create one.")}
	}
	field := func(label, value string) string {
		if value == "" {
			value = mutedStyle.Render("-")
		}
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(26).Render(label), value)
	}
	rows := []string{
		field("Name", p.FullName+"  ("+p.Initials()+")"),
		field("University", p.University),
		field("Major", p.Major),
		field("Semester", p.CurrentSemester),
		field("Email", p.Email),
		field("Phone", p.PhoneNumber),
		field("Daily goal", fmt.Sprintf("%d hours", p.DailyStudyGoalHours)),
		field("Streak", fmt.Sprintf("%d days", p.CurrentStreak)),
		field("Total study", fmt.Sprintf("%d hours", p.TotalStudyHours)),
		field("Motto", p.Motto),
	}
	if !p.IsProfileComplete() {
		rows = append(rows, warningStyle.Render("  Profile incomplete"))
	}
	return rows
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.KeyFocusWork, store.KeyFocusBreak, store.KeyFocusLongBreak, store.KeyIdleTimeout:
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	case store.KeyDailyStudyGoal, store.KeyWeeklyStudyGoal:
		if _, err := strconv.Atoi(v); err == nil {
			return v + " hours"
		}
	case store.KeyClassReminderMinutes:
		if _, err := strconv.Atoi(v); err == nil {
			return v + " min before"
		}
	case store.KeyLastStreakDate:
		if v == "" {
			return "never"
		}
	}
	return v
}

// validSemester reports whether semester is offered by the profile form.
func validSemester(semester string) bool {
	for _, s := range store.Semesters {
		if s == semester {
			return true
		}
	}
	return false
}

func secsToMin(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(secs / 60)
	}
	return s
}

func minToSecs(s string) string {
	if mins, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return strconv.Itoa(mins * 60)
	}
	return s
}
