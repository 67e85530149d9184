package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/store"
)

type focusPhase int

const (
	focusIdle focusPhase = iota
	focusWork
	focusShortBreak
	focusLongBreak
	focusCompleted
)

var phaseNames = map[focusPhase]string{
	focusIdle:       "IDLE",
	focusWork:       "FOCUS",
	focusShortBreak: "SHORT BREAK",
	focusLongBreak:  "LONG BREAK",
	focusCompleted:  "COMPLETED",
}

var defaultFocus = store.FocusSettings{
	Work:      25 * time.Minute,
	Break:     5 * time.Minute,
	LongBreak: 15 * time.Minute,
	Count:     4,
}

// focusModel runs work/break intervals. Every finished work interval is
// logged as a study session for the chosen course.
type focusModel struct {
	svc    Services
	width  int
	height int

	settings store.FocusSettings
	courses  []store.Course
	course   int // index into courses; -1 is general study

	phase          focusPhase
	completedCount int
	remaining      time.Duration
	phaseEnd       time.Time
}

func newFocusModel(svc Services) focusModel {
	return focusModel{
		svc:      svc,
		settings: defaultFocus,
		course:   -1,
		phase:    focusIdle,
	}
}

func (p *focusModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type focusDataMsg struct {
	settings store.FocusSettings
	courses  []store.Course
}

type focusLoggedMsg struct {
	session *store.StudySession
}

func (p focusModel) refresh() tea.Cmd {
	svc := p.svc
	return func() tea.Msg {
		ctx := context.Background()
		settings, err := svc.Prefs.Focus(ctx)
		if err != nil {
			svc.Log.Warn("focus settings unreadable", zap.Error(err))
			settings = defaultFocus
		}
		courses, err := svc.Courses.Active(ctx)
		if err != nil {
			return errStatus("Focus", err)
		}
		return focusDataMsg{settings: normalizeFocus(settings), courses: courses}
	}
}

// normalizeFocus replaces non-positive values with the defaults.
func normalizeFocus(f store.FocusSettings) store.FocusSettings {
	if f.Work <= 0 {
		f.Work = defaultFocus.Work
	}
	if f.Break <= 0 {
		f.Break = defaultFocus.Break
	}
	if f.LongBreak <= 0 {
		f.LongBreak = defaultFocus.LongBreak
	}
	if f.Count <= 0 {
		f.Count = defaultFocus.Count
	}
	return f
}

func (p focusModel) active() bool {
	return p.phase == focusWork || p.phase == focusShortBreak || p.phase == focusLongBreak
}

func (p focusModel) courseID() *int64 {
	if p.course < 0 || p.course >= len(p.courses) {
		return nil
	}
	id := p.courses[p.course].ID
	return &id
}

func (p focusModel) courseLabel() string {
	if p.course < 0 || p.course >= len(p.courses) {
		return generalStudy
	}
	c := p.courses[p.course]
	return c.CourseCode + "  " + c.CourseName
}

func (p focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case focusDataMsg:
		if !p.active() {
			p.settings = msg.settings
		}
		p.courses = msg.courses
		if p.course >= len(p.courses) {
			p.course = -1
		}
		return p, nil

	case tickMsg:
		if p.active() {
			p.remaining = p.phaseEnd.Sub(p.svc.Now())
			if p.remaining <= 0 {
				return p.advancePhase()
			}
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if p.phase == focusIdle || p.phase == focusCompleted {
				p.completedCount = 0
				return p.startWorkPhase()
			}
		case key.Matches(msg, keys.Stop):
			if p.phase != focusIdle {
				p.phase = focusIdle
				p.remaining = 0
				return p, func() tea.Msg { return statusMsg{text: "Focus cancelled"} }
			}
		case key.Matches(msg, keys.Pause):
			if p.phase == focusShortBreak || p.phase == focusLongBreak {
				return p.startWorkPhase()
			}
		case key.Matches(msg, keys.Left):
			if !p.active() {
				p.course--
				if p.course < -1 {
					p.course = len(p.courses) - 1
				}
			}
		case key.Matches(msg, keys.Right):
			if !p.active() {
				p.course++
				if p.course >= len(p.courses) {
					p.course = -1
				}
			}
		}
	}
	return p, nil
}

func (p focusModel) startPhase(phase focusPhase, d time.Duration) focusModel {
	p.phase = phase
	p.remaining = d
	p.phaseEnd = p.svc.Now().Add(d)
	return p
}

func (p focusModel) startWorkPhase() (focusModel, tea.Cmd) {
	return p.startPhase(focusWork, p.settings.Work), nil
}

// advancePhase moves to the next phase once the current one has run out.
// The last work interval of a round is followed by a long break.
func (p focusModel) advancePhase() (focusModel, tea.Cmd) {
	switch p.phase {
	case focusWork:
		p.completedCount++
		logCmd := p.logWork(p.phaseEnd)
		if p.completedCount >= p.settings.Count {
			p = p.startPhase(focusLongBreak, p.settings.LongBreak)
			return p, tea.Batch(logCmd, func() tea.Msg {
				return statusMsg{text: "Round complete! Take a long break \a"}
			})
		}
		p = p.startPhase(focusShortBreak, p.settings.Break)
		return p, tea.Batch(logCmd, func() tea.Msg {
			return statusMsg{text: "Break time! \a"}
		})

	case focusShortBreak:
		return p.startWorkPhase()

	case focusLongBreak:
		p.phase = focusCompleted
		p.remaining = 0
		return p, func() tea.Msg { return statusMsg{text: "Focus session complete"} }
	}
	return p, nil
}

func (p focusModel) logWork(end time.Time) tea.Cmd {
	svc := p.svc
	courseID := p.courseID()
	d := p.settings.Work
	return func() tea.Msg {
		session, err := svc.Study.Log(context.Background(), courseID, end, d)
		if err != nil {
			return errStatus("Could not log focus time", err)
		}
		return focusLoggedMsg{session: session}
	}
}

func (p focusModel) view() string {
	w := p.width - 4
	center := lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center).Bold(true)

	var timeDisplay, phaseLabel, indicator string
	switch p.phase {
	case focusIdle:
		timeDisplay = timerStyle.Width(w - 6).Render(formatFocusTime(p.settings.Work))
		phaseLabel = mutedStyle.Render("Ready to focus")
		indicator = mutedStyle.Render("Press s to begin")
	case focusWork:
		timeDisplay = center.Foreground(colorAccent).Render(formatFocusTime(p.remaining))
		phaseLabel = accentStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case focusShortBreak:
		timeDisplay = center.Foreground(colorSuccess).Render(formatFocusTime(p.remaining))
		phaseLabel = successStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case focusLongBreak:
		timeDisplay = center.Foreground(colorHighlight).Render(formatFocusTime(p.remaining))
		phaseLabel = highlightStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	case focusCompleted:
		timeDisplay = center.Foreground(colorSuccess).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render(phaseNames[p.phase])
		indicator = p.renderProgress()
	}

	course := highlightStyle.Render(p.courseLabel())
	if !p.active() {
		course = mutedStyle.Render("← ") + course + mutedStyle.Render(" →")
	}

	var controls string
	switch p.phase {
	case focusIdle, focusCompleted:
		controls = mutedStyle.Render("s: start  ←/→: course")
	case focusWork:
		controls = mutedStyle.Render("x: cancel")
	case focusShortBreak, focusLongBreak:
		controls = mutedStyle.Render("space: skip break  x: cancel")
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Focus Timer"),
		"",
		course,
		"",
		timeDisplay,
		phaseLabel,
		"",
		indicator,
		"",
		controls,
	))
}

func (p focusModel) renderProgress() string {
	var parts []string
	for i := 0; i < p.settings.Count; i++ {
		switch {
		case i < p.completedCount:
			parts = append(parts, successStyle.Render("●"))
		case i == p.completedCount && p.phase == focusWork:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ") + mutedStyle.Render(fmt.Sprintf("  %d/%d", p.completedCount, p.settings.Count))
}

func formatFocusTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
