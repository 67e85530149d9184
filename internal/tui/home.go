package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/dashboard"
	"github.com/sadopc/studydesk/internal/store"
)

const generalStudy = "General"

type homeModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	stats   uiState[dashboard.Stats]
	courses []store.Course
	weekBar progress.Model

	picking      bool
	pickerCursor int
}

func newHomeModel(svc Services) homeModel {
	return homeModel{
		svc:     svc,
		timer:   newTimerModel(svc.Study, svc.Now),
		stats:   loadingState[dashboard.Stats](),
		weekBar: progress.New(progress.WithSolidFill(string(colorPrimary))),
	}
}

func (h homeModel) Init() tea.Cmd {
	return h.loadData()
}

func (h *homeModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
	h.weekBar.Width = max(w-16, 10)
}

func (h homeModel) isRunning() bool { return h.timer.running() }
func (h homeModel) isPaused() bool  { return h.timer.paused() }
func (h homeModel) elapsed() time.Duration {
	return h.timer.currentElapsed()
}

// reload re-enters Loading and fetches again.
func (h *homeModel) reload() tea.Cmd {
	h.stats = loadingState[dashboard.Stats]()
	return h.loadData()
}

type homeDataMsg struct {
	stats   dashboard.Stats
	courses []store.Course
	running *store.StudySession
	idle    time.Duration
	err     error
}

func (h homeModel) loadData() tea.Cmd {
	svc := h.svc
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := svc.Dashboard.Load(ctx, svc.Now())
		if err != nil {
			return homeDataMsg{err: err}
		}
		courses, err := svc.Courses.Active(ctx)
		if err != nil {
			return homeDataMsg{err: err}
		}
		running, err := svc.Study.Running(ctx)
		if err != nil {
			return homeDataMsg{err: err}
		}
		idle, err := svc.Prefs.Int(ctx, store.KeyIdleTimeout)
		if err != nil {
			svc.Log.Warn("idle timeout preference unreadable", zap.Error(err))
		}
		return homeDataMsg{
			stats:   stats,
			courses: courses,
			running: running,
			idle:    time.Duration(idle) * time.Second,
		}
	}
}

func (h homeModel) courseName(id *int64) string {
	if id == nil {
		return generalStudy
	}
	for _, c := range h.courses {
		if c.ID == *id {
			return c.CourseCode
		}
	}
	return "Unknown"
}

func (h homeModel) update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case homeDataMsg:
		if msg.err != nil {
			h.stats = errorState[dashboard.Stats](msg.err)
			return h, nil
		}
		h.stats = successState(msg.stats)
		h.courses = msg.courses
		h.timer.setIdleTimeout(msg.idle)
		if msg.running != nil && !h.timer.running() {
			h.timer.attach(msg.running, h.courseName(msg.running.CourseID))
		}
		return h, nil

	case tickMsg:
		h.timer.tick()
		return h, nil

	case tea.KeyMsg:
		h.timer.recordActivity()

		if h.picking {
			return h.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if h.timer.running() {
				return h, nil
			}
			h.picking = true
			h.pickerCursor = 0
			return h, nil

		case key.Matches(msg, keys.Stop):
			return h.stopTimer()

		case key.Matches(msg, keys.Pause):
			h.timer.toggle()
			return h, nil

		case key.Matches(msg, keys.Refresh):
			return h, h.reload()
		}
	}
	return h, nil
}

// pickerLen counts the General entry plus each active course.
func (h homeModel) pickerLen() int { return len(h.courses) + 1 }

func (h homeModel) updatePicker(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.pickerCursor > 0 {
			h.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if h.pickerCursor < h.pickerLen()-1 {
			h.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		h.picking = false
		if h.pickerCursor == 0 {
			return h.startTimer(nil, generalStudy)
		}
		c := h.courses[h.pickerCursor-1]
		id := c.ID
		return h.startTimer(&id, c.CourseCode)
	case key.Matches(msg, keys.Back):
		h.picking = false
	}
	return h, nil
}

func (h homeModel) startTimer(courseID *int64, name string) (homeModel, tea.Cmd) {
	if err := h.timer.start(context.Background(), courseID, name); err != nil {
		return h, func() tea.Msg { return errStatus("Error", err) }
	}
	session := &store.StudySession{ID: h.timer.sessionID, CourseID: courseID, StartTime: h.timer.startTime}
	return h, func() tea.Msg { return studyStartedMsg{session: session} }
}

func (h homeModel) stopTimer() (homeModel, tea.Cmd) {
	session, err := h.timer.stop(context.Background())
	if err != nil {
		return h, func() tea.Msg { return errStatus("Error", err) }
	}
	if session == nil {
		return h, nil
	}
	return h, tea.Batch(
		h.loadData(),
		func() tea.Msg { return studyStoppedMsg{session: session} },
	)
}

func (h homeModel) view() string {
	if h.width < 20 {
		return "Terminal too small"
	}
	w := h.width - 4

	if h.stats.loading() {
		return renderLoading(w, "Home")
	}
	if msg, failed := h.stats.failed(); failed {
		return renderError(w, "Home", msg)
	}
	stats, _ := h.stats.get()

	var bottom string
	if h.picking {
		bottom = h.renderCoursePicker(w)
	} else {
		bottom = h.renderTasksPanel(w, stats)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		h.renderGreeting(w, stats),
		h.renderTimerPanel(w),
		h.renderProgressPanel(w, stats),
		h.renderClassesPanel(w, stats),
		bottom,
	)
}

func (h homeModel) renderGreeting(w int, s dashboard.Stats) string {
	name := "there"
	motto := store.DefaultMotto
	if s.Student != nil {
		name = s.Student.FirstName()
		if s.Student.Motto != "" {
			motto = s.Student.Motto
		}
	}
	line := titleStyle.Render("Hello, "+name) + mutedStyle.Render("  "+s.Semester)
	streak := fmt.Sprintf("%d day streak", s.CurrentStreak)
	if s.CurrentStreak > 0 {
		streak = successStyle.Render(streak)
	} else {
		streak = mutedStyle.Render(streak)
	}
	info := fmt.Sprintf("%d courses  %d credits  %s class/week  %s",
		s.ActiveCourseCount, s.TotalCredits, formatHours(int64(s.TotalClassHours.Seconds())), streak)
	return panelStyle.Width(w).Render(strings.Join([]string{line, accentStyle.Render(motto), info}, "\n"))
}

func (h homeModel) renderTimerPanel(w int) string {
	if h.timer.running() {
		timeStr := formatDuration(h.timer.currentElapsed())
		var display, indicator string
		if h.timer.paused() {
			display = timerPausedStyle.Width(w - 6).Render(timeStr)
			if h.timer.isIdle {
				indicator = warningStyle.Render("⏸  IDLE")
			} else {
				indicator = warningStyle.Render("⏸  PAUSED")
			}
		} else {
			display = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  STUDYING")
		}
		content := lipgloss.JoinVertical(lipgloss.Center,
			display,
			indicator,
			highlightStyle.Render(h.timer.courseName),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start studying"),
	)
	return panelStyle.Width(w).Render(content)
}

func (h homeModel) renderProgressPanel(w int, s dashboard.Stats) string {
	pct := s.WeeklyProgressPercentage()
	title := titleStyle.Render("This Week")
	label := fmt.Sprintf("%d / %dh  (%d%%)", s.WeeklyStudyProgress, s.WeeklyStudyGoal, pct)
	if s.IsOnTrack() {
		label = successStyle.Render(label + "  on track")
	} else {
		label = warningStyle.Render(label)
	}
	bar := h.weekBar.ViewAs(min(float64(pct)/100, 1))
	today := mutedStyle.Render("Today: " + formatDuration(s.TodayStudyTime))
	return panelStyle.Width(w).Render(strings.Join([]string{title + "  " + label, bar, today}, "\n"))
}

func renderClassRows(classes []dashboard.ScheduleWithCourse) []string {
	if len(classes) == 0 {
		return []string{mutedStyle.Render("  No classes")}
	}
	var rows []string
	for _, c := range classes {
		rows = append(rows, fmt.Sprintf("  %s %-13s %-10s %s",
			colorDot(c.Course.Color),
			c.TimeRange(),
			c.Course.CourseCode,
			mutedStyle.Render(c.DisplayLocation()),
		))
	}
	return rows
}

func (h homeModel) renderClassesPanel(w int, s dashboard.Stats) string {
	rows := []string{titleStyle.Render("Today's Classes")}
	rows = append(rows, renderClassRows(s.TodayClasses)...)
	rows = append(rows, "", titleStyle.Render("Tomorrow"))
	rows = append(rows, renderClassRows(s.TomorrowClasses)...)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h homeModel) renderTasksPanel(w int, s dashboard.Stats) string {
	header := titleStyle.Render("Pending Tasks") +
		mutedStyle.Render(fmt.Sprintf("  %d pending  %d due today", s.PendingTaskCount, s.DueTodayTaskCount))
	if s.OverdueTaskCount > 0 {
		header += errorStyle.Render(fmt.Sprintf("  %d overdue", s.OverdueTaskCount))
	}
	rows := []string{header}
	if len(s.PendingTasks) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing pending"))
	}
	now := h.svc.Now()
	for _, t := range s.PendingTasks {
		due := relativeDue(t.Task.DueDate, now)
		dueStyle := mutedStyle
		if t.Task.IsOverdue(now) {
			dueStyle = errorStyle
		} else if t.Task.IsDueSoon(now) {
			dueStyle = warningStyle
		}
		rows = append(rows, fmt.Sprintf("  %s %-8s %-28s %s %s",
			colorDot(t.Course.Color),
			t.Course.CourseCode,
			t.Task.Title,
			priorityStyle(t.Task.PriorityLabel()).Render(t.Task.PriorityLabel()),
			dueStyle.Render(due),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h homeModel) renderCoursePicker(w int) string {
	rows := []string{titleStyle.Render("Study For")}
	for i := 0; i < h.pickerLen(); i++ {
		prefix, style := cursorPrefix(i == h.pickerCursor)
		if i == 0 {
			rows = append(rows, style.Render(prefix+"  "+generalStudy))
			continue
		}
		c := h.courses[i-1]
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s  %s", prefix, colorDot(c.Color), c.CourseCode, c.CourseName)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
