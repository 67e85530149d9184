package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/studydesk/internal/export"
	"github.com/sadopc/studydesk/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	svc    Services
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	home     homeModel
	courses  coursesModel
	tasks    tasksModel
	reports  reportsModel
	focus    focusModel
	settings settingsModel

	changes <-chan store.Change
	cancel  context.CancelFunc

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the root model and subscribes to the store's change feed.
// The subscription ends when the app quits.
func NewApp(svc Services) App {
	h := help.New()
	h.ShowAll = false

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := svc.Store.Subscribe(ctx)
	if err != nil {
		svc.Log.Warn("change feed unavailable", zap.Error(err))
	}

	return App{
		svc:        svc,
		activeView: viewHome,
		home:       newHomeModel(svc),
		courses:    newCoursesModel(svc),
		tasks:      newTasksModel(svc),
		reports:    newReportsModel(svc),
		focus:      newFocusModel(svc),
		settings:   newSettingsModel(svc),
		changes:    changes,
		cancel:     cancel,
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.home.Init(),
		a.focus.refresh(),
		tickCmd(),
		waitForChange(a.changes),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange delivers the next store change. It must be re-armed after
// every storeChangedMsg.
func waitForChange(ch <-chan store.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return storeChangedMsg{table: c.Table}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
	}
	return a, tea.Quit
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.home.setSize(a.width, contentHeight)
		a.courses.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A form captures all input until it completes or is cancelled.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewHome)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewCourses)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewTasks)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewFocus)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Both timers keep running while another view is shown.
		var cmd tea.Cmd
		a.home, cmd = a.home.update(msg)
		cmds = append(cmds, cmd)
		a.focus, cmd = a.focus.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case storeChangedMsg:
		a.svc.Log.Debug("store changed", zap.String("table", msg.table))
		cmd := a.reloadCurrentView()
		return a, tea.Batch(waitForChange(a.changes), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case studyStartedMsg:
		a.status = "Study session started"
		a.statusErr = false
		return a, nil

	case studyStoppedMsg:
		a.status = fmt.Sprintf("Studied %s", formatSeconds(msg.session.Duration))
		a.statusErr = false
		return a, nil

	case focusLoggedMsg:
		a.status = fmt.Sprintf("Logged %s of focus", formatSeconds(msg.session.Duration))
		a.statusErr = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	cmd := a.reloadCurrentView()
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewHome:
		a.home, cmd = a.home.update(msg)
	case viewCourses:
		a.courses, cmd = a.courses.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewCourses:
		return a.courses.formActive
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

// reloadCurrentView refetches the visible screen. Only Home and Courses
// show a Loading state in between. Views with an open form or detail keep
// their state until it closes.
func (a *App) reloadCurrentView() tea.Cmd {
	switch a.activeView {
	case viewHome:
		return a.home.reload()
	case viewCourses:
		if a.courses.formActive {
			return nil
		}
		if a.courses.detail != nil {
			return a.courses.loadDetail(a.courses.detail.Course.ID)
		}
		return a.courses.reload()
	case viewTasks:
		if a.tasks.formActive {
			return nil
		}
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewFocus:
		return a.focus.refresh()
	case viewSettings:
		if a.settings.formActive {
			return nil
		}
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewHome:
		content = a.home.view()
	case viewCourses:
		content = a.courses.view()
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	case viewFocus:
		content = a.focus.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studydesk")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if a.home.isRunning() {
		elapsed := a.home.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
		if a.home.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + formatDuration(elapsed))
		}
	}
	if a.focus.active() {
		timerInfo += accentStyle.Render(" ◐ " + formatFocusTime(a.focus.remaining))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range export.Formats {
		prefix, style := cursorPrefix(i == a.exportCursor)
		rows = append(rows, style.Render(prefix+f.String()))
	}
	rows = append(rows, "", mutedStyle.Render("  saves to "+a.svc.ExportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(export.Formats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(export.Formats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		snap, err := export.Collect(context.Background(), svc.Store, svc.Now())
		if err != nil {
			return errStatus("Export error", err)
		}
		if err := os.MkdirAll(svc.ExportDir, 0o755); err != nil {
			return errStatus("Export error", err)
		}
		path, err := export.Write(f, snap, svc.ExportDir)
		if err != nil {
			svc.Log.Error("export failed", zap.Stringer("format", f), zap.Error(err))
			return errStatus("Export error", err)
		}
		svc.Log.Info("exported", zap.Stringer("format", f), zap.String("path", path))
		return exportDoneMsg{path: path}
	}
}
