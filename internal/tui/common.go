package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewHome viewState = iota
	viewCourses
	viewTasks
	viewReports
	viewFocus
	viewSettings
)

var viewNames = []string{"Home", "Courses", "Tasks", "Reports", "Focus", "Settings"}

// --- Messages ---

type studyStartedMsg struct {
	session *store.StudySession
}

type studyStoppedMsg struct {
	session *store.StudySession
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// storeChangedMsg is delivered for each committed write.
type storeChangedMsg struct {
	table string
}

// --- Helpers ---

func errStatus(prefix string, err error) tea.Msg {
	if ve, ok := repository.AsValidation(err); ok {
		return statusMsg{text: ve.Message, isError: true}
	}
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// relativeDue renders a due date as "3 hours from now" or "2 days ago".
func relativeDue(due, now time.Time) string {
	return humanize.RelTime(due, now, "ago", "from now")
}

func colorDot(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

func cursorPrefix(selected bool) (string, lipgloss.Style) {
	if selected {
		return "> ", selectedItemStyle
	}
	return "  ", normalItemStyle
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(cursor, 0)
}
