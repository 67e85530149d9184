package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studydesk/internal/dashboard"
	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

type reportMode int

const (
	reportStudy reportMode = iota
	reportTimetable
)

type reportsData struct {
	summaries []store.DailyStudy
	week      []repository.DayCount
	timetable []dashboard.DaySchedule
}

type reportsModel struct {
	svc    Services
	width  int
	height int

	mode   reportMode
	offset int // weeks back from the current one
	data   uiState[reportsData]

	chart barchart.Model
}

func newReportsModel(svc Services) reportsModel {
	return reportsModel{
		svc:   svc,
		data:  loadingState[reportsData](),
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	data reportsData
	err  error
}

func (r reportsModel) refresh() tea.Cmd {
	svc := r.svc
	from, to := r.dateRange()
	return func() tea.Msg {
		ctx := context.Background()
		summaries, err := svc.Study.DailySummary(ctx, from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		week, err := svc.Schedules.WeeklySummary(ctx)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		timetable, err := svc.Dashboard.Timetable(ctx)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		return reportsDataMsg{data: reportsData{summaries: summaries, week: week, timetable: timetable}}
	}
}

// dateRange is the local Monday-to-Monday week offset weeks back, matching
// the week the home view reports on.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	start := repository.StartOfWeek(r.svc.Now()).AddDate(0, 0, -7*r.offset)
	return start, start.AddDate(0, 0, 7)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			r.data = errorState[reportsData](msg.err)
			return r, nil
		}
		r.data = successState(msg.data)
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Filter):
			if r.mode == reportStudy {
				r.mode = reportTimetable
			} else {
				r.mode = reportStudy
			}
			r.buildChart()
			return r, nil
		case key.Matches(msg, keys.Refresh):
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	d, ok := r.data.get()
	if !ok {
		return
	}
	if r.mode == reportTimetable {
		r.chart.PushAll(timetableBars(d.week))
	} else {
		from, to := r.dateRange()
		r.chart.PushAll(studyBars(d.summaries, from, to))
	}
	r.chart.Draw()
}

// studyBars stacks each day's study hours by course.
func studyBars(summaries []store.DailyStudy, from, to time.Time) []barchart.BarData {
	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		var values []barchart.BarValue
		for _, s := range summaries {
			if s.Date != date {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  s.CourseCode,
				Value: float64(s.TotalSeconds) / 3600,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(s.CourseColor)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: d.Format("Mon 02"), Values: values})
	}
	return bars
}

// timetableBars shows class blocks per weekday.
func timetableBars(week []repository.DayCount) []barchart.BarData {
	bars := make([]barchart.BarData, len(week))
	for i, dc := range week {
		bars[i] = barchart.BarData{
			Label: dc.Day[:3],
			Values: []barchart.BarValue{{
				Name:  dc.Day,
				Value: float64(dc.Count),
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		}
	}
	return bars
}

func (r reportsModel) view() string {
	w := r.width - 4
	if r.data.loading() {
		return renderLoading(w, "Reports")
	}
	if msg, failed := r.data.failed(); failed {
		return renderError(w, "Reports", msg)
	}
	d, _ := r.data.get()

	studyTab := inactiveTabStyle.Render("Study")
	classTab := inactiveTabStyle.Render("Timetable")
	if r.mode == reportStudy {
		studyTab = activeTabStyle.Render("Study")
	} else {
		classTab = activeTabStyle.Render("Timetable")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, studyTab, classTab)

	var label, body, nav string
	if r.mode == reportStudy {
		from, to := r.dateRange()
		label = mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))
		body = lipgloss.JoinVertical(lipgloss.Left, renderStudyLegend(d.summaries), "", renderStudyTable(d.summaries, w))
		nav = mutedStyle.Render("  ←/→: change week  f: timetable")
	} else {
		label = mutedStyle.Render("Class blocks per day")
		body = renderWeekTable(d.timetable)
		nav = mutedStyle.Render("  f: study hours")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", modeTabs, "  ", label)
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", r.chart.View(), "", body, "", nav),
	)
}

func renderStudyTable(summaries []store.DailyStudy, w int) string {
	if len(summaries) == 0 {
		return mutedStyle.Render("  No study sessions this week")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Course", "Duration", "Sessions")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 54))),
	}
	var total int64
	for _, s := range summaries {
		total += s.TotalSeconds
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot(s.CourseColor), s.CourseCode, formatSeconds(s.TotalSeconds), s.SessionCount,
		))
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-33s %10s", "Total", formatSeconds(total))))
	return strings.Join(rows, "\n")
}

func renderStudyLegend(summaries []store.DailyStudy) string {
	seen := make(map[int64]bool)
	var items []string
	for _, s := range summaries {
		if seen[s.CourseID] {
			continue
		}
		seen[s.CourseID] = true
		items = append(items, fmt.Sprintf("%s %s", colorDot(s.CourseColor), s.CourseCode))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

// renderWeekTable lists each weekday's active classes with the span of the
// day.
func renderWeekTable(days []dashboard.DaySchedule) string {
	var rows []string
	for _, day := range days {
		if !day.HasClasses() {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s -", day.Day)))
			continue
		}
		var codes []string
		for _, c := range day.Classes {
			codes = append(codes, colorDot(c.Course.Color)+" "+c.Course.CourseCode)
		}
		rows = append(rows, fmt.Sprintf("  %-10s %d  %s  %s",
			day.Day, day.ClassCount(),
			mutedStyle.Render(day.FirstClassTime()+" - "+day.LastClassTime()),
			strings.Join(codes, "  "),
		))
	}
	return strings.Join(rows, "\n")
}
