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

	"github.com/sadopc/studydesk/internal/dashboard"
	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

type courseForm int

const (
	formNone courseForm = iota
	formNewCourse
	formEditCourse
	formBlock
)

// courseFields holds form values behind pointers so they survive the
// value copies bubbletea makes of the model.
type courseFields struct {
	name       string
	code       string
	instructor string
	credits    int
	semester   string
	color      string

	days     []string
	start    string
	end      string
	location string
}

type coursesModel struct {
	svc    Services
	width  int
	height int

	list     uiState[[]store.Course]
	semester string
	cursor   int

	detail      *dashboard.CourseDetail
	blockCursor int

	formActive bool
	form       *huh.Form
	formType   courseForm
	fields     *courseFields
	editingID  int64
}

func newCoursesModel(svc Services) coursesModel {
	return coursesModel{
		svc:    svc,
		list:   loadingState[[]store.Course](),
		fields: &courseFields{},
	}
}

func (c *coursesModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type coursesDataMsg struct {
	semester string
	courses  []store.Course
	err      error
}

type courseDetailMsg struct {
	detail dashboard.CourseDetail
	err    error
}

func (c coursesModel) refresh() tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		ctx := context.Background()
		semester, err := svc.semester(ctx)
		if err != nil {
			return coursesDataMsg{err: err}
		}
		all, err := svc.Courses.BySemester(ctx, semester)
		if err != nil {
			return coursesDataMsg{err: err}
		}
		var active []store.Course
		for _, course := range all {
			if course.IsActive {
				active = append(active, course)
			}
		}
		return coursesDataMsg{semester: semester, courses: active}
	}
}

// reload re-enters Loading and fetches the list again.
func (c *coursesModel) reload() tea.Cmd {
	c.list = loadingState[[]store.Course]()
	return c.refresh()
}

func (c coursesModel) loadDetail(id int64) tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		d, err := svc.Dashboard.CourseDetail(context.Background(), id)
		return courseDetailMsg{detail: d, err: err}
	}
}

func (c coursesModel) selected() (store.Course, bool) {
	courses, ok := c.list.get()
	if !ok || c.cursor >= len(courses) {
		return store.Course{}, false
	}
	return courses[c.cursor], true
}

func (c coursesModel) update(msg tea.Msg) (coursesModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case coursesDataMsg:
		if msg.err != nil {
			c.list = errorState[[]store.Course](msg.err)
			return c, nil
		}
		c.semester = msg.semester
		c.list = successState(msg.courses)
		c.cursor = clampCursor(c.cursor, len(msg.courses))
		return c, nil

	case courseDetailMsg:
		if msg.err != nil {
			c.detail = nil
			return c, func() tea.Msg { return errStatus("Course", msg.err) }
		}
		c.detail = &msg.detail
		c.blockCursor = clampCursor(c.blockCursor, len(msg.detail.Schedules))
		return c, nil

	case tea.KeyMsg:
		if c.detail != nil {
			return c.updateDetail(msg)
		}
		return c.updateList(msg)
	}
	return c, nil
}

func (c coursesModel) updateList(msg tea.KeyMsg) (coursesModel, tea.Cmd) {
	courses, _ := c.list.get()
	switch {
	case key.Matches(msg, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, keys.Down):
		if c.cursor < len(courses)-1 {
			c.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if course, ok := c.selected(); ok {
			c.blockCursor = 0
			return c, c.loadDetail(course.ID)
		}
	case key.Matches(msg, keys.New):
		return c.showCourseForm(nil)
	case key.Matches(msg, keys.Edit):
		if course, ok := c.selected(); ok {
			return c.showCourseForm(&course)
		}
	case key.Matches(msg, keys.Archive):
		if course, ok := c.selected(); ok {
			return c, c.archive(course)
		}
	case key.Matches(msg, keys.Delete):
		if course, ok := c.selected(); ok {
			return c, c.remove(course)
		}
	case key.Matches(msg, keys.Refresh):
		return c, c.reload()
	}
	return c, nil
}

func (c coursesModel) updateDetail(msg tea.KeyMsg) (coursesModel, tea.Cmd) {
	d := c.detail
	switch {
	case key.Matches(msg, keys.Back):
		c.detail = nil
		return c, c.refresh()
	case key.Matches(msg, keys.Up):
		if c.blockCursor > 0 {
			c.blockCursor--
		}
	case key.Matches(msg, keys.Down):
		if c.blockCursor < len(d.Schedules)-1 {
			c.blockCursor++
		}
	case key.Matches(msg, keys.Block):
		return c.showBlockForm()
	case key.Matches(msg, keys.Edit):
		course := d.Course
		return c.showCourseForm(&course)
	case key.Matches(msg, keys.Delete):
		if c.blockCursor < len(d.Schedules) {
			return c, c.removeBlock(d.Schedules[c.blockCursor])
		}
	}
	return c, nil
}

func (c coursesModel) archive(course store.Course) tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		if err := svc.Courses.Archive(context.Background(), course.ID); err != nil {
			return errStatus("Archive failed", err)
		}
		return statusMsg{text: "Archived " + course.CourseCode}
	}
}

func (c coursesModel) remove(course store.Course) tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		if err := svc.Courses.Delete(context.Background(), course.ID); err != nil {
			return errStatus("Delete failed", err)
		}
		return statusMsg{text: "Deleted " + course.CourseCode}
	}
}

func (c coursesModel) removeBlock(cs store.ClassSchedule) tea.Cmd {
	svc := c.svc
	return func() tea.Msg {
		if err := svc.Schedules.Delete(context.Background(), cs.ID); err != nil {
			return errStatus("Delete failed", err)
		}
		return statusMsg{text: "Removed " + cs.TimeRange()}
	}
}

func colorOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(store.CourseColors))
	for i, hex := range store.CourseColors {
		opts[i] = huh.NewOption(colorDot(hex)+" "+hex, hex)
	}
	return opts
}

func creditOptions() []huh.Option[int] {
	opts := make([]huh.Option[int], len(store.CreditOptions))
	for i, n := range store.CreditOptions {
		opts[i] = huh.NewOption(strconv.Itoa(n), n)
	}
	return opts
}

func notBlank(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", label)
		}
		return nil
	}
}

func validClock(s string) error {
	if _, ok := repository.ParseClock(s); !ok {
		return errors.New("use HH:MM")
	}
	return nil
}

// showCourseForm opens the course form, prefilled from existing when editing.
func (c coursesModel) showCourseForm(existing *store.Course) (coursesModel, tea.Cmd) {
	f := c.fields
	*f = courseFields{
		credits:  store.CreditOptions[1],
		semester: c.semester,
		color:    store.CourseColors[0],
	}
	if f.semester == "" {
		f.semester = store.DefaultSemester
	}
	c.formType = formNewCourse
	c.editingID = 0
	if existing != nil {
		f.name = existing.CourseName
		f.code = existing.CourseCode
		f.instructor = existing.Instructor
		f.credits = existing.Credits
		f.semester = existing.Semester
		f.color = existing.Color
		c.formType = formEditCourse
		c.editingID = existing.ID
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Course Name").Value(&f.name).Validate(notBlank("Course name")),
			huh.NewInput().Title("Course Code").Value(&f.code).Validate(notBlank("Course code")),
			huh.NewInput().Title("Instructor").Value(&f.instructor),
		),
		huh.NewGroup(
			huh.NewSelect[int]().Title("Credits").Options(creditOptions()...).Value(&f.credits),
			huh.NewSelect[string]().Title("Semester").Options(huh.NewOptions(store.Semesters...)...).Value(&f.semester),
			huh.NewSelect[string]().Title("Color").Options(colorOptions()...).Value(&f.color),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c coursesModel) showBlockForm() (coursesModel, tea.Cmd) {
	f := c.fields
	f.days = nil
	f.start = "09:00"
	f.end = "10:30"
	f.location = ""
	c.formType = formBlock

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Days").Options(huh.NewOptions(store.Weekdays...)...).Value(&f.days),
			huh.NewInput().Title("Start (HH:MM)").Value(&f.start).Validate(validClock),
			huh.NewInput().Title("End (HH:MM)").Value(&f.end).Validate(validClock),
			huh.NewInput().Title("Location").Value(&f.location),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c coursesModel) updateForm(msg tea.Msg) (coursesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		c.formActive = false
		c.form = nil
		return c, nil
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		switch c.formType {
		case formNewCourse, formEditCourse:
			return c, c.saveCourse()
		case formBlock:
			return c, c.saveBlock()
		}
	}
	return c, cmd
}

func (c coursesModel) saveCourse() tea.Cmd {
	svc := c.svc
	f := *c.fields
	course := store.Course{
		ID:         c.editingID,
		CourseName: strings.TrimSpace(f.name),
		CourseCode: strings.ToUpper(strings.TrimSpace(f.code)),
		Instructor: strings.TrimSpace(f.instructor),
		Credits:    f.credits,
		Semester:   f.semester,
		Color:      f.color,
		IsActive:   true,
	}
	detailID := int64(0)
	if c.detail != nil {
		detailID = c.detail.Course.ID
	}
	return func() tea.Msg {
		ctx := context.Background()
		if course.ID != 0 {
			existing, err := svc.Courses.Get(ctx, course.ID)
			if err != nil {
				return errStatus("Save failed", err)
			}
			course.IsActive = existing.IsActive
			course.CreatedAt = existing.CreatedAt
		}
		if _, err := svc.Courses.ValidateAndSave(ctx, course); err != nil {
			return errStatus("Save failed", err)
		}
		if detailID != 0 {
			d, err := svc.Dashboard.CourseDetail(ctx, detailID)
			return courseDetailMsg{detail: d, err: err}
		}
		return statusMsg{text: "Saved " + course.CourseCode}
	}
}

func (c coursesModel) saveBlock() tea.Cmd {
	if c.detail == nil {
		return nil
	}
	svc := c.svc
	f := *c.fields
	courseID := c.detail.Course.ID
	block := store.ClassSchedule{
		CourseID:  courseID,
		Days:      strings.Join(orderedDays(f.days), ","),
		StartTime: strings.TrimSpace(f.start),
		EndTime:   strings.TrimSpace(f.end),
		Location:  strings.TrimSpace(f.location),
	}
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := svc.Schedules.ValidateAndSave(ctx, block); err != nil {
			return errStatus("Save failed", err)
		}
		d, err := svc.Dashboard.CourseDetail(ctx, courseID)
		return courseDetailMsg{detail: d, err: err}
	}
}

// orderedDays sorts picked days into week order.
func orderedDays(days []string) []string {
	var out []string
	for _, wd := range store.Weekdays {
		for _, d := range days {
			if d == wd {
				out = append(out, wd)
				break
			}
		}
	}
	return out
}

func (c coursesModel) view() string {
	w := c.width - 4
	if c.formActive && c.form != nil {
		title := "New Course"
		switch c.formType {
		case formEditCourse:
			title = "Edit Course"
		case formBlock:
			title = "Add Class Time"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", c.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if c.detail != nil {
		return c.renderDetail(w)
	}
	return c.renderList(w)
}

func (c coursesModel) renderList(w int) string {
	if c.list.loading() {
		return renderLoading(w, "Courses")
	}
	if msg, failed := c.list.failed(); failed {
		return renderError(w, "Courses", msg)
	}
	courses, _ := c.list.get()
	title := titleStyle.Render("Courses") + mutedStyle.Render("  "+c.semester)

	if len(courses) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No courses this semester. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-10s %-30s %-20s %s", "Code", "Name", "Instructor", "Credits")))
	for i, course := range courses {
		prefix, style := cursorPrefix(i == c.cursor)
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-10s %-30s %-20s %d",
			prefix, colorDot(course.Color), course.CourseCode, course.CourseName, course.Instructor, course.Credits)))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  a: archive  d: delete  enter: details"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c coursesModel) renderDetail(w int) string {
	d := c.detail
	course := d.Course
	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s %s  %s", colorDot(course.Color), course.CourseCode, course.CourseName)),
		mutedStyle.Render(fmt.Sprintf("%s  %d credits  %s", course.Instructor, course.Credits, course.Semester)),
		"",
		fmt.Sprintf("Recommended study: %dh/week", course.RecommendedStudyHours()),
		fmt.Sprintf("Pending tasks: %d", d.PendingTasks),
		"",
	}

	if !d.HasSchedules() {
		rows = append(rows, mutedStyle.Render("No class times. Press b to add one."))
	} else {
		rows = append(rows, titleStyle.Render(fmt.Sprintf("Class Times (%d/week)  %s", d.WeeklySessionCount(), d.FormattedDays())))
		for i, cs := range d.Schedules {
			prefix, style := cursorPrefix(i == c.blockCursor)
			rows = append(rows, style.Render(fmt.Sprintf("%s%-28s %-13s %s",
				prefix, cs.Days, cs.TimeRange(), cs.DisplayLocation())))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  b: add class time  d: remove  e: edit course  esc: back"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
