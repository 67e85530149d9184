package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studydesk/internal/store"
)

const dueLayout = "2006-01-02 15:04"

type taskFilter int

const (
	filterPending taskFilter = iota
	filterCompleted
	filterAll
)

var taskFilterNames = []string{"Pending", "Completed", "All"}

type taskFields struct {
	courseID    int64
	title       string
	description string
	due         string
	priority    string
}

type tasksData struct {
	tasks   []store.Task
	courses map[int64]store.Course
}

type tasksModel struct {
	svc    Services
	width  int
	height int

	filter taskFilter
	data   uiState[tasksData]
	active []store.Course
	cursor int

	formActive bool
	form       *huh.Form
	fields     *taskFields
}

func newTasksModel(svc Services) tasksModel {
	return tasksModel{
		svc:    svc,
		data:   loadingState[tasksData](),
		fields: &taskFields{},
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	data   tasksData
	active []store.Course
	err    error
}

func (t tasksModel) refresh() tea.Cmd {
	svc := t.svc
	filter := t.filter
	return func() tea.Msg {
		ctx := context.Background()
		var tasks []store.Task
		var err error
		switch filter {
		case filterCompleted:
			tasks, err = svc.Tasks.Completed(ctx)
		case filterAll:
			tasks, err = svc.Tasks.All(ctx)
		default:
			tasks, err = svc.Tasks.Pending(ctx)
		}
		if err != nil {
			return tasksDataMsg{err: err}
		}
		all, err := svc.Courses.All(ctx)
		if err != nil {
			return tasksDataMsg{err: err}
		}
		byID := make(map[int64]store.Course, len(all))
		var active []store.Course
		for _, c := range all {
			byID[c.ID] = c
			if c.IsActive {
				active = append(active, c)
			}
		}
		return tasksDataMsg{data: tasksData{tasks: tasks, courses: byID}, active: active}
	}
}

func (t tasksModel) selected() (store.Task, bool) {
	d, ok := t.data.get()
	if !ok || t.cursor >= len(d.tasks) {
		return store.Task{}, false
	}
	return d.tasks[t.cursor], true
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			t.data = errorState[tasksData](msg.err)
			return t, nil
		}
		t.data = successState(msg.data)
		t.active = msg.active
		t.cursor = clampCursor(t.cursor, len(msg.data.tasks))
		return t, nil

	case tea.KeyMsg:
		d, _ := t.data.get()
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(d.tasks)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Filter):
			t.filter = (t.filter + 1) % taskFilter(len(taskFilterNames))
			t.cursor = 0
			return t, t.refresh()
		case key.Matches(msg, keys.New):
			return t.showTaskForm()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			if task, ok := t.selected(); ok {
				return t, t.toggle(task)
			}
		case key.Matches(msg, keys.Delete):
			if task, ok := t.selected(); ok {
				return t, t.remove(task)
			}
		case key.Matches(msg, keys.Clear):
			return t, t.clearCompleted()
		case key.Matches(msg, keys.Refresh):
			return t, t.refresh()
		}
	}
	return t, nil
}

func (t tasksModel) toggle(task store.Task) tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		done, err := svc.Tasks.ToggleCompletion(context.Background(), task.ID, svc.Now())
		if err != nil {
			return errStatus("Update failed", err)
		}
		if done {
			return statusMsg{text: "Completed " + task.Title}
		}
		return statusMsg{text: "Reopened " + task.Title}
	}
}

func (t tasksModel) remove(task store.Task) tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		if err := svc.Tasks.Delete(context.Background(), task.ID); err != nil {
			return errStatus("Delete failed", err)
		}
		return statusMsg{text: "Deleted " + task.Title}
	}
}

func (t tasksModel) clearCompleted() tea.Cmd {
	svc := t.svc
	return func() tea.Msg {
		n, err := svc.Tasks.ClearCompleted(context.Background())
		if err != nil {
			return errStatus("Clear failed", err)
		}
		return statusMsg{text: fmt.Sprintf("Cleared %d completed tasks", n)}
	}
}

// parseDue reads a due date typed in the local zone.
func parseDue(s string, loc *time.Location) (time.Time, error) {
	due, err := time.ParseInLocation(dueLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD HH:MM")
	}
	return due, nil
}

func (t tasksModel) showTaskForm() (tasksModel, tea.Cmd) {
	if len(t.active) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "No courses yet. Press 2 to go to Courses and create one.", isError: true}
		}
	}

	f := t.fields
	*f = taskFields{
		courseID: t.active[0].ID,
		due:      t.svc.Now().Add(24 * time.Hour).Format(dueLayout),
		priority: store.PriorityMedium,
	}

	courseOpts := make([]huh.Option[int64], len(t.active))
	for i, c := range t.active {
		courseOpts[i] = huh.NewOption(c.CourseCode+"  "+c.CourseName, c.ID)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().Title("Course").Options(courseOpts...).Value(&f.courseID),
			huh.NewInput().Title("Title").Value(&f.title).Validate(notBlank("Task title")),
			huh.NewText().Title("Description").Value(&f.description),
		),
		huh.NewGroup(
			huh.NewInput().Title("Due (YYYY-MM-DD HH:MM)").Value(&f.due).Validate(func(s string) error {
				_, err := parseDue(s, time.Local)
				return err
			}),
			huh.NewSelect[string]().Title("Priority").Options(huh.NewOptions(store.Priorities...)...).Value(&f.priority),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		return t, t.saveTask()
	}
	return t, cmd
}

func (t tasksModel) saveTask() tea.Cmd {
	svc := t.svc
	f := *t.fields
	return func() tea.Msg {
		due, err := parseDue(f.due, time.Local)
		if err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		task := store.Task{
			CourseID:    f.courseID,
			Title:       strings.TrimSpace(f.title),
			Description: strings.TrimSpace(f.description),
			DueDate:     due,
			DueTime:     due.Format("15:04"),
			Priority:    f.priority,
		}
		if _, err := svc.Tasks.ValidateAndSave(context.Background(), task, svc.Now()); err != nil {
			return errStatus("Save failed", err)
		}
		return statusMsg{text: "Added " + task.Title}
	}
}

func (t tasksModel) renderFilterTabs() string {
	var tabs []string
	for i, name := range taskFilterNames {
		if taskFilter(i) == t.filter {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (t tasksModel) view() string {
	w := t.width - 4
	if t.formActive && t.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if t.data.loading() {
		return renderLoading(w, "Tasks")
	}
	if msg, failed := t.data.failed(); failed {
		return renderError(w, "Tasks", msg)
	}
	d, _ := t.data.get()

	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Tasks"), "  ", t.renderFilterTabs())
	rows := []string{header, ""}

	if len(d.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks here. Press n to add one."))
	}

	now := t.svc.Now()
	for i, task := range d.tasks {
		prefix, style := cursorPrefix(i == t.cursor)
		course := d.courses[task.CourseID]
		check := "[ ]"
		if task.IsCompleted {
			check = "[x]"
			style = completedItemStyle
		}
		dueStyle := mutedStyle
		switch {
		case task.IsOverdue(now):
			dueStyle = errorStyle
		case task.IsDueSoon(now):
			dueStyle = warningStyle
		}
		label := task.PriorityLabel()
		rows = append(rows, fmt.Sprintf("%s %s %-8s %s  %s  %s",
			style.Render(prefix+check),
			colorDot(course.Color),
			course.CourseCode,
			style.Render(fmt.Sprintf("%-30s", task.Title)),
			priorityStyle(label).Render(fmt.Sprintf("%-6s", label)),
			dueStyle.Render(task.DueDate.Local().Format("Mon Jan 02 15:04")+"  "+relativeDue(task.DueDate, now)),
		))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  t: toggle  d: delete  f: filter  c: clear completed"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
