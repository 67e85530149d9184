package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// addCourse is a test helper that saves an active course.
func addCourse(t *testing.T, s *Store, code, semester string, credits int) int64 {
	t.Helper()
	id, err := s.SaveCourse(context.Background(), Course{
		CourseName: code + " name",
		CourseCode: code,
		Instructor: "Dr. Smith",
		Credits:    credits,
		Semester:   semester,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("save course: %v", err)
	}
	return id
}

func addTask(t *testing.T, s *Store, courseID int64, title string, due time.Time, done bool) int64 {
	t.Helper()
	id, err := s.SaveTask(context.Background(), Task{
		CourseID:    courseID,
		Title:       title,
		DueDate:     due,
		Priority:    PriorityMedium,
		IsCompleted: done,
	})
	if err != nil {
		t.Fatalf("save task: %v", err)
	}
	return id
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.Get(&version, "PRAGMA user_version")
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "studydesk.db")
	s, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	addCourse(t, s, "CS101", DefaultSemester, 3)
	s.Close()

	s2, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	courses, err := s2.ListCourses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 1 {
		t.Fatalf("expected course to survive reopen, got %d", len(courses))
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.Get(&fk, "PRAGMA foreign_keys")
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Student profile
// ============================================================

func TestGetProfileAbsent(t *testing.T) {
	s := newTestStore(t)
	p, err := s.GetProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Fatalf("expected no profile, got %+v", p)
	}
	exists, _ := s.ProfileExists(context.Background())
	if exists {
		t.Fatal("ProfileExists should be false")
	}
}

func TestUpsertProfileForcesSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := Student{ID: 42, FullName: "Michael Franco", CurrentSemester: DefaultSemester, DailyStudyGoalHours: 4, Motto: DefaultMotto}
	if err := s.UpsertProfile(ctx, st); err != nil {
		t.Fatal(err)
	}
	st.FullName = "Michael J. Franco"
	if err := s.UpsertProfile(ctx, st); err != nil {
		t.Fatal(err)
	}

	var n int
	s.db.Get(&n, "SELECT COUNT(*) FROM student_profile")
	if n != 1 {
		t.Fatalf("expected 1 profile row, got %d", n)
	}
	p, _ := s.GetProfile(ctx)
	if p.ID != ProfileID {
		t.Fatalf("expected id %d, got %d", ProfileID, p.ID)
	}
	if p.FullName != "Michael J. Franco" {
		t.Fatalf("unexpected name %q", p.FullName)
	}
}

func TestProfilePartialUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.UpsertProfile(ctx, Student{FullName: "Ana", CurrentSemester: DefaultSemester})

	s.UpdateBasicInfo(ctx, "Ana Lima", "MIT", "Physics", "Semester 1")
	s.UpdateContactInfo(ctx, "ana@example.com", "555-0100")
	s.UpdateStudyGoal(ctx, 6)
	s.UpdateMotto(ctx, "Onward")
	s.UpdateStreak(ctx, 3)
	s.AddStudyHours(ctx, 2)
	s.AddStudyHours(ctx, 5)
	s.UpdateSemester(ctx, "Semester 2")

	p, err := s.GetProfile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Ana Lima" || p.University != "MIT" || p.Major != "Physics" {
		t.Fatalf("basic info not applied: %+v", p)
	}
	if p.Email != "ana@example.com" || p.PhoneNumber != "555-0100" {
		t.Fatalf("contact info not applied: %+v", p)
	}
	if p.DailyStudyGoalHours != 6 || p.Motto != "Onward" || p.CurrentStreak != 3 {
		t.Fatalf("goal/motto/streak not applied: %+v", p)
	}
	if p.TotalStudyHours != 7 {
		t.Fatalf("expected 7 study hours, got %d", p.TotalStudyHours)
	}
	if p.CurrentSemester != "Semester 2" {
		t.Fatalf("expected Semester 2, got %q", p.CurrentSemester)
	}
}

func TestDeleteProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.UpsertProfile(ctx, Student{FullName: "Ana"})
	if err := s.DeleteProfile(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.ProfileExists(ctx); ok {
		t.Fatal("profile should be gone")
	}
}

// ============================================================
// Courses
// ============================================================

func TestSaveAndGetCourse(t *testing.T) {
	s := newTestStore(t)
	id := addCourse(t, s, "CS101", DefaultSemester, 3)
	if id == 0 {
		t.Fatal("expected non-zero ID")
	}

	c, err := s.GetCourse(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if c.CourseCode != "CS101" || c.Credits != 3 || !c.IsActive {
		t.Fatalf("unexpected course: %+v", c)
	}
	if c.Color != CourseColors[0] {
		t.Fatalf("expected default color, got %q", c.Color)
	}
	if c.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
	if c.RecommendedStudyHours() != 6 {
		t.Fatalf("expected 6 recommended hours, got %d", c.RecommendedStudyHours())
	}
}

func TestGetCourseNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetCourse(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveCourseUpsertKeepsChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := addCourse(t, s, "CS101", DefaultSemester, 3)
	s.SaveSchedule(ctx, ClassSchedule{CourseID: id, Days: "Monday", StartTime: "08:00", EndTime: "10:00"})
	addTask(t, s, id, "Essay", time.Now().Add(48*time.Hour), false)

	c, _ := s.GetCourse(ctx, id)
	c.CourseName = "Intro to CS"
	c.Credits = 6
	if _, err := s.SaveCourse(ctx, *c); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetCourse(ctx, id)
	if got.CourseName != "Intro to CS" || got.Credits != 6 {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", c.CreatedAt, got.CreatedAt)
	}
	scheds, _ := s.ListSchedulesByCourse(ctx, id)
	tasks, _ := s.ListTasksByCourse(ctx, id)
	if len(scheds) != 1 || len(tasks) != 1 {
		t.Fatalf("upsert must not drop children: %d schedules, %d tasks", len(scheds), len(tasks))
	}
}

func TestListCoursesBySemester(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addCourse(t, s, "CS101", "Semester 1", 3)
	addCourse(t, s, "MA201", "Semester 1", 6)
	addCourse(t, s, "PH301", "Semester 2", 9)

	sem1, err := s.ListCoursesBySemester(ctx, "Semester 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sem1) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(sem1))
	}
	if sem1[0].CourseCode != "CS101" {
		t.Fatalf("expected sorted by code, got %s first", sem1[0].CourseCode)
	}

	credits, _ := s.TotalCreditsBySemester(ctx, "Semester 1")
	if credits != 9 {
		t.Fatalf("expected 9 credits, got %d", credits)
	}
	all, _ := s.TotalActiveCredits(ctx)
	if all != 18 {
		t.Fatalf("expected 18 active credits, got %d", all)
	}
	n, _ := s.CourseCountBySemester(ctx, "Semester 2")
	if n != 1 {
		t.Fatalf("expected 1 course in Semester 2, got %d", n)
	}
}

func TestTotalCreditsEmpty(t *testing.T) {
	s := newTestStore(t)
	credits, err := s.TotalCreditsBySemester(context.Background(), "Semester 1")
	if err != nil {
		t.Fatal(err)
	}
	if credits != 0 {
		t.Fatalf("expected 0, got %d", credits)
	}
}

func TestArchiveCourse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := addCourse(t, s, "CS101", DefaultSemester, 3)
	addCourse(t, s, "MA201", DefaultSemester, 3)

	if err := s.ArchiveCourse(ctx, id); err != nil {
		t.Fatal(err)
	}

	active, _ := s.ListActiveCourses(ctx)
	if len(active) != 1 || active[0].CourseCode != "MA201" {
		t.Fatalf("archived course still active: %+v", active)
	}
	all, _ := s.ListCourses(ctx)
	if len(all) != 2 {
		t.Fatalf("archive must keep the row, got %d courses", len(all))
	}
	c, _ := s.GetCourse(ctx, id)
	if c.IsActive {
		t.Fatal("expected is_active = false")
	}
	if exists, _ := s.CourseCodeExists(ctx, "CS101"); exists {
		t.Fatal("archived code should not count as existing")
	}

	s.UnarchiveCourse(ctx, id)
	n, _ := s.ActiveCourseCount(ctx)
	if n != 2 {
		t.Fatalf("expected 2 active courses after unarchive, got %d", n)
	}
}

func TestArchiveCourseNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.ArchiveCourse(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCourseCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := addCourse(t, s, "CS101", DefaultSemester, 3)
	other := addCourse(t, s, "MA201", DefaultSemester, 3)
	s.SaveSchedule(ctx, ClassSchedule{CourseID: id, Days: "Monday", StartTime: "08:00", EndTime: "10:00"})
	s.SaveSchedule(ctx, ClassSchedule{CourseID: other, Days: "Friday", StartTime: "08:00", EndTime: "10:00"})
	addTask(t, s, id, "Essay", time.Now().Add(time.Hour), false)
	sess, _ := s.StartSession(ctx, &id, time.Now())

	if err := s.DeleteCourse(ctx, id); err != nil {
		t.Fatal(err)
	}

	if has, _ := s.CourseHasSchedules(ctx, id); has {
		t.Fatal("schedules should be deleted with the course")
	}
	if tasks, _ := s.ListTasksByCourse(ctx, id); len(tasks) != 0 {
		t.Fatalf("tasks should be deleted with the course, got %d", len(tasks))
	}
	if n, _ := s.ScheduleCount(ctx); n != 1 {
		t.Fatalf("other course's schedule should remain, count=%d", n)
	}
	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CourseID != nil {
		t.Fatalf("session course should be cleared, got %v", *got.CourseID)
	}
}

func TestSearchCourses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addCourse(t, s, "CS101", DefaultSemester, 3)
	addCourse(t, s, "MA201", DefaultSemester, 3)

	found, _ := s.SearchCourses(ctx, "CS")
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}
	byInstructor, _ := s.ListCoursesByInstructor(ctx, "Dr. Smith")
	if len(byInstructor) != 2 {
		t.Fatalf("expected 2 courses by instructor, got %d", len(byInstructor))
	}
}

func TestDeleteAllCourses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := addCourse(t, s, "CS101", DefaultSemester, 3)
	addTask(t, s, id, "Essay", time.Now().Add(time.Hour), false)

	if err := s.DeleteAllCourses(ctx); err != nil {
		t.Fatal(err)
	}
	if all, _ := s.ListCourses(ctx); len(all) != 0 {
		t.Fatalf("expected no courses, got %d", len(all))
	}
	if n, _ := s.PendingTaskCount(ctx); n != 0 {
		t.Fatalf("expected tasks cascaded, got %d", n)
	}
}

// ============================================================
// Class schedules
// ============================================================

func TestSaveAndGetSchedule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)

	id, err := s.SaveSchedule(ctx, ClassSchedule{CourseID: cid, Days: "Monday,Wednesday", StartTime: "08:00", EndTime: "10:00", Location: "Room 4"})
	if err != nil {
		t.Fatal(err)
	}
	cs, err := s.GetSchedule(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if cs.TimeRange() != "08:00 - 10:00" || cs.Location != "Room 4" {
		t.Fatalf("unexpected schedule: %+v", cs)
	}
	if !cs.IsOnDay("wednesday") || cs.IsOnDay("Friday") {
		t.Fatalf("IsOnDay wrong for %q", cs.Days)
	}
}

func TestScheduleRequiresCourse(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveSchedule(context.Background(), ClassSchedule{CourseID: 999, Days: "Monday", StartTime: "08:00", EndTime: "09:00"})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestListSchedulesByDayPrefilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	s.SaveSchedule(ctx, ClassSchedule{CourseID: cid, Days: "Monday,Friday", StartTime: "08:00", EndTime: "10:00"})
	s.SaveSchedule(ctx, ClassSchedule{CourseID: cid, Days: "Tuesday", StartTime: "11:00", EndTime: "12:00"})

	mon, err := s.ListSchedulesByDay(ctx, "Monday")
	if err != nil {
		t.Fatal(err)
	}
	if len(mon) != 1 {
		t.Fatalf("expected 1 Monday schedule, got %d", len(mon))
	}
}

func TestSaveSchedulesBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)

	ids, err := s.SaveSchedules(ctx, []ClassSchedule{
		{CourseID: cid, Days: "Monday", StartTime: "08:00", EndTime: "09:00"},
		{CourseID: cid, Days: "Thursday", StartTime: "14:00", EndTime: "15:00"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
}

func TestSaveSchedulesBatchRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)

	_, err := s.SaveSchedules(ctx, []ClassSchedule{
		{CourseID: cid, Days: "Monday", StartTime: "08:00", EndTime: "09:00"},
		{CourseID: 999, Days: "Thursday", StartTime: "14:00", EndTime: "15:00"},
	})
	if err == nil {
		t.Fatal("expected error for bad course")
	}
	if n, _ := s.ScheduleCount(ctx); n != 0 {
		t.Fatalf("expected rollback, got %d schedules", n)
	}
}

func TestReplaceCourseSchedules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	s.SaveSchedule(ctx, ClassSchedule{CourseID: cid, Days: "Monday", StartTime: "08:00", EndTime: "09:00"})

	err := s.ReplaceCourseSchedules(ctx, cid, []ClassSchedule{
		{Days: "Tuesday", StartTime: "10:00", EndTime: "11:00"},
		{Days: "Thursday", StartTime: "10:00", EndTime: "11:00"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.ListSchedulesByCourse(ctx, cid)
	if len(got) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(got))
	}
	for _, cs := range got {
		if cs.IsOnDay("Monday") {
			t.Fatal("old schedule should be replaced")
		}
	}
}

func TestDeleteSchedule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	id, _ := s.SaveSchedule(ctx, ClassSchedule{CourseID: cid, Days: "Monday", StartTime: "08:00", EndTime: "09:00", Location: "Lab"})

	byLoc, _ := s.ListSchedulesByLocation(ctx, "Lab")
	if len(byLoc) != 1 {
		t.Fatalf("expected 1 schedule in Lab, got %d", len(byLoc))
	}
	if err := s.DeleteSchedule(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSchedule(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSchedule(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestSaveAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	due := time.Date(2030, 5, 1, 23, 59, 0, 0, time.UTC)

	id := addTask(t, s, cid, "Essay", due, false)
	task, err := s.GetTask(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if task.Title != "Essay" || !task.DueDate.Equal(due) {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.IsCompleted || task.CompletedAt != nil {
		t.Fatal("new task should be pending")
	}
}

func TestTaskCompletionKeepsCompletedAtConsistent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	id := addTask(t, s, cid, "Essay", time.Now().Add(time.Hour), false)

	if err := s.MarkTaskComplete(ctx, id, time.Now()); err != nil {
		t.Fatal(err)
	}
	task, _ := s.GetTask(ctx, id)
	if !task.IsCompleted || task.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp: %+v", task)
	}

	s.MarkTaskIncomplete(ctx, id)
	task, _ = s.GetTask(ctx, id)
	if task.IsCompleted || task.CompletedAt != nil {
		t.Fatalf("expected pending without timestamp: %+v", task)
	}

	task.IsCompleted = true
	s.SaveTask(ctx, *task)
	task, _ = s.GetTask(ctx, id)
	if task.CompletedAt == nil {
		t.Fatal("SaveTask should stamp completed_at")
	}
}

func TestPendingTasksOrderedByDueDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	now := time.Now()
	addTask(t, s, cid, "later", now.Add(72*time.Hour), false)
	addTask(t, s, cid, "sooner", now.Add(2*time.Hour), false)
	addTask(t, s, cid, "done", now.Add(time.Hour), true)

	pending, err := s.ListPendingTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].Title != "sooner" {
		t.Fatalf("expected soonest first, got %q", pending[0].Title)
	}

	completed, _ := s.ListCompletedTasks(ctx)
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed, got %d", len(completed))
	}
	if n, _ := s.CompletedTaskCount(ctx); n != 1 {
		t.Fatalf("expected completed count 1, got %d", n)
	}
	if n, _ := s.PendingTaskCountByCourse(ctx, cid); n != 2 {
		t.Fatalf("expected 2 pending for course, got %d", n)
	}
}

func TestOverdueTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	now := time.Now()
	addTask(t, s, cid, "late", now.Add(-2*time.Hour), false)
	addTask(t, s, cid, "late but done", now.Add(-2*time.Hour), true)
	addTask(t, s, cid, "future", now.Add(2*time.Hour), false)

	overdue, err := s.ListOverdueTasks(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(overdue) != 1 || overdue[0].Title != "late" {
		t.Fatalf("unexpected overdue list: %+v", overdue)
	}
	if n, _ := s.OverdueTaskCount(ctx, now); n != 1 {
		t.Fatalf("expected 1 overdue, got %d", n)
	}
	if !overdue[0].IsOverdue(now) {
		t.Fatal("IsOverdue should agree with the store")
	}
}

func TestTasksDueBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	base := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	addTask(t, s, cid, "in", base.Add(5*time.Hour), false)
	addTask(t, s, cid, "edge", base.Add(24*time.Hour), false)
	addTask(t, s, cid, "before", base.Add(-time.Minute), false)

	got, err := s.ListTasksDueBetween(ctx, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "in" {
		t.Fatalf("expected only 'in', got %+v", got)
	}
}

func TestTasksByPriorityAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	s.SaveTask(ctx, Task{CourseID: cid, Title: "Lab report", Priority: PriorityHigh, DueDate: time.Now().Add(time.Hour)})
	s.SaveTask(ctx, Task{CourseID: cid, Title: "Reading", Description: "chapter on lab safety", DueDate: time.Now().Add(time.Hour)})

	high, _ := s.ListTasksByPriority(ctx, PriorityHigh)
	if len(high) != 1 {
		t.Fatalf("expected 1 high priority task, got %d", len(high))
	}
	found, _ := s.SearchTasks(ctx, "lab")
	if len(found) != 2 {
		t.Fatalf("expected 2 matches on title or description, got %d", len(found))
	}
	all, _ := s.ListTasks(ctx)
	if all[1].Priority != PriorityMedium {
		t.Fatalf("expected default priority Medium, got %q", all[1].Priority)
	}
}

func TestDeleteCompletedTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	addTask(t, s, cid, "a", time.Now(), true)
	addTask(t, s, cid, "b", time.Now(), true)
	addTask(t, s, cid, "c", time.Now(), false)

	n, err := s.DeleteCompletedTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if left, _ := s.ListTasks(ctx); len(left) != 1 {
		t.Fatalf("expected 1 task left, got %d", len(left))
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteTask(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Study sessions
// ============================================================

func TestStartAndStopSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	sess, err := s.StartSession(ctx, &cid, start)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.Running() {
		t.Fatal("new session should be running")
	}
	running, _ := s.GetRunningSession(ctx)
	if running == nil || running.ID != sess.ID {
		t.Fatalf("expected running session %d, got %+v", sess.ID, running)
	}

	stopped, err := s.StopSession(ctx, sess.ID, start.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if stopped.Running() || stopped.Duration != 5400 {
		t.Fatalf("unexpected stopped session: %+v", stopped)
	}
	if r, _ := s.GetRunningSession(ctx); r != nil {
		t.Fatal("no session should be running")
	}

	again, _ := s.StopSession(ctx, sess.ID, start.Add(3*time.Hour))
	if again.Duration != 5400 {
		t.Fatal("stopping twice must not change the duration")
	}
}

func TestStopSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.StopSession(context.Background(), 999, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStudySecondsAndSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	day := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	a, _ := s.StartSession(ctx, &cid, day)
	s.StopSession(ctx, a.ID, day.Add(time.Hour))
	b, _ := s.StartSession(ctx, nil, day.Add(2*time.Hour))
	s.StopSession(ctx, b.ID, day.Add(150*time.Minute))
	c, _ := s.StartSession(ctx, &cid, day.Add(24*time.Hour))
	s.StopSession(ctx, c.ID, day.Add(25*time.Hour))
	s.StartSession(ctx, &cid, day.Add(26*time.Hour)) // still running

	total, err := s.StudySecondsBetween(ctx, day.Add(-time.Hour), day.Add(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if total != 3600+1800+3600 {
		t.Fatalf("expected 9000 seconds, got %d", total)
	}

	summary, err := s.DailyStudySummary(ctx, day.Add(-time.Hour), day.Add(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected 3 day/course rows, got %d: %+v", len(summary), summary)
	}
	if summary[0].Date != "2030-01-07" {
		t.Fatalf("unexpected first day %q", summary[0].Date)
	}
	var general bool
	for _, ds := range summary {
		if ds.CourseID == 0 && ds.CourseCode == "General" {
			general = true
		}
	}
	if !general {
		t.Fatal("expected a General row for the session without a course")
	}
}

func TestDailyStudySummaryUsesCallerZone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tokyo := time.FixedZone("JST", 9*60*60)

	// 2030-01-07 20:00 UTC is already 2030-01-08 in Tokyo.
	start := time.Date(2030, 1, 7, 20, 0, 0, 0, time.UTC)
	a, _ := s.StartSession(ctx, nil, start)
	s.StopSession(ctx, a.ID, start.Add(time.Hour))

	from := time.Date(2030, 1, 7, 0, 0, 0, 0, tokyo)
	summary, err := s.DailyStudySummary(ctx, from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 1 || summary[0].Date != "2030-01-08" || summary[0].TotalSeconds != 3600 {
		t.Fatalf("summary = %+v, want one row on 2030-01-08", summary)
	}

	utc, _ := s.DailyStudySummary(ctx, from.UTC(), from.AddDate(0, 0, 7).UTC())
	if len(utc) != 1 || utc[0].Date != "2030-01-07" {
		t.Fatalf("utc summary = %+v, want 2030-01-07", utc)
	}
}

func TestListSessionsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cid := addCourse(t, s, "CS101", DefaultSemester, 3)
	base := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		sess, _ := s.StartSession(ctx, &cid, base.Add(time.Duration(i)*time.Hour))
		s.StopSession(ctx, sess.ID, base.Add(time.Duration(i)*time.Hour+30*time.Minute))
	}
	s.StartSession(ctx, nil, base.Add(5*time.Hour))

	byCourse, _ := s.ListSessions(ctx, SessionFilter{CourseID: &cid})
	if len(byCourse) != 3 {
		t.Fatalf("expected 3 course sessions, got %d", len(byCourse))
	}
	from := base.Add(90 * time.Minute)
	ranged, _ := s.ListSessions(ctx, SessionFilter{From: &from})
	if len(ranged) != 2 {
		t.Fatalf("expected 2 sessions after %v, got %d", from, len(ranged))
	}
	limited, _ := s.ListSessions(ctx, SessionFilter{Limit: 1})
	if len(limited) != 1 || limited[0].CourseID != nil {
		t.Fatalf("expected newest session first, got %+v", limited)
	}

	s.UpdateSessionNotes(ctx, byCourse[0].ID, "chapter 3")
	got, _ := s.GetSession(ctx, byCourse[0].ID)
	if got.Notes != "chapter 3" {
		t.Fatalf("notes not saved: %q", got.Notes)
	}
}

// ============================================================
// Settings and preferences
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	defaults := map[string]string{
		KeyThemeMode:            "system",
		KeyFirstRun:             "true",
		KeyCurrentSemester:      "Semester 1",
		KeyClassReminderMinutes: "15",
		KeyDailyStudyGoal:       "4",
		KeyWeeklyStudyGoal:      "20",
		KeyOnboardingComplete:   "false",
		KeyFocusWork:            "1500",
		KeyFocusBreak:           "300",
		KeyFocusLongBreak:       "900",
		KeyFocusCount:           "4",
		KeyIdleTimeout:          "300",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(ctx, k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SetSetting(ctx, "key", "v1")
	s.SetSetting(ctx, "key", "v2")
	val, _ := s.GetSetting(ctx, "key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(defaultSettings) {
		t.Fatalf("expected %d default settings, got %d", len(defaultSettings), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestPreferencesFallBackToDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Preferences()

	s.DeleteAllSettings(ctx)
	goal, err := p.Int(ctx, KeyWeeklyStudyGoal)
	if err != nil {
		t.Fatal(err)
	}
	if goal != 20 {
		t.Fatalf("expected default 20, got %d", goal)
	}
	s.SetSetting(ctx, KeyDailyStudyGoal, "lots")
	if daily, _ := p.Int(ctx, KeyDailyStudyGoal); daily != 4 {
		t.Fatalf("expected fallback 4 for junk value, got %d", daily)
	}
	if first, _ := p.IsFirstRun(ctx); !first {
		t.Fatal("expected first run by default")
	}
	sem, _ := p.CurrentSemester(ctx)
	if sem != DefaultSemester {
		t.Fatalf("expected %q, got %q", DefaultSemester, sem)
	}
}

func TestPreferencesThemeMode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Preferences()

	if err := p.SetThemeMode(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}
	if mode, _ := p.ThemeMode(ctx); mode != ThemeDark {
		t.Fatalf("expected dark, got %q", mode)
	}
	if err := p.SetThemeMode(ctx, "neon"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestPreferencesOnboarding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Preferences()

	if err := p.CompleteOnboarding(ctx); err != nil {
		t.Fatal(err)
	}
	first, _ := p.IsFirstRun(ctx)
	done, _ := p.Bool(ctx, KeyOnboardingComplete)
	if first || !done {
		t.Fatalf("first=%v done=%v", first, done)
	}
}

func TestIsStreakValid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Preferences()
	now := time.Date(2030, 4, 10, 12, 0, 0, 0, time.Local)

	if ok, _ := p.IsStreakValid(ctx, now); ok {
		t.Fatal("no streak date recorded yet")
	}

	tests := []struct {
		name string
		last time.Time
		want bool
	}{
		{"today", now, true},
		{"yesterday", now.AddDate(0, 0, -1), true},
		{"two days ago", now.AddDate(0, 0, -2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.UpdateStreakDate(ctx, tt.last)
			got, err := p.IsStreakValid(ctx, now)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("IsStreakValid = %v, want %v", got, tt.want)
			}
		})
	}

	last, _ := p.LastStreakDate(ctx, time.Local)
	if last.Day() != 8 {
		t.Fatalf("expected last streak day 8, got %v", last)
	}
}

func TestFocusSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := s.Preferences()

	p.SetInt(ctx, KeyFocusWork, 3000)
	f, err := p.Focus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.Work != 50*time.Minute || f.Break != 5*time.Minute || f.LongBreak != 15*time.Minute || f.Count != 4 {
		t.Fatalf("unexpected focus settings: %+v", f)
	}
}

// ============================================================
// Change feed
// ============================================================

func TestSubscribeReceivesChanges(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	addCourse(t, s, "CS101", DefaultSemester, 3)

	select {
	case c := <-changes:
		if c.Table != TableCourses {
			t.Fatalf("expected %q change, got %q", TableCourses, c.Table)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := s.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

// ============================================================
// Derived model values
// ============================================================

func TestStudentHelpers(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		initials string
	}{
		{"Michael Franco", "Michael", "MF"},
		{"cher", "cher", "CH"},
		{"Q", "Q", "QQ"},
		{"", "", "ME"},
	}
	for _, tt := range tests {
		st := Student{FullName: tt.name}
		if got := st.FirstName(); got != tt.first {
			t.Errorf("FirstName(%q) = %q, want %q", tt.name, got, tt.first)
		}
		if got := st.Initials(); got != tt.initials {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.initials)
		}
	}

	st := Student{FullName: "A", University: "U", Major: " "}
	if st.IsProfileComplete() {
		t.Error("blank major should make the profile incomplete")
	}
	st.Major = "Math"
	if !st.IsProfileComplete() {
		t.Error("expected complete profile")
	}
	if st.HasActiveStreak() {
		t.Error("zero streak is not active")
	}
}

func TestTaskHelpers(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	overdue := Task{DueDate: now.Add(-time.Minute)}
	if !overdue.IsOverdue(now) {
		t.Error("past due pending task should be overdue")
	}
	overdue.IsCompleted = true
	if overdue.IsOverdue(now) {
		t.Error("completed task is never overdue")
	}

	soon := Task{DueDate: now.Add(23 * time.Hour)}
	if !soon.IsDueSoon(now) {
		t.Error("task due in 23h is due soon")
	}
	later := Task{DueDate: now.Add(25 * time.Hour)}
	if later.IsDueSoon(now) {
		t.Error("task due in 25h is not due soon")
	}

	for in, want := range map[string]string{"high": "High", "LOW": "Low", "Medium": "Medium", "urgent": "Medium"} {
		if got := (Task{Priority: in}).PriorityLabel(); got != want {
			t.Errorf("PriorityLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScheduleHelpers(t *testing.T) {
	cs := ClassSchedule{Days: "Monday, Wednesday,,Friday"}
	days := cs.DaysList()
	if len(days) != 3 || days[1] != "Wednesday" {
		t.Fatalf("DaysList = %v", days)
	}
	if !cs.IsOnDay("FRIDAY") {
		t.Error("IsOnDay should be case-insensitive")
	}
	if cs.IsOnDay("Mon") {
		t.Error("IsOnDay requires exact membership")
	}
	if cs.DisplayLocation() != "Location TBA" {
		t.Errorf("DisplayLocation = %q", cs.DisplayLocation())
	}
}
