package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

func TestWeeklyProgressPercentage(t *testing.T) {
	tests := []struct {
		goal, progress int
		want           int
		onTrack        bool
	}{
		{20, 14, 70, true},
		{20, 13, 65, false},
		{0, 5, 0, false},
		{28, 9, 32, false},
		{3, 2, 67, false}, // rounds, does not truncate
		{20, 30, 150, true},
	}
	for _, tt := range tests {
		st := Stats{WeeklyStudyGoal: tt.goal, WeeklyStudyProgress: tt.progress}
		if got := st.WeeklyProgressPercentage(); got != tt.want {
			t.Errorf("goal %d progress %d: pct = %d, want %d", tt.goal, tt.progress, got, tt.want)
		}
		if got := st.IsOnTrack(); got != tt.onTrack {
			t.Errorf("goal %d progress %d: on track = %v, want %v", tt.goal, tt.progress, got, tt.onTrack)
		}
	}
}

func TestHasUrgentTasks(t *testing.T) {
	if (Stats{}).HasUrgentTasks() {
		t.Error("empty stats are not urgent")
	}
	if !(Stats{OverdueTaskCount: 1}).HasUrgentTasks() {
		t.Error("overdue is urgent")
	}
	if !(Stats{DueTodayTaskCount: 1}).HasUrgentTasks() {
		t.Error("due today is urgent")
	}
}

func TestWeeklyGoal(t *testing.T) {
	if got := WeeklyGoal(&store.Student{DailyStudyGoalHours: 3}, 20); got != 21 {
		t.Errorf("daily goal 3: got %d", got)
	}
	if got := WeeklyGoal(&store.Student{}, 12); got != 0 {
		t.Errorf("daily goal 0 with profile: got %d, want 0", got)
	}
	if got := WeeklyGoal(nil, 12); got != 12 {
		t.Errorf("preference without profile: got %d", got)
	}
	if got := WeeklyGoal(nil, 0); got != DefaultWeeklyGoal {
		t.Errorf("default fallback: got %d", got)
	}
}

func TestBuildZeroDailyGoal(t *testing.T) {
	st := Build(Input{
		Now:                 time.Now(),
		Student:             &store.Student{FullName: "Ana", DailyStudyGoalHours: 0},
		WeeklyGoalPref:      20,
		WeeklyStudyProgress: 5,
	})
	if st.WeeklyStudyGoal != 0 {
		t.Fatalf("goal = %d, want 0", st.WeeklyStudyGoal)
	}
	if st.WeeklyProgressPercentage() != 0 || st.IsOnTrack() {
		t.Fatalf("pct = %d, want 0 and not on track", st.WeeklyProgressPercentage())
	}
}

func TestCountDueToday(t *testing.T) {
	loc := time.FixedZone("EAT", 3*3600)
	now := time.Date(2030, 6, 3, 10, 0, 0, 0, loc)
	tasks := []store.Task{
		{DueDate: time.Date(2030, 6, 3, 0, 0, 0, 0, loc)},
		{DueDate: time.Date(2030, 6, 3, 23, 59, 59, 0, loc)},
		{DueDate: time.Date(2030, 6, 4, 0, 0, 0, 0, loc)},
		{DueDate: time.Date(2030, 6, 2, 23, 59, 0, 0, loc)},
		{DueDate: time.Date(2030, 6, 3, 12, 0, 0, 0, loc), IsCompleted: true},
		// 22:00 UTC on the 2nd is 01:00 on the 3rd in EAT.
		{DueDate: time.Date(2030, 6, 2, 22, 0, 0, 0, time.UTC)},
	}
	if got := CountDueToday(tasks, now); got != 3 {
		t.Fatalf("due today = %d, want 3", got)
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC) // Monday
	cs := store.Course{ID: 1, CourseCode: "CS101", Semester: "Semester 2", IsActive: true}
	ma := store.Course{ID: 2, CourseCode: "MA201", Semester: store.DefaultSemester, IsActive: true}

	var pending []store.Task
	for i := 0; i < 7; i++ {
		pending = append(pending, store.Task{ID: int64(i + 1), CourseID: 2, DueDate: now.Add(time.Duration(7-i) * time.Hour)})
	}
	pending[1].CourseID = 99 // unknown course, dropped

	st := Build(Input{
		Now:           now,
		Student:       &store.Student{CurrentSemester: "Semester 2", DailyStudyGoalHours: 2, CurrentStreak: 4},
		ActiveCourses: []store.Course{cs, ma},
		TodaySchedules: []store.ClassSchedule{
			{ID: 10, CourseID: 1, Days: "Monday", StartTime: "14:00", EndTime: "15:00"},
			{ID: 11, CourseID: 1, Days: "Monday", StartTime: "9:00", EndTime: "10:00"},
			{ID: 12, CourseID: 2, Days: "Monday", StartTime: "08:00", EndTime: "09:00"},
		},
		PendingTasks:        pending,
		TotalCredits:        3,
		PendingTaskCount:    7,
		OverdueTaskCount:    0,
		WeeklyStudyProgress: 10,
	})

	if st.Semester != "Semester 2" || st.ActiveCourseCount != 1 {
		t.Fatalf("semester filter: %q, %d courses", st.Semester, st.ActiveCourseCount)
	}
	if len(st.TodayClasses) != 2 {
		t.Fatalf("expected 2 classes in semester, got %d", len(st.TodayClasses))
	}
	if st.TodayClasses[0].Schedule.ID != 11 {
		t.Errorf("classes not sorted by start time: first id %d", st.TodayClasses[0].Schedule.ID)
	}
	if len(st.PendingTasks) != PendingPreviewLimit-1 {
		t.Fatalf("expected %d pending previews, got %d", PendingPreviewLimit-1, len(st.PendingTasks))
	}
	for i := 1; i < len(st.PendingTasks); i++ {
		if st.PendingTasks[i].Task.DueDate.Before(st.PendingTasks[i-1].Task.DueDate) {
			t.Fatal("pending tasks not sorted by due date")
		}
	}
	if st.WeeklyStudyGoal != 14 || st.WeeklyProgressPercentage() != 71 || !st.IsOnTrack() {
		t.Errorf("goal %d pct %d", st.WeeklyStudyGoal, st.WeeklyProgressPercentage())
	}
	if st.CurrentStreak != 4 || st.DueTodayTaskCount != 7 {
		t.Errorf("streak %d due today %d", st.CurrentStreak, st.DueTodayTaskCount)
	}
}

func TestBuildWithoutProfile(t *testing.T) {
	st := Build(Input{Now: time.Now(), WeeklyGoalPref: 25})
	if st.Semester != store.DefaultSemester || st.WeeklyStudyGoal != 25 {
		t.Fatalf("unexpected defaults: %+v", st)
	}
	if st.TodayClasses != nil || st.PendingTasks != nil {
		t.Fatal("expected empty lists")
	}
}

func TestCourseDetail(t *testing.T) {
	d := NewCourseDetail(store.Course{ID: 1}, []store.ClassSchedule{
		{Days: "Wednesday,Monday", StartTime: "10:00", EndTime: "11:00"},
		{Days: "monday", StartTime: "08:00", EndTime: "09:00"},
	}, 2)

	if d.WeeklySessionCount() != 2 {
		t.Errorf("sessions = %d", d.WeeklySessionCount())
	}
	if got := d.FormattedDays(); got != "Mon, Wed" {
		t.Errorf("formatted days = %q", got)
	}
	if got := d.SchedulesOn("Monday"); len(got) != 2 || got[0].StartTime != "08:00" {
		t.Errorf("monday schedules = %+v", got)
	}
	if d.HasClassOn("Friday") {
		t.Error("no class on Friday")
	}
}

func TestDaySchedule(t *testing.T) {
	courses := []store.Course{{ID: 1, CourseCode: "CS101"}}
	schedules := []store.ClassSchedule{
		{CourseID: 1, Days: "Tuesday", StartTime: "1:00 PM", EndTime: "3:00 PM"},
		{CourseID: 1, Days: "Tuesday", StartTime: "9:00", EndTime: "10:00"},
		{CourseID: 7, Days: "Tuesday", StartTime: "7:00", EndTime: "8:00"},
	}
	day := BuildDaySchedule("Tuesday", schedules, courses)
	if day.ClassCount() != 2 {
		t.Fatalf("classes = %d", day.ClassCount())
	}
	if day.FirstClassTime() != "9:00" || day.LastClassTime() != "3:00 PM" {
		t.Errorf("first %q last %q", day.FirstClassTime(), day.LastClassTime())
	}

	week := Timetable(schedules, courses)
	if len(week) != 7 || week[1].Day != "Tuesday" || week[0].HasClasses() {
		t.Errorf("unexpected timetable: %+v", week)
	}
	if (DaySchedule{}).FirstClassTime() != "" {
		t.Error("free day has no first class")
	}
}

func TestServiceLoad(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	courses := repository.NewCourseRepository(s, nil)
	schedules := repository.NewScheduleRepository(s, nil)
	tasks := repository.NewTaskRepository(s, nil)
	students := repository.NewStudentRepository(s, nil)
	study := repository.NewStudyRepository(s, nil)
	svc := NewService(courses, schedules, tasks, students, study, s.Preferences(), nil)

	now := time.Now()
	today := now.Weekday().String()

	empty, err := svc.Load(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Student != nil || empty.WeeklyStudyGoal != DefaultWeeklyGoal {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}

	students.GetOrCreate(ctx, "Ana")
	id, err := courses.ValidateAndSave(ctx, store.Course{CourseName: "Algorithms", CourseCode: "CS101", Credits: 3, Semester: store.DefaultSemester})
	if err != nil {
		t.Fatal(err)
	}
	schedules.ValidateAndSave(ctx, store.ClassSchedule{CourseID: id, Days: today, StartTime: "08:00", EndTime: "10:00"})
	tasks.ValidateAndSave(ctx, store.Task{CourseID: id, Title: "Essay", DueDate: now.Add(time.Hour), Priority: store.PriorityMedium}, now)
	study.Log(ctx, &id, now, 2*time.Hour)

	st, err := svc.Load(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalCredits != 3 || st.ActiveCourseCount != 1 || st.PendingTaskCount != 1 {
		t.Errorf("counts: %+v", st)
	}
	if len(st.TodayClasses) != 1 || st.TodayClasses[0].Course.CourseCode != "CS101" {
		t.Errorf("today classes: %+v", st.TodayClasses)
	}
	if len(st.PendingTasks) != 1 {
		t.Errorf("pending preview: %+v", st.PendingTasks)
	}
	if st.WeeklyStudyGoal != 28 || st.TotalClassHours != 2*time.Hour {
		t.Errorf("goal %d class hours %v", st.WeeklyStudyGoal, st.TotalClassHours)
	}

	detail, err := svc.CourseDetail(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if detail.PendingTasks != 1 || detail.WeeklySessionCount() != 1 {
		t.Errorf("detail: %+v", detail)
	}
}
