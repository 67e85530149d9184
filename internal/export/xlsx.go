package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sadopc/studydesk/internal/repository"
	"github.com/sadopc/studydesk/internal/store"
)

const (
	sheetCourses   = "Courses"
	sheetTimetable = "Timetable"
	sheetTasks     = "Tasks"
)

// ToXLSX writes a workbook with Courses, Timetable and Tasks sheets.
func ToXLSX(snap Snapshot, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetCourses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetTimetable, sheetTasks} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2196F3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	courses := snap.courseIndex()
	if err := writeCoursesSheet(f, snap, header); err != nil {
		return err
	}
	if err := writeTimetableSheet(f, snap, courses, header); err != nil {
		return err
	}
	if err := writeTasksSheet(f, snap, courses, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeCoursesSheet(f *excelize.File, snap Snapshot, header int) error {
	rows := [][]any{{"Code", "Name", "Instructor", "Credits", "Semester", "Status", "Study Hours/Week"}}
	for _, c := range snap.Courses {
		status := "Active"
		if !c.IsActive {
			status = "Archived"
		}
		rows = append(rows, []any{c.CourseCode, c.CourseName, c.Instructor, c.Credits, c.Semester, status, c.RecommendedStudyHours()})
	}
	return writeSheet(f, sheetCourses, rows, header, []float64{10, 32, 22, 9, 14, 10, 16})
}

func writeTimetableSheet(f *excelize.File, snap Snapshot, courses map[int64]*store.Course, header int) error {
	rows := [][]any{{"Day", "Start", "End", "Course", "Location"}}
	for _, day := range store.Weekdays {
		var blocks []store.ClassSchedule
		for _, cs := range snap.Schedules {
			if c, ok := courses[cs.CourseID]; ok && c.IsActive && cs.IsOnDay(day) {
				blocks = append(blocks, cs)
			}
		}
		repository.SortByStartTime(blocks)
		for _, cs := range blocks {
			c := courses[cs.CourseID]
			rows = append(rows, []any{day, cs.StartTime, cs.EndTime, c.CourseCode + " " + c.CourseName, cs.DisplayLocation()})
		}
	}
	return writeSheet(f, sheetTimetable, rows, header, []float64{12, 10, 10, 36, 20})
}

func writeTasksSheet(f *excelize.File, snap Snapshot, courses map[int64]*store.Course, header int) error {
	rows := [][]any{{"Title", "Course", "Due", "Priority", "Status"}}
	for _, t := range snap.Tasks {
		rows = append(rows, []any{
			t.Title,
			courseName(courses, t.CourseID),
			t.DueDate.Local().Format(time.DateTime),
			t.Priority,
			taskStatus(t, snap.ExportedAt),
		})
	}
	return writeSheet(f, sheetTasks, rows, header, []float64{32, 28, 20, 10, 12})
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, header int, widths []float64) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last+"1", header)
}
