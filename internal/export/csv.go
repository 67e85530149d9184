package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/studydesk/internal/store"
)

// ToCSV writes one row per task.
func ToCSV(tasks []store.Task, courses map[int64]*store.Course, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"ID", "Course", "Title", "Due", "Priority", "Status", "Completed At", "Description"}); err != nil {
		return err
	}

	now := time.Now()
	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Local().Format(time.RFC3339)
		}
		row := []string{
			fmt.Sprintf("%d", t.ID),
			courseName(courses, t.CourseID),
			t.Title,
			t.DueDate.Local().Format(time.RFC3339),
			t.Priority,
			taskStatus(t, now),
			completed,
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
