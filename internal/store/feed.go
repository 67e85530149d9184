package store

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const changesTopic = "store.changes"

// Table names carried by Change events.
const (
	TableStudents  = "student_profile"
	TableCourses   = "courses"
	TableSchedules = "class_schedules"
	TableTasks     = "tasks"
	TableSessions  = "study_sessions"
	TableSettings  = "settings"
)

// Change reports that rows in Table were written.
type Change struct {
	Table string
}

// Subscribe returns a stream of changes committed after the call. The
// channel is closed when ctx is cancelled or the store is closed.
func (s *Store) Subscribe(ctx context.Context) (<-chan Change, error) {
	msgs, err := s.feed.Subscribe(ctx, changesTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribe changes: %w", err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			c := Change{Table: string(msg.Payload)}
			msg.Ack()
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// publish announces writes to tables. Delivery failures are logged; the
// write itself has already been committed.
func (s *Store) publish(tables ...string) {
	for _, t := range tables {
		msg := message.NewMessage(uuid.NewString(), []byte(t))
		if err := s.feed.Publish(changesTopic, msg); err != nil {
			s.log.Warn("publish change", zap.String("table", t), zap.Error(err))
		}
	}
}
