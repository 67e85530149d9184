package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sadopc/studydesk/internal/logger"
)

const currentVersion = 1

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

type Store struct {
	db   *sqlx.DB
	log  *zap.Logger
	feed *gochannel.GoChannel
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:   db,
		log:  log.Named("store"),
		feed: gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(log.Named("feed"))),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.log.Debug("database ready", zap.String("path", dbPath))
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:", nil)
}

func (s *Store) Close() error {
	if err := s.feed.Close(); err != nil {
		s.log.Warn("close change feed", zap.Error(err))
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS student_profile (
		id                     INTEGER PRIMARY KEY,
		full_name              TEXT NOT NULL DEFAULT '',
		university             TEXT NOT NULL DEFAULT '',
		major                  TEXT NOT NULL DEFAULT '',
		current_semester       TEXT NOT NULL DEFAULT 'Semester 1',
		email                  TEXT NOT NULL DEFAULT '',
		phone_number           TEXT NOT NULL DEFAULT '',
		daily_study_goal_hours INTEGER NOT NULL DEFAULT 4,
		motto                  TEXT NOT NULL DEFAULT 'Keep learning, keep growing!',
		current_streak         INTEGER NOT NULL DEFAULT 0,
		total_study_hours      INTEGER NOT NULL DEFAULT 0,
		created_at             DATETIME NOT NULL,
		updated_at             DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		course_name  TEXT NOT NULL,
		course_code  TEXT NOT NULL,
		instructor   TEXT NOT NULL DEFAULT '',
		credits      INTEGER NOT NULL,
		semester     TEXT NOT NULL,
		color        TEXT NOT NULL DEFAULT '#2196F3',
		is_active    INTEGER NOT NULL DEFAULT 1,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_courses_semester ON courses(semester);

	CREATE TABLE IF NOT EXISTS class_schedules (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id   INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		days        TEXT NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_course ON class_schedules(course_id);

	CREATE TABLE IF NOT EXISTS tasks (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id     INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		due_date      DATETIME NOT NULL,
		due_time      TEXT NOT NULL DEFAULT '',
		priority      TEXT NOT NULL DEFAULT 'Medium',
		is_completed  INTEGER NOT NULL DEFAULT 0,
		completed_at  DATETIME,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_course ON tasks(course_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_due    ON tasks(due_date);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id   INTEGER REFERENCES courses(id) ON DELETE SET NULL,
		start_time  DATETIME NOT NULL,
		end_time    DATETIME,
		duration    INTEGER NOT NULL DEFAULT 0,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_start ON study_sessions(start_time);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ddl); err != nil {
		return err
	}
	for _, d := range defaultSettings {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, d.Key, d.Value); err != nil {
			return fmt.Errorf("seed setting %q: %w", d.Key, err)
		}
	}
	return tx.Commit()
}

// ts normalizes a timestamp before it is bound as a query argument so that
// stored values compare correctly as text.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func tsPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := ts(*t)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
