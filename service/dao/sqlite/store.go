package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store bundles the SQLite-backed template, instance and history services
// over one database handle.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func marshal(value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Open opens a SQLite store at the provided path and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	store := &Store{sqlDB: sqlDB}
	if err := store.ensureSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Templates returns the SQLite-backed template service.
func (s *Store) Templates() *TemplateService {
	return &TemplateService{sqlDB: s.sqlDB}
}

// Instances returns the SQLite-backed instance store.
func (s *Store) Instances() *InstanceStore {
	return &InstanceStore{sqlDB: s.sqlDB}
}

// History returns the SQLite-backed audit log.
func (s *Store) History() *AuditLog {
	return &AuditLog{sqlDB: s.sqlDB}
}

func (s *Store) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS template_meta (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			last_version INTEGER NOT NULL,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS templates (
			id TEXT NOT NULL,
			version INTEGER NOT NULL,
			name TEXT NOT NULL,
			steps_blob TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (id, version)
		)`,
		`CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			template_version INTEGER NOT NULL,
			business_ref TEXT NOT NULL,
			initiator_id TEXT NOT NULL,
			current_step_order INTEGER NOT NULL,
			status TEXT NOT NULL,
			context_blob TEXT NOT NULL,
			assignments_blob TEXT NOT NULL,
			responses_blob TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_status ON instances(status)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_template ON instances(template_id)`,
		`CREATE TABLE IF NOT EXISTS history (
			instance_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			step_id TEXT NOT NULL,
			step_order INTEGER NOT NULL,
			operator TEXT NOT NULL,
			action TEXT NOT NULL,
			comment TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (instance_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON history(instance_id, created_at)`,
	}
	for _, statement := range statements {
		if _, err := s.sqlDB.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
