package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// Verify at compile time that Store implements all interfaces.
var (
	_ ActivityReader = (*Store)(nil)
	_ ActivityWriter = (*Store)(nil)
)

// DefaultListLimit caps ListActivities when the filter sets no limit.
const DefaultListLimit = 50

// MaxListLimit is the largest page ListActivities returns.
const MaxListLimit = 500

// Store provides data access to the SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and initialises the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// currentSchemaVersion is bumped whenever the schema changes.
// Add a new migration function in the migrations slice below.
const currentSchemaVersion = 2

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema version: %w", err)
		}
		version = 0
	} else if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	// Index 0 = migration from v0 to v1, etc.
	migrations := []func() error{
		s.migrateV1, // v0 → v1: activities table
		s.migrateV2, // v1 → v2: per-user listing index
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](); err != nil {
			return fmt.Errorf("migration v%d→v%d: %w", i, i+1, err)
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = ?`, i+1); err != nil {
			return fmt.Errorf("update schema version to %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) migrateV1() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS activities (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL DEFAULT '',
		action     TEXT NOT NULL,
		title      TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'General',
		details    TEXT NOT NULL DEFAULT '',
		metadata   TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at DESC);
	`)
	return err
}

func (s *Store) migrateV2() error {
	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id, action, created_at DESC)`)
	return err
}

// ---------------------------------------------------------------------------
// Activities
// ---------------------------------------------------------------------------

// CreateActivity inserts an activity. A missing CreatedAt is stamped with the
// current time.
func (s *Store) CreateActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		return errors.New("activity id is required")
	}
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if a.Type == "" {
		a.Type = "General"
	}
	meta := "{}"
	if len(a.Metadata) > 0 {
		b, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, action, title, type, details, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Action, a.Title, a.Type, a.Details, meta, a.CreatedAt,
	)
	return err
}

// ListActivities returns the newest activities matching f.
func (s *Store) ListActivities(ctx context.Context, f model.ActivityFilter) ([]model.Activity, error) {
	query := `SELECT id, user_id, action, title, type, details, metadata, created_at FROM activities`
	var conditions []string
	var args []any

	if f.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, f.Action)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, min(limit, MaxListLimit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// CountByAction returns per-action totals, largest first. An empty userID
// counts every user.
func (s *Store) CountByAction(ctx context.Context, userID string) ([]ActionCount, error) {
	query := `SELECT action, COUNT(*) FROM activities`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY action ORDER BY COUNT(*) DESC, action ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []ActionCount{}
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*model.Activity, error) {
	var a model.Activity
	var meta string
	if err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.Title, &a.Type, &a.Details, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Metadata = map[string]any{}
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", a.ID, err)
		}
	}
	return &a, nil
}
