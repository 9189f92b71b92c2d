// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a pooled sqlx.DB connection to the SQLite extraction catalog.
// The catalog is an audit trail of every successfully indexed program; the
// vector store remains the source of truth for search.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated automatically on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	// journal_mode must be set outside a transaction, so it rides the DSN
	// with the other per-connection pragmas instead of the migration.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS extractions (
                id TEXT PRIMARY KEY,
                program_id TEXT NOT NULL,
                file_name TEXT NOT NULL,
                file_path TEXT,
                file_ext TEXT,
                requirement_text TEXT,
                data_items INTEGER NOT NULL DEFAULT 0,
                procedures INTEGER NOT NULL DEFAULT 0,
                business_logic INTEGER NOT NULL DEFAULT 0,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS extractions_file_ext_idx ON extractions(file_ext);`,
	`CREATE INDEX IF NOT EXISTS extractions_created_at_idx ON extractions(created_at);`,
}

// Entry is one recorded extraction. FileExt and CreatedAt are derived when
// left empty.
type Entry struct {
	ID              string `db:"id"`
	ProgramID       string `db:"program_id"`
	FileName        string `db:"file_name"`
	FilePath        string `db:"file_path"`
	FileExt         string `db:"file_ext"`
	RequirementText string `db:"requirement_text"`
	DataItems       int    `db:"data_items"`
	Procedures      int    `db:"procedures"`
	BusinessRules   int    `db:"business_logic"`
	CreatedAt       string `db:"created_at"`
}

// RecordExtraction inserts or refreshes the catalog row for an extraction.
func (s *Store) RecordExtraction(ctx context.Context, entry Entry) error {
	if s == nil || s.db == nil {
		return errors.New("catalog store not initialised")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("catalog entry id required")
	}
	if strings.TrimSpace(entry.FileExt) == "" {
		entry.FileExt = strings.ToLower(filepath.Ext(entry.FileName))
	}
	if strings.TrimSpace(entry.CreatedAt) == "" {
		entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	query := `INSERT INTO extractions(id, program_id, file_name, file_path, file_ext, requirement_text, data_items, procedures, business_logic, created_at)
                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT(id) DO UPDATE SET
                        program_id = excluded.program_id,
                        file_name = excluded.file_name,
                        file_path = excluded.file_path,
                        file_ext = excluded.file_ext,
                        requirement_text = excluded.requirement_text,
                        data_items = excluded.data_items,
                        procedures = excluded.procedures,
                        business_logic = excluded.business_logic,
                        created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.ProgramID, entry.FileName, entry.FilePath, entry.FileExt,
		entry.RequirementText, entry.DataItems, entry.Procedures, entry.BusinessRules,
		entry.CreatedAt); err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	return nil
}

// Stats summarises catalog contents for the stats endpoint.
type Stats struct {
	TotalExtractions int            `json:"total_extractions"`
	FileTypes        map[string]int `json:"file_types"`
	LastExtraction   string         `json:"last_extraction,omitempty"`
}

// Stats reports totals, per-extension counts and the latest extraction time.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{FileTypes: make(map[string]int)}
	if s == nil || s.db == nil {
		return stats, errors.New("catalog store not initialised")
	}
	if err := s.db.GetContext(ctx, &stats.TotalExtractions, `SELECT COUNT(*) FROM extractions`); err != nil {
		return stats, fmt.Errorf("count extractions: %w", err)
	}
	var rows []struct {
		Ext   string `db:"file_ext"`
		Count int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT file_ext, COUNT(*) AS count FROM extractions GROUP BY file_ext`); err != nil {
		return stats, fmt.Errorf("group extractions: %w", err)
	}
	for _, row := range rows {
		ext := row.Ext
		if ext == "" {
			ext = "unknown"
		}
		stats.FileTypes[ext] = row.Count
	}
	var last sql.NullString
	if err := s.db.GetContext(ctx, &last, `SELECT MAX(created_at) FROM extractions`); err != nil {
		return stats, fmt.Errorf("latest extraction: %w", err)
	}
	if last.Valid {
		stats.LastExtraction = last.String
	}
	return stats, nil
}
