package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vidsub/internal/config"
)

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// QualityNotApplicable is recorded for audio runs.
const QualityNotApplicable = "N/A"

const recordColumns = "id, run_id, title, url, process_type, quality, final_path, process_date, status, message"

// Record is one finished run.
type Record struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id,omitempty"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	ProcessType string    `json:"process_type"`
	Quality     string    `json:"quality"`
	FinalPath   string    `json:"final_path,omitempty"`
	ProcessDate time.Time `json:"process_date"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger configured in cfg, creating it when needed.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("ledger open: nil config")
	}
	return OpenPath(cfg.Paths.LedgerPath)
}

// OpenPath connects to the ledger database at path.
func OpenPath(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger open: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path reports the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts rec and returns it with ID and ProcessDate filled in.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.Status) == "" {
		return rec, errors.New("ledger save: status required")
	}
	if rec.ProcessDate.IsZero() {
		rec.ProcessDate = time.Now()
	}
	rec.ProcessDate = rec.ProcessDate.UTC()
	if strings.TrimSpace(rec.Quality) == "" {
		rec.Quality = QualityNotApplicable
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (run_id, title, url, process_type, quality, final_path, process_date, status, message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(rec.RunID),
		rec.Title,
		rec.URL,
		rec.ProcessType,
		rec.Quality,
		nullableString(rec.FinalPath),
		rec.ProcessDate.Format(time.RFC3339Nano),
		rec.Status,
		nullableString(rec.Message),
	)
	if err != nil {
		return rec, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return rec, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM history ORDER BY process_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// Clear deletes every record and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec       Record
		runID     sql.NullString
		finalPath sql.NullString
		message   sql.NullString
		dateRaw   string
	)
	if err := scanner.Scan(
		&rec.ID,
		&runID,
		&rec.Title,
		&rec.URL,
		&rec.ProcessType,
		&rec.Quality,
		&finalPath,
		&dateRaw,
		&rec.Status,
		&message,
	); err != nil {
		return Record{}, err
	}
	rec.RunID = runID.String
	rec.FinalPath = finalPath.String
	rec.Message = message.String
	if parsed, err := time.Parse(time.RFC3339Nano, dateRaw); err == nil {
		rec.ProcessDate = parsed
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
