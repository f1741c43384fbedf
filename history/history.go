// Package history stores generated digests in SQLite.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newsdigest/digest"
)

// Custom errors for history operations
var (
	ErrDigestNotFound = errors.New("digest not found")
	ErrNilDigest      = errors.New("digest is required")
)

// Store manages generated digests using SQLite.
type Store struct {
	db *sql.DB
}

// Record is one stored digest generation.
type Record struct {
	ID           uuid.UUID      `json:"id"`
	SourceURL    string         `json:"source_url"`
	Style        digest.Style   `json:"style"`
	ArticleCount int            `json:"article_count"`
	Digest       *digest.Digest `json:"digest"`
	Markdown     string         `json:"markdown"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Filter represents filtering options for listing records.
type Filter struct {
	SourceURL *string // Filter by exact source URL
	Limit     int     // Pagination limit
	Offset    int     // Pagination offset
}

// NewStore creates a new history store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the digests table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS digests (
		digest_id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		style TEXT NOT NULL,
		article_count INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL,
		markdown TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_digests_created_at ON digests (created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a generated digest and returns the new record.
func (s *Store) Save(sourceURL string, articleCount int, d *digest.Digest, markdown string) (*Record, error) {
	if d == nil {
		return nil, ErrNilDigest
	}

	record := &Record{
		ID:           uuid.New(),
		SourceURL:    sourceURL,
		Style:        d.Style,
		ArticleCount: articleCount,
		Digest:       d,
		Markdown:     markdown,
		CreatedAt:    time.Now().UTC().Truncate(0),
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal digest: %w", err)
	}

	query := `
		INSERT INTO digests (
			digest_id, source_url, style, article_count, digest, markdown, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		record.ID.String(),
		record.SourceURL,
		string(record.Style),
		record.ArticleCount,
		string(data),
		record.Markdown,
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert digest: %w", err)
	}

	return record, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(id uuid.UUID) (*Record, error) {
	query := `
		SELECT digest_id, source_url, style, article_count, digest, markdown, created_at
		FROM digests
		WHERE digest_id = ?
	`

	record, err := scanRecord(s.db.QueryRow(query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDigestNotFound
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// List lists records, newest first.
func (s *Store) List(filter Filter) ([]Record, error) {
	query := `
		SELECT digest_id, source_url, style, article_count, digest, markdown, created_at
		FROM digests
	`

	var whereClauses []string
	var args []any

	if filter.SourceURL != nil {
		whereClauses = append(whereClauses, "source_url = ?")
		args = append(args, *filter.SourceURL)
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query digests: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate digests: %w", err)
	}

	return records, nil
}

// Delete deletes a record.
func (s *Store) Delete(id uuid.UUID) error {
	result, err := s.db.Exec("DELETE FROM digests WHERE digest_id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete digest: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrDigestNotFound
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord is a shared helper that parses row data into a Record.
func scanRecord(row scanner) (*Record, error) {
	var idStr, sourceURL, style, digestJSON, markdown, createdAtStr string
	var articleCount int

	err := row.Scan(&idStr, &sourceURL, &style, &articleCount, &digestJSON, &markdown, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan digest: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse digest ID: %w", err)
	}

	var d digest.Digest
	if err := json.Unmarshal([]byte(digestJSON), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal digest: %w", err)
	}

	return &Record{
		ID:           id,
		SourceURL:    sourceURL,
		Style:        digest.Style(style),
		ArticleCount: articleCount,
		Digest:       &d,
		Markdown:     markdown,
		CreatedAt:    parseTime(createdAtStr),
	}, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t time.Time) string {
	return t.UTC().Truncate(0).Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.UTC().Truncate(0)
}
