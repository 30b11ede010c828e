package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/clilm/internal/lm"
)

// NotFoundError is returned when no invocation matches a GUID.
type NotFoundError struct {
	GUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("invocation %q not found", e.GUID)
}

// Store persists invocations using SQLite. It implements lm.Recorder.
type Store struct {
	db *sql.DB
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ lm.Recorder = (*Store)(nil)

// invocationModel is the database shape of an invocation row.
type invocationModel struct {
	ID         int64
	GUID       string
	Provider   string
	Model      string
	Prompt     string
	Response   sql.NullString
	Error      string
	DurationMs int64
	CreatedAt  int64
}

func (m invocationModel) toEntry() (lm.HistoryEntry, error) {
	entry := lm.HistoryEntry{
		GUID:     m.GUID,
		Provider: m.Provider,
		Model:    m.Model,
		Prompt:   m.Prompt,
		Err:      m.Error,
		Duration: time.Duration(m.DurationMs) * time.Millisecond,
		Created:  time.Unix(m.CreatedAt, 0),
	}
	if m.Response.Valid {
		var resp lm.Response
		if err := json.Unmarshal([]byte(m.Response.String), &resp); err != nil {
			return lm.HistoryEntry{}, fmt.Errorf("failed to decode response for %s: %w", m.GUID, err)
		}
		entry.Response = &resp
	}
	return entry, nil
}

// Record persists one finished invocation.
func (s *Store) Record(entry lm.HistoryEntry) error {
	var response sql.NullString
	if entry.Response != nil {
		data, err := json.Marshal(entry.Response)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		response = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO invocations (guid, provider, model, prompt, response, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.GUID, entry.Provider, entry.Model, entry.Prompt, response,
		entry.Err, entry.Duration.Milliseconds(), entry.Created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invocation: %w", err)
	}
	return nil
}

// FindByGUID retrieves a single invocation by its GUID.
func (s *Store) FindByGUID(guid string) (lm.HistoryEntry, error) {
	var m invocationModel
	err := s.db.QueryRow(
		`SELECT id, guid, provider, model, prompt, response, error, duration_ms, created_at
		 FROM invocations WHERE guid = ?`,
		guid,
	).Scan(&m.ID, &m.GUID, &m.Provider, &m.Model, &m.Prompt, &m.Response, &m.Error, &m.DurationMs, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return lm.HistoryEntry{}, &NotFoundError{GUID: guid}
	}
	if err != nil {
		return lm.HistoryEntry{}, fmt.Errorf("failed to find invocation: %w", err)
	}
	return m.toEntry()
}

// List retrieves invocations ordered newest first. A limit of zero
// returns all rows.
func (s *Store) List(limit int) ([]lm.HistoryEntry, error) {
	query := `SELECT id, guid, provider, model, prompt, response, error, duration_ms, created_at
			  FROM invocations ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []lm.HistoryEntry
	for rows.Next() {
		var m invocationModel
		err := rows.Scan(&m.ID, &m.GUID, &m.Provider, &m.Model, &m.Prompt, &m.Response, &m.Error, &m.DurationMs, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation row: %w", err)
		}
		entry, err := m.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invocation rows: %w", err)
	}

	return entries, nil
}

// Clear permanently removes all invocations.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM invocations`); err != nil {
		return fmt.Errorf("failed to clear invocations: %w", err)
	}
	return nil
}
