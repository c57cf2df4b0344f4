package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docrender/internal/events"
)

// schemaVersion is stored in PRAGMA user_version.
//
//	1: events(pass_id, event_type, timestamp, payload, metadata)
//	2: + document, link_target columns filled from the payload
const schemaVersion = 2

const eventColumns = "id, pass_id, event_type, timestamp, payload, metadata"

// GapRecord is one stored resolution gap.
type GapRecord struct {
	PassID    string
	Document  string
	Target    string
	Timestamp time.Time
}

// SQLiteStore implements Store using SQLite.
//
// Besides the raw payload, every row carries the document and link target
// the event is about (when it has them), so gaps and per-document history
// can be queried without decoding payloads.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating or migrating) the event store at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pass_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			payload BLOB NOT NULL,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pass_id ON events(pass_id)`,
		`CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp)`,
	}
	if version < 2 {
		has, err := hasColumn(ctx, tx, "events", "document")
		if err != nil {
			return err
		}
		if !has {
			stmts = append(stmts,
				`ALTER TABLE events ADD COLUMN document TEXT`,
				`ALTER TABLE events ADD COLUMN link_target TEXT`,
			)
		}
		stmts = append(stmts,
			`UPDATE events SET
				document = json_extract(CAST(payload AS TEXT), '$.document'),
				link_target = json_extract(CAST(payload AS TEXT), '$.link_target')
			 WHERE document IS NULL AND json_valid(CAST(payload AS TEXT))`,
			`CREATE INDEX IF NOT EXISTS idx_events_document ON events(document)`,
			`CREATE INDEX IF NOT EXISTS idx_events_gaps ON events(event_type, link_target)`,
		)
	}
	stmts = append(stmts, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", strings.Fields(stmt)[0], err)
		}
	}
	return tx.Commit()
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// subject is the part of an event payload that is indexed.
type subject struct {
	Document string `json:"document"`
	Target   string `json:"link_target"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, passID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("%w: marshal metadata: %w", ErrEventAppendFailed, err)
		}
	}
	if payload == nil {
		payload = []byte{}
	}
	// Payloads that are not JSON objects are stored without a subject.
	var subj subject
	_ = json.Unmarshal(payload, &subj)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (pass_id, event_type, timestamp, payload, metadata, document, link_target)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		passID, eventType, time.Now().UnixMilli(), payload, metadataJSON,
		nullString(subj.Document), nullString(subj.Target),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEventAppendFailed, err)
	}
	return nil
}

// GetByPassID retrieves all events of one render pass.
func (s *SQLiteStore) GetByPassID(ctx context.Context, passID string) ([]Event, error) {
	return s.queryEvents(ctx, "WHERE pass_id = ?", passID)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.queryEvents(ctx, "WHERE timestamp >= ? AND timestamp <= ?", start.UnixMilli(), end.UnixMilli())
}

// GetByDocument retrieves every event about one source document, across
// passes.
func (s *SQLiteStore) GetByDocument(ctx context.Context, document string) ([]Event, error) {
	return s.queryEvents(ctx, "WHERE document = ?", document)
}

// Gaps returns the stored resolution gaps, oldest first. A non-empty
// document restricts them to that source document.
func (s *SQLiteStore) Gaps(ctx context.Context, document string) ([]GapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT pass_id, document, link_target, timestamp FROM events WHERE event_type = ?"
	args := []any{events.NameResolutionGap}
	if document != "" {
		query += " AND document = ?"
		args = append(args, document)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventQueryFailed, err)
	}
	defer rows.Close()

	var gaps []GapRecord
	for rows.Next() {
		var (
			g              GapRecord
			doc, target    sql.NullString
			timestampMilli int64
		)
		if err := rows.Scan(&g.PassID, &doc, &target, &timestampMilli); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
		}
		g.Document, g.Target = doc.String, target.String
		g.Timestamp = time.UnixMilli(timestampMilli)
		gaps = append(gaps, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
	}
	return gaps, nil
}

func (s *SQLiteStore) queryEvents(ctx context.Context, where string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventQueryFailed, err)
	}
	defer rows.Close()

	var evs []Event
	for rows.Next() {
		var (
			e              BaseEvent
			timestampMilli int64
			metadataJSON   []byte
		)
		if err := rows.Scan(&e.EventID, &e.EventPassID, &e.EventType, &timestampMilli, &e.EventPayload, &metadataJSON); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
		}
		e.EventTimestamp = time.UnixMilli(timestampMilli)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, fmt.Errorf("%w: unmarshal metadata: %w", ErrEventScanFailed, err)
			}
		}
		evs = append(evs, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventScanFailed, err)
	}
	return evs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
