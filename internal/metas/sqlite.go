package metas

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	file TEXT PRIMARY KEY,
	title TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS anchors (
	file TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	is_label INTEGER NOT NULL,
	PRIMARY KEY (file, is_label, position)
);
CREATE INDEX IF NOT EXISTS idx_anchor_name ON anchors(name);
`

// Save writes every entry of m into the SQLite database at dbPath, replacing
// previous content.
func Save(ctx context.Context, dbPath string, m *Memory) error {
	db, err := open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return saveTo(ctx, db, m)
}

// Load reads a Memory store back from the database at dbPath.
func Load(ctx context.Context, dbPath string) (*Memory, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	return loadFrom(ctx, db)
}

func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across statements
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

func saveTo(ctx context.Context, db *sql.DB, m *Memory) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM anchors", "DELETE FROM documents"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear metas: %w", err)
		}
	}
	for _, file := range m.Files() {
		e, _ := m.Get(file)
		if _, err := tx.ExecContext(ctx, "INSERT INTO documents (file, title) VALUES (?, ?)", e.File, e.Title); err != nil {
			return fmt.Errorf("insert document %s: %w", e.File, err)
		}
		if err := insertNames(ctx, tx, e.File, e.Anchors, false); err != nil {
			return err
		}
		if err := insertNames(ctx, tx, e.File, e.Labels, true); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit metas: %w", err)
	}
	return nil
}

func insertNames(ctx context.Context, tx *sql.Tx, file string, names []string, label bool) error {
	isLabel := 0
	if label {
		isLabel = 1
	}
	for i, name := range names {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO anchors (file, position, name, is_label) VALUES (?, ?, ?, ?)",
			file, i, name, isLabel,
		); err != nil {
			return fmt.Errorf("insert anchor %s#%s: %w", file, name, err)
		}
	}
	return nil
}

func loadFrom(ctx context.Context, db *sql.DB) (*Memory, error) {
	rows, err := db.QueryContext(ctx, "SELECT file, title FROM documents ORDER BY file")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	entries := make(map[string]*Entry)
	var order []string
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.File, &e.Title); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		entries[e.File] = &e
		order = append(order, e.File)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	_ = rows.Close()

	anchorRows, err := db.QueryContext(ctx, "SELECT file, name, is_label FROM anchors ORDER BY file, is_label, position")
	if err != nil {
		return nil, fmt.Errorf("query anchors: %w", err)
	}
	defer func() { _ = anchorRows.Close() }()
	for anchorRows.Next() {
		var file, name string
		var isLabel int
		if err := anchorRows.Scan(&file, &name, &isLabel); err != nil {
			return nil, fmt.Errorf("scan anchor: %w", err)
		}
		e, ok := entries[file]
		if !ok {
			continue
		}
		if isLabel == 1 {
			e.Labels = append(e.Labels, name)
		} else {
			e.Anchors = append(e.Anchors, name)
		}
	}
	if err := anchorRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anchors: %w", err)
	}

	m := NewMemory()
	for _, file := range order {
		m.Put(*entries[file])
	}
	return m, nil
}
