package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/splan/core/history"
)

// SQLiteStore persists resolution records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS resolutions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        source TEXT,
        week TEXT,
        err TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS resolutions_ts ON resolutions (ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec history.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolutions (ts, source, week, err, record) VALUES (?, ?, ?, ?, ?)`,
		rec.Time.UnixMilli(), string(rec.Source), rec.Week, rec.Err, string(b))
	return err
}

// Query returns records matching q, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q history.Query) ([]history.Record, error) {
	var args []any
	query := `SELECT id, record FROM resolutions WHERE 1=1`
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.UnixMilli())
	}
	if !q.Until.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.Until.UnixMilli())
	}
	if q.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(q.Source))
	}
	query += ` ORDER BY ts DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []history.Record
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var r history.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		r.ID = id
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Latest returns the most recent record.
func (s *SQLiteStore) Latest(ctx context.Context) (history.Record, error) {
	var (
		id   int64
		data string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, record FROM resolutions ORDER BY ts DESC, id DESC LIMIT 1`).Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Record{}, history.ErrNotFound
	}
	if err != nil {
		return history.Record{}, err
	}
	var r history.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return history.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	r.ID = id
	return r, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
