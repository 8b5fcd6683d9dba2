package boardlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// SQLiteStore persists the Board in a SQLite database, as an alternative
// to FileStore for deployments already carrying SQLite. Save replaces the
// full message set inside one serializable transaction, giving the same
// all-or-nothing contract as FileStore's atomic rename.
type SQLiteStore struct{ db *sql.DB }

// OpenSQLiteStore opens/creates a SQLite DB and ensures schema + PRAGMAs.
func OpenSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS messages (
  community TEXT    NOT NULL,
  seq       INTEGER NOT NULL,     -- position within the community chain
  id        TEXT    NOT NULL,
  author    TEXT    NOT NULL,
  message   TEXT    NOT NULL,
  ts        TEXT    NOT NULL,
  prev_hash TEXT    NOT NULL,
  hash      TEXT    NOT NULL,
  PRIMARY KEY (community, seq)
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads all chains grouped by community in chain order.
func (s *SQLiteStore) Load() (Board, error) {
	rows, err := s.db.Query(
		`SELECT community, id, author, message, ts, prev_hash, hash
		 FROM messages ORDER BY community, seq ASC`)
	if err != nil {
		return Board{}, err
	}
	defer rows.Close()
	board := Board{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Community, &e.ID, &e.Author, &e.Message,
			&e.Timestamp, &e.PrevHash, &e.Hash); err != nil {
			return Board{}, err
		}
		board[e.Community] = append(board[e.Community], e)
	}
	if err := rows.Err(); err != nil {
		return Board{}, err
	}
	return board, nil
}

// Save replaces the persisted message set with b in one transaction.
func (s *SQLiteStore) Save(b Board) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages(community, seq, id, author, message, ts, prev_hash, hash)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for community, history := range b {
		for seq, e := range history {
			if _, err := stmt.ExecContext(ctx, community, seq, e.ID, e.Author,
				e.Message, e.Timestamp, e.PrevHash, e.Hash); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
