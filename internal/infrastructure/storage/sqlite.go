package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal records which watch rows have already fired so that a
// restart never re-arms them. It stores only row fingerprints and outcomes;
// fills, balances and portfolio history are deliberately not persisted.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	journal := &SQLiteJournal{db: db}
	if err := journal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return journal, nil
}

func (j *SQLiteJournal) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS fired_rows (
		fingerprint TEXT PRIMARY KEY,
		outcome     TEXT NOT NULL,
		fired_at    DATETIME NOT NULL
	);`
	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("failed to init journal schema: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Seen(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := j.db.QueryRowContext(ctx,
		`SELECT 1 FROM fired_rows WHERE fingerprint = ?`, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record keeps the first outcome for a fingerprint; a row fires at most once
// and the original outcome is the one that matters.
func (j *SQLiteJournal) Record(ctx context.Context, fingerprint, outcome string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fired_rows (fingerprint, outcome, fired_at) VALUES (?, ?, ?)`,
		fingerprint, outcome, time.Now().UTC())
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
