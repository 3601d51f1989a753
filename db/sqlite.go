package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// busyTimeoutMs is how long a connection waits on a locked file before failing with SQLITE_BUSY
	busyTimeoutMs = 5000
	// journalSizeLimit caps the WAL file once it has been checkpointed
	journalSizeLimit = 6144000
)

var (
	ErrNotFound = errors.New("not found")
)

// NewSQLiteDB opens the SQLite file at dbPath in WAL mode. Write transactions take the
// file lock when they begin (BEGIN IMMEDIATE) so two writers never deadlock upgrading a
// read lock, and readers keep working while a tx order is being written.
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(fmt.Sprintf(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = normal;
		PRAGMA journal_size_limit = %d;
	`, journalSizeLimit))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting pragmas on %s: %w", dbPath, err)
	}
	return db, nil
}

func dsn(dbPath string) string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprint(busyTimeoutMs))
	params.Set("_txlock", "immediate")
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return "file:" + dbPath + sep + params.Encode()
}

// ReturnErrNotFound maps sql.ErrNoRows to ErrNotFound
func ReturnErrNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
