package sequencerdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/accumulator"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb/migrations"
)

// ErrNotFound is returned by the getters when the requested entry does not exist
var ErrNotFound = db.ErrNotFound

// Store keeps every table of the sequencer in a single SQLite file, so one SQL transaction
// can span accumulator nodes, ledger transactions and the sequencer info
type Store struct {
	logger *log.Logger
	db     *sql.DB
	nodes  *accumulator.SQLNodeStore
}

// New opens (and migrates) the sequencer DB at dbPath
func New(logger *log.Logger, dbPath string, nodeCacheSize int) (*Store, error) {
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening sequencer db %s: %w", dbPath, err)
	}
	if err := db.RunMigrationsDB(logger, database, migrations.Migrations()); err != nil {
		database.Close()
		return nil, err
	}
	nodes, err := accumulator.NewSQLNodeStore(database, nodeCacheSize)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &Store{
		logger: logger,
		db:     database,
		nodes:  nodes,
	}, nil
}

// DB exposes the underlying connection pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// NodeStore is the accumulator node store living in the same DB file
func (s *Store) NodeStore() *accumulator.SQLNodeStore {
	return s.nodes
}

// BeginTx opens a write transaction on the sequencer DB
func (s *Store) BeginTx(ctx context.Context) (*db.Tx, error) {
	return db.NewTx(ctx, s.db)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn inside a transaction, committing on success
func (s *Store) update(ctx context.Context, fn func(tx *db.Tx) error) error {
	return db.Update(ctx, s.logger, s.db, fn)
}
