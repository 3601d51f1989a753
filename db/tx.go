package db

import (
	"context"
	"database/sql"

	"github.com/0xPolygon/cdk-sequencer/log"
)

var _ Txer = (*Tx)(nil)

// Tx is a sql transaction that runs callbacks once it has been committed or rolled back
type Tx struct {
	*sql.Tx
	onRollback []func()
	onCommit   []func()
}

func NewTx(ctx context.Context, db *sql.DB) (*Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx}, nil
}

func (t *Tx) AddRollbackCallback(cb func()) {
	t.onRollback = append(t.onRollback, cb)
}

func (t *Tx) AddCommitCallback(cb func()) {
	t.onCommit = append(t.onCommit, cb)
}

// Commit runs the commit callbacks in registration order. A failed commit leaves nothing
// on disk, so the rollback callbacks run instead.
func (t *Tx) Commit() error {
	if err := t.Tx.Commit(); err != nil {
		t.undo()
		return err
	}
	for _, cb := range t.onCommit {
		cb()
	}
	t.onCommit = nil
	return nil
}

// Rollback runs the rollback callbacks in reverse order even if the driver fails, the
// transaction is unusable afterwards anyway
func (t *Tx) Rollback() error {
	err := t.Tx.Rollback()
	t.undo()
	return err
}

func (t *Tx) undo() {
	for i := len(t.onRollback) - 1; i >= 0; i-- {
		t.onRollback[i]()
	}
	t.onRollback = nil
}

// Update runs fn in a new transaction on db. The transaction is committed when fn succeeds
// and rolled back otherwise.
func Update(ctx context.Context, logger *log.Logger, db *sql.DB, fn func(tx *Tx) error) error {
	tx, err := NewTx(ctx, db)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if errRllbck := tx.Rollback(); errRllbck != nil {
			logger.Errorf("error while rolling back tx: %v", errRllbck)
		}
		return err
	}
	return tx.Commit()
}
