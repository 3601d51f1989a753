package db

import "database/sql"

// Querier is satisfied by *sql.DB, *sql.Tx and *Tx. The sequencer table helpers take a
// Querier so the same code writes either standalone or inside a bigger atomic write.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Txer is a write transaction whose commit or rollback also updates in-memory state,
// such as the accumulator frontier and node cache
type Txer interface {
	Querier
	AddRollbackCallback(cb func())
	AddCommitCallback(cb func())
	Commit() error
	Rollback() error
}
