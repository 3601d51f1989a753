package migrations

import (
	_ "embed"

	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/db/types"
)

//go:embed accumulator0001.sql
var mig001 string

// Migrations of the accumulator node table. Stores sharing the DB file append them to
// their own list so everything runs in a single migration set.
var Migrations = []types.Migration{
	{
		ID:  "accumulator0001",
		SQL: mig001,
	},
}

func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, Migrations)
}
