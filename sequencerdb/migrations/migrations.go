package migrations

import (
	_ "embed"

	accmigrations "github.com/0xPolygon/cdk-sequencer/accumulator/migrations"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/db/types"
)

//go:embed sequencerdb0001.sql
var mig001 string

//go:embed sequencerdb0002.sql
var mig002 string

//go:embed sequencerdb0003.sql
var mig003 string

// Migrations returns every migration of the sequencer DB file, accumulator nodes included
func Migrations() []types.Migration {
	migrations := make([]types.Migration, 0, len(accmigrations.Migrations)+3) //nolint:mnd
	migrations = append(migrations, accmigrations.Migrations...)
	return append(migrations,
		types.Migration{ID: "sequencerdb0001", SQL: mig001},
		types.Migration{ID: "sequencerdb0002", SQL: mig002},
		types.Migration{ID: "sequencerdb0003", SQL: mig003},
	)
}

func RunMigrations(dbPath string) error {
	return db.RunMigrations(dbPath, Migrations())
}
