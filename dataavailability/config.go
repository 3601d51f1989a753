package dataavailability

import (
	"time"

	"github.com/0xPolygon/cdk-sequencer/config/types"
)

const (
	// LocalFS writes every batch to a file
	LocalFS = "localfs"
	// None disables the submitter
	None = "none"

	defaultSubmitInterval = 10 * time.Second
)

type Config struct {
	// Backend receiving the batches
	Backend string `mapstructure:"Backend" jsonschema:"enum=localfs,enum=none"`
	// LocalFSDir is the directory of the localfs backend
	LocalFSDir string `mapstructure:"LocalFSDir"`
	// SubmitInterval is the time between two rounds of the background submitter
	SubmitInterval types.Duration `mapstructure:"SubmitInterval"`
	// PageSize is the max number of blocks submitted per round
	PageSize int `mapstructure:"PageSize"`
	// SyncMode follows DA blocks produced elsewhere: no batch is made and the startup repair
	// only checks the background submit cursor
	SyncMode bool `mapstructure:"SyncMode"`
	// MinBlockToSubmit lowers the background submit cursor at startup so the blocks from this
	// one on are checked again
	MinBlockToSubmit *uint64 `mapstructure:"MinBlockToSubmit"`
}

func (c Config) submitInterval() time.Duration {
	if c.SubmitInterval.Duration <= 0 {
		return defaultSubmitInterval
	}
	return c.SubmitInterval.Duration
}
