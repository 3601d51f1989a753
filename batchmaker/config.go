package batchmaker

import (
	"time"

	"github.com/0xPolygon/cdk-sequencer/config/types"
)

// DefaultInterval is the batch interval used when none is configured
const DefaultInterval = time.Hour

type Config struct {
	// Interval is the minimum time between the first tx of a batch and the tx closing it
	Interval types.Duration `mapstructure:"Interval"`
}

func (c Config) intervalMillis() uint64 {
	if c.Interval.Duration <= 0 {
		return uint64(DefaultInterval.Milliseconds())
	}
	return uint64(c.Interval.Milliseconds())
}
