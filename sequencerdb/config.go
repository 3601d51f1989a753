package sequencerdb

// Config of the sequencer DB
type Config struct {
	// Path of the SQLite file holding every table of the sequencer
	Path string `mapstructure:"Path"`
	// NodeCacheSize is the number of accumulator nodes cached in memory
	NodeCacheSize int `mapstructure:"NodeCacheSize"`
}
