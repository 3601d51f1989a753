package relayer

import (
	"fmt"
	"math/big"

	"github.com/0xPolygon/cdk-sequencer/config/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// BlockFinality is the status of the L1 blocks that get relayed
type BlockFinality string

const (
	LatestBlock    BlockFinality = "LatestBlock"
	SafeBlock      BlockFinality = "SafeBlock"
	FinalizedBlock BlockFinality = "FinalizedBlock"
)

// ToBlockNum is the tag understood by HeaderByNumber
func (b BlockFinality) ToBlockNum() (*big.Int, error) {
	switch b {
	case LatestBlock:
		return big.NewInt(int64(rpc.LatestBlockNumber)), nil
	case SafeBlock:
		return big.NewInt(int64(rpc.SafeBlockNumber)), nil
	case FinalizedBlock, "":
		return big.NewInt(int64(rpc.FinalizedBlockNumber)), nil
	default:
		return nil, fmt.Errorf("invalid block finality %q", b)
	}
}

type Config struct {
	// URL of the L1 RPC node
	URL string `mapstructure:"URL"`
	// ChainID recorded on every relayed block
	ChainID uint64 `mapstructure:"ChainID"`
	// BlockFinality of the relayed blocks
	BlockFinality BlockFinality `mapstructure:"BlockFinality" jsonschema:"enum=LatestBlock,enum=SafeBlock,enum=FinalizedBlock"` //nolint:lll
	// StartBlock is the first block relayed on an empty ledger
	StartBlock uint64 `mapstructure:"StartBlock"`
	// SyncBlockChunkSize is the max number of blocks relayed between two head checks
	SyncBlockChunkSize uint64 `mapstructure:"SyncBlockChunkSize"`
	// WaitForNewBlocksPeriod is the polling period of the L1 head
	WaitForNewBlocksPeriod types.Duration `mapstructure:"WaitForNewBlocksPeriod"`
	// RetryAfterErrorPeriod is the time waited after a failed call
	RetryAfterErrorPeriod types.Duration `mapstructure:"RetryAfterErrorPeriod"`
	// MaxRetryAttemptsAfterError stops the node after that many consecutive failures, -1 retries forever
	MaxRetryAttemptsAfterError int `mapstructure:"MaxRetryAttemptsAfterError"`
}
