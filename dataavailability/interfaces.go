package dataavailability

import (
	"context"

	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
)

// DABackender is the data availability layer the batches are submitted to
type DABackender interface {
	// Init initializes the DA backend
	Init() error
	// SubmitBatch stores the batch. Submitting the same batch twice must be harmless.
	SubmitBatch(ctx context.Context, batch Batch) error
}

// BlockSource gives access to the DA blocks and their txs
type BlockSource interface {
	GetBackgroundSubmitBlockCursor() (uint64, bool, error)
	SetBackgroundSubmitBlockCursor(ctx context.Context, cursor uint64) error
	GetBlockState(blockNumber uint64) (sequencerdb.BlockSubmitState, error)
	GetSubmittingBlocks(startBlock uint64, limit int) ([]sequencerdb.BlockRange, error)
	SetSubmittingBlockDone(ctx context.Context, blockNumber, txOrderStart, txOrderEnd uint64,
		batchHash common.Hash) error
	GetTransactionByOrder(txOrder uint64) (ledger.Transaction, error)
}

var _ BlockSource = (*sequencerdb.Store)(nil)
