package batchmaker

import (
	"context"
	"sync"

	"github.com/0xPolygon/cdk-sequencer/log"
)

// BlockAppender durably records a closed batch as a block to submit
type BlockAppender interface {
	AppendSubmittingBlock(ctx context.Context, txOrderStart, txOrderEnd uint64) (uint64, error)
}

// BatchMaker turns the stream of sequenced txs into DA blocks by time window. The last tx is
// held one step behind so a batch is only closed once the following tx has shown up.
type BatchMaker struct {
	logger   *log.Logger
	appender BlockAppender

	mu         sync.Mutex
	pending    PendingTx
	inProgress *InProgressBatch
}

func New(logger *log.Logger, cfg Config, appender BlockAppender) *BatchMaker {
	return &BatchMaker{
		logger:     logger,
		appender:   appender,
		inProgress: NewInProgressBatch(logger, cfg.intervalMillis()),
	}
}

// AppendTransaction pushes the tx to the pending slot and feeds the previously pending one to
// the batch. It returns the block number when that closes a batch.
func (m *BatchMaker) AppendTransaction(ctx context.Context, txOrder, txTimestamp uint64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.pending.Push(txOrder, txTimestamp)
	if !ok {
		return 0, false
	}
	return m.addToBatch(ctx, old.TxOrder, old.TxTimestamp)
}

// RevertTransaction undoes the pending slot, which must hold txOrder
func (m *BatchMaker) RevertTransaction(txOrder uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Revert(txOrder)
}

func (m *BatchMaker) addToBatch(ctx context.Context, txOrder, txTimestamp uint64) (uint64, bool) {
	start, end, closed := m.inProgress.AppendTransaction(txOrder, txTimestamp)
	if !closed {
		return 0, false
	}
	blockNumber, err := m.appender.AppendSubmittingBlock(ctx, start, end)
	if err != nil {
		m.logger.Warnf("failed to append submitting block for range (%d, %d): %v", start, end, err)
		return 0, false
	}
	m.inProgress.Reset()
	m.logger.Infof("new batch made: block %d, tx orders [%d, %d]", blockNumber, start, end)
	return blockNumber, true
}
