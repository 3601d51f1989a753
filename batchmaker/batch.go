package batchmaker

import (
	"github.com/0xPolygon/cdk-sequencer/log"
)

// InProgressBatch is the contiguous range of tx orders being accumulated into the next block.
// A zero start timestamp means the batch is empty.
type InProgressBatch struct {
	TxOrderStart   uint64
	TxOrderEnd     uint64
	StartTimestamp uint64

	interval uint64
	logger   *log.Logger
}

// NewInProgressBatch creates an empty batch closing after intervalMillis
func NewInProgressBatch(logger *log.Logger, intervalMillis uint64) *InProgressBatch {
	return &InProgressBatch{interval: intervalMillis, logger: logger}
}

func (b *InProgressBatch) Reset() {
	b.TxOrderStart, b.TxOrderEnd, b.StartTimestamp = 0, 0, 0
}

func (b *InProgressBatch) IsEmpty() bool {
	return b.StartTimestamp == 0
}

func (b *InProgressBatch) beginWith(txOrder, txTimestamp uint64) {
	if txTimestamp == 0 {
		b.logger.Warn("tx timestamp is 0, should not happen, set to 1")
		txTimestamp = 1
	}
	b.TxOrderStart = txOrder
	b.TxOrderEnd = txOrder
	b.StartTimestamp = txTimestamp
}

// AppendTransaction extends the batch with txOrder. It returns the range and true once the tx
// is at least one interval after the batch start; the batch is left as is until Reset.
// An empty batch begins with the tx, and a tx not following the batch end is dropped.
func (b *InProgressBatch) AppendTransaction(txOrder, txTimestamp uint64) (uint64, uint64, bool) {
	if b.IsEmpty() {
		b.beginWith(txOrder, txTimestamp)
		return 0, 0, false
	}
	if txOrder != b.TxOrderEnd+1 {
		b.logger.Errorf("failed to make new batch: transaction order is not continuous, last: %d, current: %d",
			b.TxOrderEnd, txOrder)
		return 0, 0, false
	}
	b.TxOrderEnd = txOrder

	// backwards check first to avoid the underflow
	if txTimestamp < b.StartTimestamp || txTimestamp-b.StartTimestamp < b.interval {
		return 0, 0, false
	}
	return b.TxOrderStart, b.TxOrderEnd, true
}

// PendingTx is the last tx seen, held back until the next one arrives. Order 0 means empty.
type PendingTx struct {
	TxOrder     uint64
	TxTimestamp uint64
}

// Push stores the tx and returns the one it replaces, if any
func (p *PendingTx) Push(txOrder, txTimestamp uint64) (PendingTx, bool) {
	old := *p
	p.TxOrder, p.TxTimestamp = txOrder, txTimestamp
	return old, old.TxOrder != 0
}

// Revert empties the slot if it holds txOrder
func (p *PendingTx) Revert(txOrder uint64) error {
	if txOrder != p.TxOrder {
		return &RevertMismatchError{PendingTxOrder: p.TxOrder, RevertTxOrder: txOrder}
	}
	p.TxOrder, p.TxTimestamp = 0, 0
	return nil
}
