// Package dbtools holds the offline corrective operations on the sequencer DB. They bypass the
// live sequencer and must not run while one is writing to the same DB.
package dbtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/accumulator"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidTxOrder  = errors.New("tx order should be greater than 0")
	ErrTxHashNotFound  = errors.New("tx_hash not found for tx_order")
	ErrNotLastTxOrder  = errors.New("tx order is not the last order")
	ErrNotBeforeLast   = errors.New("tx order should be less than last order")
	ErrTxNotExecuted   = errors.New("tx not executed")
	ErrInconsistentDB  = errors.New("database is inconsistent")
	ErrLeafOutOfBounds = errors.New("leaf index out of bounds")
)

// Tools runs the corrective operations against a sequencer store
type Tools struct {
	logger *log.Logger
	store  *sequencerdb.Store
}

func New(logger *log.Logger, store *sequencerdb.Store) *Tools {
	return &Tools{logger: logger, store: store}
}

// checkpoint is the state the ledger is moved back to by revert and rollback
type checkpoint struct {
	sequencer sequencerdb.SequencerInfo
	startup   ledger.StartupInfo
}

// executedCheckpoint builds the checkpoint right after txOrder. Order 0 is the genesis one.
func (t *Tools) executedCheckpoint(txOrder uint64) (checkpoint, common.Hash, error) {
	if txOrder == 0 {
		return checkpoint{sequencer: sequencerdb.GenesisSequencerInfo()}, common.Hash{}, nil
	}
	hash, err := t.store.GetTxHashByOrder(txOrder)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return checkpoint{}, common.Hash{}, fmt.Errorf("%w %d", ErrTxHashNotFound, txOrder)
	}
	if err != nil {
		return checkpoint{}, common.Hash{}, err
	}
	tx, err := t.store.GetTransactionByHash(hash)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return checkpoint{}, common.Hash{}, fmt.Errorf("%w: ledger tx %s of order %d not found",
			ErrInconsistentDB, hash.Hex(), txOrder)
	}
	if err != nil {
		return checkpoint{}, common.Hash{}, err
	}
	if tx.SequenceInfo.TxOrder != txOrder {
		return checkpoint{}, common.Hash{}, fmt.Errorf("%w: tx %s is sequenced at order %d, not %d",
			ErrInconsistentDB, hash.Hex(), tx.SequenceInfo.TxOrder, txOrder)
	}
	exec, err := t.store.GetExecutionInfo(hash)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return checkpoint{}, common.Hash{}, fmt.Errorf("%w: tx_hash %s, tx_order %d", ErrTxNotExecuted, hash.Hex(), txOrder)
	}
	if err != nil {
		return checkpoint{}, common.Hash{}, err
	}
	return checkpoint{
		sequencer: sequencerdb.SequencerInfo{LastOrder: txOrder, LastAccumulatorInfo: tx.SequenceInfo.TxAccumulatorInfo},
		startup:   ledger.StartupInfo{StateRoot: exec.StateRoot, Size: exec.Size},
	}, hash, nil
}

// RevertTx removes the last tx and moves the sequencer info and the startup checkpoint back to
// the previous tx, which must have been executed. Every precondition is checked before writing.
func (t *Tools) RevertTx(ctx context.Context, txOrder uint64) error {
	if txOrder == 0 {
		return ErrInvalidTxOrder
	}
	hash, err := t.store.GetTxHashByOrder(txOrder)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return fmt.Errorf("%w %d", ErrTxHashNotFound, txOrder)
	}
	if err != nil {
		return err
	}
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return fmt.Errorf("load sequencer info failed: %w", err)
	}
	if txOrder != info.LastOrder {
		return fmt.Errorf("%w: tx_order %d, last_order %d", ErrNotLastTxOrder, txOrder, info.LastOrder)
	}
	prev, _, err := t.executedCheckpoint(txOrder - 1)
	if err != nil {
		return fmt.Errorf("revert tx failed, previous tx %d: %w", txOrder-1, err)
	}

	err = t.update(ctx, func(tx *db.Tx) error {
		if err := sequencerdb.RemoveSequencedTx(tx, txOrder, hash); err != nil {
			return err
		}
		if err := sequencerdb.RemoveExecutionInfo(tx, hash); err != nil {
			return err
		}
		if err := sequencerdb.RemoveStateChangeSet(tx, txOrder); err != nil {
			return err
		}
		return t.saveCheckpoint(tx, prev)
	})
	if err != nil {
		return err
	}
	t.logger.Infof("revert tx succeed: tx_hash: %s, tx_order %d", hash.Hex(), txOrder)
	return nil
}

// Rollback moves the tip back to txOrder. The execution results of every later tx are removed,
// newest first; their ledger entries stay and are replaced when those orders are sequenced again.
func (t *Tools) Rollback(ctx context.Context, txOrder uint64) error {
	if txOrder == 0 {
		return ErrInvalidTxOrder
	}
	if _, err := t.store.GetTxHashByOrder(txOrder); errors.Is(err, sequencerdb.ErrNotFound) {
		return fmt.Errorf("rollback tx failed: %w %d", ErrTxHashNotFound, txOrder)
	} else if err != nil {
		return err
	}
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return fmt.Errorf("load sequencer info failed: %w", err)
	}
	if txOrder >= info.LastOrder {
		return fmt.Errorf("rollback tx failed: %w: tx_order %d, last_order %d",
			ErrNotBeforeLast, txOrder, info.LastOrder)
	}
	target, hash, err := t.executedCheckpoint(txOrder)
	if err != nil {
		return fmt.Errorf("rollback tx failed: %w", err)
	}

	undo := make(map[uint64]common.Hash, info.LastOrder-txOrder)
	for order := info.LastOrder; order > txOrder; order-- {
		orderHash, err := t.store.GetTxHashByOrder(order)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			t.logger.Warnf("rollback: tx_hash not found for tx_order %d, may have been reverted", order)
			continue
		}
		if err != nil {
			return err
		}
		undo[order] = orderHash
	}

	err = t.update(ctx, func(tx *db.Tx) error {
		for order := info.LastOrder; order > txOrder; order-- {
			orderHash, ok := undo[order]
			if !ok {
				continue
			}
			if err := sequencerdb.RemoveExecutionInfo(tx, orderHash); err != nil {
				return err
			}
			if err := sequencerdb.RemoveStateChangeSet(tx, order); err != nil {
				return err
			}
		}
		return t.saveCheckpoint(tx, target)
	})
	if err != nil {
		return err
	}
	t.logger.Infof("rollback tx succeed, tx_hash: %s, tx_order %d, state_root: %s",
		hash.Hex(), txOrder, target.startup.StateRoot.Hex())
	return nil
}

// GetAccumulatorLeafByIndex reads a leaf of the accumulator restored from the stored sequencer info
func (t *Tools) GetAccumulatorLeafByIndex(index uint64) (common.Hash, error) {
	acc, _, err := t.loadAccumulator()
	if err != nil {
		return common.Hash{}, err
	}
	leaf, found, err := acc.GetLeaf(index)
	if err != nil {
		return common.Hash{}, err
	}
	if !found {
		return common.Hash{}, fmt.Errorf("%w: index %d, num_leaves %d", ErrLeafOutOfBounds, index, acc.NumLeaves())
	}
	return leaf, nil
}

func (t *Tools) loadAccumulator() (*accumulator.Accumulator, sequencerdb.SequencerInfo, error) {
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return nil, sequencerdb.SequencerInfo{}, fmt.Errorf("load sequencer info failed: %w", err)
	}
	acc, err := accumulator.NewWithInfo(info.LastAccumulatorInfo, t.store.NodeStore())
	if err != nil {
		return nil, info, err
	}
	return acc, info, nil
}

func (t *Tools) saveCheckpoint(tx *db.Tx, c checkpoint) error {
	if err := sequencerdb.SaveSequencerInfoUnsafe(tx, c.sequencer); err != nil {
		return err
	}
	return sequencerdb.SaveStartupInfo(tx, c.startup)
}

func (t *Tools) update(ctx context.Context, fn func(tx *db.Tx) error) error {
	return db.Update(ctx, t.logger, t.store.DB(), fn)
}
