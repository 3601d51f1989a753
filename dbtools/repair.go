package dbtools

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/0xPolygon/cdk-sequencer/accumulator"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// leafScanChunk is the number of orders checked by one worker of the thorough leaf scan
const leafScanChunk = 1024

type RepairOptions struct {
	// Thorough checks every accumulator leaf, the execution continuity and every DA block
	Thorough bool
	// Exec applies the fixes, otherwise the issues are only reported
	Exec bool
	// FastFail stops at the first issue
	FastFail bool
	// SyncMode doesn't generate DA blocks
	SyncMode bool
	// MinBlockToSubmit lowers the background submit cursor to this block
	MinBlockToSubmit *uint64
}

// Repair checks the sequencer DB and, with Exec, fixes what can be fixed. It returns the number
// of issues found and fixed.
func (t *Tools) Repair(ctx context.Context, opts RepairOptions) (issues, fixed int, err error) {
	steps := []func(context.Context, RepairOptions) (int, int, error){
		t.repairSequencerInfo,
		t.repairTxOrderMapping,
	}
	if opts.Thorough {
		steps = append(steps, t.checkLeaves, t.checkExecution)
	}
	steps = append(steps, t.repairDAMeta)

	for _, step := range steps {
		i, f, err := step(ctx, opts)
		issues += i
		fixed += f
		if err != nil {
			return issues, fixed, err
		}
		if opts.FastFail && i > f {
			return issues, fixed, fmt.Errorf("%w: %d issues found, %d fixed", ErrInconsistentDB, issues, fixed)
		}
	}
	t.logger.Infof("repair done, issues found: %d, fixed: %d", issues, fixed)
	return issues, fixed, nil
}

// repairSequencerInfo checks that last_order matches the accumulator leaf count and that the
// accumulator can be restored. The fix moves back to the newest tx that is a consistent
// checkpoint; leaves are never invented.
func (t *Tools) repairSequencerInfo(ctx context.Context, opts RepairOptions) (int, int, error) {
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return 0, 0, fmt.Errorf("load sequencer info failed: %w", err)
	}
	_, restoreErr := accumulator.NewWithInfo(info.LastAccumulatorInfo, t.store.NodeStore())
	if restoreErr == nil && info.LastOrder == info.LastAccumulatorInfo.NumLeaves {
		return 0, 0, nil
	}
	t.logger.Errorf("sequencer info is inconsistent: last_order %d, num_leaves %d, restore error: %v",
		info.LastOrder, info.LastAccumulatorInfo.NumLeaves, restoreErr)
	if !opts.Exec {
		return 1, 0, nil
	}

	// order 0 is always consistent
	for order := min(info.LastOrder, info.LastAccumulatorInfo.NumLeaves); ; order-- {
		candidate, ok, err := t.consistentCheckpoint(order)
		if err != nil {
			return 1, 0, err
		}
		if ok {
			if err := t.moveBack(ctx, candidate, info.LastOrder); err != nil {
				return 1, 0, err
			}
			t.logger.Warnf("sequencer info moved back to order %d", candidate.LastOrder)
			return 1, 1, nil
		}
	}
}

// moveBack saves candidate as the sequencer info together with the startup info of its order,
// dropping the execution results of the orders above it up to lastOrder.
func (t *Tools) moveBack(ctx context.Context, candidate sequencerdb.SequencerInfo, lastOrder uint64) error {
	target, _, err := t.executedCheckpoint(candidate.LastOrder)
	executed := err == nil
	if errors.Is(err, ErrTxNotExecuted) || errors.Is(err, ErrTxHashNotFound) {
		t.logger.Warnf("no execution found for tx_order %d, startup info kept: %v", candidate.LastOrder, err)
	} else if err != nil {
		return err
	}

	undo := make(map[uint64]common.Hash)
	for order := lastOrder; order > candidate.LastOrder; order-- {
		hash, err := t.store.GetTxHashByOrder(order)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		undo[order] = hash
	}

	return t.update(ctx, func(tx *db.Tx) error {
		for order, hash := range undo {
			if err := sequencerdb.RemoveExecutionInfo(tx, hash); err != nil {
				return err
			}
			if err := sequencerdb.RemoveStateChangeSet(tx, order); err != nil {
				return err
			}
		}
		if err := sequencerdb.SaveSequencerInfoUnsafe(tx, candidate); err != nil {
			return err
		}
		if !executed {
			return nil
		}
		return sequencerdb.SaveStartupInfo(tx, target.startup)
	})
}

func (t *Tools) consistentCheckpoint(order uint64) (sequencerdb.SequencerInfo, bool, error) {
	if order == 0 {
		return sequencerdb.GenesisSequencerInfo(), true, nil
	}
	tx, err := t.store.GetLedgerTxByOrder(order)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return sequencerdb.SequencerInfo{}, false, nil
	}
	if err != nil {
		return sequencerdb.SequencerInfo{}, false, err
	}
	accInfo := tx.SequenceInfo.TxAccumulatorInfo
	if accInfo.NumLeaves != order {
		return sequencerdb.SequencerInfo{}, false, nil
	}
	if _, err := accumulator.NewWithInfo(accInfo, t.store.NodeStore()); err != nil {
		return sequencerdb.SequencerInfo{}, false, nil
	}
	return sequencerdb.SequencerInfo{LastOrder: order, LastAccumulatorInfo: accInfo}, true, nil
}

// repairTxOrderMapping checks that every order up to last_order maps to the ledger tx stored at
// that order. A mapping is restored from the ledger tx; a missing ledger tx can't be fixed.
func (t *Tools) repairTxOrderMapping(ctx context.Context, opts RepairOptions) (int, int, error) {
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return 0, 0, err
	}
	var issues, fixed int
	for order := uint64(1); order <= info.LastOrder; order++ {
		tx, err := t.store.GetLedgerTxByOrder(order)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			t.logger.Errorf("ledger tx not found for tx_order %d", order)
			issues++
			if opts.FastFail {
				return issues, fixed, nil
			}
			continue
		}
		if err != nil {
			return issues, fixed, err
		}
		hash, err := tx.Hash()
		if err != nil {
			return issues, fixed, err
		}
		mapped, err := t.store.GetTxHashByOrder(order)
		if err != nil && !errors.Is(err, sequencerdb.ErrNotFound) {
			return issues, fixed, err
		}
		if err == nil && mapped == hash {
			continue
		}
		t.logger.Errorf("tx_order %d maps to %s, ledger tx is %s", order, mapped.Hex(), hash.Hex())
		issues++
		if !opts.Exec {
			if opts.FastFail {
				return issues, fixed, nil
			}
			continue
		}
		if err := t.update(ctx, func(dbTx *db.Tx) error {
			return sequencerdb.SetTxOrderHash(dbTx, order, hash)
		}); err != nil {
			return issues, fixed, err
		}
		fixed++
	}
	return issues, fixed, nil
}

// checkLeaves compares every accumulator leaf with the tx hash of its order. Report only.
func (t *Tools) checkLeaves(ctx context.Context, opts RepairOptions) (int, int, error) {
	acc, info, err := t.loadAccumulator()
	if err != nil {
		// already reported by repairSequencerInfo
		return 0, 0, nil //nolint:nilerr
	}
	var (
		mu         sync.Mutex
		mismatches []uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for from := uint64(1); from <= info.LastOrder; from += leafScanChunk {
		from := from
		to := min(from+leafScanChunk-1, info.LastOrder)
		g.Go(func() error {
			for order := from; order <= to; order++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ok, err := t.leafMatches(acc, order)
				if err != nil {
					return err
				}
				if !ok {
					mu.Lock()
					mismatches = append(mismatches, order)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	if len(mismatches) > 0 {
		sort.Slice(mismatches, func(i, j int) bool { return mismatches[i] < mismatches[j] })
		t.logger.Errorf("accumulator leaves don't match the tx hashes of orders %v", mismatches)
	}
	return len(mismatches), 0, nil
}

func (t *Tools) leafMatches(acc *accumulator.Accumulator, order uint64) (bool, error) {
	leaf, found, err := acc.GetLeaf(order - 1)
	if err != nil || !found {
		return false, err
	}
	hash, err := t.store.GetTxHashByOrder(order)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return leaf == hash, nil
}

// checkExecution finds the last executed order and checks that every order before it was
// executed too. Missing change sets are only logged. Report only.
func (t *Tools) checkExecution(_ context.Context, _ RepairOptions) (int, int, error) {
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return 0, 0, err
	}
	if info.LastOrder == 0 {
		return 0, 0, nil
	}
	hashOf := func(order uint64) (common.Hash, error) {
		hash, err := t.store.GetTxHashByOrder(order)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			return common.Hash{}, fmt.Errorf("%w: transaction hash not found for order %d", ErrInconsistentDB, order)
		}
		return hash, err
	}
	executed := func(hash common.Hash) (bool, error) {
		_, err := t.store.GetExecutionInfo(hash)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	var lastExecuted uint64
	for order := info.LastOrder; order >= 1; order-- {
		hash, err := hashOf(order)
		if err != nil {
			t.logger.Error(err)
			return 1, 0, nil
		}
		ok, err := executed(hash)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			lastExecuted = order
			break
		}
	}
	t.logger.Infof("last_executed_tx_order: %d", lastExecuted)

	for order := uint64(1); order <= lastExecuted; order++ {
		hash, err := hashOf(order)
		if err != nil {
			t.logger.Error(err)
			return 1, 0, nil
		}
		ok, err := executed(hash)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			t.logger.Errorf("transaction execution info not found for order %d", order)
			return 1, 0, nil
		}
	}

	var missing []uint64
	for order := uint64(1); order <= lastExecuted; order++ {
		_, err := t.store.GetStateChangeSet(order)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			missing = append(missing, order)
			continue
		}
		if err != nil {
			return 0, 0, err
		}
	}
	if len(missing) > 0 {
		t.logger.Warnf("state change set not found for orders %v", missing)
	}
	return 0, 0, nil
}

// repairDAMeta reconciles the DA blocks with last_order. Without Exec only the tail of the
// blocks is compared with last_order.
func (t *Tools) repairDAMeta(ctx context.Context, opts RepairOptions) (int, int, error) {
	info, err := t.store.GetSequencerInfo()
	if err != nil {
		return 0, 0, err
	}
	if opts.Exec {
		return t.store.TryRepairDAMeta(ctx, info.LastOrder, opts.Thorough, opts.MinBlockToSubmit,
			opts.FastFail, opts.SyncMode)
	}
	if opts.SyncMode {
		return 0, 0, nil
	}
	lastBlock, found, err := t.store.GetLastBlockNumber()
	if err != nil {
		return 0, 0, err
	}
	var lastEnd uint64
	if found {
		state, err := t.store.GetBlockState(lastBlock)
		if err != nil {
			return 0, 0, err
		}
		lastEnd = state.TxOrderEnd
	}
	if lastEnd != info.LastOrder {
		t.logger.Errorf("DA blocks end at tx_order %d, last_order is %d", lastEnd, info.LastOrder)
		return 1, 0, nil
	}
	return 0, 0, nil
}
