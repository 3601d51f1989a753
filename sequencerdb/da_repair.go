package sequencerdb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/0xPolygon/cdk-sequencer/db"
)

var ErrIllegalBlock = errors.New("illegal DA block")

// TryRepairDAMeta reconciles the DA blocks with lastOrder and returns (issues, fixed).
//   - lastOrder ahead of the last block end: blocks are appended until lastOrder, in chunks of
//     at most MaxTxsPerBlockInFix txs.
//   - lastOrder behind the last block end (after an offline rollback or revert): the blocks
//     ending after lastOrder are removed, then the tail is caught up again.
//
// thorough scans every block first and drops everything from the first illegal one; with
// fastFail the first illegal block is returned as an error instead. syncMode doesn't touch the
// blocks, only the background submit cursor.
func (s *Store) TryRepairDAMeta(ctx context.Context, lastOrder uint64, thorough bool,
	minBlockToSubmit *uint64, fastFail, syncMode bool) (issues, fixed int, err error) {
	if thorough {
		issues, fixed, err = s.tryRepairOrders(ctx, lastOrder, fastFail)
		if err != nil {
			return issues, fixed, err
		}
	}
	if !syncMode {
		issues, fixed, err = s.tryRepairBlocks(ctx, lastOrder, issues, fixed)
		if err != nil {
			return issues, fixed, err
		}
	}
	if err = s.tryRepairBackgroundSubmitBlockCursor(ctx, minBlockToSubmit); err != nil {
		return issues, fixed, err
	}
	return issues, fixed, nil
}

func (s *Store) tryRepairOrders(ctx context.Context, lastOrder uint64, fastFail bool) (int, int, error) {
	lastBlock, found, err := s.GetLastBlockNumber()
	if err != nil || !found {
		return 0, 0, err
	}
	firstIllegal, found, err := s.findFirstIllegal(lastBlock, lastOrder)
	if err != nil || !found {
		return 0, 0, err
	}
	if fastFail {
		return 1, 0, fmt.Errorf("%w: %d, last_order: %d, last_block_number: %d",
			ErrIllegalBlock, firstIllegal, lastOrder, lastBlock)
	}
	remove := make([]uint64, 0, lastBlock-firstIllegal+1)
	for b := firstIllegal; b <= lastBlock; b++ {
		remove = append(remove, b)
	}
	if err := s.update(ctx, func(tx *db.Tx) error {
		return s.rollbackBlocks(tx, remove)
	}); err != nil {
		return 0, 0, err
	}
	return len(remove), len(remove), nil
}

// findFirstIllegal checks blocks [0, lastBlock]: each one legal on its own and starting right
// after the previous one. A missing block is illegal too.
func (s *Store) findFirstIllegal(lastBlock, lastOrder uint64) (uint64, bool, error) {
	var states []*BlockSubmitState
	if err := queryBlocks(s.db, &states, 0, lastBlock); err != nil {
		return 0, false, err
	}
	var prevEnd uint64
	for i, state := range states {
		expected := uint64(i)
		if state.BlockNumber != expected || !state.Range().IsLegal(lastOrder) {
			return expected, true, nil
		}
		if i > 0 && state.TxOrderStart != prevEnd+1 {
			return expected, true, nil
		}
		prevEnd = state.TxOrderEnd
	}
	if uint64(len(states)) <= lastBlock {
		return uint64(len(states)), true, nil
	}
	return 0, false, nil
}

func (s *Store) tryRepairBlocks(ctx context.Context, lastOrder uint64, issues, fixed int) (int, int, error) {
	for {
		lastBlock, found, err := s.GetLastBlockNumber()
		if err != nil {
			return issues, fixed, err
		}
		if !found {
			if lastOrder == 0 {
				return issues, fixed, nil
			}
			n, err := s.appendBlocksByRepair(ctx, generateAppendBlocks(0, 1, lastOrder))
			return issues + n, fixed + n, err
		}
		state, err := s.GetBlockState(lastBlock)
		if err != nil {
			return issues, fixed, err
		}
		switch {
		case lastOrder > state.TxOrderEnd:
			n, err := s.appendBlocksByRepair(ctx, generateAppendBlocks(lastBlock+1, state.TxOrderEnd+1, lastOrder))
			return issues + n, fixed + n, err
		case lastOrder < state.TxOrderEnd:
			remove, err := s.generateRemoveBlocksAfterOrder(lastBlock, lastOrder)
			if err != nil {
				return issues, fixed, err
			}
			issues += len(remove)
			if err := s.update(ctx, func(tx *db.Tx) error {
				return s.rollbackBlocks(tx, remove)
			}); err != nil {
				return issues, fixed, err
			}
			fixed += len(remove)
			// the new tail may now be behind lastOrder
		default:
			return issues, fixed, nil
		}
	}
}

// generateAppendBlocks splits [startOrder, lastOrder] into blocks numbered from firstBlock
func generateAppendBlocks(firstBlock, startOrder, lastOrder uint64) []BlockRange {
	var blocks []BlockRange
	blockNumber := firstBlock
	for start := startOrder; start <= lastOrder; {
		end := min(start+MaxTxsPerBlockInFix-1, lastOrder)
		blocks = append(blocks, BlockRange{BlockNumber: blockNumber, TxOrderStart: start, TxOrderEnd: end})
		start = end + 1
		blockNumber++
	}
	return blocks
}

func (s *Store) appendBlocksByRepair(ctx context.Context, ranges []BlockRange) (int, error) {
	if len(ranges) == 0 {
		return 0, nil
	}
	err := s.update(ctx, func(tx *db.Tx) error {
		for _, r := range ranges {
			if err := insertBlock(tx, r); err != nil {
				return err
			}
		}
		return setCursor(tx, lastBlockNumberKey, ranges[len(ranges)-1].BlockNumber)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infof("repair appended %d submitting blocks: [%d, %d]",
		len(ranges), ranges[0].BlockNumber, ranges[len(ranges)-1].BlockNumber)
	return len(ranges), nil
}

// generateRemoveBlocksAfterOrder walks back from lastBlock collecting blocks ending after lastOrder
func (s *Store) generateRemoveBlocksAfterOrder(lastBlock, lastOrder uint64) ([]uint64, error) {
	var blocks []uint64
	for block := lastBlock; ; block-- {
		state, err := s.GetBlockState(block)
		if err != nil {
			return nil, err
		}
		if state.TxOrderEnd <= lastOrder {
			break
		}
		blocks = append(blocks, block)
		if block == 0 {
			break
		}
	}
	return blocks, nil
}

// rollbackBlocks deletes the blocks and moves last_block_number right before the smallest one.
// The background cursor is lowered accordingly, or removed when no block is left.
func (s *Store) rollbackBlocks(tx db.Querier, blocks []uint64) error {
	if len(blocks) == 0 {
		return nil
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	for _, b := range blocks {
		if _, err := tx.Exec(`DELETE FROM da_block WHERE block_number = $1;`, b); err != nil {
			return fmt.Errorf("error deleting block %d: %w", b, err)
		}
	}
	minBlock := blocks[0]
	if minBlock == 0 {
		if err := removeCursor(tx, lastBlockNumberKey); err != nil {
			return err
		}
		if err := removeCursor(tx, backgroundSubmitBlockCursorKey); err != nil {
			return err
		}
	} else {
		newLast := minBlock - 1
		if err := setCursor(tx, lastBlockNumberKey, newLast); err != nil {
			return err
		}
		cursor, found, err := getCursor(tx, backgroundSubmitBlockCursorKey)
		if err != nil {
			return err
		}
		if found && cursor > newLast {
			if err := setCursor(tx, backgroundSubmitBlockCursorKey, newLast); err != nil {
				return err
			}
		}
	}
	s.logger.Infof("rolled back DA blocks [%d, %d]", minBlock, blocks[len(blocks)-1])
	return nil
}

func (s *Store) tryRepairBackgroundSubmitBlockCursor(ctx context.Context, minBlockToSubmit *uint64) error {
	cursor, found, err := s.GetBackgroundSubmitBlockCursor()
	if err != nil || !found {
		return err
	}
	var minBlock uint64
	if minBlockToSubmit != nil {
		minBlock = *minBlockToSubmit
	}
	if minBlock >= cursor {
		return nil
	}
	maxSubmitted, found, err := s.searchMaxSubmittedBlockNumber(minBlock, cursor)
	if err != nil {
		return err
	}
	switch {
	case !found:
		// the background submitter catches up from scratch
		return s.update(ctx, func(tx *db.Tx) error {
			return removeCursor(tx, backgroundSubmitBlockCursorKey)
		})
	case maxSubmitted != cursor:
		return s.SetBackgroundSubmitBlockCursor(ctx, maxSubmitted)
	default:
		return nil
	}
}

// searchMaxSubmittedBlockNumber returns the last block of the done prefix of [from, to]
func (s *Store) searchMaxSubmittedBlockNumber(from, to uint64) (uint64, bool, error) {
	var states []*BlockSubmitState
	if err := queryBlocks(s.db, &states, from, to); err != nil {
		return 0, false, err
	}
	var (
		maxSubmitted uint64
		found        bool
	)
	expected := from
	for _, state := range states {
		if state.BlockNumber != expected || !state.Done {
			break
		}
		maxSubmitted, found = state.BlockNumber, true
		expected++
	}
	return maxSubmitted, found, nil
}
