package sequencerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

const (
	// SubmittingBlocksPageSize is the default number of blocks returned by GetSubmittingBlocks
	SubmittingBlocksPageSize = 64
	// MaxTxsPerBlockInFix bounds the blocks created when repair catches up with the last order
	MaxTxsPerBlockInFix = 8192

	// blocks up to this cursor have been verified by the background submitter
	backgroundSubmitBlockCursorKey = "background_submit_block_cursor"
	// updated atomically with da_block
	lastBlockNumberKey = "last_block_number"
)

var ErrInvalidBlockRange = errors.New("invalid submitting block range")

func getCursor(q db.Querier, name string) (uint64, bool, error) {
	var value uint64
	err := q.QueryRow(`SELECT value FROM da_cursor WHERE name = $1;`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error reading cursor %s: %w", name, err)
	}
	return value, true, nil
}

func setCursor(q db.Querier, name string, value uint64) error {
	if _, err := q.Exec(`INSERT OR REPLACE INTO da_cursor (name, value) VALUES ($1, $2);`, name, value); err != nil {
		return fmt.Errorf("error writing cursor %s: %w", name, err)
	}
	return nil
}

func removeCursor(q db.Querier, name string) error {
	if _, err := q.Exec(`DELETE FROM da_cursor WHERE name = $1;`, name); err != nil {
		return fmt.Errorf("error removing cursor %s: %w", name, err)
	}
	return nil
}

func getBlockState(q db.Querier, blockNumber uint64) (BlockSubmitState, error) {
	state := BlockSubmitState{}
	err := meddler.QueryRow(q, &state, `
		SELECT block_number, tx_order_start, tx_order_end, done, batch_hash
		FROM da_block WHERE block_number = $1;`, blockNumber)
	if err != nil {
		return BlockSubmitState{}, fmt.Errorf("block submit state %d: %w", blockNumber, db.ReturnErrNotFound(err))
	}
	return state, nil
}

func insertBlock(q db.Querier, r BlockRange) error {
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO da_block (block_number, tx_order_start, tx_order_end, done, batch_hash)
		VALUES ($1, $2, $3, FALSE, '');`,
		r.BlockNumber, r.TxOrderStart, r.TxOrderEnd,
	); err != nil {
		return fmt.Errorf("error inserting block %d: %w", r.BlockNumber, err)
	}
	return nil
}

// GetLastBlockNumber returns false if no block has been created yet
func (s *Store) GetLastBlockNumber() (uint64, bool, error) {
	return getCursor(s.db, lastBlockNumberKey)
}

func (s *Store) GetBackgroundSubmitBlockCursor() (uint64, bool, error) {
	return getCursor(s.db, backgroundSubmitBlockCursorKey)
}

func (s *Store) SetBackgroundSubmitBlockCursor(ctx context.Context, cursor uint64) error {
	return s.update(ctx, func(tx *db.Tx) error {
		return setCursor(tx, backgroundSubmitBlockCursorKey, cursor)
	})
}

// GetBlockState fails with ErrNotFound if the block does not exist
func (s *Store) GetBlockState(blockNumber uint64) (BlockSubmitState, error) {
	return getBlockState(s.db, blockNumber)
}

// AppendSubmittingBlock records [start, end] as the next block to submit and returns its
// number. Blocks start at 0 and each one must begin right after the previous one.
func (s *Store) AppendSubmittingBlock(ctx context.Context, txOrderStart, txOrderEnd uint64) (uint64, error) {
	var blockNumber uint64
	err := s.update(ctx, func(tx *db.Tx) error {
		last, found, err := getCursor(tx, lastBlockNumberKey)
		if err != nil {
			return err
		}
		if err := checkAppend(tx, last, found, txOrderStart, txOrderEnd); err != nil {
			return err
		}
		if found {
			blockNumber = last + 1
		}
		if err := insertBlock(tx, BlockRange{
			BlockNumber:  blockNumber,
			TxOrderStart: txOrderStart,
			TxOrderEnd:   txOrderEnd,
		}); err != nil {
			return err
		}
		return setCursor(tx, lastBlockNumberKey, blockNumber)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debugf("appended submitting block %d: [%d, %d]", blockNumber, txOrderStart, txOrderEnd)
	return blockNumber, nil
}

func checkAppend(q db.Querier, lastBlock uint64, found bool, txOrderStart, txOrderEnd uint64) error {
	if txOrderEnd < txOrderStart {
		return fmt.Errorf("%w: tx_order_end must be >= tx_order_start, got %d < %d",
			ErrInvalidBlockRange, txOrderEnd, txOrderStart)
	}
	if !found {
		return nil
	}
	state, err := getBlockState(q, lastBlock)
	if err != nil {
		return err
	}
	if state.TxOrderEnd+1 != txOrderStart {
		return fmt.Errorf("%w: tx_order_start must be last block's tx_order_end + 1, last tx_order_end %d, tx_order_start %d",
			ErrInvalidBlockRange, state.TxOrderEnd, txOrderStart)
	}
	return nil
}

// GetSubmittingBlocks returns the not yet submitted blocks among [startBlock, startBlock+limit),
// stopping at the first missing block. limit <= 0 means SubmittingBlocksPageSize.
func (s *Store) GetSubmittingBlocks(startBlock uint64, limit int) ([]BlockRange, error) {
	if limit <= 0 {
		limit = SubmittingBlocksPageSize
	}
	var states []*BlockSubmitState
	if err := queryBlocks(s.db, &states, startBlock, startBlock+uint64(limit)-1); err != nil {
		return nil, err
	}
	blocks := make([]BlockRange, 0, len(states))
	expected := startBlock
	for _, state := range states {
		if state.BlockNumber != expected {
			break
		}
		expected++
		if !state.Done {
			blocks = append(blocks, state.Range())
		}
	}
	return blocks, nil
}

// SetSubmittingBlockDone marks the block as submitted with the hash of its batch
func (s *Store) SetSubmittingBlockDone(ctx context.Context, blockNumber, txOrderStart, txOrderEnd uint64,
	batchHash common.Hash) error {
	return s.update(ctx, func(tx *db.Tx) error {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO da_block (block_number, tx_order_start, tx_order_end, done, batch_hash)
			VALUES ($1, $2, $3, TRUE, $4);`,
			blockNumber, txOrderStart, txOrderEnd, batchHash.Hex(),
		); err != nil {
			return fmt.Errorf("error setting block %d done: %w", blockNumber, err)
		}
		return nil
	})
}

// queryBlocks loads the blocks in [from, to] ordered by number
func queryBlocks(q db.Querier, states *[]*BlockSubmitState, from, to uint64) error {
	return meddler.QueryAll(q, states, `
		SELECT block_number, tx_order_start, tx_order_end, done, batch_hash
		FROM da_block WHERE block_number >= $1 AND block_number <= $2
		ORDER BY block_number ASC;`, from, to)
}
