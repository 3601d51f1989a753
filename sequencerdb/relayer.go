package sequencerdb

import (
	"context"

	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

// RelayedL1Block is the last L1 block of a chain relayed into the ledger
type RelayedL1Block struct {
	ChainID   uint64      `meddler:"chain_id"`
	BlockNum  uint64      `meddler:"block_num"`
	BlockHash common.Hash `meddler:"block_hash,hash"`
}

// GetLastRelayedL1Block returns ErrNotFound when nothing has been relayed for chainID
func (s *Store) GetLastRelayedL1Block(chainID uint64) (RelayedL1Block, error) {
	block := RelayedL1Block{}
	err := meddler.QueryRow(s.db, &block,
		`SELECT chain_id, block_num, block_hash FROM relayed_l1_block WHERE chain_id = $1;`, chainID)
	if err != nil {
		return RelayedL1Block{}, db.ReturnErrNotFound(err)
	}
	return block, nil
}

func (s *Store) SetLastRelayedL1Block(ctx context.Context, block RelayedL1Block) error {
	return s.update(ctx, func(tx *db.Tx) error {
		_, err := tx.Exec(`INSERT OR REPLACE INTO relayed_l1_block (chain_id, block_num, block_hash)
			VALUES ($1, $2, $3);`, block.ChainID, block.BlockNum, block.BlockHash.Hex())
		return err
	})
}
