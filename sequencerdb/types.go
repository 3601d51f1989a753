package sequencerdb

import (
	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/ethereum/go-ethereum/common"
)

// SequencerInfo is how far ordering has progressed. LastOrder always equals the number of
// accumulator leaves at a consistent checkpoint.
type SequencerInfo struct {
	LastOrder           uint64        `json:"last_order"`
	LastAccumulatorInfo acctypes.Info `json:"last_accumulator_info"`
}

// GenesisSequencerInfo is the info of an empty ledger
func GenesisSequencerInfo() SequencerInfo {
	return SequencerInfo{LastOrder: 0, LastAccumulatorInfo: acctypes.EmptyInfo()}
}

type sequencerInfoRow struct {
	LastOrder   uint64        `meddler:"last_order"`
	RootHash    common.Hash   `meddler:"root_hash,hash"`
	FrozenRoots []common.Hash `meddler:"frozen_roots,hashlist"`
	NumLeaves   uint64        `meddler:"num_leaves"`
	NumNodes    uint64        `meddler:"num_nodes"`
}

func (r sequencerInfoRow) toSequencerInfo() SequencerInfo {
	return SequencerInfo{
		LastOrder: r.LastOrder,
		LastAccumulatorInfo: acctypes.Info{
			RootHash:           r.RootHash,
			FrozenSubtreeRoots: r.FrozenRoots,
			NumLeaves:          r.NumLeaves,
			NumNodes:           r.NumNodes,
		},
	}
}

// BlockRange is a DA block: a contiguous range of tx orders submitted together
type BlockRange struct {
	BlockNumber  uint64 `meddler:"block_number" json:"block_number"`
	TxOrderStart uint64 `meddler:"tx_order_start" json:"tx_order_start"`
	TxOrderEnd   uint64 `meddler:"tx_order_end" json:"tx_order_end"`
}

// IsLegal checks the range in isolation: it can't start at genesis, must not be empty and must
// not go beyond lastOrder
func (b BlockRange) IsLegal(lastOrder uint64) bool {
	return b.TxOrderStart >= 1 && b.TxOrderStart <= b.TxOrderEnd && b.TxOrderEnd <= lastOrder
}

// BlockSubmitState is a DA block and whether it has been submitted
type BlockSubmitState struct {
	BlockNumber  uint64      `meddler:"block_number" json:"block_number"`
	TxOrderStart uint64      `meddler:"tx_order_start" json:"tx_order_start"`
	TxOrderEnd   uint64      `meddler:"tx_order_end" json:"tx_order_end"`
	Done         bool        `meddler:"done" json:"done"`
	BatchHash    common.Hash `meddler:"batch_hash,hash" json:"batch_hash"`
}

func (s BlockSubmitState) Range() BlockRange {
	return BlockRange{BlockNumber: s.BlockNumber, TxOrderStart: s.TxOrderStart, TxOrderEnd: s.TxOrderEnd}
}
