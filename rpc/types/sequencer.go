package types

import (
	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transaction is a sequenced tx. Data is the encoded tx data (kind byte followed by its RLP).
type Transaction struct {
	TxHash           common.Hash   `json:"tx_hash"`
	Kind             string        `json:"kind"`
	Data             hexutil.Bytes `json:"data"`
	TxOrder          uint64        `json:"tx_order"`
	TxOrderSignature hexutil.Bytes `json:"tx_order_signature"`
	AccumulatorInfo  acctypes.Info `json:"tx_accumulator_info"`
	TxTimestamp      uint64        `json:"tx_timestamp"`
}

func NewTransaction(tx ledger.Transaction) (Transaction, error) {
	hash, err := tx.Hash()
	if err != nil {
		return Transaction{}, err
	}
	data, err := ledger.EncodeTxData(tx.Data)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		TxHash:           hash,
		Kind:             tx.Data.Kind().String(),
		Data:             data,
		TxOrder:          tx.SequenceInfo.TxOrder,
		TxOrderSignature: tx.SequenceInfo.TxOrderSignature,
		AccumulatorInfo:  tx.SequenceInfo.TxAccumulatorInfo,
		TxTimestamp:      tx.SequenceInfo.TxTimestamp,
	}, nil
}

// ExecutedTx is the answer to sequencer_sequenceTx
type ExecutedTx struct {
	Transaction   Transaction          `json:"transaction"`
	ExecutionInfo ledger.ExecutionInfo `json:"execution_info"`
}

// AccumulatorProof proves that Leaf is the leaf TxOrder-1 of the accumulator with root Root
type AccumulatorProof struct {
	TxOrder  uint64        `json:"tx_order"`
	Leaf     common.Hash   `json:"leaf"`
	Siblings []common.Hash `json:"siblings"`
	Root     common.Hash   `json:"root"`
}

func (p AccumulatorProof) Verify() error {
	return acctypes.Proof{Siblings: p.Siblings}.Verify(p.Root, p.Leaf, p.TxOrder-1)
}

// Status of the sequencer service
type Status struct {
	ServiceStatus    string         `json:"service_status"`
	SequencerAddress common.Address `json:"sequencer_address"`
	LastOrder        uint64         `json:"last_order"`
}
