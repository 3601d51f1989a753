package dataavailability

import (
	"fmt"

	cdkcommon "github.com/0xPolygon/cdk-sequencer/common"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Batch is the content of a DA block
type Batch struct {
	BlockNumber  uint64
	TxOrderStart uint64
	TxOrderEnd   uint64
	// TxList holds the encoded tx data, in order
	TxList    [][]byte
	TxHashes  []common.Hash
	BatchHash common.Hash
}

// NewBatch builds the batch of txs [txOrderStart, txOrderEnd]. txs must be in order.
func NewBatch(blockNumber, txOrderStart, txOrderEnd uint64, txs []ledger.Transaction) (Batch, error) {
	if uint64(len(txs)) != txOrderEnd-txOrderStart+1 {
		return Batch{}, fmt.Errorf("block %d: expected %d txs, got %d",
			blockNumber, txOrderEnd-txOrderStart+1, len(txs))
	}
	b := Batch{
		BlockNumber:  blockNumber,
		TxOrderStart: txOrderStart,
		TxOrderEnd:   txOrderEnd,
		TxList:       make([][]byte, len(txs)),
		TxHashes:     make([]common.Hash, len(txs)),
	}
	for i, tx := range txs {
		if expected := txOrderStart + uint64(i); tx.SequenceInfo.TxOrder != expected {
			return Batch{}, fmt.Errorf("block %d: expected tx order %d, got %d",
				blockNumber, expected, tx.SequenceInfo.TxOrder)
		}
		data, err := ledger.EncodeTxData(tx.Data)
		if err != nil {
			return Batch{}, err
		}
		hash, err := tx.Hash()
		if err != nil {
			return Batch{}, err
		}
		b.TxList[i] = data
		b.TxHashes[i] = hash
	}
	b.BatchHash = cdkcommon.CalculateBatchHash(b.TxHashes)
	return b, nil
}

func (b Batch) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&b)
}

func DecodeBatch(data []byte) (Batch, error) {
	var b Batch
	if err := rlp.DecodeBytes(data, &b); err != nil {
		return Batch{}, err
	}
	return b, nil
}
