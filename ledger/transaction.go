package ledger

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	cdkcommon "github.com/0xPolygon/cdk-sequencer/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidOrderSignature = errors.New("invalid tx order signature")

// SequenceInfo is what the sequencer attaches to a transaction when ordering it
type SequenceInfo struct {
	TxOrder           uint64        `json:"tx_order"`
	TxOrderSignature  []byte        `json:"tx_order_signature"`
	TxAccumulatorInfo acctypes.Info `json:"tx_accumulator_info"`
	// TxTimestamp in milliseconds
	TxTimestamp uint64 `json:"tx_timestamp"`
}

// Transaction is a sequenced ledger entry
type Transaction struct {
	Data         TxData
	SequenceInfo SequenceInfo
}

func (t Transaction) Hash() (common.Hash, error) {
	return TxHash(t.Data)
}

// ExecutionInfo is the result of executing a ledger transaction
type ExecutionInfo struct {
	TxHash    common.Hash `meddler:"tx_hash,hash" json:"tx_hash"`
	TxOrder   uint64      `meddler:"tx_order" json:"tx_order"`
	StateRoot common.Hash `meddler:"state_root,hash" json:"state_root"`
	Size      uint64      `meddler:"size" json:"size"`
	GasUsed   uint64      `meddler:"gas_used" json:"gas_used"`
	Status    uint8       `meddler:"status" json:"status"`
}

// StateChangeSet is the side effect record of an execution, keyed by tx order
type StateChangeSet struct {
	TxOrder   uint64      `meddler:"tx_order"`
	StateRoot common.Hash `meddler:"state_root,hash"`
	Size      uint64      `meddler:"size"`
	Changes   []byte      `meddler:"changes"`
}

// StartupInfo is the state checkpoint the executor resumes from
type StartupInfo struct {
	StateRoot common.Hash `meddler:"state_root,hash" json:"state_root"`
	Size      uint64      `meddler:"size" json:"size"`
}

// OrderSigningHash is the digest signed by the sequencer: keccak256(be64(order) || txHash)
func OrderSigningHash(txOrder uint64, txHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(cdkcommon.Uint64ToBytes(txOrder), txHash.Bytes())
}

// SignOrder attests that txHash was assigned txOrder
func SignOrder(key *ecdsa.PrivateKey, txOrder uint64, txHash common.Hash) ([]byte, error) {
	hash := OrderSigningHash(txOrder, txHash)
	return crypto.Sign(hash.Bytes(), key)
}

// VerifyOrderSignature checks that signature was produced by signer for (txOrder, txHash)
func VerifyOrderSignature(signer common.Address, txOrder uint64, txHash common.Hash, signature []byte) error {
	hash := OrderSigningHash(txOrder, txHash)
	pub, err := crypto.SigToPub(hash.Bytes(), signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrderSignature, err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != signer {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrInvalidOrderSignature, recovered.Hex(), signer.Hex())
	}
	return nil
}
