package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// TxDataKind tags the variants of TxData
type TxDataKind uint8

const (
	L1BlockKind TxDataKind = iota
	L1TxKind
	L2TxKind
)

var ErrUnknownTxDataKind = errors.New("unknown ledger tx data kind")

func (k TxDataKind) String() string {
	switch k {
	case L1BlockKind:
		return "l1_block"
	case L1TxKind:
		return "l1_tx"
	case L2TxKind:
		return "l2_tx"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// TxData is the payload of a ledger transaction. The set of implementations is closed:
// L1BlockData, L1TxData and L2TxData.
type TxData interface {
	Kind() TxDataKind
	isTxData()
}

// L1BlockData records an L1 block relayed into L2
type L1BlockData struct {
	ChainID     uint64
	BlockHeight uint64
	BlockHash   common.Hash
}

// L1TxData records an L1 transaction relayed into L2
type L1TxData struct {
	ChainID   uint64
	BlockHash common.Hash
	TxHash    common.Hash
}

// L2TxData is a transaction submitted directly to the L2
type L2TxData struct {
	Sender         common.Address
	SequenceNumber uint64
	ChainID        uint64
	Payload        []byte
}

func (L1BlockData) Kind() TxDataKind { return L1BlockKind }
func (L1TxData) Kind() TxDataKind    { return L1TxKind }
func (L2TxData) Kind() TxDataKind    { return L2TxKind }

func (L1BlockData) isTxData() {}
func (L1TxData) isTxData()    {}
func (L2TxData) isTxData()    {}

// IsL1 reports if the payload comes from the L1
func IsL1(d TxData) bool {
	switch d.(type) {
	case L1BlockData, L1TxData:
		return true
	case L2TxData:
		return false
	default:
		return false
	}
}

// EncodeTxData returns the kind byte followed by the RLP encoding of the payload
func EncodeTxData(d TxData) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch v := d.(type) {
	case L1BlockData:
		payload, err = rlp.EncodeToBytes(&v)
	case L1TxData:
		payload, err = rlp.EncodeToBytes(&v)
	case L2TxData:
		payload, err = rlp.EncodeToBytes(&v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTxDataKind, d)
	}
	if err != nil {
		return nil, fmt.Errorf("error encoding %s: %w", d.Kind(), err)
	}
	return append([]byte{byte(d.Kind())}, payload...), nil
}

// DecodeTxData is the inverse of EncodeTxData
func DecodeTxData(data []byte) (TxData, error) {
	if len(data) == 0 {
		return nil, errors.New("empty ledger tx data")
	}
	kind, payload := TxDataKind(data[0]), data[1:]
	switch kind {
	case L1BlockKind:
		var v L1BlockData
		if err := rlp.DecodeBytes(payload, &v); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", kind, err)
		}
		return v, nil
	case L1TxKind:
		var v L1TxData
		if err := rlp.DecodeBytes(payload, &v); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", kind, err)
		}
		return v, nil
	case L2TxKind:
		var v L2TxData
		if err := rlp.DecodeBytes(payload, &v); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", kind, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTxDataKind, uint8(kind))
	}
}

// TxHash is keccak256 of the encoded payload
func TxHash(d TxData) (common.Hash, error) {
	encoded, err := EncodeTxData(d)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}
