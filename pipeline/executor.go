package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ValidationOutcome is the verdict of the execution engine on a tx before it is sequenced
type ValidationOutcome struct {
	Valid  bool
	Reason string
}

// Executor is the execution engine the pipeline drives
type Executor interface {
	// Validate is a fast check run before the tx gets an order
	Validate(ctx context.Context, txData ledger.TxData) (ValidationOutcome, error)
	// Execute applies a sequenced tx
	Execute(ctx context.Context, tx ledger.Transaction) (ledger.ExecutionInfo, ledger.StateChangeSet, error)
}

var ErrOutOfOrderExecution = errors.New("tx executed out of order")

var _ Executor = (*HashChainExecutor)(nil)

// HashChainExecutor is a deterministic engine for development nodes and tests: the state root
// is keccak256(previous root || tx hash) and the size counts the executed txs
type HashChainExecutor struct {
	mu          sync.Mutex
	stateRoot   common.Hash
	size        uint64
	lastTxOrder uint64
}

// NewHashChainExecutor resumes from the given checkpoint, lastTxOrder being the last executed tx
func NewHashChainExecutor(startup ledger.StartupInfo, lastTxOrder uint64) *HashChainExecutor {
	return &HashChainExecutor{
		stateRoot:   startup.StateRoot,
		size:        startup.Size,
		lastTxOrder: lastTxOrder,
	}
}

func (e *HashChainExecutor) Validate(_ context.Context, txData ledger.TxData) (ValidationOutcome, error) {
	switch d := txData.(type) {
	case ledger.L2TxData:
		if len(d.Payload) == 0 {
			return ValidationOutcome{Valid: false, Reason: "empty payload"}, nil
		}
	case ledger.L1BlockData, ledger.L1TxData:
	default:
		return ValidationOutcome{}, fmt.Errorf("%w: %T", ledger.ErrUnknownTxDataKind, txData)
	}
	return ValidationOutcome{Valid: true}, nil
}

func (e *HashChainExecutor) Execute(_ context.Context, tx ledger.Transaction) (ledger.ExecutionInfo,
	ledger.StateChangeSet, error) {
	txHash, err := tx.Hash()
	if err != nil {
		return ledger.ExecutionInfo{}, ledger.StateChangeSet{}, err
	}
	order := tx.SequenceInfo.TxOrder

	e.mu.Lock()
	defer e.mu.Unlock()
	if order != e.lastTxOrder+1 {
		return ledger.ExecutionInfo{}, ledger.StateChangeSet{}, fmt.Errorf("%w: expected %d, got %d",
			ErrOutOfOrderExecution, e.lastTxOrder+1, order)
	}
	e.stateRoot = crypto.Keccak256Hash(e.stateRoot.Bytes(), txHash.Bytes())
	e.size++
	e.lastTxOrder = order

	info := ledger.ExecutionInfo{
		TxHash:    txHash,
		TxOrder:   order,
		StateRoot: e.stateRoot,
		Size:      e.size,
		Status:    1,
	}
	changes := ledger.StateChangeSet{
		TxOrder:   order,
		StateRoot: e.stateRoot,
		Size:      e.size,
		Changes:   txHash.Bytes(),
	}
	return info, changes, nil
}

// StartupInfo is the current checkpoint of the executor
func (e *HashChainExecutor) StartupInfo() ledger.StartupInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ledger.StartupInfo{StateRoot: e.stateRoot, Size: e.size}
}
