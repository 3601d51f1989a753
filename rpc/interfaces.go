package rpc

import (
	"context"

	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
)

type TxExecutor interface {
	Execute(ctx context.Context, txData ledger.TxData) (pipeline.Result, error)
}

type SequencerReader interface {
	GetSequencerInfo() sequencerdb.SequencerInfo
	GetTransactionByOrder(txOrder uint64) (ledger.Transaction, error)
	GetTxHashes(txOrders []uint64) ([]*common.Hash, error)
	GetAccumulatorProof(txOrder uint64) (common.Hash, acctypes.Proof, common.Hash, error)
	Status() sequencer.ServiceStatus
	SequencerAddress() common.Address
}

var (
	_ TxExecutor      = (*pipeline.Pipeline)(nil)
	_ SequencerReader = (*sequencer.Sequencer)(nil)
)
