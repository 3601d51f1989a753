package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/rpc/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SEQUENCER is the namespace of the sequencer service
	SEQUENCER = "sequencer"
	meterName = "github.com/0xPolygon/cdk-sequencer/rpc"

	// maxTxHashesPerCall bounds sequencer_getTxHashes
	maxTxHashesPerCall = 1000
)

// SequencerEndpoints contains implementations for the "sequencer" RPC endpoints
type SequencerEndpoints struct {
	logger       *log.Logger
	meter        metric.Meter
	readTimeout  time.Duration
	writeTimeout time.Duration
	executor     TxExecutor
	sequencer    SequencerReader
}

// NewSequencerEndpoints returns SequencerEndpoints
func NewSequencerEndpoints(
	logger *log.Logger,
	writeTimeout time.Duration,
	readTimeout time.Duration,
	executor TxExecutor,
	sequencer SequencerReader,
) *SequencerEndpoints {
	meter := otel.Meter(meterName)
	return &SequencerEndpoints{
		logger:       logger,
		meter:        meter,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		executor:     executor,
		sequencer:    sequencer,
	}
}

func (s *SequencerEndpoints) count(ctx context.Context, name string) {
	c, merr := s.meter.Int64Counter(name)
	if merr != nil {
		s.logger.Warnf("failed to create %s counter: %s", name, merr)
		return
	}
	c.Add(ctx, 1)
}

// SequenceTx orders and executes a tx. data is the encoded tx data.
func (s *SequencerEndpoints) SequenceTx(data hexutil.Bytes) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	s.count(ctx, "sequence_tx")

	txData, err := ledger.DecodeTxData(data)
	if err != nil {
		return nil, rpc.NewRPCError(InvalidParamsErrorCode, fmt.Sprintf("invalid tx data, error: %s", err))
	}
	res, err := s.executor.Execute(ctx, txData)
	if err != nil {
		return nil, newRPCError("failed to sequence tx", err)
	}
	tx, err := types.NewTransaction(res.Tx)
	if err != nil {
		return nil, newRPCError("failed to encode tx", err)
	}
	return types.ExecutedTx{Transaction: tx, ExecutionInfo: res.ExecutionInfo}, nil
}

func (s *SequencerEndpoints) GetSequencerInfo() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	s.count(ctx, "get_sequencer_info")

	return s.sequencer.GetSequencerInfo(), nil
}

func (s *SequencerEndpoints) GetTransactionByOrder(txOrder uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	s.count(ctx, "get_transaction_by_order")

	tx, err := s.sequencer.GetTransactionByOrder(txOrder)
	if err != nil {
		return nil, newRPCError(fmt.Sprintf("failed to get tx order %d", txOrder), err)
	}
	res, err := types.NewTransaction(tx)
	if err != nil {
		return nil, newRPCError("failed to encode tx", err)
	}
	return res, nil
}

// GetTxHashes returns one entry per order, null for the orders without tx
func (s *SequencerEndpoints) GetTxHashes(txOrders []uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	s.count(ctx, "get_tx_hashes")

	if len(txOrders) > maxTxHashesPerCall {
		return nil, rpc.NewRPCError(InvalidParamsErrorCode,
			fmt.Sprintf("too many tx orders: %d, max %d", len(txOrders), maxTxHashesPerCall))
	}
	hashes, err := s.sequencer.GetTxHashes(txOrders)
	if err != nil {
		return nil, newRPCError("failed to get tx hashes", err)
	}
	if hashes == nil {
		hashes = []*common.Hash{}
	}
	return hashes, nil
}

func (s *SequencerEndpoints) GetAccumulatorProof(txOrder uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	s.count(ctx, "get_accumulator_proof")

	leaf, proof, root, err := s.sequencer.GetAccumulatorProof(txOrder)
	if err != nil {
		return nil, newRPCError(fmt.Sprintf("failed to get the proof of tx order %d", txOrder), err)
	}
	return types.AccumulatorProof{TxOrder: txOrder, Leaf: leaf, Siblings: proof.Siblings, Root: root}, nil
}

func (s *SequencerEndpoints) Status() (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	s.count(ctx, "status")

	return types.Status{
		ServiceStatus:    string(s.sequencer.Status()),
		SequencerAddress: s.sequencer.SequencerAddress(),
		LastOrder:        s.sequencer.GetSequencerInfo().LastOrder,
	}, nil
}
