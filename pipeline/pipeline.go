package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/0xPolygon/cdk-sequencer/batchmaker"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
)

var (
	ErrInvalidTx       = errors.New("invalid tx")
	ErrExecutionFailed = errors.New("tx execution failed")
)

type Config struct {
	// RevertOnExecutionFailure reverts a sequenced tx whose execution failed, instead of leaving
	// it for the offline tools
	RevertOnExecutionFailure bool `mapstructure:"RevertOnExecutionFailure"`
}

// Result of running a tx through the pipeline
type Result struct {
	Tx            ledger.Transaction
	ExecutionInfo ledger.ExecutionInfo
	// BlockNumber is set when sequencing the tx closed a DA batch
	BlockNumber *uint64
}

// Pipeline validates, sequences and executes txs one at a time. A nil batch maker doesn't make
// DA batches.
type Pipeline struct {
	logger     *log.Logger
	cfg        Config
	sequencer  *sequencer.Sequencer
	executor   Executor
	store      *sequencerdb.Store
	batchMaker *batchmaker.BatchMaker

	mu sync.Mutex
}

func New(logger *log.Logger, cfg Config, seq *sequencer.Sequencer, executor Executor,
	store *sequencerdb.Store, batchMaker *batchmaker.BatchMaker) *Pipeline {
	return &Pipeline{
		logger:     logger,
		cfg:        cfg,
		sequencer:  seq,
		executor:   executor,
		store:      store,
		batchMaker: batchMaker,
	}
}

// Execute runs validate, sequence and execute, then stores the execution results and the new
// startup checkpoint
func (p *Pipeline) Execute(ctx context.Context, txData ledger.TxData) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	outcome, err := p.executor.Validate(ctx, txData)
	if err != nil {
		return Result{}, err
	}
	if !outcome.Valid {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidTx, outcome.Reason)
	}

	tx, err := p.sequencer.Sequence(ctx, txData)
	if err != nil {
		return Result{}, err
	}
	order := tx.SequenceInfo.TxOrder
	res := Result{Tx: tx}
	if p.batchMaker != nil {
		if blockNumber, closed := p.batchMaker.AppendTransaction(ctx, order, tx.SequenceInfo.TxTimestamp); closed {
			res.BlockNumber = &blockNumber
		}
	}

	info, changes, err := p.executor.Execute(ctx, tx)
	if err != nil {
		p.logger.Errorf("error executing tx order %d: %v", order, err)
		if p.cfg.RevertOnExecutionFailure {
			p.revert(ctx, order)
		}
		return Result{}, fmt.Errorf("%w: order %d: %w", ErrExecutionFailed, order, err)
	}
	if err := p.saveExecution(ctx, info, changes); err != nil {
		return Result{}, err
	}
	res.ExecutionInfo = info
	return res, nil
}

func (p *Pipeline) revert(ctx context.Context, order uint64) {
	if p.batchMaker != nil {
		if err := p.batchMaker.RevertTransaction(order); err != nil {
			p.logger.Errorf("error reverting tx order %d from the batch maker: %v", order, err)
			return
		}
	}
	if err := p.sequencer.Revert(ctx, order); err != nil {
		p.logger.Errorf("error reverting tx order %d: %v", order, err)
		return
	}
	p.logger.Warnf("tx order %d reverted after failed execution", order)
}

func (p *Pipeline) saveExecution(ctx context.Context, info ledger.ExecutionInfo,
	changes ledger.StateChangeSet) error {
	return db.Update(ctx, p.logger, p.store.DB(), func(tx *db.Tx) error {
		if err := sequencerdb.SaveExecutionInfo(tx, info); err != nil {
			return err
		}
		if err := sequencerdb.SaveStateChangeSet(tx, changes); err != nil {
			return err
		}
		return sequencerdb.SaveStartupInfo(tx, ledger.StartupInfo{StateRoot: info.StateRoot, Size: info.Size})
	})
}
