package dataavailability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DataAvailability submits the DA blocks in the background, in block order, and moves the
// background submit cursor over the submitted ones
type DataAvailability struct {
	logger  *log.Logger
	cfg     Config
	source  BlockSource
	backend DABackender

	submitted prometheus.Counter
	failed    prometheus.Counter
}

// New creates a DataAvailability instance
func New(logger *log.Logger, cfg Config, source BlockSource, backend DABackender,
	reg prometheus.Registerer) (*DataAvailability, error) {
	factory := promauto.With(reg)
	da := &DataAvailability{
		logger:  logger,
		cfg:     cfg,
		source:  source,
		backend: backend,
		submitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cdk",
			Subsystem: "da",
			Name:      "submitted_blocks_total",
			Help:      "Number of DA blocks submitted",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cdk",
			Subsystem: "da",
			Name:      "failed_submissions_total",
			Help:      "Number of failed DA block submissions",
		}),
	}

	return da, da.backend.Init()
}

// Start runs the submitter until ctx is done
func (d *DataAvailability) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.submitInterval())
	defer ticker.Stop()

	for {
		if _, err := d.SubmitPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Errorf("error submitting DA blocks: %v", err)
		}
		select {
		case <-ctx.Done():
			d.logger.Info("context cancelled, stopping DA submitter")
			return
		case <-ticker.C:
		}
	}
}

// SubmitPending submits one page of pending blocks starting after the background cursor and
// returns how many were submitted. It stops at the first failure.
func (d *DataAvailability) SubmitPending(ctx context.Context) (int, error) {
	next, err := d.nextBlock(ctx)
	if err != nil {
		return 0, err
	}
	blocks, err := d.source.GetSubmittingBlocks(next, d.cfg.PageSize)
	if err != nil {
		return 0, err
	}
	submitted := 0
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return submitted, err
		}
		if err := d.submitBlock(ctx, block); err != nil {
			d.failed.Inc()
			return submitted, fmt.Errorf("block %d: %w", block.BlockNumber, err)
		}
		d.submitted.Inc()
		submitted++
		if err := d.source.SetBackgroundSubmitBlockCursor(ctx, block.BlockNumber); err != nil {
			return submitted, err
		}
	}
	if submitted > 0 {
		d.logger.Infof("submitted %d DA blocks, up to block %d", submitted, blocks[submitted-1].BlockNumber)
	}
	return submitted, nil
}

// nextBlock is the first block after the cursor that is not done. Done blocks found on the
// way, left by an earlier interrupted round, move the cursor.
func (d *DataAvailability) nextBlock(ctx context.Context) (uint64, error) {
	cursor, found, err := d.source.GetBackgroundSubmitBlockCursor()
	if err != nil {
		return 0, err
	}
	var next uint64
	if found {
		next = cursor + 1
	}
	moved := false
	for {
		state, err := d.source.GetBlockState(next)
		if errors.Is(err, sequencerdb.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		if !state.Done {
			break
		}
		next++
		moved = true
	}
	if moved {
		if err := d.source.SetBackgroundSubmitBlockCursor(ctx, next-1); err != nil {
			return 0, err
		}
	}
	return next, nil
}

func (d *DataAvailability) submitBlock(ctx context.Context, block sequencerdb.BlockRange) error {
	txs := make([]ledger.Transaction, 0, block.TxOrderEnd-block.TxOrderStart+1)
	for order := block.TxOrderStart; order <= block.TxOrderEnd; order++ {
		tx, err := d.source.GetTransactionByOrder(order)
		if err != nil {
			return fmt.Errorf("tx order %d: %w", order, err)
		}
		txs = append(txs, tx)
	}
	batch, err := NewBatch(block.BlockNumber, block.TxOrderStart, block.TxOrderEnd, txs)
	if err != nil {
		return err
	}
	if err := d.backend.SubmitBatch(ctx, batch); err != nil {
		return err
	}
	d.logger.Debugf("submitted block %d [%d, %d], batch hash %s",
		block.BlockNumber, block.TxOrderStart, block.TxOrderEnd, batch.BatchHash.Hex())
	return d.source.SetSubmittingBlockDone(ctx, block.BlockNumber, block.TxOrderStart, block.TxOrderEnd,
		batch.BatchHash)
}
