// Package relayer imports the blocks of an L1 chain into the ledger, one L1Block tx per block,
// in block order.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultSyncBlockChunkSize     = 100
	defaultWaitForNewBlocksPeriod = 3 * time.Second
	defaultRetryAfterErrorPeriod  = time.Second
)

var ErrL1Reorg = errors.New("relayed L1 chain has been reorganized")

// L1Executor runs the relayed blocks through the pipeline
type L1Executor interface {
	Execute(ctx context.Context, txData ledger.TxData) (pipeline.Result, error)
}

// RelayStore keeps the last relayed block of every chain
type RelayStore interface {
	GetLastRelayedL1Block(chainID uint64) (sequencerdb.RelayedL1Block, error)
	SetLastRelayedL1Block(ctx context.Context, block sequencerdb.RelayedL1Block) error
}

var (
	_ L1Executor = (*pipeline.Pipeline)(nil)
	_ RelayStore = (*sequencerdb.Store)(nil)
)

type Relayer struct {
	logger     *log.Logger
	cfg        Config
	downloader *downloader
	executor   L1Executor
	store      RelayStore
	rh         *RetryHandler
}

func New(logger *log.Logger, cfg Config, client EthClienter, executor L1Executor,
	store RelayStore) (*Relayer, error) {
	finality, err := cfg.BlockFinality.ToBlockNum()
	if err != nil {
		return nil, err
	}
	if cfg.SyncBlockChunkSize == 0 {
		cfg.SyncBlockChunkSize = defaultSyncBlockChunkSize
	}
	if cfg.WaitForNewBlocksPeriod.Duration <= 0 {
		cfg.WaitForNewBlocksPeriod.Duration = defaultWaitForNewBlocksPeriod
	}
	if cfg.RetryAfterErrorPeriod.Duration <= 0 {
		cfg.RetryAfterErrorPeriod.Duration = defaultRetryAfterErrorPeriod
	}
	rh := &RetryHandler{
		RetryAfterErrorPeriod:      cfg.RetryAfterErrorPeriod.Duration,
		MaxRetryAttemptsAfterError: cfg.MaxRetryAttemptsAfterError,
	}
	return &Relayer{
		logger: logger,
		cfg:    cfg,
		downloader: &downloader{
			ethClient:              client,
			blockFinality:          finality,
			waitForNewBlocksPeriod: cfg.WaitForNewBlocksPeriod.Duration,
			rh:                     rh,
			log:                    logger,
		},
		executor: executor,
		store:    store,
		rh:       rh,
	}, nil
}

// Start relays blocks until ctx is done. It returns ErrL1Reorg if a block doesn't extend the last
// relayed one, since relayed blocks can't be removed from the ledger.
func (r *Relayer) Start(ctx context.Context) error {
	next, parent, err := r.resume()
	if err != nil {
		return err
	}
	r.logger.Infof("relaying chain %d from block %d", r.cfg.ChainID, next)
	for {
		head := r.downloader.WaitForBlock(ctx, next)
		if ctx.Err() != nil {
			return nil
		}
		to := next + r.cfg.SyncBlockChunkSize - 1
		if to > head {
			to = head
		}
		for ; next <= to; next++ {
			header, canceled := r.downloader.GetBlockHeader(ctx, next)
			if canceled {
				return nil
			}
			if parent != nil && header.ParentHash != *parent {
				return fmt.Errorf("%w: block %d has parent %s, last relayed %s",
					ErrL1Reorg, header.Num, header.ParentHash.Hex(), parent.Hex())
			}
			if canceled := r.relayWithRetry(ctx, header); canceled {
				return nil
			}
			hash := header.Hash
			parent = &hash
		}
	}
}

func (r *Relayer) resume() (uint64, *common.Hash, error) {
	last, err := r.store.GetLastRelayedL1Block(r.cfg.ChainID)
	if errors.Is(err, sequencerdb.ErrNotFound) {
		return r.cfg.StartBlock, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("error loading last relayed block: %w", err)
	}
	return last.BlockNum + 1, &last.BlockHash, nil
}

// relayWithRetry returns true when ctx got cancelled
func (r *Relayer) relayWithRetry(ctx context.Context, header BlockHeader) bool {
	attempts := 0
	for {
		err := r.relay(ctx, header)
		switch {
		case err == nil:
			return false
		case ctx.Err() != nil:
			return true
		case errors.Is(err, sequencer.ErrServiceUnavailable):
			r.logger.Debugf("sequencer unavailable, block %d waits: %v", header.Num, err)
			select {
			case <-ctx.Done():
				return true
			case <-time.After(r.rh.RetryAfterErrorPeriod):
			}
		default:
			attempts++
			r.logger.Errorf("error relaying block %d: %v", header.Num, err)
			r.rh.Handle("relayBlock", attempts)
		}
	}
}

func (r *Relayer) relay(ctx context.Context, header BlockHeader) error {
	data := ledger.L1BlockData{
		ChainID:     r.cfg.ChainID,
		BlockHeight: header.Num,
		BlockHash:   header.Hash,
	}
	res, err := r.executor.Execute(ctx, data)
	switch {
	case errors.Is(err, sequencer.ErrDuplicateTx):
		r.logger.Infof("block %d (%s) already relayed", header.Num, header.Hash.Hex())
	case err != nil:
		return err
	default:
		r.logger.Debugf("block %d (%s) relayed at tx order %d",
			header.Num, header.Hash.Hex(), res.Tx.SequenceInfo.TxOrder)
	}
	return r.store.SetLastRelayedL1Block(ctx, sequencerdb.RelayedL1Block{
		ChainID:   r.cfg.ChainID,
		BlockNum:  header.Num,
		BlockHash: header.Hash,
	})
}
