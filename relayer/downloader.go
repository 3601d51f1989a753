package relayer

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const DefaultWaitPeriodBlockNotFound = time.Millisecond * 100

// EthClienter is the part of the L1 client used by the relayer
type EthClienter interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type BlockHeader struct {
	Num        uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  uint64
}

type downloader struct {
	ethClient              EthClienter
	blockFinality          *big.Int
	waitForNewBlocksPeriod time.Duration
	rh                     *RetryHandler
	log                    *log.Logger
}

// WaitForBlock polls the L1 head until it reaches blockNum and returns the head. On cancellation
// it returns 0.
func (d *downloader) WaitForBlock(ctx context.Context, blockNum uint64) uint64 {
	attempts := 0
	ticker := time.NewTicker(d.waitForNewBlocksPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("context cancelled")
			return 0
		case <-ticker.C:
			header, err := d.ethClient.HeaderByNumber(ctx, d.blockFinality)
			if err == nil && header == nil {
				err = ethereum.NotFound
			}
			if err != nil {
				if ctx.Err() == nil {
					attempts++
					d.log.Error("error getting last block num from eth client: ", err)
					d.rh.Handle("waitForBlock", attempts)
				} else {
					d.log.Warn("context has been canceled while trying to get header by number")
				}
				continue
			}
			attempts = 0
			if header.Number.Uint64() >= blockNum {
				return header.Number.Uint64()
			}
		}
	}
}

// GetBlockHeader returns true when ctx got cancelled
func (d *downloader) GetBlockHeader(ctx context.Context, blockNum uint64) (BlockHeader, bool) {
	attempts := 0
	for {
		header, err := d.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNum))
		if err == nil && header == nil {
			err = ethereum.NotFound
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return BlockHeader{}, true
			}
			if errors.Is(err, ethereum.NotFound) {
				// block num can temporary disappear from the execution client due to a reorg,
				// in this case, we want to wait and not panic
				d.log.Warnf("block %d not found on the ethereum client: %v", blockNum, err)
				if d.rh.RetryAfterErrorPeriod != 0 {
					time.Sleep(d.rh.RetryAfterErrorPeriod)
				} else {
					time.Sleep(DefaultWaitPeriodBlockNotFound)
				}
				continue
			}

			attempts++
			d.log.Errorf("error getting block header for block %d, err: %v", blockNum, err)
			d.rh.Handle("getBlockHeader", attempts)
			continue
		}
		return BlockHeader{
			Num:        header.Number.Uint64(),
			Hash:       header.Hash(),
			ParentHash: header.ParentHash,
			Timestamp:  header.Time,
		}, false
	}
}
