package relayer_test

import (
	"context"
	"fmt"
	"math/big"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/0xPolygon/cdk-sequencer/config/types"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/relayer"
	"github.com/0xPolygon/cdk-sequencer/relayer/mocks"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const chainID = 11155111

func newChain(n int) []*ethtypes.Header {
	headers := make([]*ethtypes.Header, n)
	parent := common.Hash{}
	for i := range headers {
		headers[i] = &ethtypes.Header{Number: big.NewInt(int64(i)), ParentHash: parent, Time: uint64(i)}
		parent = headers[i].Hash()
	}
	return headers
}

func newClient(t *testing.T, headers []*ethtypes.Header) *mocks.EthClienter {
	t.Helper()
	client := mocks.NewEthClienter(t)
	client.EXPECT().HeaderByNumber(mock.Anything, mock.Anything).RunAndReturn(
		func(_ context.Context, number *big.Int) (*ethtypes.Header, error) {
			if number.Sign() < 0 {
				return headers[len(headers)-1], nil
			}
			return headers[number.Uint64()], nil
		}).Maybe()
	return client
}

func newStore(t *testing.T) *sequencerdb.Store {
	t.Helper()
	store, err := sequencerdb.New(log.GetDefaultLogger(), path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig(startBlock uint64) relayer.Config {
	return relayer.Config{
		ChainID:                    chainID,
		BlockFinality:              relayer.FinalizedBlock,
		StartBlock:                 startBlock,
		SyncBlockChunkSize:         2,
		WaitForNewBlocksPeriod:     types.NewDuration(time.Millisecond),
		RetryAfterErrorPeriod:      types.NewDuration(time.Millisecond),
		MaxRetryAttemptsAfterError: -1,
	}
}

type recorder struct {
	mu      sync.Mutex
	heights []uint64
}

func (r *recorder) record(txData ledger.TxData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heights = append(r.heights, txData.(ledger.L1BlockData).BlockHeight)
}

func (r *recorder) get() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64{}, r.heights...)
}

// runUntil starts the relayer and stops it once the given block is stored as relayed
func runUntil(t *testing.T, r *relayer.Relayer, store *sequencerdb.Store, blockNum uint64) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(ctx) }()

	require.Eventually(t, func() bool {
		b, err := store.GetLastRelayedL1Block(chainID)
		return err == nil && b.BlockNum == blockNum
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestRelayBlocks(t *testing.T) {
	headers := newChain(6)
	store := newStore(t)
	rec := &recorder{}
	executor := mocks.NewL1Executor(t)
	executor.EXPECT().Execute(mock.Anything, mock.Anything).RunAndReturn(
		func(_ context.Context, txData ledger.TxData) (pipeline.Result, error) {
			rec.record(txData)
			return pipeline.Result{}, nil
		})

	r, err := relayer.New(log.GetDefaultLogger(), testConfig(1), newClient(t, headers), executor, store)
	require.NoError(t, err)
	runUntil(t, r, store, 5)

	require.Equal(t, []uint64{1, 2, 3, 4, 5}, rec.get())
	last, err := store.GetLastRelayedL1Block(chainID)
	require.NoError(t, err)
	require.Equal(t, headers[5].Hash(), last.BlockHash)
}

func TestRelayResumesAndSkipsDuplicates(t *testing.T) {
	headers := newChain(5)
	store := newStore(t)
	require.NoError(t, store.SetLastRelayedL1Block(context.Background(), sequencerdb.RelayedL1Block{
		ChainID: chainID, BlockNum: 2, BlockHash: headers[2].Hash(),
	}))

	rec := &recorder{}
	executor := mocks.NewL1Executor(t)
	executor.EXPECT().Execute(mock.Anything, mock.Anything).RunAndReturn(
		func(_ context.Context, txData ledger.TxData) (pipeline.Result, error) {
			rec.record(txData)
			if txData.(ledger.L1BlockData).BlockHeight == 3 {
				return pipeline.Result{}, fmt.Errorf("%w: relayed before a crash", sequencer.ErrDuplicateTx)
			}
			return pipeline.Result{}, nil
		})

	r, err := relayer.New(log.GetDefaultLogger(), testConfig(0), newClient(t, headers), executor, store)
	require.NoError(t, err)
	runUntil(t, r, store, 4)

	require.Equal(t, []uint64{3, 4}, rec.get())
}

func TestRelayServiceUnavailableWaits(t *testing.T) {
	headers := newChain(3)
	store := newStore(t)
	rec := &recorder{}
	calls := 0
	executor := mocks.NewL1Executor(t)
	executor.EXPECT().Execute(mock.Anything, mock.Anything).RunAndReturn(
		func(_ context.Context, txData ledger.TxData) (pipeline.Result, error) {
			calls++
			if calls <= 3 {
				return pipeline.Result{}, fmt.Errorf("%w: status ReadOnly", sequencer.ErrServiceUnavailable)
			}
			rec.record(txData)
			return pipeline.Result{}, nil
		})

	r, err := relayer.New(log.GetDefaultLogger(), testConfig(1), newClient(t, headers), executor, store)
	require.NoError(t, err)
	runUntil(t, r, store, 2)

	require.Equal(t, []uint64{1, 2}, rec.get())
}

func TestRelayDetectsReorg(t *testing.T) {
	headers := newChain(5)
	store := newStore(t)
	require.NoError(t, store.SetLastRelayedL1Block(context.Background(), sequencerdb.RelayedL1Block{
		ChainID: chainID, BlockNum: 2, BlockHash: common.HexToHash("0xdead"),
	}))
	executor := mocks.NewL1Executor(t)

	r, err := relayer.New(log.GetDefaultLogger(), testConfig(0), newClient(t, headers), executor, store)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.ErrorIs(t, r.Start(ctx), relayer.ErrL1Reorg)
}

func TestBlockFinality(t *testing.T) {
	tcs := []struct {
		finality relayer.BlockFinality
		expected int64
		err      bool
	}{
		{finality: relayer.LatestBlock, expected: int64(rpc.LatestBlockNumber)},
		{finality: relayer.SafeBlock, expected: int64(rpc.SafeBlockNumber)},
		{finality: relayer.FinalizedBlock, expected: int64(rpc.FinalizedBlockNumber)},
		{finality: "", expected: int64(rpc.FinalizedBlockNumber)},
		{finality: "PendingBlock", err: true},
	}
	for _, tc := range tcs {
		t.Run(string(tc.finality), func(t *testing.T) {
			n, err := tc.finality.ToBlockNum()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, n.Int64())
		})
	}

	_, err := relayer.New(log.GetDefaultLogger(), relayer.Config{BlockFinality: "PendingBlock"}, nil, nil, nil)
	require.Error(t, err)
}
