package dataavailability_test

import (
	"context"
	"errors"
	"path"
	"strings"
	"testing"

	cdkcommon "github.com/0xPolygon/cdk-sequencer/common"
	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/dataavailability/mocks"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newStore sequences n txs and splits them in DA blocks of the given sizes
func newStore(t *testing.T, n uint64, blockSizes ...uint64) *sequencerdb.Store {
	t.Helper()
	ctx := context.Background()
	store, err := sequencerdb.New(log.GetDefaultLogger(), path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	seq, err := sequencer.New(ctx, log.GetDefaultLogger(), sequencer.Config{}, store, key, nil)
	require.NoError(t, err)
	defer seq.Stop()

	for i := uint64(1); i <= n; i++ {
		_, err := seq.Sequence(ctx, ledger.L1BlockData{ChainID: 1, BlockHeight: i, BlockHash: common.BigToHash(common.Big1)})
		require.NoError(t, err)
	}
	start := uint64(1)
	for _, size := range blockSizes {
		_, err := store.AppendSubmittingBlock(ctx, start, start+size-1)
		require.NoError(t, err)
		start += size
	}
	return store
}

func TestNewBatch(t *testing.T) {
	store := newStore(t, 3)
	var txs []ledger.Transaction
	var hashes []common.Hash
	for order := uint64(1); order <= 3; order++ {
		tx, err := store.GetTransactionByOrder(order)
		require.NoError(t, err)
		hash, err := tx.Hash()
		require.NoError(t, err)
		txs = append(txs, tx)
		hashes = append(hashes, hash)
	}

	batch, err := dataavailability.NewBatch(0, 1, 3, txs)
	require.NoError(t, err)
	require.Equal(t, hashes, batch.TxHashes)
	require.Equal(t, cdkcommon.CalculateBatchHash(hashes), batch.BatchHash)
	data, err := batch.Encode()
	require.NoError(t, err)
	decoded, err := dataavailability.DecodeBatch(data)
	require.NoError(t, err)
	require.Equal(t, batch, decoded)

	_, err = dataavailability.NewBatch(0, 1, 4, txs)
	require.Error(t, err)
	_, err = dataavailability.NewBatch(0, 2, 4, txs)
	require.Error(t, err)
}

func TestSubmitPending(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 10, 3, 4, 3)
	backend := mocks.NewDABackender(t)
	backend.EXPECT().Init().Return(nil)
	var submitted []uint64
	backend.EXPECT().SubmitBatch(mock.Anything, mock.Anything).
		Run(func(_ context.Context, batch dataavailability.Batch) {
			submitted = append(submitted, batch.BlockNumber)
		}).Return(nil)
	reg := prometheus.NewRegistry()
	da, err := dataavailability.New(log.GetDefaultLogger(), dataavailability.Config{}, store, backend, reg)
	require.NoError(t, err)

	n, err := da.SubmitPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []uint64{0, 1, 2}, submitted)

	cursor, found, err := store.GetBackgroundSubmitBlockCursor()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(2), cursor)
	state, err := store.GetBlockState(1)
	require.NoError(t, err)
	require.True(t, state.Done)
	require.NotEqual(t, common.Hash{}, state.BatchHash)

	n, err = da.SubmitPending(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	expected := `
# HELP cdk_da_submitted_blocks_total Number of DA blocks submitted
# TYPE cdk_da_submitted_blocks_total counter
cdk_da_submitted_blocks_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cdk_da_submitted_blocks_total"))
}

func TestSubmitPendingStopsAtFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 6, 2, 2, 2)
	backend := mocks.NewDABackender(t)
	backend.EXPECT().Init().Return(nil)
	failure := errors.New("DA unavailable")
	backend.EXPECT().SubmitBatch(mock.Anything, mock.MatchedBy(func(b dataavailability.Batch) bool {
		return b.BlockNumber == 0
	})).Return(nil).Once()
	backend.EXPECT().SubmitBatch(mock.Anything, mock.MatchedBy(func(b dataavailability.Batch) bool {
		return b.BlockNumber == 1
	})).Return(failure).Once()
	da, err := dataavailability.New(log.GetDefaultLogger(), dataavailability.Config{}, store, backend, nil)
	require.NoError(t, err)

	n, err := da.SubmitPending(ctx)
	require.ErrorIs(t, err, failure)
	require.Equal(t, 1, n)
	cursor, found, err := store.GetBackgroundSubmitBlockCursor()
	require.NoError(t, err)
	require.True(t, found)
	require.Zero(t, cursor)
	state, err := store.GetBlockState(1)
	require.NoError(t, err)
	require.False(t, state.Done)

	// the next round resumes at the failed block
	backend.EXPECT().SubmitBatch(mock.Anything, mock.Anything).Return(nil).Times(2)
	n, err = da.SubmitPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestSubmitPendingSkipsDoneBlocks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 3, 1, 1, 1)
	// block 0 and 1 submitted by a round interrupted before moving the cursor
	require.NoError(t, store.SetSubmittingBlockDone(ctx, 0, 1, 1, common.HexToHash("0x01")))
	require.NoError(t, store.SetSubmittingBlockDone(ctx, 1, 2, 2, common.HexToHash("0x02")))
	backend := mocks.NewDABackender(t)
	backend.EXPECT().Init().Return(nil)
	backend.EXPECT().SubmitBatch(mock.Anything, mock.MatchedBy(func(b dataavailability.Batch) bool {
		return b.BlockNumber == 2 && b.TxOrderStart == 3
	})).Return(nil).Once()
	da, err := dataavailability.New(log.GetDefaultLogger(), dataavailability.Config{}, store, backend, nil)
	require.NoError(t, err)

	n, err := da.SubmitPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	cursor, _, err := store.GetBackgroundSubmitBlockCursor()
	require.NoError(t, err)
	require.Equal(t, uint64(2), cursor)
}

func TestInitFailure(t *testing.T) {
	backend := mocks.NewDABackender(t)
	backend.EXPECT().Init().Return(errors.New("boom"))
	_, err := dataavailability.New(log.GetDefaultLogger(), dataavailability.Config{}, newStore(t, 0), backend, nil)
	require.Error(t, err)
}
