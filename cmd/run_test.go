package main

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/0xPolygon/cdk-sequencer/batchmaker"
	"github.com/0xPolygon/cdk-sequencer/config/types"
	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	store, err := sequencerdb.New(log.GetDefaultLogger(), path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	defer store.Close()

	executor, err := newExecutor(store, 0)
	require.NoError(t, err)
	require.Equal(t, ledger.StartupInfo{}, executor.StartupInfo())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	seq, err := sequencer.New(ctx, log.GetDefaultLogger(), sequencer.Config{}, store, key, nil)
	require.NoError(t, err)
	defer seq.Stop()
	tx, err := seq.Sequence(ctx, ledger.L2TxData{Sender: common.HexToAddress("0x01"), ChainID: 1, Payload: []byte{1}})
	require.NoError(t, err)

	// sequenced but never executed
	_, err = newExecutor(store, tx.SequenceInfo.TxOrder)
	require.ErrorIs(t, err, errNotExecuted)
}

func TestNewDataAvailability(t *testing.T) {
	store, err := sequencerdb.New(log.GetDefaultLogger(), path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	defer store.Close()

	da, err := newDataAvailability(dataavailability.Config{Backend: dataavailability.None}, store, nil)
	require.NoError(t, err)
	require.Nil(t, da)

	da, err = newDataAvailability(dataavailability.Config{
		Backend:    dataavailability.LocalFS,
		LocalFSDir: path.Join(t.TempDir(), "da"),
	}, store, nil)
	require.NoError(t, err)
	require.NotNil(t, da)

	_, err = newDataAvailability(dataavailability.Config{Backend: "s3"}, store, nil)
	require.Error(t, err)
}

func TestRepairDAMetaOnRestart(t *testing.T) {
	ctx := context.Background()
	logger := log.GetDefaultLogger()
	store, err := sequencerdb.New(logger, path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	defer store.Close()
	bmCfg := batchmaker.Config{Interval: types.NewDuration(10 * time.Millisecond)}

	bm := batchmaker.New(logger, bmCfg, store)
	for _, tx := range []struct{ order, ts uint64 }{{1, 10}, {2, 10}, {3, 20}, {4, 20}} {
		bm.AppendTransaction(ctx, tx.order, tx.ts)
	}
	block, err := store.GetBlockState(0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), block.TxOrderEnd)

	// order 4 was still pending when the node stopped
	require.NoError(t, repairDAMeta(ctx, store, 4, dataavailability.Config{}))
	last, found, err := store.GetLastBlockNumber()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(1), last)
	block, err = store.GetBlockState(1)
	require.NoError(t, err)
	require.Equal(t, uint64(4), block.TxOrderStart)
	require.Equal(t, uint64(4), block.TxOrderEnd)

	bm = batchmaker.New(logger, bmCfg, store)
	var closedBlock uint64
	var closed bool
	for _, tx := range []struct{ order, ts uint64 }{{5, 30}, {6, 30}, {7, 40}, {8, 40}} {
		closedBlock, closed = bm.AppendTransaction(ctx, tx.order, tx.ts)
	}
	require.True(t, closed)
	require.Equal(t, uint64(2), closedBlock)
	block, err = store.GetBlockState(2)
	require.NoError(t, err)
	require.Equal(t, uint64(5), block.TxOrderStart)
	require.Equal(t, uint64(7), block.TxOrderEnd)

	// nothing left to fix once the tail matches last_order
	require.NoError(t, repairDAMeta(ctx, store, 7, dataavailability.Config{}))
	last, _, err = store.GetLastBlockNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)
}

func TestRepairDAMetaSyncMode(t *testing.T) {
	ctx := context.Background()
	store, err := sequencerdb.New(log.GetDefaultLogger(), path.Join(t.TempDir(), "seq.sqlite"), 0)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, repairDAMeta(ctx, store, 10, dataavailability.Config{SyncMode: true}))
	_, found, err := store.GetLastBlockNumber()
	require.NoError(t, err)
	require.False(t, found)
}
