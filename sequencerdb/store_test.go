package sequencerdb

import (
	"context"
	"path"
	"testing"

	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(log.GetDefaultLogger(), path.Join(t.TempDir(), "sequencer.sqlite"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testTx(order uint64, seqNum uint64) ledger.Transaction {
	return ledger.Transaction{
		Data: ledger.L2TxData{
			Sender:         common.HexToAddress("0x1234"),
			SequenceNumber: seqNum,
			ChainID:        1,
			Payload:        []byte{byte(seqNum)},
		},
		SequenceInfo: ledger.SequenceInfo{
			TxOrder:          order,
			TxOrderSignature: []byte{1, 2, 3},
			TxAccumulatorInfo: acctypes.Info{
				RootHash:           common.HexToHash("0xaa"),
				FrozenSubtreeRoots: []common.Hash{common.HexToHash("0xbb"), common.HexToHash("0xcc")},
				NumLeaves:          order,
				NumNodes:           2 * order,
			},
			TxTimestamp: 1000 + order,
		},
	}
}

func TestSequencerInfo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetSequencerInfo()
	require.ErrorIs(t, err, ErrNotFound)

	info, err := s.InitSequencerInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, GenesisSequencerInfo(), info)
	require.Empty(t, info.LastAccumulatorInfo.FrozenSubtreeRoots)

	stored, err := s.GetSequencerInfo()
	require.NoError(t, err)
	require.True(t, stored.LastAccumulatorInfo.Equal(acctypes.EmptyInfo()))

	next := SequencerInfo{LastOrder: 1, LastAccumulatorInfo: testTx(1, 1).SequenceInfo.TxAccumulatorInfo}
	require.NoError(t, SaveSequencerInfo(s.DB(), next))
	stored, err = s.GetSequencerInfo()
	require.NoError(t, err)
	require.Equal(t, next, stored)

	// gaps and repeats are rejected
	require.ErrorIs(t, SaveSequencerInfo(s.DB(), SequencerInfo{LastOrder: 3}), ErrSequencerInfoNotContinuous)
	require.ErrorIs(t, SaveSequencerInfo(s.DB(), next), ErrSequencerInfoNotContinuous)

	// unless written by the admin path
	require.NoError(t, SaveSequencerInfoUnsafe(s.DB(), SequencerInfo{LastOrder: 0, LastAccumulatorInfo: acctypes.EmptyInfo()}))
	stored, err = s.GetSequencerInfo()
	require.NoError(t, err)
	require.Equal(t, uint64(0), stored.LastOrder)

	// init keeps what is stored
	require.NoError(t, SaveSequencerInfo(s.DB(), next))
	info, err = s.InitSequencerInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, next, info)
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tx1, tx2 := testTx(1, 1), testTx(2, 2)
	dbTx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, SaveSequencedTx(dbTx, tx1))
	require.NoError(t, SaveSequencedTx(dbTx, tx2))
	require.NoError(t, dbTx.Commit())

	h1, err := tx1.Hash()
	require.NoError(t, err)
	h2, err := tx2.Hash()
	require.NoError(t, err)

	got, err := s.GetTransactionByHash(h1)
	require.NoError(t, err)
	require.Equal(t, tx1, got)

	got, err = s.GetTransactionByOrder(2)
	require.NoError(t, err)
	require.Equal(t, tx2, got)

	got, err = s.GetLedgerTxByOrder(2)
	require.NoError(t, err)
	require.Equal(t, tx2, got)

	hash, err := s.GetTxHashByOrder(1)
	require.NoError(t, err)
	require.Equal(t, h1, hash)

	hashes, err := s.GetTxHashesByOrders([]uint64{1, 3, 2})
	require.NoError(t, err)
	require.Equal(t, h1, *hashes[0])
	require.Nil(t, hashes[1])
	require.Equal(t, h2, *hashes[2])

	has, err := s.HasTxHash(h2, 2)
	require.NoError(t, err)
	require.True(t, has)
	has, err = s.HasTxHash(h2, 1)
	require.NoError(t, err)
	require.False(t, has)

	_, err = s.GetTransactionByOrder(3)
	require.ErrorIs(t, err, ErrNotFound)

	// tx2 sequenced again at order 1 after a rollback replaces the stale rows
	moved := tx2
	moved.SequenceInfo.TxOrder = 1
	require.NoError(t, SaveSequencedTx(s.DB(), moved))
	got, err = s.GetTransactionByOrder(1)
	require.NoError(t, err)
	require.Equal(t, moved, got)
	_, err = s.GetTransactionByHash(h1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTransactionByOrder(2)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, RemoveSequencedTx(s.DB(), 1, h2))
	_, err = s.GetTxHashByOrder(1)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTransactionByHash(h2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStateStore(t *testing.T) {
	s := newTestStore(t)

	exec := ledger.ExecutionInfo{
		TxHash:    common.HexToHash("0x01"),
		TxOrder:   1,
		StateRoot: common.HexToHash("0x02"),
		Size:      10,
		GasUsed:   21000,
		Status:    1,
	}
	require.NoError(t, SaveExecutionInfo(s.DB(), exec))
	got, err := s.GetExecutionInfo(exec.TxHash)
	require.NoError(t, err)
	require.Equal(t, exec, got)
	require.NoError(t, RemoveExecutionInfo(s.DB(), exec.TxHash))
	_, err = s.GetExecutionInfo(exec.TxHash)
	require.ErrorIs(t, err, ErrNotFound)

	cs := ledger.StateChangeSet{TxOrder: 1, StateRoot: common.HexToHash("0x02"), Size: 10, Changes: []byte("changes")}
	require.NoError(t, SaveStateChangeSet(s.DB(), cs))
	gotCs, err := s.GetStateChangeSet(1)
	require.NoError(t, err)
	require.Equal(t, cs, gotCs)
	require.NoError(t, RemoveStateChangeSet(s.DB(), 1))
	_, err = s.GetStateChangeSet(1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetStartupInfo()
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, SaveStartupInfo(s.DB(), ledger.StartupInfo{StateRoot: common.HexToHash("0x03"), Size: 1}))
	require.NoError(t, SaveStartupInfo(s.DB(), ledger.StartupInfo{StateRoot: common.HexToHash("0x04"), Size: 2}))
	startup, err := s.GetStartupInfo()
	require.NoError(t, err)
	require.Equal(t, ledger.StartupInfo{StateRoot: common.HexToHash("0x04"), Size: 2}, startup)
}
