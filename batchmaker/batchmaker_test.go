package batchmaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/0xPolygon/cdk-sequencer/batchmaker/mocks"
	"github.com/0xPolygon/cdk-sequencer/config/types"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testInterval = uint64(3_600_000)

type closedRange struct {
	start, end uint64
	ok         bool
}

func appendTx(b *InProgressBatch, order, ts uint64) closedRange {
	start, end, ok := b.AppendTransaction(order, ts)
	return closedRange{start, end, ok}
}

func TestInProgressBatch(t *testing.T) {
	b := NewInProgressBatch(log.GetDefaultLogger(), testInterval)
	none := closedRange{}

	require.Equal(t, none, appendTx(b, 1, 1))
	require.Equal(t, none, appendTx(b, 2, 2))
	require.Equal(t, none, appendTx(b, 3, 3))
	require.Equal(t, none, appendTx(b, 4, 4))
	require.Equal(t, closedRange{1, 5, true}, appendTx(b, 5, 1+testInterval))

	// without a reset the batch keeps growing from its original start
	require.Equal(t, none, appendTx(b, 6, 6))
	require.Equal(t, none, appendTx(b, 7, 7))
	require.Equal(t, none, appendTx(b, 8, 8))
	require.Equal(t, closedRange{1, 9, true}, appendTx(b, 9, 6+testInterval))

	b.Reset()
	require.True(t, b.IsEmpty())

	require.Equal(t, none, appendTx(b, 6, 6))
	require.Equal(t, none, appendTx(b, 7, 7))
	require.Equal(t, none, appendTx(b, 8, 8))
	require.Equal(t, closedRange{6, 9, true}, appendTx(b, 9, 6+testInterval))
}

func TestInProgressBatchGap(t *testing.T) {
	b := NewInProgressBatch(log.GetDefaultLogger(), testInterval)
	for order := uint64(1); order <= 3; order++ {
		require.Equal(t, closedRange{}, appendTx(b, order, order))
	}
	// the gap is dropped even if it would close the batch
	require.Equal(t, closedRange{}, appendTx(b, 5, 1+testInterval))
	require.Equal(t, uint64(1), b.TxOrderStart)
	require.Equal(t, uint64(3), b.TxOrderEnd)

	require.Equal(t, closedRange{1, 4, true}, appendTx(b, 4, 1+testInterval))
}

func TestInProgressBatchTimestamps(t *testing.T) {
	b := NewInProgressBatch(log.GetDefaultLogger(), testInterval)
	require.Equal(t, closedRange{}, appendTx(b, 1, 0))
	require.Equal(t, uint64(1), b.StartTimestamp)

	// timestamps going backwards never close the batch
	b.Reset()
	require.Equal(t, closedRange{}, appendTx(b, 1, 5000))
	require.Equal(t, closedRange{}, appendTx(b, 2, 10))
	require.Equal(t, closedRange{1, 3, true}, appendTx(b, 3, 5000+testInterval))
}

func TestPendingTx(t *testing.T) {
	p := PendingTx{}
	_, ok := p.Push(1, 10)
	require.False(t, ok)
	old, ok := p.Push(2, 20)
	require.True(t, ok)
	require.Equal(t, PendingTx{TxOrder: 1, TxTimestamp: 10}, old)

	require.NoError(t, p.Revert(2))
	require.Equal(t, PendingTx{}, p)
	_, ok = p.Push(3, 30)
	require.False(t, ok)
}

func TestRevertRequiresExactMatch(t *testing.T) {
	m := New(log.GetDefaultLogger(), Config{}, mocks.NewBlockAppender(t))
	ctx := context.Background()
	for order := uint64(1); order <= 6; order++ {
		_, ok := m.AppendTransaction(ctx, order, order)
		require.False(t, ok)
	}

	err := m.RevertTransaction(5)
	require.ErrorIs(t, err, ErrRevertMismatch)
	var mismatch *RevertMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, uint64(6), mismatch.PendingTxOrder)
	require.Equal(t, PendingTx{TxOrder: 6, TxTimestamp: 6}, m.pending)

	require.NoError(t, m.RevertTransaction(6))
	require.Equal(t, PendingTx{}, m.pending)
}

func TestBatchMakerClosesBatches(t *testing.T) {
	ctx := context.Background()
	appender := mocks.NewBlockAppender(t)
	m := New(log.GetDefaultLogger(), Config{Interval: types.NewDuration(10 * time.Millisecond)}, appender)

	appender.EXPECT().AppendSubmittingBlock(mock.Anything, uint64(1), uint64(4)).Return(uint64(0), nil).Once()

	steps := []struct {
		order, ts uint64
		block     uint64
		closed    bool
	}{
		{1, 1, 0, false},
		{2, 2, 0, false},
		{3, 3, 0, false},
		{4, 20, 0, false},
		// order 4 is confirmed by order 5 and is 19ms after the batch start
		{5, 21, 0, true},
		{6, 22, 0, false},
		{7, 23, 0, false},
	}
	for _, step := range steps {
		block, closed := m.AppendTransaction(ctx, step.order, step.ts)
		require.Equal(t, step.closed, closed, "order %d", step.order)
		require.Equal(t, step.block, block)
	}
	require.Equal(t, uint64(5), m.inProgress.TxOrderStart)
	require.Equal(t, uint64(6), m.inProgress.TxOrderEnd)
}

func TestBatchMakerAppendFailureKeepsBatch(t *testing.T) {
	ctx := context.Background()
	appender := mocks.NewBlockAppender(t)
	m := New(log.GetDefaultLogger(), Config{Interval: types.NewDuration(10 * time.Millisecond)}, appender)

	appender.EXPECT().AppendSubmittingBlock(mock.Anything, uint64(1), uint64(2)).
		Return(uint64(0), errors.New("disk full")).Once()
	appender.EXPECT().AppendSubmittingBlock(mock.Anything, uint64(1), uint64(3)).Return(uint64(7), nil).Once()

	_, closed := m.AppendTransaction(ctx, 1, 1)
	require.False(t, closed)
	_, closed = m.AppendTransaction(ctx, 2, 50)
	require.False(t, closed)
	_, closed = m.AppendTransaction(ctx, 3, 60)
	require.False(t, closed)
	block, closed := m.AppendTransaction(ctx, 4, 70)
	require.True(t, closed)
	require.Equal(t, uint64(7), block)
	require.True(t, m.inProgress.IsEmpty())
}

func TestDefaultInterval(t *testing.T) {
	require.Equal(t, testInterval, Config{}.intervalMillis())
	require.Equal(t, uint64(1500), Config{Interval: types.NewDuration(1500 * time.Millisecond)}.intervalMillis())
}
