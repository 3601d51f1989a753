package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	cdkcommon "github.com/0xPolygon/cdk-sequencer/common"
	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestSubmitBatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "da")
	b := New(log.GetDefaultLogger(), dir)
	require.NoError(t, b.Init())

	hashes := []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")}
	batch := dataavailability.Batch{
		BlockNumber:  7,
		TxOrderStart: 10,
		TxOrderEnd:   11,
		TxList:       [][]byte{{0x01}, {0x02}},
		TxHashes:     hashes,
		BatchHash:    cdkcommon.CalculateBatchHash(hashes),
	}
	require.NoError(t, b.SubmitBatch(context.Background(), batch))
	// resubmitting overwrites the same file
	require.NoError(t, b.SubmitBatch(context.Background(), batch))

	_, err := os.Stat(filepath.Join(dir, "7"))
	require.NoError(t, err)
	read, err := b.ReadBatch(7)
	require.NoError(t, err)
	require.Equal(t, batch, read)

	_, err = b.ReadBatch(8)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInitEmptyDir(t *testing.T) {
	require.Error(t, New(log.GetDefaultLogger(), "").Init())
}
