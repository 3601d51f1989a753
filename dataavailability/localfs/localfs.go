package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/0xPolygon/cdk-sequencer/dataavailability"
	"github.com/0xPolygon/cdk-sequencer/log"
)

const (
	dirPerm  = 0o755
	filePerm = 0o600
)

// Backend writes every batch, RLP encoded, to <dir>/<block number>
type Backend struct {
	logger *log.Logger
	dir    string
}

var _ dataavailability.DABackender = (*Backend)(nil)

func New(logger *log.Logger, dir string) *Backend {
	return &Backend{logger: logger, dir: dir}
}

func (b *Backend) Init() error {
	if b.dir == "" {
		return errors.New("localfs DA backend: empty directory")
	}
	return os.MkdirAll(b.dir, dirPerm)
}

// SubmitBatch writes through a temp file so a batch file is either complete or missing
func (b *Backend) SubmitBatch(_ context.Context, batch dataavailability.Batch) error {
	data, err := batch.Encode()
	if err != nil {
		return err
	}
	path := b.path(batch.BlockNumber)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	b.logger.Debugf("batch of block %d written to %s", batch.BlockNumber, path)
	return nil
}

// ReadBatch reads back the batch of a block
func (b *Backend) ReadBatch(blockNumber uint64) (dataavailability.Batch, error) {
	data, err := os.ReadFile(b.path(blockNumber))
	if err != nil {
		return dataavailability.Batch{}, err
	}
	return dataavailability.DecodeBatch(data)
}

func (b *Backend) path(blockNumber uint64) string {
	return filepath.Join(filepath.Clean(b.dir), strconv.FormatUint(blockNumber, 10))
}
