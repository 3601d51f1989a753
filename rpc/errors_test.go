package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("wrapped: %w", sequencer.ErrServiceUnavailable), ServiceUnavailableErrorCode},
		{sequencer.ErrStopped, ServiceUnavailableErrorCode},
		{sequencer.ErrDuplicateTx, DuplicateTxErrorCode},
		{fmt.Errorf("%w: empty payload", pipeline.ErrInvalidTx), InvalidParamsErrorCode},
		{ledger.ErrUnknownTxDataKind, InvalidParamsErrorCode},
		{sequencer.ErrOrderNotFound, NotFoundErrorCode},
		{sequencerdb.ErrNotFound, NotFoundErrorCode},
		{pipeline.ErrExecutionFailed, ExecutionFailedErrorCode},
		{errors.New("disk full"), rpc.DefaultErrorCode},
	}
	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			require.Equal(t, tc.code, errorCode(tc.err))
		})
	}
}
