package rpc

import (
	"errors"
	"fmt"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/pipeline"
	"github.com/0xPolygon/cdk-sequencer/sequencer"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
)

const (
	InvalidParamsErrorCode      = -32602
	ServiceUnavailableErrorCode = -32050
	DuplicateTxErrorCode        = -32051
	NotFoundErrorCode           = -32052
	ExecutionFailedErrorCode    = -32053
)

func errorCode(err error) int {
	switch {
	case errors.Is(err, sequencer.ErrServiceUnavailable), errors.Is(err, sequencer.ErrStopped):
		return ServiceUnavailableErrorCode
	case errors.Is(err, sequencer.ErrDuplicateTx):
		return DuplicateTxErrorCode
	case errors.Is(err, pipeline.ErrInvalidTx), errors.Is(err, ledger.ErrUnknownTxDataKind):
		return InvalidParamsErrorCode
	case errors.Is(err, sequencer.ErrOrderNotFound), errors.Is(err, sequencerdb.ErrNotFound):
		return NotFoundErrorCode
	case errors.Is(err, pipeline.ErrExecutionFailed):
		return ExecutionFailedErrorCode
	default:
		return rpc.DefaultErrorCode
	}
}

func newRPCError(msg string, err error) rpc.Error {
	return rpc.NewRPCError(errorCode(err), fmt.Sprintf("%s, error: %s", msg, err))
}
