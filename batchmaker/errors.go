package batchmaker

import (
	"errors"
	"fmt"
)

var ErrRevertMismatch = errors.New("failed to revert pending transaction")

type RevertMismatchError struct {
	PendingTxOrder uint64
	RevertTxOrder  uint64
}

func (e *RevertMismatchError) Error() string {
	return fmt.Sprintf("%s: transaction order is not continuous, pending_tx_order: %d, revert_tx_order: %d",
		ErrRevertMismatch, e.PendingTxOrder, e.RevertTxOrder)
}

func (e *RevertMismatchError) Unwrap() error {
	return ErrRevertMismatch
}
