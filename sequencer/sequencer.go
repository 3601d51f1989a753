package sequencer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xPolygon/cdk-sequencer/accumulator"
	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/0xPolygon/cdk-sequencer/log"
	"github.com/0xPolygon/cdk-sequencer/sequencerdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultMailboxSize     = 1024
	errWhileRollbackFormat = "error while rolling back tx: %w"
)

var (
	ErrServiceUnavailable = errors.New("sequencer service unavailable")
	ErrDuplicateTx        = errors.New("tx already sequenced")
	ErrStopped            = errors.New("sequencer stopped")
	ErrInconsistentState  = errors.New("sequencer info is inconsistent with the accumulator")
	ErrOrderNotFound      = errors.New("tx order not sequenced")
	ErrRevertNotLast      = errors.New("only the last sequenced tx can be reverted")
	ErrNilTxData          = errors.New("nil tx data")
)

type requestKind uint8

const (
	sequenceRequest requestKind = iota
	revertRequest
)

type request struct {
	kind    requestKind
	data    ledger.TxData
	txOrder uint64
	reply   chan result
}

type result struct {
	tx  ledger.Transaction
	err error
}

// Sequencer assigns tx orders. Every Sequence call goes through a single goroutine reading a
// FIFO mailbox, so orders are assigned one at a time in arrival order.
type Sequencer struct {
	logger  *log.Logger
	store   *sequencerdb.Store
	key     *ecdsa.PrivateKey
	address common.Address
	metrics *metrics
	now     func() time.Time

	mu     sync.RWMutex
	acc    *accumulator.Accumulator
	info   sequencerdb.SequencerInfo
	status ServiceStatus

	mailbox  chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New restores the sequencer from the stored SequencerInfo (genesis if the DB is empty) and
// starts serving requests
func New(ctx context.Context, logger *log.Logger, cfg Config, store *sequencerdb.Store,
	key *ecdsa.PrivateKey, reg prometheus.Registerer) (*Sequencer, error) {
	if key == nil {
		return nil, errors.New("sequencer key is required")
	}
	status := cfg.ServiceStatus
	if status == "" {
		status = Active
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid service status %q", status)
	}
	mailboxSize := cfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = defaultMailboxSize
	}

	info, err := store.InitSequencerInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading sequencer info: %w", err)
	}
	if info.LastOrder != info.LastAccumulatorInfo.NumLeaves {
		return nil, fmt.Errorf("%w: last order %d, accumulator leaves %d",
			ErrInconsistentState, info.LastOrder, info.LastAccumulatorInfo.NumLeaves)
	}
	acc, err := accumulator.NewWithInfo(info.LastAccumulatorInfo, store.NodeStore())
	if err != nil {
		return nil, fmt.Errorf("error restoring accumulator: %w", err)
	}

	s := &Sequencer{
		logger:  logger,
		store:   store,
		acc:     acc,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		metrics: newMetrics(reg),
		now:     time.Now,
		info:    info,
		status:  status,
		mailbox: make(chan request, mailboxSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.metrics.lastOrder.Set(float64(info.LastOrder))
	go s.loop()
	logger.Infof("sequencer %s started at order %d, root %s, status %s",
		s.address.Hex(), info.LastOrder, info.LastAccumulatorInfo.RootHash.Hex(), status)
	return s, nil
}

// Stop serves the requests already queued and stops the sequencer
func (s *Sequencer) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
}

func (s *Sequencer) loop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.mailbox:
			req.reply <- s.handle(req)
		case <-s.quit:
			for {
				select {
				case req := <-s.mailbox:
					req.reply <- s.handle(req)
				default:
					s.logger.Info("sequencer stopped")
					return
				}
			}
		}
	}
}

// Sequence orders txData. It fails fast with ErrServiceUnavailable when the status doesn't
// accept it. Once enqueued the request runs to completion even if ctx is done before the reply.
func (s *Sequencer) Sequence(ctx context.Context, txData ledger.TxData) (ledger.Transaction, error) {
	if txData == nil {
		return ledger.Transaction{}, ErrNilTxData
	}
	if status := s.Status(); !accepts(status, txData) {
		s.metrics.rejected.WithLabelValues(rejectUnavailable).Inc()
		s.logger.Warnf("rejecting %s tx: service status is %s", txData.Kind(), status)
		return ledger.Transaction{}, fmt.Errorf("%w: status %s", ErrServiceUnavailable, status)
	}

	return s.send(ctx, request{kind: sequenceRequest, data: txData})
}

// Revert undoes the last sequenced tx, which must be txOrder. Used when its execution failed.
func (s *Sequencer) Revert(ctx context.Context, txOrder uint64) error {
	_, err := s.send(ctx, request{kind: revertRequest, txOrder: txOrder})
	return err
}

func (s *Sequencer) send(ctx context.Context, req request) (ledger.Transaction, error) {
	req.reply = make(chan result, 1)
	select {
	case s.mailbox <- req:
	case <-s.quit:
		return ledger.Transaction{}, ErrStopped
	case <-ctx.Done():
		return ledger.Transaction{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.tx, res.err
	case <-s.done:
		// the loop may have drained the request before exiting
		select {
		case res := <-req.reply:
			return res.tx, res.err
		default:
			return ledger.Transaction{}, ErrStopped
		}
	case <-ctx.Done():
		return ledger.Transaction{}, ctx.Err()
	}
}

func accepts(status ServiceStatus, txData ledger.TxData) bool {
	switch status {
	case Active:
		return true
	case DateImport:
		return ledger.IsL1(txData)
	case ReadOnly, Maintenance:
		return false
	default:
		return false
	}
}

// handle runs on the loop goroutine only
func (s *Sequencer) handle(req request) result {
	switch req.kind {
	case revertRequest:
		return result{err: s.revert(req.txOrder)}
	case sequenceRequest:
	default:
		return result{err: fmt.Errorf("unknown request kind %d", req.kind)}
	}
	start := time.Now()
	tx, err := s.sequence(req.data)
	if err != nil {
		return result{err: err}
	}
	s.metrics.txTotal.Inc()
	s.metrics.lastOrder.Set(float64(tx.SequenceInfo.TxOrder))
	s.metrics.sequenceSeconds.Observe(time.Since(start).Seconds())
	return result{tx: tx}
}

func (s *Sequencer) sequence(txData ledger.TxData) (ledger.Transaction, error) {
	// requests queued before a status change are checked again
	if status := s.Status(); !accepts(status, txData) {
		s.metrics.rejected.WithLabelValues(rejectUnavailable).Inc()
		return ledger.Transaction{}, fmt.Errorf("%w: status %s", ErrServiceUnavailable, status)
	}
	lastOrder := s.GetSequencerInfo().LastOrder
	txOrder := lastOrder + 1

	txHash, err := ledger.TxHash(txData)
	if err != nil {
		return ledger.Transaction{}, err
	}
	duplicated, err := s.store.HasTxHash(txHash, lastOrder)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if duplicated {
		s.metrics.rejected.WithLabelValues(rejectDuplicate).Inc()
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ErrDuplicateTx, txHash.Hex())
	}
	signature, err := ledger.SignOrder(s.key, txOrder, txHash)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("error signing tx order %d: %w", txOrder, err)
	}

	// accumulator nodes, ledger tx and sequencer info are written in the same SQL transaction
	dbTx, err := s.store.BeginTx(context.Background())
	if err != nil {
		return ledger.Transaction{}, err
	}
	accInfo, err := s.accumulator().AppendWithTx(dbTx, []common.Hash{txHash})
	if err != nil {
		if errRllbck := dbTx.Rollback(); errRllbck != nil {
			s.logger.Errorf(errWhileRollbackFormat, errRllbck)
		}
		s.metrics.rejected.WithLabelValues(rejectFailure).Inc()
		return ledger.Transaction{}, fmt.Errorf("error appending tx %s to the accumulator: %w", txHash.Hex(), err)
	}

	tx := ledger.Transaction{
		Data: txData,
		SequenceInfo: ledger.SequenceInfo{
			TxOrder:           txOrder,
			TxOrderSignature:  signature,
			TxAccumulatorInfo: accInfo,
			TxTimestamp:       uint64(s.now().UnixMilli()),
		},
	}
	newInfo := sequencerdb.SequencerInfo{LastOrder: txOrder, LastAccumulatorInfo: accInfo}
	if err := s.persist(dbTx, tx, newInfo); err != nil {
		s.metrics.rejected.WithLabelValues(rejectFailure).Inc()
		s.SetStatus(Maintenance)
		s.logger.Errorf("error persisting tx order %d, switching to %s: %v", txOrder, Maintenance, err)
		return ledger.Transaction{}, err
	}

	s.mu.Lock()
	s.info = newInfo
	s.mu.Unlock()
	s.logger.Debugf("sequenced tx %s at order %d", txHash.Hex(), txOrder)
	return tx, nil
}

func (s *Sequencer) persist(dbTx *db.Tx, tx ledger.Transaction, info sequencerdb.SequencerInfo) (err error) {
	defer func() {
		if err != nil {
			if errRllbck := dbTx.Rollback(); errRllbck != nil {
				s.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()
	if err = sequencerdb.SaveSequencedTx(dbTx, tx); err != nil {
		return err
	}
	if err = sequencerdb.SaveSequencerInfo(dbTx, info); err != nil {
		return err
	}
	if errCommit := dbTx.Commit(); errCommit != nil {
		return fmt.Errorf("error committing tx order %d: %w", info.LastOrder, errCommit)
	}
	return nil
}

func (s *Sequencer) revert(txOrder uint64) (err error) {
	info := s.GetSequencerInfo()
	if txOrder == 0 || txOrder != info.LastOrder {
		return fmt.Errorf("%w: tx order %d, last order %d", ErrRevertNotLast, txOrder, info.LastOrder)
	}
	txHash, err := s.store.GetTxHashByOrder(txOrder)
	if err != nil {
		return fmt.Errorf("tx_hash not found for tx_order %d: %w", txOrder, err)
	}
	prev := sequencerdb.GenesisSequencerInfo()
	if txOrder > 1 {
		prevTx, err := s.store.GetTransactionByOrder(txOrder - 1)
		if err != nil {
			return fmt.Errorf("previous tx %d: %w", txOrder-1, err)
		}
		prev = sequencerdb.SequencerInfo{LastOrder: txOrder - 1, LastAccumulatorInfo: prevTx.SequenceInfo.TxAccumulatorInfo}
	}
	acc, err := accumulator.NewWithInfo(prev.LastAccumulatorInfo, s.store.NodeStore())
	if err != nil {
		return err
	}

	dbTx, err := s.store.BeginTx(context.Background())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRllbck := dbTx.Rollback(); errRllbck != nil {
				s.logger.Errorf(errWhileRollbackFormat, errRllbck)
			}
		}
	}()
	if err = sequencerdb.RemoveSequencedTx(dbTx, txOrder, txHash); err != nil {
		return err
	}
	if err = sequencerdb.SaveSequencerInfoUnsafe(dbTx, prev); err != nil {
		return err
	}
	if errCommit := dbTx.Commit(); errCommit != nil {
		return errCommit
	}

	s.mu.Lock()
	s.acc = acc
	s.info = prev
	s.mu.Unlock()
	s.metrics.lastOrder.Set(float64(prev.LastOrder))
	s.logger.Warnf("reverted tx %s at order %d", txHash.Hex(), txOrder)
	return nil
}

func (s *Sequencer) accumulator() *accumulator.Accumulator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acc
}

// GetSequencerInfo returns the last committed sequencer info
func (s *Sequencer) GetSequencerInfo() sequencerdb.SequencerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

func (s *Sequencer) Status() ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Sequencer) SetStatus(status ServiceStatus) {
	s.mu.Lock()
	prev := s.status
	s.status = status
	s.mu.Unlock()
	if prev != status {
		s.logger.Infof("service status changed from %s to %s", prev, status)
	}
}

func (s *Sequencer) SequencerAddress() common.Address {
	return s.address
}

func (s *Sequencer) GetTransactionByOrder(txOrder uint64) (ledger.Transaction, error) {
	if txOrder == 0 || txOrder > s.GetSequencerInfo().LastOrder {
		return ledger.Transaction{}, fmt.Errorf("%w: %d", ErrOrderNotFound, txOrder)
	}
	return s.store.GetTransactionByOrder(txOrder)
}

func (s *Sequencer) GetTxHashes(txOrders []uint64) ([]*common.Hash, error) {
	return s.store.GetTxHashesByOrders(txOrders)
}

// GetAccumulatorProof returns the leaf of txOrder, its inclusion proof and the root it verifies against
func (s *Sequencer) GetAccumulatorProof(txOrder uint64) (common.Hash, acctypes.Proof, common.Hash, error) {
	if txOrder == 0 || txOrder > s.GetSequencerInfo().LastOrder {
		return common.Hash{}, acctypes.Proof{}, common.Hash{}, fmt.Errorf("%w: %d", ErrOrderNotFound, txOrder)
	}
	return s.accumulator().GetLeafWithProof(txOrder - 1)
}
