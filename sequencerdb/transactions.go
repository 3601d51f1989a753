package sequencerdb

import (
	"errors"
	"fmt"

	acctypes "github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

const selectLedgerTx = `SELECT hash, tx_order, kind, data, signature, root_hash, frozen_roots,
	num_leaves, num_nodes, timestamp FROM ledger_tx`

type ledgerTxRow struct {
	Hash        common.Hash   `meddler:"hash,hash"`
	TxOrder     uint64        `meddler:"tx_order"`
	Kind        uint8         `meddler:"kind"`
	Data        []byte        `meddler:"data"`
	Signature   []byte        `meddler:"signature"`
	RootHash    common.Hash   `meddler:"root_hash,hash"`
	FrozenRoots []common.Hash `meddler:"frozen_roots,hashlist"`
	NumLeaves   uint64        `meddler:"num_leaves"`
	NumNodes    uint64        `meddler:"num_nodes"`
	Timestamp   uint64        `meddler:"timestamp"`
}

func (r ledgerTxRow) toTransaction() (ledger.Transaction, error) {
	data, err := ledger.DecodeTxData(r.Data)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("ledger tx %s: %w", r.Hash.Hex(), err)
	}
	return ledger.Transaction{
		Data: data,
		SequenceInfo: ledger.SequenceInfo{
			TxOrder:          r.TxOrder,
			TxOrderSignature: r.Signature,
			TxAccumulatorInfo: acctypes.Info{
				RootHash:           r.RootHash,
				FrozenSubtreeRoots: r.FrozenRoots,
				NumLeaves:          r.NumLeaves,
				NumNodes:           r.NumNodes,
			},
			TxTimestamp: r.Timestamp,
		},
	}, nil
}

// SaveSequencedTx writes the ledger tx and its order mapping. A stale entry left at the same
// order by a rollback is replaced.
func SaveSequencedTx(q db.Querier, tx ledger.Transaction) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	data, err := ledger.EncodeTxData(tx.Data)
	if err != nil {
		return err
	}
	seq := tx.SequenceInfo
	acc := seq.TxAccumulatorInfo
	frozen, err := db.HashListMeddler{}.PreWrite(acc.FrozenSubtreeRoots)
	if err != nil {
		return err
	}
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO ledger_tx
		(hash, tx_order, kind, data, signature, root_hash, frozen_roots, num_leaves, num_nodes, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		hash.Hex(), seq.TxOrder, uint8(tx.Data.Kind()), data, seq.TxOrderSignature,
		acc.RootHash.Hex(), frozen, acc.NumLeaves, acc.NumNodes, seq.TxTimestamp,
	); err != nil {
		return fmt.Errorf("error saving ledger tx %d: %w", seq.TxOrder, err)
	}
	if _, err := q.Exec(`INSERT OR REPLACE INTO tx_order_hash (tx_order, hash) VALUES ($1, $2);`,
		seq.TxOrder, hash.Hex()); err != nil {
		return fmt.Errorf("error saving tx order %d mapping: %w", seq.TxOrder, err)
	}
	return nil
}

// RemoveSequencedTx deletes the ledger tx and the order mapping
func RemoveSequencedTx(q db.Querier, txOrder uint64, hash common.Hash) error {
	if _, err := q.Exec(`DELETE FROM ledger_tx WHERE hash = $1;`, hash.Hex()); err != nil {
		return fmt.Errorf("error deleting ledger tx %s: %w", hash.Hex(), err)
	}
	if _, err := q.Exec(`DELETE FROM tx_order_hash WHERE tx_order = $1;`, txOrder); err != nil {
		return fmt.Errorf("error deleting tx order %d mapping: %w", txOrder, err)
	}
	return nil
}

// SetTxOrderHash rewrites a single order mapping
func SetTxOrderHash(q db.Querier, txOrder uint64, hash common.Hash) error {
	if _, err := q.Exec(`INSERT OR REPLACE INTO tx_order_hash (tx_order, hash) VALUES ($1, $2);`,
		txOrder, hash.Hex()); err != nil {
		return fmt.Errorf("error saving tx order %d mapping: %w", txOrder, err)
	}
	return nil
}

func (s *Store) GetTransactionByHash(hash common.Hash) (ledger.Transaction, error) {
	row := ledgerTxRow{}
	if err := meddler.QueryRow(s.db, &row, selectLedgerTx+` WHERE hash = $1;`, hash.Hex()); err != nil {
		return ledger.Transaction{}, db.ReturnErrNotFound(err)
	}
	return row.toTransaction()
}

// GetTransactionByOrder resolves the order through the order mapping
func (s *Store) GetTransactionByOrder(txOrder uint64) (ledger.Transaction, error) {
	hash, err := s.GetTxHashByOrder(txOrder)
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.GetTransactionByHash(hash)
	if err != nil {
		return ledger.Transaction{}, err
	}
	// the hash was sequenced again at another order after a rollback
	if tx.SequenceInfo.TxOrder != txOrder {
		return ledger.Transaction{}, fmt.Errorf("%w: tx %s is now at order %d",
			ErrNotFound, hash.Hex(), tx.SequenceInfo.TxOrder)
	}
	return tx, nil
}

// GetLedgerTxByOrder reads the ledger_tx table directly, without the order mapping
func (s *Store) GetLedgerTxByOrder(txOrder uint64) (ledger.Transaction, error) {
	row := ledgerTxRow{}
	if err := meddler.QueryRow(s.db, &row, selectLedgerTx+` WHERE tx_order = $1;`, txOrder); err != nil {
		return ledger.Transaction{}, db.ReturnErrNotFound(err)
	}
	return row.toTransaction()
}

func (s *Store) GetTxHashByOrder(txOrder uint64) (common.Hash, error) {
	var hash string
	if err := s.db.QueryRow(`SELECT hash FROM tx_order_hash WHERE tx_order = $1;`, txOrder).Scan(&hash); err != nil {
		return common.Hash{}, db.ReturnErrNotFound(err)
	}
	return common.HexToHash(hash), nil
}

// GetTxHashesByOrders returns one entry per order, nil when the order has no hash
func (s *Store) GetTxHashesByOrders(txOrders []uint64) ([]*common.Hash, error) {
	hashes := make([]*common.Hash, len(txOrders))
	for i, order := range txOrders {
		hash, err := s.GetTxHashByOrder(order)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		hashes[i] = &hash
	}
	return hashes, nil
}

// HasTxHash reports if hash is sequenced at an order not greater than maxOrder. Entries above
// maxOrder are leftovers of a rollback.
func (s *Store) HasTxHash(hash common.Hash, maxOrder uint64) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ledger_tx WHERE hash = $1 AND tx_order <= $2;`,
		hash.Hex(), maxOrder).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
