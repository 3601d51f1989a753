package sequencerdb

import (
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/0xPolygon/cdk-sequencer/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func SaveExecutionInfo(q db.Querier, info ledger.ExecutionInfo) error {
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO execution_info (tx_hash, tx_order, state_root, size, gas_used, status)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		info.TxHash.Hex(), info.TxOrder, info.StateRoot.Hex(), info.Size, info.GasUsed, info.Status,
	); err != nil {
		return fmt.Errorf("error saving execution info of %s: %w", info.TxHash.Hex(), err)
	}
	return nil
}

func (s *Store) GetExecutionInfo(txHash common.Hash) (ledger.ExecutionInfo, error) {
	info := ledger.ExecutionInfo{}
	err := meddler.QueryRow(s.db, &info,
		`SELECT tx_hash, tx_order, state_root, size, gas_used, status FROM execution_info WHERE tx_hash = $1;`,
		txHash.Hex())
	if err != nil {
		return ledger.ExecutionInfo{}, db.ReturnErrNotFound(err)
	}
	return info, nil
}

func RemoveExecutionInfo(q db.Querier, txHash common.Hash) error {
	if _, err := q.Exec(`DELETE FROM execution_info WHERE tx_hash = $1;`, txHash.Hex()); err != nil {
		return fmt.Errorf("error deleting execution info of %s: %w", txHash.Hex(), err)
	}
	return nil
}

func SaveStateChangeSet(q db.Querier, cs ledger.StateChangeSet) error {
	if _, err := q.Exec(`
		INSERT OR REPLACE INTO state_change_set (tx_order, state_root, size, changes)
		VALUES ($1, $2, $3, $4);`,
		cs.TxOrder, cs.StateRoot.Hex(), cs.Size, cs.Changes,
	); err != nil {
		return fmt.Errorf("error saving state change set %d: %w", cs.TxOrder, err)
	}
	return nil
}

func (s *Store) GetStateChangeSet(txOrder uint64) (ledger.StateChangeSet, error) {
	cs := ledger.StateChangeSet{}
	err := meddler.QueryRow(s.db, &cs,
		`SELECT tx_order, state_root, size, changes FROM state_change_set WHERE tx_order = $1;`, txOrder)
	if err != nil {
		return ledger.StateChangeSet{}, db.ReturnErrNotFound(err)
	}
	return cs, nil
}

func RemoveStateChangeSet(q db.Querier, txOrder uint64) error {
	if _, err := q.Exec(`DELETE FROM state_change_set WHERE tx_order = $1;`, txOrder); err != nil {
		return fmt.Errorf("error deleting state change set %d: %w", txOrder, err)
	}
	return nil
}

// SaveStartupInfo writes the checkpoint the executor resumes from
func SaveStartupInfo(q db.Querier, info ledger.StartupInfo) error {
	if _, err := q.Exec(`
		INSERT INTO startup_info (id, state_root, size) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET state_root = excluded.state_root, size = excluded.size;`,
		info.StateRoot.Hex(), info.Size,
	); err != nil {
		return fmt.Errorf("error saving startup info: %w", err)
	}
	return nil
}

func (s *Store) GetStartupInfo() (ledger.StartupInfo, error) {
	info := ledger.StartupInfo{}
	if err := meddler.QueryRow(s.db, &info, `SELECT state_root, size FROM startup_info WHERE id = 1;`); err != nil {
		return ledger.StartupInfo{}, db.ReturnErrNotFound(err)
	}
	return info, nil
}
