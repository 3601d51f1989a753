package sequencerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/russross/meddler"
)

var ErrSequencerInfoNotContinuous = errors.New("sequencer order is not continuous")

func (s *Store) GetSequencerInfo() (SequencerInfo, error) {
	return getSequencerInfo(s.db)
}

func getSequencerInfo(q db.Querier) (SequencerInfo, error) {
	row := sequencerInfoRow{}
	err := meddler.QueryRow(q, &row,
		`SELECT last_order, root_hash, frozen_roots, num_leaves, num_nodes FROM sequencer_info WHERE id = 1;`)
	if err != nil {
		return SequencerInfo{}, db.ReturnErrNotFound(err)
	}
	return row.toSequencerInfo(), nil
}

// InitSequencerInfo returns the stored info, writing the genesis one if there is none yet
func (s *Store) InitSequencerInfo(ctx context.Context) (SequencerInfo, error) {
	info, err := s.GetSequencerInfo()
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return SequencerInfo{}, err
	}
	info = GenesisSequencerInfo()
	err = s.update(ctx, func(tx *db.Tx) error {
		return SaveSequencerInfoUnsafe(tx, info)
	})
	if err != nil {
		return SequencerInfo{}, err
	}
	s.logger.Infof("sequencer info initialised at genesis, root %s", info.LastAccumulatorInfo.RootHash.Hex())
	return info, nil
}

// SaveSequencerInfo stores info, which must be exactly one order ahead of the stored one
func SaveSequencerInfo(q db.Querier, info SequencerInfo) error {
	prev, err := getSequencerInfo(q)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case info.LastOrder != prev.LastOrder+1:
		return fmt.Errorf("%w: stored %d, new %d", ErrSequencerInfoNotContinuous, prev.LastOrder, info.LastOrder)
	}
	return SaveSequencerInfoUnsafe(q, info)
}

// SaveSequencerInfoUnsafe stores info without the continuity check. Administrative tools only.
func SaveSequencerInfoUnsafe(q db.Querier, info SequencerInfo) error {
	acc := info.LastAccumulatorInfo
	frozen, err := db.HashListMeddler{}.PreWrite(acc.FrozenSubtreeRoots)
	if err != nil {
		return err
	}
	if _, err := q.Exec(`
		INSERT INTO sequencer_info (id, last_order, root_hash, frozen_roots, num_leaves, num_nodes)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			last_order = excluded.last_order,
			root_hash = excluded.root_hash,
			frozen_roots = excluded.frozen_roots,
			num_leaves = excluded.num_leaves,
			num_nodes = excluded.num_nodes;`,
		info.LastOrder, acc.RootHash.Hex(), frozen, acc.NumLeaves, acc.NumNodes,
	); err != nil {
		return fmt.Errorf("error saving sequencer info: %w", err)
	}
	return nil
}
