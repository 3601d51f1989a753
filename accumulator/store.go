package accumulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/russross/meddler"
)

const defaultNodeCacheSize = 8192

// NodeStore is the content addressed storage of accumulator nodes
type NodeStore interface {
	// GetNode returns ErrNodeNotFound if the hash is unknown
	GetNode(hash common.Hash) (types.Node, error)
	// MultiGetNodes returns one entry per hash, nil for the unknown ones
	MultiGetNodes(hashes []common.Hash) ([]*types.Node, error)
	// SaveNodes writes the nodes inside tx. Existing nodes are left untouched.
	SaveNodes(tx db.Txer, nodes []types.Node) error
	DeleteNodes(tx db.Txer, hashes []common.Hash) error
	// BeginTx opens a write transaction on the underlying DB
	BeginTx(ctx context.Context) (db.Txer, error)
}

var _ NodeStore = (*SQLNodeStore)(nil)

// SQLNodeStore keeps the nodes on the accumulator_node table, with an LRU of committed nodes in front
type SQLNodeStore struct {
	db    *sql.DB
	cache *lru.Cache[common.Hash, types.Node]
}

// NewSQLNodeStore creates a node store over an already migrated DB
func NewSQLNodeStore(database *sql.DB, cacheSize int) (*SQLNodeStore, error) {
	if cacheSize <= 0 {
		cacheSize = defaultNodeCacheSize
	}
	cache, err := lru.New[common.Hash, types.Node](cacheSize)
	if err != nil {
		return nil, err
	}
	return &SQLNodeStore{
		db:    database,
		cache: cache,
	}, nil
}

func (s *SQLNodeStore) GetNode(hash common.Hash) (types.Node, error) {
	if node, ok := s.cache.Get(hash); ok {
		return node, nil
	}
	node := types.Node{}
	err := meddler.QueryRow(s.db, &node, `SELECT * FROM accumulator_node WHERE hash = $1;`, hash.Hex())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, hash.Hex())
		}
		return types.Node{}, err
	}
	s.cache.Add(hash, node)
	return node, nil
}

func (s *SQLNodeStore) MultiGetNodes(hashes []common.Hash) ([]*types.Node, error) {
	nodes := make([]*types.Node, len(hashes))
	for i, hash := range hashes {
		node, err := s.GetNode(hash)
		if errors.Is(err, ErrNodeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes[i] = &node
	}
	return nodes, nil
}

func (s *SQLNodeStore) SaveNodes(tx db.Txer, nodes []types.Node) error {
	for _, node := range nodes {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO accumulator_node (hash, kind, left_hash, right_hash) VALUES ($1, $2, $3, $4);`,
			node.Hash.Hex(), node.Kind, node.Left.Hex(), node.Right.Hex(),
		); err != nil {
			return fmt.Errorf("error saving accumulator node %s: %w", node.Hash.Hex(), err)
		}
	}
	tx.AddCommitCallback(func() {
		for _, node := range nodes {
			s.cache.Add(node.Hash, node)
		}
	})
	return nil
}

func (s *SQLNodeStore) DeleteNodes(tx db.Txer, hashes []common.Hash) error {
	for _, hash := range hashes {
		if _, err := tx.Exec(`DELETE FROM accumulator_node WHERE hash = $1;`, hash.Hex()); err != nil {
			return fmt.Errorf("error deleting accumulator node %s: %w", hash.Hex(), err)
		}
	}
	tx.AddCommitCallback(func() {
		for _, hash := range hashes {
			s.cache.Remove(hash)
		}
	})
	return nil
}

func (s *SQLNodeStore) BeginTx(ctx context.Context) (db.Txer, error) {
	return db.NewTx(ctx, s.db)
}
