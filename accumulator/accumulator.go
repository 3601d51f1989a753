package accumulator

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNodeNotFound       = errors.New("accumulator node not found")
	ErrInvalidInfo        = errors.New("invalid accumulator info")
	ErrLeafIndexOutOfTree = errors.New("leaf index out of the accumulator")
	ErrUnexpectedNodeKind = errors.New("unexpected accumulator node kind")
	ErrRootMismatch       = types.ErrRootMismatch
	ErrProofTooDeep       = types.ErrProofTooDeep
)

// peak is the root of a frozen subtree holding 2^level leaves
type peak struct {
	level uint
	hash  common.Hash
}

type state struct {
	numLeaves uint64
	numNodes  uint64
	root      common.Hash
	// ordered from the biggest subtree to the smallest one
	peaks []peak
}

func (s state) clone() state {
	c := s
	c.peaks = make([]peak, len(s.peaks))
	copy(c.peaks, s.peaks)
	return c
}

func (s state) info() types.Info {
	roots := make([]common.Hash, len(s.peaks))
	for i, p := range s.peaks {
		roots[i] = p.hash
	}
	return types.Info{
		RootHash:           s.root,
		FrozenSubtreeRoots: roots,
		NumLeaves:          s.numLeaves,
		NumNodes:           s.numNodes,
	}
}

// peakFor returns the frozen subtree containing the leaf and the index of its first leaf
func (s state) peakFor(leafIndex uint64) (peak, uint64) {
	var start uint64
	for _, p := range s.peaks {
		size := uint64(1) << p.level
		if leafIndex < start+size {
			return p, start
		}
		start += size
	}
	return peak{}, 0
}

// appendLeaves applies the MMR merge rule and returns every node created: the new frozen
// nodes plus the non frozen ones on the path from the smallest peak to the root.
func (s *state) appendLeaves(leaves []common.Hash) []types.Node {
	nodes := make([]types.Node, 0, 2*len(leaves)) //nolint:mnd
	for _, leaf := range leaves {
		nodes = append(nodes, types.NewLeafNode(leaf))
		s.numNodes++
		current := peak{level: 0, hash: leaf}
		for len(s.peaks) > 0 && s.peaks[len(s.peaks)-1].level == current.level {
			left := s.peaks[len(s.peaks)-1]
			s.peaks = s.peaks[:len(s.peaks)-1]
			node := types.NewInternalNode(left.hash, current.hash)
			nodes = append(nodes, node)
			s.numNodes++
			current = peak{level: current.level + 1, hash: node.Hash}
		}
		s.peaks = append(s.peaks, current)
		s.numLeaves++
	}
	root, notFrozen := rootFromPeaks(s.peaks, s.numLeaves)
	s.root = root
	return append(nodes, notFrozen...)
}

// rootLevel is the height of the smallest perfect tree holding numLeaves leaves
func rootLevel(numLeaves uint64) uint {
	if numLeaves <= 1 {
		return 0
	}
	return uint(bits.Len64(numLeaves - 1))
}

// frozenLevels returns the level of every frozen subtree, biggest first
func frozenLevels(numLeaves uint64) []uint {
	levels := make([]uint, 0, bits.OnesCount64(numLeaves))
	for level := 63; level >= 0; level-- {
		if numLeaves&(uint64(1)<<uint(level)) != 0 {
			levels = append(levels, uint(level))
		}
	}
	return levels
}

// rootFromPeaks walks from the smallest peak up to the root level. A left child is paired with
// the placeholder, a right child with the next bigger peak.
func rootFromPeaks(peaks []peak, numLeaves uint64) (common.Hash, []types.Node) {
	if numLeaves == 0 || len(peaks) == 0 {
		return types.PlaceholderHash, nil
	}
	targetLevel := rootLevel(numLeaves)
	i := len(peaks) - 1
	hash := peaks[i].hash
	level := peaks[i].level
	pos := (numLeaves - uint64(1)<<level) >> level
	nodes := make([]types.Node, 0, targetLevel-level)
	for ; level < targetLevel; level++ {
		var node types.Node
		if pos&1 == 0 {
			node = types.NewInternalNode(hash, types.PlaceholderHash)
		} else {
			i--
			node = types.NewInternalNode(peaks[i].hash, hash)
		}
		nodes = append(nodes, node)
		hash = node.Hash
		pos >>= 1
	}
	return hash, nodes
}

// Accumulator is an append only merkle accumulator (merkle mountain range). Only the frozen
// subtree roots are kept in memory, the rest of the nodes are read from the NodeStore.
// There must be a single writer; readers may run concurrently and only see committed appends.
type Accumulator struct {
	mu    sync.RWMutex
	store NodeStore
	state state
	// state built by appends whose transaction is still open
	pending *state
}

// New creates an empty accumulator
func New(store NodeStore) *Accumulator {
	return &Accumulator{
		store: store,
		state: state{root: types.PlaceholderHash},
	}
}

// NewWithInfo restores an accumulator from a checkpoint. Every frozen subtree root must be
// resolvable in the store and the root must match the one derived from them.
func NewWithInfo(info types.Info, store NodeStore) (*Accumulator, error) {
	levels := frozenLevels(info.NumLeaves)
	if len(levels) != len(info.FrozenSubtreeRoots) {
		return nil, fmt.Errorf("%w: %d leaves need %d frozen roots, got %d",
			ErrInvalidInfo, info.NumLeaves, len(levels), len(info.FrozenSubtreeRoots))
	}
	expectedNodes := 2*info.NumLeaves - uint64(bits.OnesCount64(info.NumLeaves)) //nolint:mnd
	if info.NumNodes != expectedNodes {
		return nil, fmt.Errorf("%w: %d leaves need %d nodes, got %d",
			ErrInvalidInfo, info.NumLeaves, expectedNodes, info.NumNodes)
	}
	peaks := make([]peak, len(levels))
	for i, level := range levels {
		root := info.FrozenSubtreeRoots[i]
		if _, err := store.GetNode(root); err != nil {
			return nil, fmt.Errorf("frozen subtree root %d: %w", i, err)
		}
		peaks[i] = peak{level: level, hash: root}
	}
	root, _ := rootFromPeaks(peaks, info.NumLeaves)
	if root != info.RootHash {
		return nil, fmt.Errorf("%w: checkpoint %s, computed %s", ErrRootMismatch, info.RootHash.Hex(), root.Hex())
	}
	return &Accumulator{
		store: store,
		state: state{
			numLeaves: info.NumLeaves,
			numNodes:  info.NumNodes,
			root:      root,
			peaks:     peaks,
		},
	}, nil
}

// Append adds the leaves in its own transaction
func (a *Accumulator) Append(ctx context.Context, leaves []common.Hash) (types.Info, error) {
	tx, err := a.store.BeginTx(ctx)
	if err != nil {
		return types.Info{}, err
	}
	info, err := a.AppendWithTx(tx, leaves)
	if err != nil {
		if errRllbck := tx.Rollback(); errRllbck != nil {
			return types.Info{}, fmt.Errorf("%w (rollback: %w)", err, errRllbck)
		}
		return types.Info{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Info{}, err
	}
	return info, nil
}

// AppendWithTx adds the leaves writing the new nodes inside tx. The returned checkpoint only
// becomes the accumulator state once tx is committed; a rollback discards it. Several appends
// may share the same transaction.
func (a *Accumulator) AppendWithTx(tx db.Txer, leaves []common.Hash) (types.Info, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	base := a.state
	if a.pending != nil {
		base = *a.pending
	}
	if len(leaves) == 0 {
		return base.info(), nil
	}
	next := base.clone()
	nodes := next.appendLeaves(leaves)
	if err := a.store.SaveNodes(tx, nodes); err != nil {
		return types.Info{}, err
	}

	if a.pending == nil {
		tx.AddCommitCallback(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.pending != nil {
				a.state = *a.pending
				a.pending = nil
			}
		})
		tx.AddRollbackCallback(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.pending = nil
		})
	}
	a.pending = &next
	return next.info(), nil
}

// Info returns the last committed checkpoint
func (a *Accumulator) Info() types.Info {
	return a.snapshot().info()
}

func (a *Accumulator) RootHash() common.Hash {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.root
}

func (a *Accumulator) NumLeaves() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.numLeaves
}

func (a *Accumulator) snapshot() state {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.clone()
}

// GetLeaf returns the leaf at index. The boolean is false when index >= number of leaves.
func (a *Accumulator) GetLeaf(index uint64) (common.Hash, bool, error) {
	return a.getLeaf(a.snapshot(), index)
}

func (a *Accumulator) getLeaf(s state, index uint64) (common.Hash, bool, error) {
	if index >= s.numLeaves {
		return common.Hash{}, false, nil
	}
	p, start := s.peakFor(index)
	leaf, err := a.walkDown(p.hash, p.level, 0, index-start)
	if err != nil {
		return common.Hash{}, false, err
	}
	return leaf, true, nil
}

// walkDown descends from a node at fromLevel to the node at toLevel that covers leafOffset,
// leafOffset being relative to the first leaf below the starting node
func (a *Accumulator) walkDown(hash common.Hash, fromLevel, toLevel uint, leafOffset uint64) (common.Hash, error) {
	for level := fromLevel; level > toLevel; level-- {
		node, err := a.store.GetNode(hash)
		if err != nil {
			return common.Hash{}, err
		}
		if node.Kind != types.InternalNode {
			return common.Hash{}, fmt.Errorf("%w: %s is a %s at level %d",
				ErrUnexpectedNodeKind, hash.Hex(), node.Kind, level)
		}
		if leafOffset&(uint64(1)<<(level-1)) != 0 {
			hash = node.Right
		} else {
			hash = node.Left
		}
	}
	return hash, nil
}
