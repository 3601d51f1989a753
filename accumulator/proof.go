package accumulator

import (
	"fmt"

	"github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/ethereum/go-ethereum/common"
)

// GetProof returns the siblings of the leaf from the leaf level up to the level below the root
func (a *Accumulator) GetProof(leafIndex uint64) (types.Proof, error) {
	return a.proof(a.snapshot(), leafIndex)
}

// GetLeafWithProof returns the leaf, its proof and the root they verify against, all taken
// from the same checkpoint
func (a *Accumulator) GetLeafWithProof(leafIndex uint64) (leaf common.Hash, proof types.Proof, root common.Hash, err error) {
	s := a.snapshot()
	leaf, found, err := a.getLeaf(s, leafIndex)
	if err != nil {
		return common.Hash{}, types.Proof{}, common.Hash{}, err
	}
	if !found {
		return common.Hash{}, types.Proof{}, common.Hash{}, fmt.Errorf("%w: index %d, leaves %d",
			ErrLeafIndexOutOfTree, leafIndex, s.numLeaves)
	}
	proof, err = a.proof(s, leafIndex)
	if err != nil {
		return common.Hash{}, types.Proof{}, common.Hash{}, err
	}
	return leaf, proof, s.root, nil
}

func (a *Accumulator) proof(s state, leafIndex uint64) (types.Proof, error) {
	if leafIndex >= s.numLeaves {
		return types.Proof{}, fmt.Errorf("%w: index %d, leaves %d", ErrLeafIndexOutOfTree, leafIndex, s.numLeaves)
	}
	targetLevel := rootLevel(s.numLeaves)
	siblings := make([]common.Hash, 0, targetLevel)
	pos := leafIndex
	for level := uint(0); level < targetLevel; level++ {
		sibling, err := a.nodeHash(s, level, pos^1)
		if err != nil {
			return types.Proof{}, fmt.Errorf("sibling at level %d: %w", level, err)
		}
		siblings = append(siblings, sibling)
		pos >>= 1
	}
	return types.Proof{Siblings: siblings}, nil
}

// nodeHash resolves the node at (level, pos). Ranges without leaves are the placeholder,
// complete ranges live inside a frozen subtree and the rest are hashed from their children.
func (a *Accumulator) nodeHash(s state, level uint, pos uint64) (common.Hash, error) {
	start := pos << level
	end := start + uint64(1)<<level
	switch {
	case start >= s.numLeaves:
		return types.PlaceholderHash, nil
	case end <= s.numLeaves:
		p, peakStart := s.peakFor(start)
		return a.walkDown(p.hash, p.level, level, start-peakStart)
	default:
		left, err := a.nodeHash(s, level-1, pos<<1)
		if err != nil {
			return common.Hash{}, err
		}
		right, err := a.nodeHash(s, level-1, pos<<1|1)
		if err != nil {
			return common.Hash{}, err
		}
		return types.HashInternal(left, right), nil
	}
}

// VerifyProof checks that element is the leaf at index of the accumulator with expectedRoot
func VerifyProof(expectedRoot, element common.Hash, index uint64, proof types.Proof) error {
	return proof.Verify(expectedRoot, element, index)
}
