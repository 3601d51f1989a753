package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrProofTooDeep     = errors.New("accumulator proof has too many siblings")
	ErrProofIndexTooBig = errors.New("leaf index does not fit in the proof")
	ErrRootMismatch     = errors.New("accumulator root mismatch")
)

// Verify folds the siblings on top of element and checks the result against expectedRoot.
// The parity of the index at each level tells if the running hash is the left or the right child.
func (p Proof) Verify(expectedRoot, element common.Hash, index uint64) error {
	if len(p.Siblings) > MaxProofDepth {
		return fmt.Errorf("%w: %d > %d", ErrProofTooDeep, len(p.Siblings), MaxProofDepth)
	}
	if index>>uint(len(p.Siblings)) != 0 {
		return fmt.Errorf("%w: index %d, siblings %d", ErrProofIndexTooBig, index, len(p.Siblings))
	}
	hash := element
	for _, sibling := range p.Siblings {
		if index&1 == 0 {
			hash = HashInternal(hash, sibling)
		} else {
			hash = HashInternal(sibling, hash)
		}
		index >>= 1
	}
	if hash != expectedRoot {
		return fmt.Errorf("%w: expected %s, computed %s", ErrRootMismatch, expectedRoot.Hex(), hash.Hex())
	}
	return nil
}

// IsValid is the boolean form of Verify
func (p Proof) IsValid(expectedRoot, element common.Hash, index uint64) bool {
	return p.Verify(expectedRoot, element, index) == nil
}
