package types

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const (
	// MaxProofDepth is the maximum number of siblings accepted in a proof
	MaxProofDepth = 63
)

// PlaceholderHash stands for any subtree that does not contain leaves yet.
// It is also the root of an empty accumulator.
var PlaceholderHash = Keccak256([]byte("ACCUMULATOR_PLACEHOLDER_HASH"))

// NodeKind tags a persisted node
type NodeKind uint8

const (
	LeafNode NodeKind = iota
	InternalNode
)

func (k NodeKind) String() string {
	switch k {
	case LeafNode:
		return "leaf"
	case InternalNode:
		return "internal"
	default:
		return "unknown"
	}
}

// Node is an accumulator node. It is addressed by its hash, which is the leaf value for leaves
// and keccak256(left || right) for internal nodes.
type Node struct {
	Hash  common.Hash `meddler:"hash,hash"`
	Kind  NodeKind    `meddler:"kind"`
	Left  common.Hash `meddler:"left_hash,hash"`
	Right common.Hash `meddler:"right_hash,hash"`
}

func NewLeafNode(value common.Hash) Node {
	return Node{
		Hash: value,
		Kind: LeafNode,
	}
}

func NewInternalNode(left, right common.Hash) Node {
	return Node{
		Hash:  HashInternal(left, right),
		Kind:  InternalNode,
		Left:  left,
		Right: right,
	}
}

// HashInternal computes the hash of an internal node
func HashInternal(left, right common.Hash) common.Hash {
	var hash common.Hash
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(left[:])
	hasher.Write(right[:])
	copy(hash[:], hasher.Sum(nil))
	return hash
}

func Keccak256(data []byte) common.Hash {
	var hash common.Hash
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// Info is a checkpoint of the accumulator. The frozen subtree roots are ordered from
// the biggest (leftmost) subtree to the smallest one and there is one per bit set in NumLeaves.
type Info struct {
	RootHash           common.Hash   `json:"root_hash"`
	FrozenSubtreeRoots []common.Hash `json:"frozen_subtree_roots"`
	NumLeaves          uint64        `json:"num_leaves"`
	NumNodes           uint64        `json:"num_nodes"`
}

// EmptyInfo is the checkpoint of an accumulator without leaves
func EmptyInfo() Info {
	return Info{
		RootHash:           PlaceholderHash,
		FrozenSubtreeRoots: []common.Hash{},
	}
}

// Equal compares two checkpoints
func (i Info) Equal(o Info) bool {
	if i.RootHash != o.RootHash || i.NumLeaves != o.NumLeaves || i.NumNodes != o.NumNodes {
		return false
	}
	if len(i.FrozenSubtreeRoots) != len(o.FrozenSubtreeRoots) {
		return false
	}
	for idx := range i.FrozenSubtreeRoots {
		if i.FrozenSubtreeRoots[idx] != o.FrozenSubtreeRoots[idx] {
			return false
		}
	}
	return true
}

// Proof holds the siblings of a leaf ordered from the leaf level up to the root
type Proof struct {
	Siblings []common.Hash `json:"siblings"`
}
