package accumulator

import (
	"context"
	"encoding/binary"
	"math/bits"
	"math/rand"
	"path"
	"testing"

	"github.com/0xPolygon/cdk-sequencer/accumulator/migrations"
	"github.com/0xPolygon/cdk-sequencer/accumulator/types"
	"github.com/0xPolygon/cdk-sequencer/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLNodeStore {
	t.Helper()
	dbPath := path.Join(t.TempDir(), "accumulator.sqlite")
	require.NoError(t, migrations.RunMigrations(dbPath))
	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store, err := NewSQLNodeStore(database, 0)
	require.NoError(t, err)
	return store
}

func createLeaves(from, to int) []common.Hash {
	leaves := make([]common.Hash, 0, to-from)
	for i := from; i < to; i++ {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(i))
		leaves = append(leaves, types.Keccak256(b[:]))
	}
	return leaves
}

// naiveRoot pads the leaves to a power of two with placeholders and hashes level by level
func naiveRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return types.PlaceholderHash
	}
	size := 1
	for size < len(leaves) {
		size <<= 1
	}
	level := make([]common.Hash, size)
	copy(level, leaves)
	for i := len(leaves); i < size; i++ {
		level[i] = types.PlaceholderHash
	}
	for len(level) > 1 {
		parents := make([]common.Hash, len(level)/2)
		for i := range parents {
			l, r := level[2*i], level[2*i+1]
			if l == types.PlaceholderHash && r == types.PlaceholderHash {
				parents[i] = types.PlaceholderHash
			} else {
				parents[i] = types.HashInternal(l, r)
			}
		}
		level = parents
	}
	return level[0]
}

func TestEmptyAccumulator(t *testing.T) {
	acc := New(newTestStore(t))
	info := acc.Info()
	require.Equal(t, types.PlaceholderHash, info.RootHash)
	require.Zero(t, info.NumLeaves)
	require.Empty(t, info.FrozenSubtreeRoots)

	_, found, err := acc.GetLeaf(0)
	require.NoError(t, err)
	require.False(t, found)

	_, err = acc.GetProof(0)
	require.ErrorIs(t, err, ErrLeafIndexOutOfTree)
}

func TestAppendOneByOne(t *testing.T) {
	ctx := context.Background()
	acc := New(newTestStore(t))
	leaves := createLeaves(0, 100)
	for i, leaf := range leaves {
		info, err := acc.Append(ctx, []common.Hash{leaf})
		require.NoError(t, err)
		n := uint64(i + 1)
		require.Equal(t, n, info.NumLeaves)
		require.Equal(t, 2*n-uint64(bits.OnesCount64(n)), info.NumNodes)
		require.Len(t, info.FrozenSubtreeRoots, bits.OnesCount64(n))
		require.Equal(t, naiveRoot(leaves[:i+1]), info.RootHash, "leaves: %d", n)
		require.True(t, info.Equal(acc.Info()))
	}
}

func TestAppendBatchMatchesOneByOne(t *testing.T) {
	ctx := context.Background()
	leaves := createLeaves(0, 77)

	one := New(newTestStore(t))
	for _, leaf := range leaves {
		_, err := one.Append(ctx, []common.Hash{leaf})
		require.NoError(t, err)
	}

	batch := New(newTestStore(t))
	_, err := batch.Append(ctx, leaves[:30])
	require.NoError(t, err)
	info, err := batch.Append(ctx, leaves[30:])
	require.NoError(t, err)

	require.True(t, info.Equal(one.Info()))
}

func TestGetLeaf(t *testing.T) {
	ctx := context.Background()
	acc := New(newTestStore(t))
	leaves := createLeaves(0, 45)
	_, err := acc.Append(ctx, leaves)
	require.NoError(t, err)

	for i, expected := range leaves {
		leaf, found, err := acc.GetLeaf(uint64(i))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, expected, leaf)
	}
	_, found, err := acc.GetLeaf(uint64(len(leaves)))
	require.NoError(t, err)
	require.False(t, found)
}

func TestProofRoundTrip(t *testing.T) {
	ctx := context.Background()
	acc := New(newTestStore(t))
	r := rand.New(rand.NewSource(42)) //nolint:gosec
	leaves := make([]common.Hash, 1000+r.Intn(100))
	for i := range leaves {
		r.Read(leaves[i][:])
	}
	info, err := acc.Append(ctx, leaves)
	require.NoError(t, err)
	require.Equal(t, naiveRoot(leaves), info.RootHash)

	for i, leaf := range leaves {
		proof, err := acc.GetProof(uint64(i))
		require.NoError(t, err)
		require.Len(t, proof.Siblings, int(rootLevel(uint64(len(leaves)))))
		require.NoError(t, VerifyProof(info.RootHash, leaf, uint64(i), proof), "leaf %d", i)
		require.False(t, proof.IsValid(info.RootHash, leaf, uint64(i)^1), "leaf %d with wrong index", i)

		// flip one byte of every sibling, one at a time
		for s := range proof.Siblings {
			mutated := types.Proof{Siblings: append([]common.Hash{}, proof.Siblings...)}
			mutated.Siblings[s][r.Intn(common.HashLength)] ^= 0xff
			require.ErrorIs(t, VerifyProof(info.RootHash, leaf, uint64(i), mutated), ErrRootMismatch)
		}
	}
}

func TestVerifyRejectsMalformedProofs(t *testing.T) {
	leaf := createLeaves(0, 1)[0]

	t.Run("too deep", func(t *testing.T) {
		proof := types.Proof{Siblings: make([]common.Hash, types.MaxProofDepth+1)}
		require.ErrorIs(t, VerifyProof(common.Hash{}, leaf, 0, proof), ErrProofTooDeep)
	})

	t.Run("index bigger than the tree", func(t *testing.T) {
		proof := types.Proof{Siblings: make([]common.Hash, 2)}
		require.ErrorIs(t, VerifyProof(common.Hash{}, leaf, 4, proof), types.ErrProofIndexTooBig)
	})

	t.Run("single leaf accumulator", func(t *testing.T) {
		require.NoError(t, VerifyProof(leaf, leaf, 0, types.Proof{}))
	})
}

func TestNewWithInfo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	acc := New(store)
	leaves := createLeaves(0, 10)
	info, err := acc.Append(ctx, leaves)
	require.NoError(t, err)

	t.Run("restore and keep appending", func(t *testing.T) {
		restored, err := NewWithInfo(info, store)
		require.NoError(t, err)
		require.True(t, info.Equal(restored.Info()))

		more := createLeaves(10, 25)
		restoredInfo, err := restored.Append(ctx, more)
		require.NoError(t, err)
		require.Equal(t, naiveRoot(append(append([]common.Hash{}, leaves...), more...)), restoredInfo.RootHash)

		for i, expected := range leaves {
			leaf, found, err := restored.GetLeaf(uint64(i))
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, expected, leaf)
		}
	})

	t.Run("empty checkpoint", func(t *testing.T) {
		restored, err := NewWithInfo(types.EmptyInfo(), store)
		require.NoError(t, err)
		require.Equal(t, types.PlaceholderHash, restored.RootHash())
	})

	t.Run("unknown frozen root", func(t *testing.T) {
		bad := info
		bad.FrozenSubtreeRoots = []common.Hash{common.HexToHash("0xdead"), info.FrozenSubtreeRoots[1]}
		_, err := NewWithInfo(bad, store)
		require.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("root mismatch", func(t *testing.T) {
		bad := info
		bad.RootHash = common.HexToHash("0x1")
		_, err := NewWithInfo(bad, store)
		require.ErrorIs(t, err, ErrRootMismatch)
	})

	t.Run("frozen roots do not match the leaf count", func(t *testing.T) {
		bad := info
		bad.NumLeaves = 11
		_, err := NewWithInfo(bad, store)
		require.ErrorIs(t, err, ErrInvalidInfo)
	})
}

func TestAppendWithTxRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	acc := New(store)
	_, err := acc.Append(ctx, createLeaves(0, 3))
	require.NoError(t, err)
	before := acc.Info()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	first, err := acc.AppendWithTx(tx, createLeaves(3, 4))
	require.NoError(t, err)
	second, err := acc.AppendWithTx(tx, createLeaves(4, 5))
	require.NoError(t, err)
	require.Equal(t, uint64(4), first.NumLeaves)
	require.Equal(t, uint64(5), second.NumLeaves)
	// not visible before commit
	require.True(t, before.Equal(acc.Info()))
	require.NoError(t, tx.Rollback())
	require.True(t, before.Equal(acc.Info()))

	_, err = store.GetNode(types.HashInternal(createLeaves(2, 3)[0], createLeaves(3, 4)[0]))
	require.ErrorIs(t, err, ErrNodeNotFound)

	info, err := acc.Append(ctx, createLeaves(3, 5))
	require.NoError(t, err)
	require.True(t, info.Equal(second))
}

func TestSQLNodeStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	leaf := types.NewLeafNode(common.HexToHash("0x01"))
	internal := types.NewInternalNode(leaf.Hash, types.PlaceholderHash)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SaveNodes(tx, []types.Node{leaf, internal, leaf}))
	require.NoError(t, tx.Commit())

	got, err := store.GetNode(internal.Hash)
	require.NoError(t, err)
	require.Equal(t, internal, got)

	nodes, err := store.MultiGetNodes([]common.Hash{leaf.Hash, common.HexToHash("0x02")})
	require.NoError(t, err)
	require.Equal(t, leaf, *nodes[0])
	require.Nil(t, nodes[1])

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, store.DeleteNodes(tx, []common.Hash{internal.Hash}))
	require.NoError(t, tx.Commit())
	_, err = store.GetNode(internal.Hash)
	require.ErrorIs(t, err, ErrNodeNotFound)
}
