package leanimt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// testHash is deliberately non-commutative so that sibling order matters.
func testHash(left, right *big.Int) *big.Int {
	out := new(big.Int).Mul(left, big.NewInt(31))
	return out.Add(out, right)
}

func leaves(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestEmptyTree(t *testing.T) {
	tree := New(testHash)
	require.Equal(t, 0, tree.Size())
	require.Equal(t, 0, tree.Depth())
	require.Nil(t, tree.Root())

	_, err := tree.GenerateProof(0)
	require.Error(t, err)
}

func TestSingleLeafIsRoot(t *testing.T) {
	tree := New(testHash)
	tree.Insert(big.NewInt(7))
	require.Equal(t, 0, tree.Depth())
	require.Equal(t, int64(7), tree.Root().Int64())

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.Empty(t, proof.Siblings)
	require.True(t, VerifyProof(proof, testHash))
}

func TestUnpairedNodesArePromoted(t *testing.T) {
	cases := []struct {
		leaves []*big.Int
		depth  int
		root   int64
	}{
		{leaves(1, 2), 1, 33},
		{leaves(1, 2, 3), 2, 33*31 + 3},
		{leaves(1, 2, 3, 4), 2, 33*31 + 97},
		{leaves(1, 2, 3, 4, 5), 3, (33*31+97)*31 + 5},
	}
	for _, tc := range cases {
		tree := New(testHash)
		tree.InsertMany(tc.leaves)
		require.Equal(t, tc.depth, tree.Depth(), "leaves=%d", len(tc.leaves))
		require.Equal(t, tc.root, tree.Root().Int64(), "leaves=%d", len(tc.leaves))
	}
}

func TestIncrementalMatchesBulkInsert(t *testing.T) {
	all := leaves(3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5)

	bulk := New(testHash)
	bulk.InsertMany(all)

	for split := 0; split <= len(all); split++ {
		inc := New(testHash)
		inc.InsertMany(all[:split])
		for _, l := range all[split:] {
			inc.Insert(l)
		}
		require.Equal(t, bulk.Depth(), inc.Depth())
		require.Zero(t, bulk.Root().Cmp(inc.Root()), "split=%d", split)
	}
}

func TestProofsVerifyForEveryLeaf(t *testing.T) {
	for n := 1; n <= 17; n++ {
		tree := New(testHash)
		for i := 0; i < n; i++ {
			tree.Insert(big.NewInt(int64(100 + i)))
		}
		require.Equal(t, DepthForLeaves(n), tree.Depth())
		for i := 0; i < n; i++ {
			proof, err := tree.GenerateProof(i)
			require.NoError(t, err)
			require.Equal(t, int64(100+i), proof.Leaf.Int64())
			require.LessOrEqual(t, len(proof.Siblings), tree.Depth())
			require.True(t, VerifyProof(proof, testHash), "n=%d i=%d", n, i)
		}
	}
}

func TestProofSkipsMissingSiblings(t *testing.T) {
	tree := New(testHash)
	tree.InsertMany(leaves(1, 2, 3, 4, 5))

	proof, err := tree.GenerateProof(4)
	require.NoError(t, err)
	require.Len(t, proof.Siblings, 1)
	require.Equal(t, int64(33*31+97), proof.Siblings[0].Int64())
	require.Equal(t, uint64(1), proof.Index)
	require.True(t, VerifyProof(proof, testHash))
}

func TestTamperedProofFails(t *testing.T) {
	tree := New(testHash)
	tree.InsertMany(leaves(1, 2, 3, 4, 5, 6))
	proof, err := tree.GenerateProof(2)
	require.NoError(t, err)
	require.True(t, VerifyProof(proof, testHash))

	badLeaf := proof
	badLeaf.Leaf = big.NewInt(99)
	require.False(t, VerifyProof(badLeaf, testHash))

	badIndex := proof
	badIndex.Index ^= 1
	require.False(t, VerifyProof(badIndex, testHash))

	badSibling := proof
	badSibling.Siblings = append([]*big.Int{big.NewInt(0)}, proof.Siblings[1:]...)
	require.False(t, VerifyProof(badSibling, testHash))

	require.False(t, VerifyProof(Proof{}, testHash))
}

func TestIndexOfAndLeavesCopy(t *testing.T) {
	tree := New(testHash)
	tree.InsertMany(leaves(10, 20, 30))
	require.Equal(t, 1, tree.IndexOf(big.NewInt(20)))
	require.Equal(t, -1, tree.IndexOf(big.NewInt(40)))

	got := tree.Leaves()
	got[0] = big.NewInt(0)
	require.Equal(t, int64(10), tree.Leaves()[0].Int64())
}
