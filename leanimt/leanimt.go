// Package leanimt implements a lean incremental Merkle tree.
//
// A lean tree differs from a perfect binary tree only at levels with an odd
// number of nodes: the last node has no sibling and is promoted unchanged to
// the next level instead of being paired with a zero value. The depth of a
// tree with n leaves is therefore ceil(log2(n)) and no padding is needed.
package leanimt

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

// HashFunc combines two child nodes into their parent.
type HashFunc func(left, right *big.Int) *big.Int

// Tree is a lean incremental Merkle tree. The zero value is not usable; use New.
//
// A Tree is not safe for concurrent mutation.
type Tree struct {
	hash  HashFunc
	nodes [][]*big.Int // nodes[0] holds the leaves, nodes[Depth()] the root
}

// Proof is an inclusion proof for a single leaf.
//
// Siblings only contains the levels where the path node had a sibling. Bit i
// of Index is 1 when Siblings[i] is the left input of the hash at that step.
type Proof struct {
	Root     *big.Int
	Leaf     *big.Int
	Index    uint64
	Siblings []*big.Int
}

// New returns an empty tree using hash to compute interior nodes.
func New(hash HashFunc) *Tree {
	return &Tree{hash: hash, nodes: [][]*big.Int{{}}}
}

// Size is the number of leaves in the tree.
func (t *Tree) Size() int {
	return len(t.nodes[0])
}

// Depth is the number of levels above the leaves.
func (t *Tree) Depth() int {
	return len(t.nodes) - 1
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *big.Int {
	top := t.nodes[t.Depth()]
	if len(top) == 0 {
		return nil
	}
	return top[0]
}

// Leaves returns a copy of the leaf slice.
func (t *Tree) Leaves() []*big.Int {
	out := make([]*big.Int, len(t.nodes[0]))
	copy(out, t.nodes[0])
	return out
}

// IndexOf returns the index of the first leaf equal to leaf, or -1.
func (t *Tree) IndexOf(leaf *big.Int) int {
	for i, l := range t.nodes[0] {
		if l.Cmp(leaf) == 0 {
			return i
		}
	}
	return -1
}

// Insert appends a single leaf.
func (t *Tree) Insert(leaf *big.Int) {
	t.InsertMany([]*big.Int{leaf})
}

// InsertMany appends leaves and recomputes only the affected interior nodes.
func (t *Tree) InsertMany(leaves []*big.Int) {
	if len(leaves) == 0 {
		return
	}
	start := len(t.nodes[0]) >> 1
	t.nodes[0] = append(t.nodes[0], leaves...)

	for t.Depth() < ceilLog2(len(t.nodes[0])) {
		t.nodes = append(t.nodes, nil)
	}

	for level := 0; level < t.Depth(); level++ {
		current := t.nodes[level]
		parents := (len(current) + 1) / 2
		for i := start; i < parents; i++ {
			parent := current[2*i]
			if 2*i+1 < len(current) {
				parent = t.hash(current[2*i], current[2*i+1])
			}
			if i < len(t.nodes[level+1]) {
				t.nodes[level+1][i] = parent
			} else {
				t.nodes[level+1] = append(t.nodes[level+1], parent)
			}
		}
		start >>= 1
	}
}

// GenerateProof builds the inclusion proof for the leaf at index.
func (t *Tree) GenerateProof(index int) (Proof, error) {
	if index < 0 || index >= t.Size() {
		return Proof{}, fmt.Errorf("leaf index %d out of range [0, %d)", index, t.Size())
	}
	leaf := t.nodes[0][index]
	var siblings []*big.Int
	var path uint64
	for level := 0; level < t.Depth(); level++ {
		isRight := index&1 == 1
		sibling := index + 1
		if isRight {
			sibling = index - 1
		}
		if sibling < len(t.nodes[level]) {
			if isRight {
				path |= 1 << uint(len(siblings))
			}
			siblings = append(siblings, t.nodes[level][sibling])
		}
		index >>= 1
	}
	return Proof{
		Root:     t.Root(),
		Leaf:     leaf,
		Index:    path,
		Siblings: siblings,
	}, nil
}

// VerifyProof recomputes the root from the leaf and siblings in proof and
// compares it with proof.Root. It needs no tree instance.
func VerifyProof(proof Proof, hash HashFunc) bool {
	if err := checkProof(proof); err != nil {
		return false
	}
	node := proof.Leaf
	for i, sibling := range proof.Siblings {
		if (proof.Index>>uint(i))&1 == 1 {
			node = hash(sibling, node)
		} else {
			node = hash(node, sibling)
		}
	}
	return node.Cmp(proof.Root) == 0
}

func checkProof(proof Proof) error {
	if proof.Root == nil || proof.Leaf == nil {
		return errors.New("proof is missing root or leaf")
	}
	if len(proof.Siblings) > 64 {
		return errors.New("proof has too many siblings")
	}
	for _, s := range proof.Siblings {
		if s == nil {
			return errors.New("proof has a nil sibling")
		}
	}
	return nil
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// DepthForLeaves returns the depth of a tree holding n leaves.
func DepthForLeaves(n int) int {
	return ceilLog2(n)
}
