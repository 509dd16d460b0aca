package pod

import (
	"math/big"
	"sort"
	"sync"

	"xdao.co/pod/leanimt"
)

// EntryProof is a Merkle inclusion proof for the name leaf of one entry.
// The value leaf is always the first sibling.
type EntryProof = leanimt.Proof

// EntryCircuitSignals bundles the inputs a proving circuit needs for one entry.
// Value is nil for non-numeric entries.
type EntryCircuitSignals struct {
	Proof     EntryProof
	NameHash  *big.Int
	ValueHash *big.Int
	Value     *big.Int
}

type contentEntry struct {
	index     int
	value     Value
	nameHash  *big.Int
	valueHash *big.Int
}

// Content is the validated, sorted set of entries of a POD together with its
// entry Merkle tree. A Content is immutable and safe for concurrent use; the
// tree is built once on first use.
type Content struct {
	names   []string
	entries map[string]*contentEntry

	treeOnce sync.Once
	tree     *leanimt.Tree
}

// ContentFromEntries validates entries and returns their Content. The input
// is copied; later changes to entries do not affect the result.
func ContentFromEntries(entries Entries) (*Content, error) {
	if err := CheckEntries(entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, newError(KindType, "POD-ENTRIES-002", "POD must contain at least one entry")
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Content{names: names, entries: make(map[string]*contentEntry, len(names))}
	for i, name := range names {
		v := CloneValue(entries[name])
		vh, err := ValueHash(v)
		if err != nil {
			return nil, err
		}
		c.entries[name] = &contentEntry{
			index:     i,
			value:     v,
			nameHash:  NameHash(name),
			valueHash: vh,
		}
	}
	return c, nil
}

func (c *Content) merkleTree() *leanimt.Tree {
	c.treeOnce.Do(func() {
		leaves := make([]*big.Int, 0, 2*len(c.names))
		for _, name := range c.names {
			e := c.entries[name]
			leaves = append(leaves, e.nameHash, e.valueHash)
		}
		tree := leanimt.New(mustMerkleTreeHash)
		tree.InsertMany(leaves)
		c.tree = tree
	})
	return c.tree
}

// ContentID is the root of the entry Merkle tree. It is the message signed
// by a POD.
func (c *Content) ContentID() *big.Int {
	return new(big.Int).Set(c.merkleTree().Root())
}

// Size is the number of entries.
func (c *Content) Size() int {
	return len(c.names)
}

// MerkleTreeDepth is the depth of the entry Merkle tree.
func (c *Content) MerkleTreeDepth() int {
	return c.merkleTree().Depth()
}

// AsEntries returns a copy of the entries.
func (c *Content) AsEntries() Entries {
	out := make(Entries, len(c.names))
	for _, name := range c.names {
		out[name] = CloneValue(c.entries[name].value)
	}
	return out
}

// ListNames returns the entry names in sorted order.
func (c *Content) ListNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// ListEntries returns copies of the entries in sorted name order.
func (c *Content) ListEntries() []Entry {
	out := make([]Entry, len(c.names))
	for i, name := range c.names {
		out[i] = Entry{Name: name, Value: CloneValue(c.entries[name].value)}
	}
	return out
}

// GetValue returns a copy of the named value.
func (c *Content) GetValue(name string) (Value, bool) {
	e, ok := c.entries[name]
	if !ok {
		return Value{}, false
	}
	return CloneValue(e.value), true
}

// GetRawValue returns a copy of the runtime value of the named entry: a
// string or a *big.Int.
func (c *Content) GetRawValue(name string) (any, bool) {
	v, ok := c.GetValue(name)
	if !ok {
		return nil, false
	}
	return v.Value, true
}

// GenerateEntryProof returns the inclusion proof for the name leaf of the
// named entry.
func (c *Content) GenerateEntryProof(name string) (EntryProof, error) {
	e, ok := c.entries[name]
	if !ok {
		return EntryProof{}, newError(KindLookup, "POD-LOOKUP-001", "POD doesn't contain entry %q", name)
	}
	proof, err := c.merkleTree().GenerateProof(2 * e.index)
	if err != nil {
		return EntryProof{}, wrapError(KindInternal, "POD-INTERNAL-001", err, "cannot generate proof for entry %q", name)
	}
	return proof, nil
}

// GenerateEntryCircuitSignals returns the proof, hashes and (for numeric
// entries) the value of the named entry.
func (c *Content) GenerateEntryCircuitSignals(name string) (EntryCircuitSignals, error) {
	proof, err := c.GenerateEntryProof(name)
	if err != nil {
		return EntryCircuitSignals{}, err
	}
	e := c.entries[name]
	return EntryCircuitSignals{
		Proof:     proof,
		NameHash:  new(big.Int).Set(e.nameHash),
		ValueHash: new(big.Int).Set(e.valueHash),
		Value:     ValueForCircuit(e.value),
	}, nil
}

// VerifyEntryProof checks an entry proof against its own root. It needs no
// Content instance.
func VerifyEntryProof(proof EntryProof) bool {
	if !proofInField(proof) {
		return false
	}
	return leanimt.VerifyProof(proof, mustMerkleTreeHash)
}

func proofInField(proof EntryProof) bool {
	if proof.Leaf == nil || !inField(proof.Leaf) {
		return false
	}
	for _, s := range proof.Siblings {
		if s == nil || !inField(s) {
			return false
		}
	}
	return true
}

// CalcMinMerkleDepthForEntries returns the Merkle tree depth of a POD with
// n entries.
func CalcMinMerkleDepthForEntries(n int) int {
	if n <= 0 {
		return 0
	}
	return leanimt.DepthForLeaves(2 * n)
}

// CalcMaxEntriesForMerkleDepth returns the largest number of entries whose
// Merkle tree fits in the given depth.
func CalcMaxEntriesForMerkleDepth(depth int) int {
	if depth < 1 {
		return 0
	}
	return 1 << uint(depth-1)
}

// ToJSON returns the tagged JSON form of the entries.
func (c *Content) ToJSON() (JSONEntries, error) {
	return EntriesToJSON(c.AsEntries())
}

// ContentFromJSON parses tagged JSON entries into Content.
func ContentFromJSON(jsonEntries JSONEntries) (*Content, error) {
	entries, err := EntriesFromJSON(jsonEntries)
	if err != nil {
		return nil, err
	}
	return ContentFromEntries(entries)
}
