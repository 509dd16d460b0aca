// Package pod implements Provable Object Data: a canonical, content-addressed,
// signed record of named, typed values.
//
// Entries are hashed into a lean incremental Merkle tree in sorted name order
// (a name leaf followed by a value leaf for each entry). The tree root is the
// content ID, which is signed with EdDSA-Poseidon over the Baby Jubjub curve.
// Entries can be serialized in three interoperable forms: a full-fidelity
// JSON form, a compact tagged JSON form, and a simplified type-erased form.
package pod

import (
	"math/big"
	"regexp"

	"github.com/iden3/go-iden3-crypto/constants"
)

// NameRegex matches legal entry names. Names are usable as identifiers in
// most programming languages.
var NameRegex = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// ValueType identifies the variant of a Value.
type ValueType string

const (
	TypeString         ValueType = "string"
	TypeInt            ValueType = "int"
	TypeCryptographic  ValueType = "cryptographic"
	TypeEdDSAPublicKey ValueType = "eddsa_pubkey"
)

var (
	// IntMin and IntMax bound the value of an int entry (inclusive).
	IntMin = big.NewInt(0)
	IntMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 63), big.NewInt(1))

	// CryptographicMin and CryptographicMax bound the value of a cryptographic
	// entry (inclusive). The maximum is one less than the order of the BN254
	// scalar field, which is the base field of Baby Jubjub.
	CryptographicMin = big.NewInt(0)
	CryptographicMax = new(big.Int).Sub(constants.Q, big.NewInt(1))
)

// Value is a typed entry value.
//
// The runtime type of Value.Value depends on Value.Type:
//
//	string, eddsa_pubkey    string
//	int, cryptographic      *big.Int
//
// Values built with the New* constructors are well-typed, but every
// operation that derives state from values validates them with CheckValue.
type Value struct {
	Type  ValueType
	Value any
}

// NewStringValue returns a string value.
func NewStringValue(s string) Value {
	return Value{Type: TypeString, Value: s}
}

// NewIntValue returns an int value.
func NewIntValue(n int64) Value {
	return Value{Type: TypeInt, Value: big.NewInt(n)}
}

// NewBigIntValue returns an int value holding a copy of n.
func NewBigIntValue(n *big.Int) Value {
	return Value{Type: TypeInt, Value: new(big.Int).Set(n)}
}

// NewCryptographicValue returns a cryptographic value holding a copy of n.
func NewCryptographicValue(n *big.Int) Value {
	return Value{Type: TypeCryptographic, Value: new(big.Int).Set(n)}
}

// NewEdDSAPublicKeyValue returns an EdDSA public key value. The key is a
// packed point encoded as hex or Base64.
func NewEdDSAPublicKeyValue(publicKey string) Value {
	return Value{Type: TypeEdDSAPublicKey, Value: publicKey}
}

// Entries maps entry names to values. Input entries may be in any order;
// every derived structure is built from the sorted names.
type Entries map[string]Value

// Entry is a single named value.
type Entry struct {
	Name  string
	Value Value
}

// CloneValue returns a copy of v which shares no mutable state with it.
func CloneValue(v Value) Value {
	if n, ok := v.Value.(*big.Int); ok && n != nil {
		return Value{Type: v.Type, Value: new(big.Int).Set(n)}
	}
	return v
}

// CloneEntries returns a deep copy of entries.
func CloneEntries(entries Entries) Entries {
	out := make(Entries, len(entries))
	for name, v := range entries {
		out[name] = CloneValue(v)
	}
	return out
}

// ValueForCircuit returns the numeric representation of v for use as a
// circuit signal, or nil if v is not numeric.
func ValueForCircuit(v Value) *big.Int {
	switch v.Type {
	case TypeInt, TypeCryptographic:
		if n, ok := v.Value.(*big.Int); ok && n != nil {
			return new(big.Int).Set(n)
		}
	}
	return nil
}

// IsNumericValue reports whether v is a fixed-size numeric value which can be
// represented in a circuit as a single signal.
func IsNumericValue(v Value) bool {
	return ValueForCircuit(v) != nil
}
