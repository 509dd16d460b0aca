package pod

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/iden3/go-iden3-crypto/constants"
	"github.com/iden3/go-iden3-crypto/poseidon"
	sha256 "github.com/minio/sha256-simd"
)

const (
	privateKeySize = 32
	publicKeySize  = 32
	signatureSize  = 64
)

// BytesHash hashes a string or byte value for inclusion in a POD. The
// result is the SHA-256 digest as a big-endian integer, shifted right by 8
// bits so that it always fits in the circuit field.
func BytesHash(b []byte) *big.Int {
	sum := sha256.Sum256(b)
	return new(big.Int).Rsh(new(big.Int).SetBytes(sum[:]), 8)
}

// StringHash hashes the UTF-8 bytes of s. See BytesHash.
func StringHash(s string) *big.Int {
	return BytesHash([]byte(s))
}

// NameHash hashes an entry name.
func NameHash(name string) *big.Int {
	return StringHash(name)
}

// IntHash hashes an int or cryptographic value with single-input Poseidon.
func IntHash(n *big.Int) (*big.Int, error) {
	h, err := poseidon.Hash([]*big.Int{n})
	if err != nil {
		return nil, wrapError(KindRange, "POD-HASH-001", err, "cannot hash value %s", n)
	}
	return h, nil
}

// EdDSAPublicKeyHash hashes an encoded public key as two-input Poseidon over
// the coordinates of the unpacked point.
func EdDSAPublicKeyHash(publicKey string) (*big.Int, error) {
	pk, err := DecodePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	h, err := poseidon.Hash([]*big.Int{pk.X, pk.Y})
	if err != nil {
		return nil, wrapError(KindInternal, "POD-HASH-002", err, "cannot hash public key")
	}
	return h, nil
}

// ValueHash hashes a value of any type. The value must already be valid.
func ValueHash(v Value) (*big.Int, error) {
	switch v.Type {
	case TypeString:
		s, ok := v.Value.(string)
		if !ok {
			return nil, newError(KindType, "POD-HASH-003", "unexpected runtime type for string value")
		}
		return StringHash(s), nil
	case TypeInt, TypeCryptographic:
		n, ok := v.Value.(*big.Int)
		if !ok || n == nil {
			return nil, newError(KindType, "POD-HASH-003", "unexpected runtime type for %s value", v.Type)
		}
		return IntHash(n)
	case TypeEdDSAPublicKey:
		s, ok := v.Value.(string)
		if !ok {
			return nil, newError(KindType, "POD-HASH-003", "unexpected runtime type for eddsa_pubkey value")
		}
		return EdDSAPublicKeyHash(s)
	default:
		return nil, newError(KindType, "POD-VALUE-003", "unexpected type %q in POD value", v.Type)
	}
}

// MerkleTreeHash combines two nodes of the entry Merkle tree.
func MerkleTreeHash(left, right *big.Int) (*big.Int, error) {
	h, err := poseidon.Hash([]*big.Int{left, right})
	if err != nil {
		return nil, wrapError(KindRange, "POD-HASH-004", err, "cannot hash Merkle tree nodes")
	}
	return h, nil
}

// mustMerkleTreeHash is the tree node function. Tree inputs are always
// outputs of SHA-256>>8 or Poseidon, so they are in the field.
func mustMerkleTreeHash(left, right *big.Int) *big.Int {
	h, err := MerkleTreeHash(left, right)
	if err != nil {
		panic(err)
	}
	return h
}

// EncodePrivateKey encodes 32 raw private key bytes.
func EncodePrivateKey(rawPrivateKey []byte, encoding BytesEncoding) (string, error) {
	if len(rawPrivateKey) != privateKeySize {
		return "", newError(KindType, "POD-KEY-001", "private key must be %d bytes, got %d", privateKeySize, len(rawPrivateKey))
	}
	return EncodeBytes(rawPrivateKey, encoding)
}

// DecodePrivateKey decodes a private key encoded as hex or Base64.
func DecodePrivateKey(privateKey string) (babyjub.PrivateKey, error) {
	var k babyjub.PrivateKey
	b, err := decodeBytesAuto(privateKey, PrivateKeyRegex, keyEncodingGroups, "POD-KEY-001", privateKeyFormatMessage)
	if err != nil {
		return k, err
	}
	copy(k[:], b)
	return k, nil
}

// EncodePublicKey packs a public key point into 32 bytes and encodes it.
func EncodePublicKey(pk *babyjub.PublicKey, encoding BytesEncoding) (string, error) {
	comp := pk.Compress()
	return EncodeBytes(comp[:], encoding)
}

// DecodePublicKey decodes and unpacks a public key encoded as hex or Base64.
func DecodePublicKey(publicKey string) (*babyjub.PublicKey, error) {
	b, err := decodeBytesAuto(publicKey, PublicKeyRegex, keyEncodingGroups, "POD-KEY-002", publicKeyFormatMessage)
	if err != nil {
		return nil, err
	}
	var comp babyjub.PublicKeyComp
	copy(comp[:], b)
	pk, err := comp.Decompress()
	if err != nil {
		return nil, wrapError(KindLookup, "POD-KEY-004", err, "invalid packed public key point %s", publicKey)
	}
	return pk, nil
}

// EncodeSignature packs a signature into 64 bytes and encodes it.
func EncodeSignature(sig *babyjub.Signature, encoding BytesEncoding) (string, error) {
	comp := sig.Compress()
	return EncodeBytes(comp[:], encoding)
}

// DecodeSignature decodes and unpacks a signature encoded as hex or Base64.
func DecodeSignature(signature string) (*babyjub.Signature, error) {
	b, err := decodeBytesAuto(signature, SignatureRegex, keyEncodingGroups, "POD-KEY-003", signatureFormatMessage)
	if err != nil {
		return nil, err
	}
	var comp babyjub.SignatureComp
	copy(comp[:], b)
	sig, err := comp.Decompress()
	if err != nil {
		return nil, wrapError(KindLookup, "POD-KEY-005", err, "invalid packed signature point")
	}
	return sig, nil
}

// DeriveSignerPublicKey returns the hex-encoded packed public key for
// privateKey. This is the same key SignRoot returns, so it can be published
// ahead of signing.
func DeriveSignerPublicKey(privateKey string) (string, error) {
	k, err := DecodePrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	return EncodePublicKey(k.Public(), EncodingHex)
}

// SignRoot signs a content ID with EdDSA-Poseidon. It returns the packed
// signature and the signer's packed public key, both hex-encoded.
func SignRoot(root *big.Int, privateKey string) (signature string, publicKey string, err error) {
	if root == nil || !inField(root) {
		return "", "", newError(KindType, "POD-SIGN-001", "POD root must be a field element")
	}
	k, err := DecodePrivateKey(privateKey)
	if err != nil {
		return "", "", err
	}
	signature, err = EncodeSignature(k.SignPoseidon(root), EncodingHex)
	if err != nil {
		return "", "", err
	}
	publicKey, err = EncodePublicKey(k.Public(), EncodingHex)
	if err != nil {
		return "", "", err
	}
	return signature, publicKey, nil
}

// VerifyRootSignature reports whether signature is a valid signature of root
// by publicKey. Malformed inputs are reported as errors; a well-formed but
// invalid signature yields false.
func VerifyRootSignature(root *big.Int, signature, publicKey string) (bool, error) {
	if root == nil {
		return false, newError(KindType, "POD-SIGN-001", "POD root must be a field element")
	}
	pk, err := DecodePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	sig, err := DecodeSignature(signature)
	if err != nil {
		return false, err
	}
	if !inField(root) || sig.S.Cmp(babyjub.SubOrder) >= 0 {
		return false, nil
	}
	return pk.VerifyPoseidon(root, sig), nil
}

func inField(n *big.Int) bool {
	return n.Sign() >= 0 && n.Cmp(constants.Q) < 0
}
