package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"xdao.co/pod/pod"
)

// PrivateKeySize is the size of a raw POD signing key.
const PrivateKeySize = 32

const roleKeySalt = "xdao-pod-signer-v1"

// GeneratePrivateKey reads a new raw private key from rand.
func GeneratePrivateKey(rand io.Reader) ([]byte, error) {
	key := make([]byte, PrivateKeySize)
	if _, err := io.ReadFull(rand, key); err != nil {
		return nil, fmt.Errorf("read random key: %w", err)
	}
	return key, nil
}

// SignerPublicKey returns the hex-encoded packed public key for a raw
// private key, as it appears in a POD's signerPublicKey.
func SignerPublicKey(privateKey []byte) (string, error) {
	encoded, err := pod.EncodePrivateKey(privateKey, pod.EncodingHex)
	if err != nil {
		return "", err
	}
	return pod.DeriveSignerPublicKey(encoded)
}

// DeriveSignerKey deterministically derives a role-specific private key from
// a root private key with HKDF-SHA256.
func DeriveSignerKey(rootKey []byte, role string) ([]byte, error) {
	if len(rootKey) != PrivateKeySize {
		return nil, fmt.Errorf("root key must be %d bytes", PrivateKeySize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	r := hkdf.New(sha256.New, rootKey, []byte(roleKeySalt), []byte("role:"+role))
	out := make([]byte, PrivateKeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.New("kdf output too short")
	}
	return out, nil
}
