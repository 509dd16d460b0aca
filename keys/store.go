package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/pod/pod"
)

// KeyStore is a local-first store of POD signing keys.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable API and may change in MINOR releases.
//
// Keys are 32-byte Baby Jubjub private keys, stored hex-encoded with mode
// 0600. Each identifier has a root key and any number of role keys derived
// from it.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".xdao", "pod-keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) getRootKeyFilePath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) getRoleKeyFilePath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func CheckKeyName(identifier string) error {
	if identifier == "" {
		return errors.New("identifier cannot be empty")
	}
	return checkChars(identifier, "identifier")
}

func CheckRole(role string) error {
	if role == "" {
		return errors.New("role cannot be empty")
	}
	return checkChars(role, "role")
}

func checkChars(s, what string) error {
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

// ParsePrivateKey decodes a private key given as hex (optionally 0x-prefixed)
// or Base64.
func ParsePrivateKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == 2+2*PrivateKeySize {
		s = strings.TrimPrefix(s, "0x")
	}
	k, err := pod.DecodePrivateKey(s)
	if err != nil {
		return nil, err
	}
	return k[:], nil
}

func (ks *KeyStore) saveKeyToFile(filePath string, key []byte, overwrite bool) error {
	if len(key) != PrivateKeySize {
		return fmt.Errorf("expected key length of %d bytes", PrivateKeySize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadKeyFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(string(data))
}

// InitializeRootKey stores key as the root key of identifier and returns its
// signer public key.
func (ks *KeyStore) InitializeRootKey(identifier string, key []byte, overwrite bool) (publicKey string, filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", "", err
	}
	filePath = ks.getRootKeyFilePath(identifier)
	if err := ks.saveKeyToFile(filePath, key, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = SignerPublicKey(key)
	if err != nil {
		return "", "", err
	}
	return publicKey, filePath, nil
}

// DeriveKeyFromRole derives and stores the role key of an existing root key.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (publicKey string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckRole(role); err != nil {
		return "", "", err
	}
	rootKey, err := ks.loadKeyFromFile(ks.getRootKeyFilePath(from))
	if err != nil {
		return "", "", err
	}
	roleKey, err := DeriveSignerKey(rootKey, role)
	if err != nil {
		return "", "", err
	}
	filePath = ks.getRoleKeyFilePath(from, role)
	if err := ks.saveKeyToFile(filePath, roleKey, overwrite); err != nil {
		return "", "", err
	}
	publicKey, err = SignerPublicKey(roleKey)
	if err != nil {
		return "", "", err
	}
	return publicKey, filePath, nil
}

// ExportPublicKey returns the signer public key of a stored root key, or of
// one of its role keys when role is set.
func (ks *KeyStore) ExportPublicKey(identifier string, role string) (string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", err
	}
	var key []byte
	var err error
	if role == "" {
		key, err = ks.loadKeyFromFile(ks.getRootKeyFilePath(identifier))
	} else {
		if err := CheckRole(role); err != nil {
			return "", err
		}
		key, err = ks.loadKeyFromFile(ks.getRoleKeyFilePath(identifier, role))
	}
	if err != nil {
		return "", err
	}
	return SignerPublicKey(key)
}

// LoadPrivateKey resolves a signing key from, in order of precedence, an
// encoded key, a key file, or a stored identifier and optional role.
func (ks *KeyStore) LoadPrivateKey(privateKey, signerName, signerRole, keyFile string) ([]byte, error) {
	if privateKey != "" {
		return ParsePrivateKey(privateKey)
	}
	if keyFile != "" {
		return ks.loadKeyFromFile(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return nil, err
		}
		if signerRole == "" {
			return ks.loadKeyFromFile(ks.getRootKeyFilePath(signerName))
		}
		if err := CheckRole(signerRole); err != nil {
			return nil, err
		}
		return ks.loadKeyFromFile(ks.getRoleKeyFilePath(signerName, signerRole))
	}
	return nil, errors.New("no signer provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles"))
		var roles []string
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if roleEntry.IsDir() {
					continue
				}
				if name, ok := strings.CutSuffix(roleEntry.Name(), ".key"); ok {
					roles = append(roles, name)
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Roles: roles})
	}
	return result, nil
}
