package pod

import (
	"encoding/json"
	"math/big"
)

// POD is a signed, immutable record of entries. The signature covers the
// content ID of the entries.
type POD struct {
	content         *Content
	signature       string
	signerPublicKey string
}

// Sign builds the content of entries and signs its content ID with
// privateKey.
func Sign(entries Entries, privateKey string) (*POD, error) {
	content, err := ContentFromEntries(entries)
	if err != nil {
		return nil, err
	}
	signature, signerPublicKey, err := SignRoot(content.ContentID(), privateKey)
	if err != nil {
		return nil, err
	}
	return &POD{content: content, signature: signature, signerPublicKey: signerPublicKey}, nil
}

// Load restores a previously signed POD. The signature and public key are
// only checked for format; call VerifySignature to check the signature.
func Load(entries Entries, signature, signerPublicKey string) (*POD, error) {
	content, err := ContentFromEntries(entries)
	if err != nil {
		return nil, err
	}
	return loadContent(content, signature, signerPublicKey)
}

func loadContent(content *Content, signature, signerPublicKey string) (*POD, error) {
	if _, err := CheckSignatureFormat(signature); err != nil {
		return nil, err
	}
	if _, err := CheckPublicKeyFormat(signerPublicKey, "signerPublicKey"); err != nil {
		return nil, err
	}
	return &POD{content: content, signature: signature, signerPublicKey: signerPublicKey}, nil
}

func (p *POD) Content() *Content       { return p.content }
func (p *POD) ContentID() *big.Int     { return p.content.ContentID() }
func (p *POD) Signature() string       { return p.signature }
func (p *POD) SignerPublicKey() string { return p.signerPublicKey }

// VerifySignature reports whether the signature is valid for the content ID
// and signer public key. A key or signature which cannot be unpacked to a
// curve point is reported as invalid; VerifyRootSignature returns it as a
// KindLookup error instead.
func (p *POD) VerifySignature() bool {
	ok, err := VerifyRootSignature(p.content.ContentID(), p.signature, p.signerPublicKey)
	return err == nil && ok
}

type serializedPOD struct {
	Entries         json.RawMessage `json:"entries"`
	Signature       *string         `json:"signature"`
	SignerPublicKey *string         `json:"signerPublicKey"`
}

// Serialize encodes the POD in the full-fidelity JSON format.
func (p *POD) Serialize() (string, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize decodes a POD from the full-fidelity JSON format. The
// signature is not verified.
func Deserialize(serialized string) (*POD, error) {
	p := new(POD)
	if err := p.UnmarshalJSON([]byte(serialized)); err != nil {
		return nil, err
	}
	return p, nil
}

// MarshalJSON implements json.Marshaler using the full-fidelity format.
func (p *POD) MarshalJSON() ([]byte, error) {
	entries, err := serializeEntries(p.content.AsEntries())
	if err != nil {
		return nil, err
	}
	return marshalJSON(serializedPOD{
		Entries:         entries,
		Signature:       &p.signature,
		SignerPublicKey: &p.signerPublicKey,
	})
}

// UnmarshalJSON implements json.Unmarshaler using the full-fidelity format.
func (p *POD) UnmarshalJSON(data []byte) error {
	var s serializedPOD
	if err := unmarshalJSON(data, &s); err != nil {
		return err
	}
	switch {
	case len(s.Entries) == 0 || string(s.Entries) == "null":
		return newError(KindType, "POD-SER-004", "serialized POD is missing entries")
	case s.Signature == nil:
		return newError(KindType, "POD-SER-004", "serialized POD is missing signature")
	case s.SignerPublicKey == nil:
		return newError(KindType, "POD-SER-004", "serialized POD is missing signerPublicKey")
	}
	var raw map[string]json.RawMessage
	if err := unmarshalJSON(s.Entries, &raw); err != nil {
		return err
	}
	entries, err := deserializeEntries(raw)
	if err != nil {
		return err
	}
	loaded, err := Load(entries, *s.Signature, *s.SignerPublicKey)
	if err != nil {
		return err
	}
	*p = *loaded
	return nil
}

// JSONPOD is the tagged JSON form of a POD. Like JSONEntries it contains
// only values encoding/json represents without loss.
type JSONPOD struct {
	Entries         JSONEntries `json:"entries"`
	Signature       string      `json:"signature"`
	SignerPublicKey string      `json:"signerPublicKey"`
}

// ToJSON returns the tagged JSON form of the POD.
func (p *POD) ToJSON() (JSONPOD, error) {
	entries, err := p.content.ToJSON()
	if err != nil {
		return JSONPOD{}, err
	}
	return JSONPOD{
		Entries:         entries,
		Signature:       p.signature,
		SignerPublicKey: p.signerPublicKey,
	}, nil
}

// FromJSON loads a POD from its tagged JSON form. The signature is not
// verified.
func FromJSON(jsonPOD JSONPOD) (*POD, error) {
	if jsonPOD.Entries == nil {
		return nil, newError(KindType, "POD-SER-004", "JSON POD is missing entries")
	}
	content, err := ContentFromJSON(jsonPOD.Entries)
	if err != nil {
		return nil, err
	}
	return loadContent(content, jsonPOD.Signature, jsonPOD.SignerPublicKey)
}
