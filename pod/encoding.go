package pod

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
)

// BytesEncoding names a string encoding for fixed-size cryptographic bytes.
type BytesEncoding string

const (
	EncodingHex    BytesEncoding = "hex"
	EncodingBase64 BytesEncoding = "base64"
)

// encodingGroup maps a regex capture group to the encoding it matches.
type encodingGroup struct {
	index    int
	encoding BytesEncoding
}

var (
	// PrivateKeyRegex matches 32 bytes as Base64 (padding optional) or hex.
	PrivateKeyRegex = regexp.MustCompile(`^(?:([A-Za-z0-9+/]{43}=?)|([0-9A-Fa-f]{64}))$`)
	// PublicKeyRegex matches a 32-byte packed point as Base64 (padding
	// optional) or hex.
	PublicKeyRegex = regexp.MustCompile(`^(?:([A-Za-z0-9+/]{43}=?)|([0-9A-Fa-f]{64}))$`)
	// SignatureRegex matches a 64-byte packed signature as Base64 (padding
	// optional) or hex.
	SignatureRegex = regexp.MustCompile(`^(?:([A-Za-z0-9+/]{86}(?:==)?)|([0-9A-Fa-f]{128}))$`)

	keyEncodingGroups = []encodingGroup{
		{index: 1, encoding: EncodingBase64},
		{index: 2, encoding: EncodingHex},
	}
)

const (
	privateKeyFormatMessage = "private key should be 32 bytes, encoded as hex or Base64"
	publicKeyFormatMessage  = "public key should be 32 bytes, encoded as hex or Base64"
	signatureFormatMessage  = "signature should be 64 bytes, encoded as hex or Base64"
)

// EncodeBytes encodes b as hex or unpadded Base64.
func EncodeBytes(b []byte, encoding BytesEncoding) (string, error) {
	switch encoding {
	case EncodingHex:
		return hex.EncodeToString(b), nil
	case EncodingBase64:
		return base64.RawStdEncoding.EncodeToString(b), nil
	default:
		return "", newError(KindType, "POD-ENC-001", "unknown bytes encoding %q", encoding)
	}
}

// decodeBytesAuto decodes s using the encoding chosen by whichever capture
// group of re matched. ruleID and msg describe the expected format.
func decodeBytesAuto(s string, re *regexp.Regexp, groups []encodingGroup, ruleID, msg string) ([]byte, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, newError(KindType, ruleID, "%s", msg)
	}
	for _, g := range groups {
		if g.index >= len(m) || m[g.index] == "" {
			continue
		}
		b, err := decodeBytes(m[g.index], g.encoding)
		if err != nil {
			return nil, wrapError(KindType, ruleID, err, "%s", msg)
		}
		return b, nil
	}
	return nil, newError(KindType, ruleID, "%s", msg)
}

func decodeBytes(s string, encoding BytesEncoding) ([]byte, error) {
	switch encoding {
	case EncodingHex:
		return hex.DecodeString(s)
	case EncodingBase64:
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	default:
		return nil, newError(KindType, "POD-ENC-001", "unknown bytes encoding %q", encoding)
	}
}
