package pod

import (
	"math/big"
	"regexp"
)

// StringTypeRegex matches strings carrying a reserved type prefix in the
// simplified JSON format, e.g. "pod_eddsa_pubkey:<key>". Group 1 is the type
// name, group 2 the payload. The payload never spans a line terminator.
var StringTypeRegex = regexp.MustCompile(`^pod_([A-Za-z_]\w*):([^\n\r\x{2028}\x{2029}]*)$`)

// CheckName checks that name is a legal entry name.
func CheckName(name string) (string, error) {
	if name == "" {
		return "", newError(KindType, "POD-NAME-001", "POD names cannot be empty")
	}
	if !NameRegex.MatchString(name) {
		return "", newError(KindType, "POD-NAME-002",
			"invalid POD name %q: only alphanumeric characters and underscores are allowed, and the first character cannot be a digit", name)
	}
	return name, nil
}

// RequireType checks that value has the runtime type named by typeName.
//
// Supported type names are "string", "bigint" (a non-nil *big.Int),
// "object" (a non-nil map[string]any) and "array" (a []any).
func RequireType(nameForErrorMessages string, value any, typeName string) error {
	ok := false
	switch typeName {
	case "string":
		_, ok = value.(string)
	case "bigint":
		n, isBig := value.(*big.Int)
		ok = isBig && n != nil
	case "object":
		m, isMap := value.(map[string]any)
		ok = isMap && m != nil
	case "array":
		_, ok = value.([]any)
	default:
		return newError(KindInternal, "POD-TYPE-002", "unknown runtime type name %q", typeName)
	}
	if !ok {
		return newError(KindType, "POD-TYPE-001",
			"invalid value for entry %s: expected type %s", nameForErrorMessages, typeName)
	}
	return nil
}

// CheckBigIntBounds checks that min <= value <= max.
func CheckBigIntBounds(nameForErrorMessages string, value, min, max *big.Int) (*big.Int, error) {
	if value == nil {
		return nil, newError(KindType, "POD-TYPE-001",
			"invalid value for entry %s: expected type bigint", nameForErrorMessages)
	}
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return nil, newError(KindRange, "POD-RANGE-001",
			"invalid value for entry %s: value %s is outside supported bounds (min %s, max %s)",
			nameForErrorMessages, value, min, max)
	}
	return value, nil
}

// CheckValue checks that v has a known type and a runtime value matching
// that type, within the type's bounds.
func CheckValue(nameForErrorMessages string, v Value) (Value, error) {
	if isNilValue(v.Value) {
		return Value{}, newError(KindType, "POD-VALUE-001",
			"POD value for %s cannot be undefined", nameForErrorMessages)
	}
	if v.Type == "" {
		return Value{}, newError(KindType, "POD-VALUE-002",
			"POD value for %s must have a type", nameForErrorMessages)
	}
	switch v.Type {
	case TypeString:
		if err := RequireType(nameForErrorMessages, v.Value, "string"); err != nil {
			return Value{}, err
		}
	case TypeInt:
		if err := RequireType(nameForErrorMessages, v.Value, "bigint"); err != nil {
			return Value{}, err
		}
		if _, err := CheckBigIntBounds(nameForErrorMessages, v.Value.(*big.Int), IntMin, IntMax); err != nil {
			return Value{}, err
		}
	case TypeCryptographic:
		if err := RequireType(nameForErrorMessages, v.Value, "bigint"); err != nil {
			return Value{}, err
		}
		if _, err := CheckBigIntBounds(nameForErrorMessages, v.Value.(*big.Int), CryptographicMin, CryptographicMax); err != nil {
			return Value{}, err
		}
	case TypeEdDSAPublicKey:
		if err := RequireType(nameForErrorMessages, v.Value, "string"); err != nil {
			return Value{}, err
		}
		if _, err := CheckPublicKeyFormat(v.Value.(string), nameForErrorMessages); err != nil {
			return Value{}, err
		}
	default:
		return Value{}, newError(KindType, "POD-VALUE-003",
			"POD value %s has unknown type %q", nameForErrorMessages, v.Type)
	}
	return v, nil
}

// CheckEntries checks every name and value in entries.
func CheckEntries(entries Entries) error {
	if entries == nil {
		return newError(KindType, "POD-ENTRIES-001", "POD entries cannot be nil")
	}
	for name, v := range entries {
		if _, err := CheckName(name); err != nil {
			return err
		}
		if _, err := CheckValue(name, v); err != nil {
			return err
		}
	}
	return nil
}

// CheckStringEncodedValueType checks a type prefix decoded from the
// simplified JSON format. Only string-valued types may be prefix-encoded.
func CheckStringEncodedValueType(nameForErrorMessages, typePrefix string) (ValueType, error) {
	switch ValueType(typePrefix) {
	case TypeString, TypeEdDSAPublicKey:
		return ValueType(typePrefix), nil
	default:
		return "", newError(KindType, "POD-SIMPLE-002",
			"invalid string-encoded value type %q in %s", typePrefix, nameForErrorMessages)
	}
}

// CheckPrivateKeyFormat checks that privateKey is 32 bytes encoded as hex or
// Base64.
func CheckPrivateKeyFormat(privateKey string) (string, error) {
	if _, err := decodeBytesAuto(privateKey, PrivateKeyRegex, keyEncodingGroups, "POD-KEY-001", privateKeyFormatMessage); err != nil {
		return "", err
	}
	return privateKey, nil
}

// CheckPublicKeyFormat checks that publicKey is 32 bytes encoded as hex or
// Base64. The name is only used in error messages and may be empty.
func CheckPublicKeyFormat(publicKey string, nameForErrorMessages string) (string, error) {
	msg := publicKeyFormatMessage
	if nameForErrorMessages != "" {
		msg += " in " + nameForErrorMessages
	}
	if _, err := decodeBytesAuto(publicKey, PublicKeyRegex, keyEncodingGroups, "POD-KEY-002", msg); err != nil {
		return "", err
	}
	return publicKey, nil
}

// CheckSignatureFormat checks that signature is 64 bytes encoded as hex or
// Base64.
func CheckSignatureFormat(signature string) (string, error) {
	if _, err := decodeBytesAuto(signature, SignatureRegex, keyEncodingGroups, "POD-KEY-003", signatureFormatMessage); err != nil {
		return "", err
	}
	return signature, nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	if n, ok := v.(*big.Int); ok && n == nil {
		return true
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return true
	}
	return false
}
