package pod

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strings"
)

// JSONEntries is the tagged JSON form of Entries. It contains only values
// which encoding/json can represent without loss, so it can be embedded in
// other JSON documents.
//
// Each value may use any of these shapes when parsed:
//
//	"hello"                                 string
//	123                                     int (safe integer range only)
//	{"int": 123} / {"int": "0x7fff..."}     any type as a single-key object
//	{"type": "int", "value": 123}           explicit type and value
//
// EntriesToJSON always emits the smallest lossless shape.
type JSONEntries map[string]any

const (
	// MaxSafeInteger and MinSafeInteger bound the integers a JSON number can
	// carry without loss of precision in common JSON implementations.
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

var (
	maxSafeBig = big.NewInt(MaxSafeInteger)
	minSafeBig = big.NewInt(MinSafeInteger)
)

const unnamed = "(unnamed)"

// EntriesFromJSON parses tagged JSON entries, validating every name and value.
func EntriesFromJSON(jsonEntries JSONEntries) (Entries, error) {
	if jsonEntries == nil {
		return nil, newError(KindType, "POD-TYPE-001", "invalid value for entry jsonEntries: expected type object")
	}
	out := make(Entries, len(jsonEntries))
	for name, jv := range jsonEntries {
		if _, err := CheckName(name); err != nil {
			return nil, err
		}
		v, err := ValueFromJSON(jv, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// ValueFromJSON parses a single tagged JSON value in any supported shape.
func ValueFromJSON(jsonValue any, nameForErrorMessages string) (Value, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	switch jv := jsonValue.(type) {
	case string:
		return ValueFromTypedJSON(string(TypeString), jv, nameForErrorMessages)
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ValueFromTypedJSON(string(TypeInt), jv, nameForErrorMessages)
	case []any:
		return Value{}, newError(KindType, "POD-JSON-001",
			"value %s isn't a well-formed JSON POD value: it should be an object not an array", nameForErrorMessages)
	case map[string]any:
		if jv == nil {
			break
		}
		if len(jv) == 1 {
			for typ, raw := range jv {
				return ValueFromTypedJSON(typ, raw, nameForErrorMessages)
			}
		}
		if len(jv) == 2 {
			typ, hasType := jv["type"]
			raw, hasValue := jv["value"]
			if hasType && hasValue {
				typeName, ok := typ.(string)
				if !ok {
					return Value{}, newError(KindType, "POD-JSON-002",
						"value %s has a non-string type field", nameForErrorMessages)
				}
				return ValueFromTypedJSON(typeName, raw, nameForErrorMessages)
			}
		}
		return Value{}, newError(KindType, "POD-JSON-001",
			"value %s isn't a well-formed JSON POD value: it should be an object with a single type key, or with type and value keys", nameForErrorMessages)
	}
	return Value{}, newError(KindType, "POD-JSON-003",
		"value %s has invalid JSON type %T", nameForErrorMessages, jsonValue)
}

// ValueFromTypedJSON parses a JSON value whose POD type is already known.
func ValueFromTypedJSON(valueType string, jsonRawValue any, nameForErrorMessages string) (Value, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	switch ValueType(valueType) {
	case TypeString, TypeEdDSAPublicKey:
		return CheckValue(nameForErrorMessages, Value{Type: ValueType(valueType), Value: jsonRawValue})
	case TypeInt, TypeCryptographic:
		n, err := BigIntFromJSON(jsonRawValue, nameForErrorMessages)
		if err != nil {
			return Value{}, err
		}
		return CheckValue(nameForErrorMessages, Value{Type: ValueType(valueType), Value: n})
	default:
		return Value{}, newError(KindType, "POD-VALUE-003",
			"value %s specifies unknown type %q", nameForErrorMessages, valueType)
	}
}

// BigIntFromJSON parses an integer encoded as a JSON number in the safe
// integer range, or as a string in decimal or 0x/0o/0b-prefixed form.
func BigIntFromJSON(numericValue any, nameForErrorMessages string) (*big.Int, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	switch v := numericValue.(type) {
	case string:
		return parseBigIntString(v)
	case json.Number:
		if n, ok := new(big.Int).SetString(v.String(), 10); ok {
			return safeInteger(n, nameForErrorMessages)
		}
		f, err := v.Float64()
		if err != nil {
			return nil, wrapError(KindSyntax, "POD-JSON-010", err, "cannot parse numeric value %s", nameForErrorMessages)
		}
		return floatToBigInt(f, nameForErrorMessages)
	case float64:
		return floatToBigInt(v, nameForErrorMessages)
	case float32:
		return floatToBigInt(float64(v), nameForErrorMessages)
	case int:
		return safeInteger(big.NewInt(int64(v)), nameForErrorMessages)
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return safeInteger(big.NewInt(v), nameForErrorMessages)
	case uint:
		return safeInteger(new(big.Int).SetUint64(uint64(v)), nameForErrorMessages)
	case uint8:
		return big.NewInt(int64(v)), nil
	case uint16:
		return big.NewInt(int64(v)), nil
	case uint32:
		return big.NewInt(int64(v)), nil
	case uint64:
		return safeInteger(new(big.Int).SetUint64(v), nameForErrorMessages)
	default:
		return nil, newError(KindType, "POD-JSON-011",
			"value %s has unexpected type %T: numeric values must be encoded as a number or string", nameForErrorMessages, numericValue)
	}
}

func safeInteger(n *big.Int, nameForErrorMessages string) (*big.Int, error) {
	if n.Cmp(maxSafeBig) > 0 || n.Cmp(minSafeBig) < 0 {
		return nil, newError(KindRange, "POD-JSON-012",
			"numeric value %s is too large to be safely represented in JSON and must be stringified instead", nameForErrorMessages)
	}
	return n, nil
}

func floatToBigInt(f float64, nameForErrorMessages string) (*big.Int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, newError(KindRange, "POD-JSON-013",
			"numeric value %s is not an integer", nameForErrorMessages)
	}
	if f > MaxSafeInteger || f < MinSafeInteger {
		return nil, newError(KindRange, "POD-JSON-012",
			"numeric value %s is too large to be safely represented in JSON and must be stringified instead", nameForErrorMessages)
	}
	return big.NewInt(int64(f)), nil
}

// parseBigIntString parses an optionally signed decimal integer, or an
// unsigned 0x, 0o or 0b prefixed integer. Surrounding whitespace is ignored,
// and a blank string is zero.
func parseBigIntString(s string) (*big.Int, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return new(big.Int), nil
	}
	base := 10
	digits := t
	if len(t) > 2 && t[0] == '0' {
		switch t[1] {
		case 'x', 'X':
			base, digits = 16, t[2:]
		case 'o', 'O':
			base, digits = 8, t[2:]
		case 'b', 'B':
			base, digits = 2, t[2:]
		}
	}
	if base == 10 && (strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-")) {
		if len(digits) == 1 {
			return nil, newError(KindSyntax, "POD-JSON-010", "cannot convert %q to an integer", s)
		}
	} else if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return nil, newError(KindSyntax, "POD-JSON-010", "cannot convert %q to an integer", s)
	}
	if strings.Contains(digits, "_") {
		return nil, newError(KindSyntax, "POD-JSON-010", "cannot convert %q to an integer", s)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, newError(KindSyntax, "POD-JSON-010", "cannot convert %q to an integer", s)
	}
	return n, nil
}

// BigIntToSimplestJSON returns the shortest lossless JSON encoding of n: an
// int64 within the safe integer range, otherwise a 0x-prefixed hex string
// for positive values or a decimal string for negative values. No bounds
// are enforced.
func BigIntToSimplestJSON(n *big.Int) any {
	if n.Cmp(maxSafeBig) <= 0 && n.Cmp(minSafeBig) >= 0 {
		return n.Int64()
	}
	if n.Sign() > 0 {
		return "0x" + n.Text(16)
	}
	// Hex is not used for negatives since common parsers reject "-0x...".
	return n.String()
}

// ValueToJSON returns the smallest tagged JSON shape for v.
func ValueToJSON(v Value, nameForErrorMessages string) (any, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	v, err := CheckValue(nameForErrorMessages, v)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case TypeString:
		return v.Value.(string), nil
	case TypeInt:
		simplest := BigIntToSimplestJSON(v.Value.(*big.Int))
		if n, ok := simplest.(int64); ok {
			return n, nil
		}
		return map[string]any{string(TypeInt): simplest}, nil
	case TypeCryptographic:
		return map[string]any{string(TypeCryptographic): BigIntToSimplestJSON(v.Value.(*big.Int))}, nil
	case TypeEdDSAPublicKey:
		return map[string]any{string(TypeEdDSAPublicKey): v.Value.(string)}, nil
	default:
		return nil, newError(KindType, "POD-VALUE-003",
			"value %s has unhandled POD value type %q", nameForErrorMessages, v.Type)
	}
}

// EntriesToJSON converts entries to their smallest tagged JSON form.
func EntriesToJSON(entries Entries) (JSONEntries, error) {
	if entries == nil {
		return nil, newError(KindType, "POD-TYPE-001", "invalid value for entry podEntries: expected type object")
	}
	out := make(JSONEntries, len(entries))
	for name, v := range entries {
		if _, err := CheckName(name); err != nil {
			return nil, err
		}
		jv, err := ValueToJSON(v, name)
		if err != nil {
			return nil, err
		}
		out[name] = jv
	}
	return out, nil
}

// MarshalJSONEntries encodes entries as tagged JSON text.
func MarshalJSONEntries(entries Entries) ([]byte, error) {
	jsonEntries, err := EntriesToJSON(entries)
	if err != nil {
		return nil, err
	}
	return marshalJSON(jsonEntries)
}

// UnmarshalJSONEntries parses tagged JSON text into entries.
func UnmarshalJSONEntries(data []byte) (Entries, error) {
	var jsonEntries JSONEntries
	if err := unmarshalJSON(data, &jsonEntries); err != nil {
		return nil, err
	}
	return EntriesFromJSON(jsonEntries)
}

// marshalJSON encodes v without HTML escaping and without a trailing newline.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, wrapError(KindInternal, "POD-JSON-020", err, "cannot encode JSON")
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 as raw UTF-8, which
// encoding/json always escapes, so output matches JSON.stringify byte for
// byte.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// unmarshalJSON decodes a single JSON document, keeping numbers as
// json.Number so that large integers are not rounded.
func unmarshalJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return wrapError(KindType, "POD-JSON-021", err, "unexpected JSON type")
		}
		return wrapError(KindSyntax, "POD-JSON-022", err, "invalid JSON")
	}
	if dec.More() {
		return newError(KindSyntax, "POD-JSON-022", "invalid JSON: unexpected data after top-level value")
	}
	return nil
}
