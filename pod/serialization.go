package pod

import (
	"encoding/json"
	"math/big"
)

// serializedValue is the full-fidelity JSON shape of a single value. The
// value is a JSON string or a JSON number of arbitrary precision.
type serializedValue struct {
	Type  ValueType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// SerializeEntries encodes entries in the full-fidelity JSON format, which
// keeps every type tag and writes integers as bare JSON numbers of any size.
// DeserializeEntries reverses it exactly.
func SerializeEntries(entries Entries) (string, error) {
	b, err := serializeEntries(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func serializeEntries(entries Entries) ([]byte, error) {
	if err := CheckEntries(entries); err != nil {
		return nil, err
	}
	out := make(map[string]serializedValue, len(entries))
	for name, v := range entries {
		var raw []byte
		var err error
		switch rv := v.Value.(type) {
		case string:
			raw, err = marshalJSON(rv)
		case *big.Int:
			raw = []byte(rv.String())
		}
		if err != nil {
			return nil, err
		}
		out[name] = serializedValue{Type: v.Type, Value: raw}
	}
	return marshalJSON(out)
}

// DeserializeEntries decodes entries from the full-fidelity JSON format.
func DeserializeEntries(serialized string) (Entries, error) {
	var raw map[string]json.RawMessage
	if err := unmarshalJSON([]byte(serialized), &raw); err != nil {
		return nil, err
	}
	return deserializeEntries(raw)
}

func deserializeEntries(raw map[string]json.RawMessage) (Entries, error) {
	if raw == nil {
		return nil, newError(KindType, "POD-SER-001", "serialized POD entries must be a JSON object")
	}
	out := make(Entries, len(raw))
	for name, data := range raw {
		if _, err := CheckName(name); err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := unmarshalJSON(data, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			return nil, newError(KindType, "POD-VALUE-001", "POD value for %s cannot be undefined", name)
		}
		for key := range fields {
			if key != "type" && key != "value" {
				return nil, newError(KindType, "POD-SER-002", "POD value for %s has unexpected field %q", name, key)
			}
		}
		typeName, _ := fields["type"].(string)
		v := Value{Type: ValueType(typeName), Value: fields["value"]}
		if num, ok := v.Value.(json.Number); ok {
			n, ok := new(big.Int).SetString(num.String(), 10)
			if !ok {
				return nil, newError(KindSyntax, "POD-SER-003", "value %s is not an integer: %s", name, num)
			}
			v.Value = n
		}
		v, err := CheckValue(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// ValueToRawValue returns the simplified-JSON form of v: a *big.Int for
// numeric types, or a string. EdDSA public keys carry a "pod_eddsa_pubkey:"
// prefix, and strings which would be mistaken for a prefixed value are
// escaped with "pod_string:".
func ValueToRawValue(v Value, nameForErrorMessages string) (any, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	v, err := CheckValue(nameForErrorMessages, v)
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case TypeEdDSAPublicKey:
		return "pod_" + string(TypeEdDSAPublicKey) + ":" + v.Value.(string), nil
	case TypeString:
		s := v.Value.(string)
		if StringTypeRegex.MatchString(s) {
			return "pod_" + string(TypeString) + ":" + s, nil
		}
		return s, nil
	default:
		return v.Value, nil
	}
}

// ValueFromRawValue infers a typed value from its simplified-JSON form.
//
// Integers above IntMax become cryptographic and all others int, so a small
// cryptographic value comes back as int. Strings with a reserved prefix are
// decoded to the named type; all other strings are plain strings.
func ValueFromRawValue(rawValue any, nameForErrorMessages string) (Value, error) {
	if nameForErrorMessages == "" {
		nameForErrorMessages = unnamed
	}
	if num, ok := rawValue.(json.Number); ok {
		n, ok := new(big.Int).SetString(num.String(), 10)
		if !ok {
			return Value{}, newError(KindSyntax, "POD-SIMPLE-003", "value %s is not an integer: %s", nameForErrorMessages, num)
		}
		rawValue = n
	}
	var v Value
	switch rv := rawValue.(type) {
	case *big.Int:
		if rv == nil {
			return Value{}, newError(KindType, "POD-VALUE-001", "POD value for %s cannot be undefined", nameForErrorMessages)
		}
		if rv.Cmp(IntMax) > 0 {
			v = Value{Type: TypeCryptographic, Value: new(big.Int).Set(rv)}
		} else {
			v = Value{Type: TypeInt, Value: new(big.Int).Set(rv)}
		}
	case string:
		m := StringTypeRegex.FindStringSubmatch(rv)
		if m == nil {
			v = Value{Type: TypeString, Value: rv}
			break
		}
		valueType, err := CheckStringEncodedValueType(nameForErrorMessages, m[1])
		if err != nil {
			return Value{}, err
		}
		v = Value{Type: valueType, Value: m[2]}
	default:
		return Value{}, newError(KindType, "POD-SIMPLE-001",
			"invalid serialized POD value %v for %s", rawValue, nameForErrorMessages)
	}
	return CheckValue(nameForErrorMessages, v)
}

// EntriesToSimplifiedJSON encodes entries in the simplified format, which
// drops type tags. See ValueToRawValue.
func EntriesToSimplifiedJSON(entries Entries) (string, error) {
	if err := CheckEntries(entries); err != nil {
		return "", err
	}
	simplified := make(map[string]any, len(entries))
	for name, v := range entries {
		rv, err := ValueToRawValue(v, name)
		if err != nil {
			return "", err
		}
		simplified[name] = rv
	}
	b, err := marshalJSON(simplified)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EntriesFromSimplifiedJSON decodes entries from the simplified format,
// inferring types as described by ValueFromRawValue.
func EntriesFromSimplifiedJSON(simplifiedJSON string) (Entries, error) {
	var raw map[string]any
	if err := unmarshalJSON([]byte(simplifiedJSON), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, newError(KindType, "POD-SIMPLE-004", "simplified POD entries must be a JSON object")
	}
	out := make(Entries, len(raw))
	for name, rv := range raw {
		if _, err := CheckName(name); err != nil {
			return nil, err
		}
		v, err := ValueFromRawValue(rv, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
