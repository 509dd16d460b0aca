package pod

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBigIntToSimplestJSON(t *testing.T) {
	twoTo53 := new(big.Int).Lsh(big.NewInt(1), 53)
	big1, _ := new(big.Int).SetString("1234567890912345678901234567890", 10)

	cases := []struct {
		in   *big.Int
		want any
	}{
		{big.NewInt(0), int64(0)},
		{big.NewInt(-1), int64(-1)},
		{big.NewInt(MaxSafeInteger), int64(MaxSafeInteger)},
		{big.NewInt(MinSafeInteger), int64(MinSafeInteger)},
		{twoTo53, "0x20000000000000"},
		{new(big.Int).Neg(twoTo53), "-9007199254740992"},
		{IntMax, "0x7fffffffffffffff"},
		{big1, "0xf951a9fce668f22f345ef0ad2"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, BigIntToSimplestJSON(tc.in), tc.in.String())
	}
}

func TestBigIntFromJSON(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{json.Number("123"), "123"},
		{json.Number("-5"), "-5"},
		{json.Number("1e3"), "1000"},
		{float64(42), "42"},
		{int64(MaxSafeInteger), "9007199254740991"},
		{"123", "123"},
		{"-9007199254740992", "-9007199254740992"},
		{"0x7fffffffffffffff", "9223372036854775807"},
		{"0XFF", "255"},
		{"0o17", "15"},
		{"0b101", "5"},
		{" 7 ", "7"},
		{"", "0"},
		{"  ", "0"},
	}
	for _, tc := range cases {
		n, err := BigIntFromJSON(tc.in, "n")
		require.NoError(t, err, "%v", tc.in)
		require.Equal(t, tc.want, n.String(), "%v", tc.in)
	}

	errCases := []struct {
		in   any
		kind Kind
	}{
		{json.Number("9007199254740992"), KindRange},
		{float64(1.5), KindRange},
		{int64(1) << 60, KindRange},
		{"abc", KindSyntax},
		{"-0x10", KindSyntax},
		{"0x", KindSyntax},
		{"1_000", KindSyntax},
		{"12.5", KindSyntax},
		{true, KindType},
		{nil, KindType},
	}
	for _, tc := range errCases {
		_, err := BigIntFromJSON(tc.in, "n")
		require.Error(t, err, "%v", tc.in)
		require.True(t, IsKind(err, tc.kind), "%v: %v", tc.in, err)
	}
}

func TestValueFromJSON_Shapes(t *testing.T) {
	pk, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)

	cases := []struct {
		name string
		in   any
		want Value
	}{
		{"bare string", "hello", NewStringValue("hello")},
		{"bare number", json.Number("123"), NewIntValue(123)},
		{"single-key string", map[string]any{"string": "0x10"}, NewStringValue("0x10")},
		{"single-key int hex", map[string]any{"int": "0x7fffffffffffffff"}, NewBigIntValue(IntMax)},
		{"single-key cryptographic", map[string]any{"cryptographic": json.Number("7")}, NewCryptographicValue(big.NewInt(7))},
		{"single-key pubkey", map[string]any{"eddsa_pubkey": pk}, NewEdDSAPublicKeyValue(pk)},
		{"type and value", map[string]any{"type": "cryptographic", "value": "123"}, NewCryptographicValue(big.NewInt(123))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ValueFromJSON(tc.in, "v")
			require.NoError(t, err)
			require.Equal(t, tc.want.Type, v.Type)
			require.Equal(t, valueString(tc.want), valueString(v))
		})
	}
}

func valueString(v Value) string {
	if n, ok := v.Value.(*big.Int); ok {
		return n.String()
	}
	return v.Value.(string)
}

func TestValueFromJSON_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind Kind
	}{
		{"array", []any{"x"}, KindType},
		{"empty object", map[string]any{}, KindType},
		{"two unrelated keys", map[string]any{"int": json.Number("1"), "string": "x"}, KindType},
		{"type without value", map[string]any{"type": "int"}, KindType},
		{"non-string type", map[string]any{"type": json.Number("1"), "value": "x"}, KindType},
		{"unknown type", map[string]any{"bytes": "00"}, KindType},
		{"int as bool", map[string]any{"int": true}, KindType},
		{"string as number", map[string]any{"string": json.Number("1")}, KindType},
		{"negative int", json.Number("-1"), KindRange},
		{"unsafe bare number", json.Number("9007199254740993"), KindRange},
		{"int too big", map[string]any{"int": "0x8000000000000000"}, KindRange},
		{"bad numeric string", map[string]any{"int": "twelve"}, KindSyntax},
		{"bool", true, KindType},
		{"null", nil, KindType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValueFromJSON(tc.in, "v")
			require.Error(t, err)
			require.True(t, IsKind(err, tc.kind), "%v", err)
		})
	}
}

func TestEntriesToJSON_SmallestShape(t *testing.T) {
	pk, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)
	entries := Entries{
		"s":        NewStringValue("hello"),
		"small":    NewIntValue(123),
		"large":    NewBigIntValue(IntMax),
		"crypto":   NewCryptographicValue(big.NewInt(5)),
		"bigCrypt": NewCryptographicValue(CryptographicMax),
		"owner":    NewEdDSAPublicKeyValue(pk),
	}
	out, err := EntriesToJSON(entries)
	require.NoError(t, err)
	require.Equal(t, "hello", out["s"])
	require.Equal(t, int64(123), out["small"])
	require.Equal(t, map[string]any{"int": "0x7fffffffffffffff"}, out["large"])
	require.Equal(t, map[string]any{"cryptographic": int64(5)}, out["crypto"])
	require.Equal(t, map[string]any{"cryptographic": "0x" + CryptographicMax.Text(16)}, out["bigCrypt"])
	require.Equal(t, map[string]any{"eddsa_pubkey": pk}, out["owner"])
}

func TestMarshalJSONEntries_RoundTrip(t *testing.T) {
	entries := sampleEntries(t)
	data, err := MarshalJSONEntries(entries)
	require.NoError(t, err)

	back, err := UnmarshalJSONEntries(data)
	require.NoError(t, err)
	requireEntriesEqual(t, entries, back)
}

func TestMarshalJSONEntries_Text(t *testing.T) {
	data, err := MarshalJSONEntries(Entries{
		"a": NewIntValue(1),
		"b": NewStringValue("<b>"),
		"c": NewCryptographicValue(new(big.Int).Lsh(big.NewInt(1), 60)),
	})
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":"<b>","c":{"cryptographic":"0x1000000000000000"}}`, string(data))
}

func TestUnmarshalJSONEntries_Errors(t *testing.T) {
	_, err := UnmarshalJSONEntries([]byte(`{"a":`))
	require.True(t, IsKind(err, KindSyntax))

	_, err = UnmarshalJSONEntries([]byte(`["a"]`))
	require.True(t, IsKind(err, KindType))

	_, err = UnmarshalJSONEntries([]byte(`{"a":1} {"b":2}`))
	require.True(t, IsKind(err, KindSyntax))

	_, err = UnmarshalJSONEntries([]byte(`{"bad-name":1}`))
	require.Equal(t, "POD-NAME-002", RuleID(err))

	_, err = UnmarshalJSONEntries([]byte(`null`))
	require.True(t, IsKind(err, KindType))
}

func requireEntriesEqual(t *testing.T, want, got Entries) {
	t.Helper()
	require.Len(t, got, len(want))
	for name, w := range want {
		g, ok := got[name]
		require.True(t, ok, name)
		require.Equal(t, w.Type, g.Type, name)
		require.Equal(t, valueString(w), valueString(g), name)
	}
}
