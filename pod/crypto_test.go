package pod

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey    = "AAECAwQFBgcICQABAgMEBQYHCAkAAQIDBAUGBwgJAAE"
	testPrivateKeyHex = "0001020304050607080900010203040506070809000102030405060708090001"
	otherPrivateKey   = "0101010101010101010101010101010101010101010101010101010101010101"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, s)
	return n
}

func requireBigEqual(t *testing.T, want, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	require.NotNil(t, got, msgAndArgs...)
	require.Equal(t, want.String(), got.String(), msgAndArgs...)
}

func TestStringHash_ShiftedSHA256(t *testing.T) {
	cases := map[string]string{
		"":      "402294282224820691521621923135083292147655861907023574192888269535608066744",
		"hello": "79413589009516425735881875984458315063673535229512653237262904385386810264",
		"A":     "151251200029686127063327095456320040687905427497336635391695211041155747807",
	}
	for in, want := range cases {
		requireBigEqual(t, mustBig(t, want), StringHash(in), in)
		requireBigEqual(t, StringHash(in), NameHash(in))
	}
}

func TestPoseidonVectors(t *testing.T) {
	h, err := IntHash(big.NewInt(1))
	require.NoError(t, err)
	requireBigEqual(t, mustBig(t, "18586133768512220936620570745912940619677854269274689475585506675881198879027"), h)

	h, err = MerkleTreeHash(big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	requireBigEqual(t, mustBig(t, "7853200120776062878684798364095072458815029376092732009249414926327459813530"), h)
}

func TestValueHash_DispatchesByType(t *testing.T) {
	h, err := ValueHash(NewStringValue("hello"))
	require.NoError(t, err)
	requireBigEqual(t, StringHash("hello"), h)

	intHash, err := ValueHash(NewIntValue(1))
	require.NoError(t, err)
	cryptoHash, err := ValueHash(NewCryptographicValue(big.NewInt(1)))
	require.NoError(t, err)
	requireBigEqual(t, intHash, cryptoHash)

	pk, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)
	h, err = ValueHash(NewEdDSAPublicKeyValue(pk))
	require.NoError(t, err)
	point, err := DecodePublicKey(pk)
	require.NoError(t, err)
	want, err := MerkleTreeHash(point.X, point.Y)
	require.NoError(t, err)
	requireBigEqual(t, want, h)

	_, err = ValueHash(Value{Type: "bytes", Value: "00"})
	require.True(t, IsKind(err, KindType))
}

func TestDeriveSignerPublicKey_Deterministic(t *testing.T) {
	a, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)
	b, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	fromHex, err := DeriveSignerPublicKey(testPrivateKeyHex)
	require.NoError(t, err)
	require.Equal(t, a, fromHex)

	other, err := DeriveSignerPublicKey(otherPrivateKey)
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestSignRoot_Verifies(t *testing.T) {
	root := big.NewInt(123456789)
	sig, pk, err := SignRoot(root, testPrivateKey)
	require.NoError(t, err)
	require.Len(t, sig, 128)
	require.Len(t, pk, 64)

	derived, err := DeriveSignerPublicKey(testPrivateKey)
	require.NoError(t, err)
	require.Equal(t, derived, pk)

	again, _, err := SignRoot(root, testPrivateKey)
	require.NoError(t, err)
	require.Equal(t, sig, again)

	ok, err := VerifyRootSignature(root, sig, pk)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyRootSignature(big.NewInt(123456790), sig, pk)
	require.NoError(t, err)
	require.False(t, ok)

	otherPK, err := DeriveSignerPublicKey(otherPrivateKey)
	require.NoError(t, err)
	ok, err = VerifyRootSignature(root, sig, otherPK)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignRoot_ReferenceVector(t *testing.T) {
	root := mustBig(t, "18003549444852780886592139349318927700964545643704389119309344945101355208480")
	sig, pkHex, err := SignRoot(root, testPrivateKey)
	require.NoError(t, err)
	require.Equal(t, "269de2d8f9e74682c29953f380ce81a30721838e23cf77cab8c40fcd742a5b2e"+
		"23ccf169671d8ac0bb9a21869e61b77b021e05bac121b76561b157f723cd4002", sig)

	pk, err := DecodePublicKey(pkHex)
	require.NoError(t, err)
	pkB64, err := EncodePublicKey(pk, EncodingBase64)
	require.NoError(t, err)
	require.Equal(t, "xDP3ppa3qjpSJO+zmTuvDM2eku7O4MKaP2yCCKnoHZ4", pkB64)

	ok, err := VerifyRootSignature(root, sig, pkB64)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRootSignature_AcceptsBase64(t *testing.T) {
	root := big.NewInt(42)
	sigHex, pkHex, err := SignRoot(root, testPrivateKey)
	require.NoError(t, err)

	sig, err := DecodeSignature(sigHex)
	require.NoError(t, err)
	sigB64, err := EncodeSignature(sig, EncodingBase64)
	require.NoError(t, err)
	pk, err := DecodePublicKey(pkHex)
	require.NoError(t, err)
	pkB64, err := EncodePublicKey(pk, EncodingBase64)
	require.NoError(t, err)
	require.Len(t, sigB64, 86)
	require.Len(t, pkB64, 43)

	ok, err := VerifyRootSignature(root, sigB64, pkB64)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRootSignature_MalformedInput(t *testing.T) {
	root := big.NewInt(42)
	sig, pk, err := SignRoot(root, testPrivateKey)
	require.NoError(t, err)

	_, err = VerifyRootSignature(root, "abc", pk)
	require.True(t, IsKind(err, KindType))
	_, err = VerifyRootSignature(root, sig, "abc")
	require.True(t, IsKind(err, KindType))

	// y = 2 has no matching x on the curve.
	_, err = VerifyRootSignature(root, sig, "02"+strings.Repeat("00", 31))
	require.True(t, IsKind(err, KindLookup))
	require.Equal(t, "POD-KEY-004", RuleID(err))
}

func TestSignRoot_RejectsOutOfFieldRoot(t *testing.T) {
	_, _, err := SignRoot(CryptographicMax, testPrivateKey)
	require.NoError(t, err)

	tooBig := new(big.Int).Add(CryptographicMax, big.NewInt(1))
	_, _, err = SignRoot(tooBig, testPrivateKey)
	require.True(t, IsKind(err, KindType))

	_, _, err = SignRoot(big.NewInt(1), "not a key")
	require.Equal(t, "POD-KEY-001", RuleID(err))
}

func TestEncodePrivateKey(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i % 10)
	}
	raw[31] = 1
	b64, err := EncodePrivateKey(raw, EncodingBase64)
	require.NoError(t, err)
	require.Equal(t, testPrivateKey, b64)
	hexKey, err := EncodePrivateKey(raw, EncodingHex)
	require.NoError(t, err)
	require.Equal(t, testPrivateKeyHex, hexKey)

	_, err = EncodePrivateKey(raw[:31], EncodingHex)
	require.Error(t, err)
	_, err = EncodePrivateKey(raw, "base58")
	require.Error(t, err)
}
