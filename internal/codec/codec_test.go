package codec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bandi-Aditya/OfflineExam/internal/codec"
)

type testPayload struct {
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
}

func TestRoundtrip(t *testing.T) {
	key, err := codec.GenerateKey()
	require.NoError(t, err)

	in := testPayload{Title: "Midterm", Questions: []string{"Q1", "Q2"}}

	sealed, err := codec.Encode(in, key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "Midterm", "ciphertext must not leak plaintext")

	var out testPayload
	require.NoError(t, codec.Decode(sealed, key, &out))
	assert.Equal(t, in, out)
}

func TestWrongKeyRejected(t *testing.T) {
	key1, err := codec.GenerateKey()
	require.NoError(t, err)
	key2, err := codec.GenerateKey()
	require.NoError(t, err)

	sealed, err := codec.Encode(testPayload{Title: "Final"}, key1)
	require.NoError(t, err)

	var out testPayload
	err = codec.Decode(sealed, key2, &out)
	assert.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestTamperedCiphertextRejected(t *testing.T) {
	key, err := codec.GenerateKey()
	require.NoError(t, err)

	sealed, err := codec.Encode(testPayload{Title: "Final"}, key)
	require.NoError(t, err)

	// Flip one base64 character without breaking the encoding.
	tampered := []byte(sealed)
	for i, c := range tampered {
		if c != '=' {
			if c == 'A' {
				tampered[i] = 'B'
			} else {
				tampered[i] = 'A'
			}
			break
		}
	}

	var out testPayload
	err = codec.Decode(string(tampered), key, &out)
	assert.ErrorIs(t, err, codec.ErrCorrupt)
}

func TestKeyTransportRoundtrip(t *testing.T) {
	key, err := codec.GenerateKey()
	require.NoError(t, err)

	decoded, err := codec.DecodeKey(codec.EncodeKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestShortKeyRejected(t *testing.T) {
	_, err := codec.Encode(testPayload{}, []byte("too-short"))
	assert.ErrorIs(t, err, codec.ErrInvalidKey)

	_, err = codec.DecodeKey(strings.Repeat("A", 8) + "==")
	assert.Error(t, err)
}
