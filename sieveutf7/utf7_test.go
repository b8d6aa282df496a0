package sieveutf7

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"INBOX",
		"Sent Items",
		"Entw&APw-rfe",       // already-escaped ampersand form
		"Füße",               // umlauts, BMP only
		"日本語",                 // outside BMP-adjacent CJK, no surrogates needed
		"𝔘𝔫𝔦𝔠𝔬𝔡𝔢",             // astral plane, exercises surrogate pairs
		"plain&ampersand",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			encoded := Encode(name)
			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, name, decoded)
		})
	}
}

func TestEncodeLeavesASCIIAlone(t *testing.T) {
	assert.Equal(t, "INBOX/Work", Encode("INBOX/Work"))
}

func TestEncodeEscapesAmpersand(t *testing.T) {
	assert.Equal(t, "&-", Encode("&"))
}

func TestDecodeUnterminatedShiftFails(t *testing.T) {
	_, err := Decode("&Jjo")
	assert.Error(t, err)
}

func TestDecodePassesThroughASCII(t *testing.T) {
	got, err := Decode("INBOX.Drafts")
	require.NoError(t, err)
	assert.Equal(t, "INBOX.Drafts", got)
}
