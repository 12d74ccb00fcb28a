package vault_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/vault"
)

type creds struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
	Bucket          string `json:"bucketName"`
	Endpoint        string `json:"endpoint,omitempty"`
}

var sample = creds{
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
	Region:          "us-west-2",
	Bucket:          "documents",
}

func newVault(t *testing.T, key string) *vault.Vault {
	t.Helper()

	v, err := vault.New(key)
	require.NoError(t, err)

	return v
}

func TestRoundTrip(t *testing.T) {
	for _, key := range []string{
		"0123456789abcdef0123456789abcdef", // 32 字节，直接使用
		"a passphrase that needs stretching",
	} {
		v := newVault(t, key)

		enc, err := v.Encrypt(sample)
		require.NoError(t, err)

		iv, err := hex.DecodeString(enc.IV)
		require.NoError(t, err)
		assert.Len(t, iv, vault.IVSize)

		tag, err := hex.DecodeString(enc.AuthTag)
		require.NoError(t, err)
		assert.Len(t, tag, vault.TagSize)

		var got creds
		require.NoError(t, v.Decrypt(enc, &got))
		assert.Equal(t, sample, got)
	}
}

func TestFreshIVPerCall(t *testing.T) {
	v := newVault(t, "passphrase")

	a, err := v.Encrypt(sample)
	require.NoError(t, err)
	b, err := v.Encrypt(sample)
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

// flipHex 翻转 hex 字符串第一个字节的最低位.
func flipHex(t *testing.T, s string) string {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	b[0] ^= 0x01

	return hex.EncodeToString(b)
}

func TestTamperDetected(t *testing.T) {
	v := newVault(t, "passphrase")

	enc, err := v.Encrypt(sample)
	require.NoError(t, err)

	tampered := []vault.EncryptedCredentials{
		{Ciphertext: flipHex(t, enc.Ciphertext), IV: enc.IV, AuthTag: enc.AuthTag},
		{Ciphertext: enc.Ciphertext, IV: flipHex(t, enc.IV), AuthTag: enc.AuthTag},
		{Ciphertext: enc.Ciphertext, IV: enc.IV, AuthTag: flipHex(t, enc.AuthTag)},
		{Ciphertext: "zz", IV: enc.IV, AuthTag: enc.AuthTag},
		{Ciphertext: enc.Ciphertext, IV: enc.IV[:8], AuthTag: enc.AuthTag},
	}

	for i := range tampered {
		var got creds
		err := v.Decrypt(&tampered[i], &got)
		require.ErrorIs(t, err, errs.ErrDecryption, "case %d", i)
		assert.Empty(t, got.SecretAccessKey)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	enc, err := newVault(t, "key-one").Encrypt(sample)
	require.NoError(t, err)

	var got creds
	require.ErrorIs(t, newVault(t, "key-two").Decrypt(enc, &got), errs.ErrDecryption)
}

func TestPassphraseDerivationIsDeterministic(t *testing.T) {
	enc, err := newVault(t, "same passphrase").Encrypt(sample)
	require.NoError(t, err)

	var got creds
	require.NoError(t, newVault(t, "same passphrase").Decrypt(enc, &got))
	assert.Equal(t, sample, got)
}

func TestEmptyKey(t *testing.T) {
	_, err := vault.New("")
	require.ErrorIs(t, err, vault.ErrEmptyKey)
}

func TestGenerateKey(t *testing.T) {
	k, err := vault.GenerateKey()
	require.NoError(t, err)
	assert.Len(t, k, 64)
	assert.Equal(t, strings.ToLower(k), k)

	_, err = vault.New(k)
	require.NoError(t, err)
}
