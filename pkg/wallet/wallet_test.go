package wallet

import (
	"crypto/ecdsa"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// personalSign mimics what a browser wallet returns.
func personalSign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	sig, err := Sign(key, message)
	require.NoError(t, err)
	return sig
}

func TestRecoverAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	msg := "Sign this message to authenticate with RPM: 4f1c"

	recovered, err := RecoverAddress(msg, personalSign(t, key, msg))
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(addr), recovered)
}

func TestVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	sig := personalSign(t, key, "code-123")

	assert.True(t, Verify("code-123", sig, addr))
	assert.True(t, Verify("code-123", sig, strings.ToLower(addr)))
	assert.False(t, Verify("code-124", sig, addr))
	assert.False(t, Verify("code-123", personalSign(t, other, "code-123"), addr))
	assert.False(t, Verify("code-123", "0x1234", addr))
	assert.False(t, Verify("code-123", "not-hex", addr))
}
