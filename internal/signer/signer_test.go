package signer

import (
	"math/big"
	"testing"

	"hyperlane-registration/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestSigner(t *testing.T) *Signer {
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	s, err := New(key)
	require.NoError(t, err)
	return s
}

func TestSignIsDeterministic(t *testing.T) {
	s := newTestSigner(t)
	address := s.Address().Hex()

	first, err := s.Sign(address, "1234.5")
	require.NoError(t, err)
	second, err := s.Sign(address, "1234.5")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, first[crypto.RecoveryIDOffset])

	other, err := s.Sign(address, "1234.6")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestSignatureRecoversSigner(t *testing.T) {
	s := newTestSigner(t)
	address := s.Address().Hex()

	sig, err := s.Sign(address, "42")
	require.NoError(t, err)

	recovered, err := Recover(Authorization(address, "42"), sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), recovered)

	tampered, err := Recover(Authorization(address, "43"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, s.Address(), tampered)
}

func TestDigestMatchesManualEncoding(t *testing.T) {
	address := "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	amount := "100.25"

	domainType := crypto.Keccak256([]byte("EIP712Domain(string name,string version)"))
	domainSeparator := crypto.Keccak256(
		domainType,
		crypto.Keccak256([]byte("Hyperlane")),
		crypto.Keccak256([]byte("1")),
	)

	messageType := crypto.Keccak256([]byte("Message(string eligibleAddress,uint256 chainId,string amount,string receivingAddress,string tokenType)"))
	structHash := crypto.Keccak256(
		messageType,
		crypto.Keccak256([]byte(address)),
		common.LeftPadBytes(big.NewInt(10).Bytes(), 32),
		crypto.Keccak256([]byte(amount)),
		crypto.Keccak256([]byte(address)),
		crypto.Keccak256([]byte("HYPER")),
	)
	expected := crypto.Keccak256([]byte("\x19\x01"), domainSeparator, structHash)

	digest, err := Digest(Authorization(address, amount))
	require.NoError(t, err)
	assert.Equal(t, expected, digest)
}

func TestAuthorizationIsSelfClaim(t *testing.T) {
	auth := Authorization("0xabc", "7")

	assert.Equal(t, "Hyperlane", auth.Domain.Name)
	assert.Equal(t, "1", auth.Domain.Version)
	assert.Equal(t, "0xabc", auth.Payload.EligibleAddress)
	assert.Equal(t, "0xabc", auth.Payload.ReceivingAddress)
	assert.Equal(t, "10", auth.Payload.ChainID)
	assert.Equal(t, models.ClaimTokenType, auth.Payload.TokenType)
}

func TestSignatureEncoding(t *testing.T) {
	sig := Signature{0xAB, 0x01}
	assert.Equal(t, "ab01", sig.Hex())
	assert.Equal(t, "0xab01", sig.Prefixed())
}

func TestNewRejectsNilKey(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, models.IsSigningError(err))
}
