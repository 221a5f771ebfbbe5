// Package signer produces EIP-712 claim authorizations for the Hyperlane
// registration endpoint.
package signer

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"hyperlane-registration/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	DomainName    = "Hyperlane"
	DomainVersion = "1"
	PrimaryType   = "Message"
	ClaimChainID  = "10"
)

// claimTypes fixed schema of the domain separator and the claim message
var claimTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
	},
	PrimaryType: {
		{Name: "eligibleAddress", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "amount", Type: "string"},
		{Name: "receivingAddress", Type: "string"},
		{Name: "tokenType", Type: "string"},
	},
}

// Signature 65-byte recoverable signature r || s || v, v in {27, 28}
type Signature []byte

// Hex lowercase hex without prefix
func (s Signature) Hex() string {
	return hex.EncodeToString(s)
}

// Prefixed lowercase hex with 0x prefix, the form the claim service expects
func (s Signature) Prefixed() string {
	return hexutil.Encode(s)
}

// Signer signs claim authorizations with one account key
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// New wraps key. A nil key is a *models.SigningError.
func New(key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, &models.SigningError{Err: errors.New("nil private key")}
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

// Authorization self-claim payload: eligible and receiving address are the same
func Authorization(address, amount string) models.ClaimAuthorization {
	return models.ClaimAuthorization{
		Domain: models.ClaimDomain{
			Name:    DomainName,
			Version: DomainVersion,
		},
		Payload: models.ClaimPayload{
			EligibleAddress:  address,
			ChainID:          ClaimChainID,
			Amount:           amount,
			ReceivingAddress: address,
			TokenType:        models.ClaimTokenType,
		},
	}
}

// TypedData EIP-712 representation of auth
func TypedData(auth models.ClaimAuthorization) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       claimTypes,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    auth.Domain.Name,
			Version: auth.Domain.Version,
		},
		Message: apitypes.TypedDataMessage{
			"eligibleAddress":  auth.Payload.EligibleAddress,
			"chainId":          auth.Payload.ChainID,
			"amount":           auth.Payload.Amount,
			"receivingAddress": auth.Payload.ReceivingAddress,
			"tokenType":        auth.Payload.TokenType,
		},
	}
}

// Digest keccak256("\x19\x01" || domainSeparator || hashStruct(message))
func Digest(auth models.ClaimAuthorization) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(TypedData(auth))
	if err != nil {
		return nil, fmt.Errorf("failed to hash claim authorization: %w", err)
	}
	return hash, nil
}

// Sign signs the claim of amount for address. RFC6979 nonces make the
// result deterministic for identical inputs.
func (s *Signer) Sign(address, amount string) (Signature, error) {
	digest, err := Digest(Authorization(address, amount))
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, &models.SigningError{Err: err}
	}
	sig[crypto.RecoveryIDOffset] += 27

	return Signature(sig), nil
}

// Recover returns the address that produced sig over auth
func Recover(auth models.ClaimAuthorization, sig Signature) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}

	digest, err := Digest(auth)
	if err != nil {
		return common.Address{}, err
	}

	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
