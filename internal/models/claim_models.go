package models

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fixed claim parameters of the registration endpoint
const (
	ClaimChainID             = 10
	ClaimTokenType           = "HYPER"
	ClaimEligibleAddressType = "ethereum"
)

// Outcome terminal result of one account workflow
type Outcome string

const (
	OutcomeNotEligible       Outcome = "not_eligible"       // eligibility query said no
	OutcomeAlreadyRegistered Outcome = "already_registered" // registration exists already
	OutcomeRegisteredSuccess Outcome = "registered_success" // submission accepted
	OutcomeRegisteredFailure Outcome = "registered_failure" // submission rejected
	OutcomeWorkerError       Outcome = "worker_error"       // retries exhausted or unrecoverable error
)

func (o Outcome) String() string {
	return string(o)
}

// AccountSource raw account row as produced by a loader
type AccountSource struct {
	SecretKey string // hex private key, optional 0x prefix
	Proxy     string // empty means direct connection
}

// Account one wallet taking part in the run
type Account struct {
	key        *ecdsa.PrivateKey
	address    common.Address
	proxy      string
	sequenceID int
}

// NewAccount parses the key material of src. A malformed key yields a *SigningError.
func NewAccount(src AccountSource, sequenceID int) (*Account, error) {
	raw := strings.TrimSpace(src.SecretKey)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" {
		return nil, &SigningError{Err: errors.New("empty private key")}
	}

	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, &SigningError{Err: fmt.Errorf("invalid private key: %w", err)}
	}

	return &Account{
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		proxy:      strings.TrimSpace(src.Proxy),
		sequenceID: sequenceID,
	}, nil
}

// Address EIP-55 checksummed address derived from the key
func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

func (a *Account) Proxy() string {
	return a.proxy
}

// SequenceID 1-based position in the input batch
func (a *Account) SequenceID() int {
	return a.sequenceID
}

// EligibilityResult response of the eligibility query
type EligibilityResult struct {
	IsEligible bool
	Amount     string // set only when eligible
}

// RegistrationStatus response of the registration lookup
type RegistrationStatus struct {
	AlreadyRegistered bool
}

// SubmissionResult response of the registration submission
type SubmissionResult struct {
	Success bool
}

// ClaimDomain EIP-712 domain separator fields
type ClaimDomain struct {
	Name    string
	Version string
}

// ClaimPayload EIP-712 message fields
type ClaimPayload struct {
	EligibleAddress  string
	ChainID          string
	Amount           string
	ReceivingAddress string
	TokenType        string
}

// ClaimAuthorization structured data covered by a claim signature
type ClaimAuthorization struct {
	Domain  ClaimDomain
	Payload ClaimPayload
}

// Result what one account workflow ended with
type Result struct {
	SequenceID int
	Address    string
	Outcome    Outcome
	Amount     string
	Attempts   int
	Err        error
}

// Exhausted reports whether the workflow gave up after using its retry budget
func (r Result) Exhausted() bool {
	return errors.Is(r.Err, ErrWorkerExhausted)
}
