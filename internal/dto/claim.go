package dto

// ==================== Claim service DTOs ====================

// EligibilityResponse GET /api/check-eligibility
type EligibilityResponse struct {
	Response *EligibilityPayload `json:"response"`
}

// EligibilityPayload body of the eligibility response
type EligibilityPayload struct {
	IsEligible    *bool              `json:"isEligible"`
	Eligibilities []EligibilityEntry `json:"eligibilities"`
}

// EligibilityEntry one eligible allocation
type EligibilityEntry struct {
	Amount *string `json:"amount"`
}

// RegistrationLookupResponse GET /api/get-registration-for-address
type RegistrationLookupResponse struct {
	Message *string `json:"message"` // "Success" when a registration exists
}

// SaveRegistrationRequest POST /api/save-registration
type SaveRegistrationRequest struct {
	Wallets []RegistrationWallet `json:"wallets"`
}

// RegistrationWallet one signed claim
type RegistrationWallet struct {
	EligibleAddress     string `json:"eligibleAddress"`
	ChainID             int    `json:"chainId"`
	EligibleAddressType string `json:"eligibleAddressType"`
	ReceivingAddress    string `json:"receivingAddress"`
	Signature           string `json:"signature"` // 0x-prefixed
	TokenType           string `json:"tokenType"`
	Amount              string `json:"amount"`
}

// SaveRegistrationResponse response of POST /api/save-registration
type SaveRegistrationResponse struct {
	ValidationResult *ValidationResult `json:"validationResult"`
}

// ValidationResult server side verdict on a submission
type ValidationResult struct {
	Success *bool `json:"success"`
}
