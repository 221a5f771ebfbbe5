package services

import (
	"context"
	"errors"
	"fmt"

	"hyperlane-registration/internal/dto"
	"hyperlane-registration/internal/metrics"
	"hyperlane-registration/internal/models"
	"hyperlane-registration/internal/retry"
	"hyperlane-registration/internal/signer"

	"github.com/sirupsen/logrus"
)

// ClaimAPI remote calls made by an account workflow
type ClaimAPI interface {
	CheckEligibility(ctx context.Context, address string) (*models.EligibilityResult, error)
	GetRegistration(ctx context.Context, address string) (*models.RegistrationStatus, error)
	SubmitRegistration(ctx context.Context, wallets []dto.RegistrationWallet) (*models.SubmissionResult, error)
}

// AuthorizationSigner signs the claim of amount for address
type AuthorizationSigner interface {
	Sign(address, amount string) (signer.Signature, error)
}

// workerState position of a workflow in the claim state machine
type workerState string

const (
	stateStart               workerState = "start"
	stateCheckedEligibility  workerState = "checked_eligibility"
	stateCheckedRegistration workerState = "checked_registration"
	stateSigning             workerState = "signing"
	stateSubmitting          workerState = "submitting"
	stateDone                workerState = "done"
)

// AccountWorker runs the claim workflow for a single account
type AccountWorker struct {
	account *models.Account
	client  ClaimAPI
	signer  AuthorizationSigner
	policy  retry.Policy
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewAccountWorker creates a worker. policy wraps the whole workflow as one unit.
func NewAccountWorker(account *models.Account, client ClaimAPI, s AuthorizationSigner, policy retry.Policy, logger *logrus.Logger, m *metrics.Metrics) *AccountWorker {
	return &AccountWorker{
		account: account,
		client:  client,
		signer:  s,
		policy:  policy,
		logger:  logger,
		metrics: m,
	}
}

// Run executes the workflow under the retry policy. It never returns an error:
// an exhausted budget becomes OutcomeWorkerError with models.ErrWorkerExhausted.
func (w *AccountWorker) Run(ctx context.Context) models.Result {
	address := w.account.Address().Hex()
	entry := w.logger.WithFields(logrus.Fields{
		"seq":     w.account.SequenceID(),
		"address": address,
	})

	policy := w.policy
	if policy.IsFinal == nil {
		policy.IsFinal = models.IsSigningError
	}
	onFailure := policy.OnFailure
	policy.OnFailure = func(attempt int, err error) {
		entry.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Error("check_eligible failed")
		w.metrics.ObserveAttemptFailure(errorType(err))
		if onFailure != nil {
			onFailure(attempt, err)
		}
	}

	result, attempts, err := retry.Do(ctx, policy, func(ctx context.Context) (models.Result, error) {
		return w.runOnce(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			err = fmt.Errorf("%w: %w", models.ErrWorkerExhausted, err)
		}
		result = models.Result{Outcome: models.OutcomeWorkerError, Err: err}
	}

	result.SequenceID = w.account.SequenceID()
	result.Address = address
	result.Attempts = attempts
	return result
}

// runOnce is one pass through the state machine
func (w *AccountWorker) runOnce(ctx context.Context, entry *logrus.Entry) (models.Result, error) {
	address := w.account.Address().Hex()
	state := stateStart
	transition := func(next workerState) {
		entry.WithFields(logrus.Fields{"from": state, "to": next}).Debug("workflow state")
		state = next
	}

	eligibility, err := w.client.CheckEligibility(ctx, address)
	if err != nil {
		return models.Result{}, err
	}
	transition(stateCheckedEligibility)

	if !eligibility.IsEligible {
		entry.Info("not eligible")
		transition(stateDone)
		return models.Result{Outcome: models.OutcomeNotEligible}, nil
	}
	amount := eligibility.Amount
	entry = entry.WithFields(logrus.Fields{
		"amount": amount,
		"token":  models.ClaimTokenType,
	})

	registration, err := w.client.GetRegistration(ctx, address)
	if err != nil {
		return models.Result{}, err
	}
	transition(stateCheckedRegistration)

	if registration.AlreadyRegistered {
		entry.Info("eligible, already registered")
		transition(stateDone)
		return models.Result{Outcome: models.OutcomeAlreadyRegistered, Amount: amount}, nil
	}
	entry.Info("eligible, not registered")

	transition(stateSigning)
	sig, err := w.signer.Sign(address, amount)
	if err != nil {
		return models.Result{}, err
	}

	transition(stateSubmitting)
	submission, err := w.client.SubmitRegistration(ctx, []dto.RegistrationWallet{{
		EligibleAddress:     address,
		ChainID:             models.ClaimChainID,
		EligibleAddressType: models.ClaimEligibleAddressType,
		ReceivingAddress:    address,
		Signature:           sig.Prefixed(),
		TokenType:           models.ClaimTokenType,
		Amount:              amount,
	}})
	if err != nil {
		return models.Result{}, err
	}
	transition(stateDone)

	if submission.Success {
		entry.WithField("result", "success").Info("registered")
		return models.Result{Outcome: models.OutcomeRegisteredSuccess, Amount: amount}, nil
	}
	entry.Warn("registration rejected, not registered")
	return models.Result{Outcome: models.OutcomeRegisteredFailure, Amount: amount}, nil
}

func errorType(err error) string {
	var (
		te *models.TransportError
		pe *models.ProtocolError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "protocol"
	case models.IsSigningError(err):
		return "signing"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// NewWorkerFactory builds a WorkerFactory creating one ClaimClient and Signer per account
func NewWorkerFactory(newClient func(account *models.Account) (ClaimAPI, error), policy retry.Policy, logger *logrus.Logger, m *metrics.Metrics) WorkerFactory {
	return func(account *models.Account) (Worker, error) {
		client, err := newClient(account)
		if err != nil {
			return nil, fmt.Errorf("failed to create claim client: %w", err)
		}
		s, err := signer.New(account.PrivateKey())
		if err != nil {
			return nil, err
		}
		return NewAccountWorker(account, client, s, policy, logger, m), nil
	}
}
