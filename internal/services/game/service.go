package game

import (
	"context"
	"errors"
	"log/slog"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lucky-spin/internal/config"
	"lucky-spin/internal/ledger"
	"lucky-spin/internal/models"
	"lucky-spin/internal/payment"
	"lucky-spin/internal/session"
	"lucky-spin/internal/util/payref"
	"lucky-spin/internal/wheel"
)

var (
	ErrSpinInFlight          = errors.New("a spin is already in progress")
	ErrMissingAccountDetails = errors.New("account name, number and bank are required")
)

// SpinRecorder is the audit sink for resolved spins.
type SpinRecorder interface {
	RecordSpin(ctx context.Context, rec models.SpinRecord) error
}

// SegmentSource yields the current wheel layout.
type SegmentSource interface {
	Get(ctx context.Context) ([]models.Segment, error)
}

// Service orchestrates spins, deposits and withdrawals on top of the pure
// wheel resolver and the per-session ledger.
type Service struct {
	store    SpinRecorder
	segments SegmentSource
	payments *payment.Client
	cfg      *config.Config
	logger   *slog.Logger

	mu  sync.Mutex
	rng *mrand.Rand
}

// NewService wires the orchestrator. The random source is injected so
// simulations and tests can pin the outcome sequence.
func NewService(store SpinRecorder, segments SegmentSource, payments *payment.Client, cfg *config.Config, logger *slog.Logger, rng *mrand.Rand) *Service {
	return &Service{
		store:    store,
		segments: segments,
		payments: payments,
		cfg:      cfg,
		logger:   logger,
		rng:      rng,
	}
}

// SpinOutcome is what the presentation layer needs to animate one spin.
type SpinOutcome struct {
	SpinID     string         `json:"spinId"`
	Segment    models.Segment `json:"segment"`
	Index      int            `json:"index"`
	Credited   int            `json:"credited"`
	RawDegrees float64        `json:"rawDegrees"`
	DurationMs int64          `json:"durationMs"`
	Balance    int            `json:"balance"`
}

// Spin runs one paid spin for the session. The per-session gate stays
// closed for the configured animation window so overlapping spins are
// rejected; the ledger transition itself happens immediately, and once a
// spin is initiated it always resolves.
func (s *Service) Spin(ctx context.Context, sess *session.Session) (*SpinOutcome, error) {
	if !sess.BeginSpin() {
		return nil, ErrSpinInFlight
	}

	segments, err := s.segments.Get(ctx)
	if err != nil {
		sess.EndSpin()
		return nil, err
	}
	result, err := wheel.Resolve(segments, s.drawDegrees())
	if err != nil {
		sess.EndSpin()
		return nil, err
	}
	if err := sess.Ledger.ApplySpin(result); err != nil {
		sess.EndSpin()
		return nil, err
	}

	if d := s.cfg.SpinDuration; d > 0 {
		time.AfterFunc(d, sess.EndSpin)
	} else {
		sess.EndSpin()
	}

	spinID := uuid.NewString()
	record := models.SpinRecord{
		SpinID:     spinID,
		Phone:      sess.Phone,
		Label:      result.Segment.Label,
		Amount:     result.Credited,
		RawDegrees: result.RawDegrees,
	}
	if err := s.store.RecordSpin(ctx, record); err != nil {
		s.logger.Warn("failed to record spin", "error", err, "spinId", spinID)
	}

	return &SpinOutcome{
		SpinID:     spinID,
		Segment:    result.Segment,
		Index:      result.Index,
		Credited:   result.Credited,
		RawDegrees: result.RawDegrees,
		DurationMs: s.cfg.SpinDuration.Milliseconds(),
		Balance:    sess.Ledger.Balance(),
	}, nil
}

// drawDegrees picks the raw rotation for one spin: a fixed number of full
// turns for a visibly long animation plus a random final position.
func (s *Service) drawDegrees() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.cfg.BaseRotations)*wheel.FullCircle + s.rng.Float64()*wheel.FullCircle
}

// InitiateDeposit validates the amount and parks it behind the payment
// page. Nothing is credited yet.
func (s *Service) InitiateDeposit(sess *session.Session, amount int) (payment.PendingDeposit, error) {
	if amount < s.cfg.MinDeposit {
		return payment.PendingDeposit{}, ledger.ErrBelowMinimum
	}
	deposit := s.payments.Initiate(sess.Phone, amount)
	s.logger.Info("deposit initiated", "phone", sess.Phone, "amount", amount, "reference", deposit.Reference)
	return deposit, nil
}

// ConfirmDeposit consumes the provider's "payment complete" signal and
// credits the parked amount. The amount is ours, never the provider's.
func (s *Service) ConfirmDeposit(ctx context.Context, sess *session.Session, reference string) (int, error) {
	deposit, err := s.payments.Confirm(reference)
	if err != nil {
		return 0, err
	}
	if deposit.Phone != sess.Phone {
		return 0, payment.ErrUnknownReference
	}
	if err := sess.Ledger.ApplyDeposit(deposit.Amount); err != nil {
		return 0, err
	}
	s.logger.Info("deposit credited", "phone", sess.Phone, "amount", deposit.Amount, "reference", reference)
	return deposit.Amount, nil
}

// WithdrawalRequest is the withdrawal form input.
type WithdrawalRequest struct {
	Amount        int
	AccountName   string
	AccountNumber string
	BankName      string
}

// Withdraw validates the bank details and applies the ledger withdrawal.
// Returns a reference code for the user's records.
func (s *Service) Withdraw(sess *session.Session, req WithdrawalRequest) (string, error) {
	if strings.TrimSpace(req.AccountName) == "" ||
		strings.TrimSpace(req.AccountNumber) == "" ||
		strings.TrimSpace(req.BankName) == "" {
		return "", ErrMissingAccountDetails
	}
	if err := sess.Ledger.ApplyWithdrawal(req.Amount); err != nil {
		return "", err
	}
	reference, err := payref.Generate()
	if err != nil {
		reference = uuid.NewString()
	}
	s.logger.Info("withdrawal requested",
		"phone", sess.Phone,
		"amount", req.Amount,
		"bank", req.BankName,
		"reference", reference,
	)
	return reference, nil
}
