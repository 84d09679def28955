package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"lucky-spin/internal/models"
	"lucky-spin/internal/wheel"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrAboveMaximum        = errors.New("amount above maximum")
)

// Bounds carries the business limits applied to ledger operations. The
// reference values ship with MinWithdrawal (249) above MaxWithdrawal (210),
// which makes withdrawal structurally unsatisfiable; that mismatch comes
// straight from the product configuration and is kept as-is.
type Bounds struct {
	SpinCost      int
	SignupBonus   int
	MinDeposit    int
	MinWithdrawal int
	MaxWithdrawal int
}

// ReferenceBounds returns the stock limits in KSH.
func ReferenceBounds() Bounds {
	return Bounds{
		SpinCost:      10,
		SignupBonus:   200,
		MinDeposit:    49,
		MinWithdrawal: 249,
		MaxWithdrawal: 210,
	}
}

// Ledger is the running account for one session: balance, lifetime
// winnings and a most-recent-first history of entries. Entries are never
// mutated or removed; every operation is all-or-nothing.
type Ledger struct {
	mu       sync.Mutex
	bounds   Bounds
	balance  int
	winnings int
	entries  []models.Entry
}

// New seeds a fresh ledger with the one-time signup bonus.
func New(bounds Bounds) *Ledger {
	l := &Ledger{bounds: bounds}
	l.balance = bounds.SignupBonus
	l.winnings = bounds.SignupBonus
	l.prepend(bounds.SignupBonus, models.EntryBonus)
	return l
}

func (l *Ledger) prepend(amount int, kind models.EntryKind) {
	entry := models.Entry{
		ID:     uuid.NewString(),
		Amount: amount,
		Kind:   kind,
		At:     time.Now().UTC(),
	}
	l.entries = append([]models.Entry{entry}, l.entries...)
}

// ApplySpin debits the spin cost and credits the resolved win as a single
// transition. Zero-value spins still get a history entry so "better luck"
// rounds stay visible.
func (l *Ledger) ApplySpin(result wheel.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance < l.bounds.SpinCost {
		return ErrInsufficientBalance
	}
	l.balance += result.Credited - l.bounds.SpinCost
	if result.Credited > 0 {
		l.winnings += result.Credited
	}
	l.prepend(result.Credited, models.EntrySpin)
	return nil
}

// ApplyDeposit credits a confirmed deposit. Lifetime winnings are not
// affected.
func (l *Ledger) ApplyDeposit(amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < l.bounds.MinDeposit {
		return ErrBelowMinimum
	}
	l.balance += amount
	l.prepend(amount, models.EntryDeposit)
	return nil
}

// ApplyWithdrawal debits an accepted withdrawal. The effective cap is
// min(balance, MaxWithdrawal).
func (l *Ledger) ApplyWithdrawal(amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount < l.bounds.MinWithdrawal {
		return ErrBelowMinimum
	}
	if amount > l.balance {
		return ErrInsufficientBalance
	}
	if amount > l.bounds.MaxWithdrawal {
		return ErrAboveMaximum
	}
	l.balance -= amount
	l.prepend(-amount, models.EntryWithdrawal)
	return nil
}

// Snapshot is a point-in-time projection handed to the presentation layer.
type Snapshot struct {
	Balance          int            `json:"balance"`
	LifetimeWinnings int            `json:"lifetimeWinnings"`
	History          []models.Entry `json:"history"`
}

// Snapshot copies the current state. The returned history does not alias
// the ledger's internal slice.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	history := make([]models.Entry, len(l.entries))
	copy(history, l.entries)
	return Snapshot{
		Balance:          l.balance,
		LifetimeWinnings: l.winnings,
		History:          history,
	}
}

// Balance returns the current balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// CanSpin reports whether the balance covers one more spin.
func (l *Ledger) CanSpin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance >= l.bounds.SpinCost
}
