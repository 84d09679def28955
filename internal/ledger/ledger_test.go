package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucky-spin/internal/models"
	"lucky-spin/internal/wheel"
)

func spinResult(value int) wheel.Result {
	return wheel.Result{
		Segment:  models.Segment{Value: value, Label: "test"},
		Credited: value,
	}
}

func TestNewSeedsBonus(t *testing.T) {
	l := New(ReferenceBounds())
	snap := l.Snapshot()
	assert.Equal(t, 200, snap.Balance)
	assert.Equal(t, 200, snap.LifetimeWinnings)
	require.Len(t, snap.History, 1)
	assert.Equal(t, models.EntryBonus, snap.History[0].Kind)
	assert.Equal(t, 200, snap.History[0].Amount)
	assert.NotEmpty(t, snap.History[0].ID)
}

func TestApplySpinWin(t *testing.T) {
	l := New(ReferenceBounds())
	require.NoError(t, l.ApplySpin(spinResult(100)))

	snap := l.Snapshot()
	assert.Equal(t, 290, snap.Balance)
	assert.Equal(t, 300, snap.LifetimeWinnings)
	require.Len(t, snap.History, 2)
	assert.Equal(t, models.EntrySpin, snap.History[0].Kind)
	assert.Equal(t, 100, snap.History[0].Amount)
	assert.Equal(t, models.EntryBonus, snap.History[1].Kind)
}

func TestApplySpinZeroWinStillRecorded(t *testing.T) {
	l := New(ReferenceBounds())
	require.NoError(t, l.ApplySpin(spinResult(0)))

	snap := l.Snapshot()
	assert.Equal(t, 190, snap.Balance)
	assert.Equal(t, 200, snap.LifetimeWinnings, "zero wins must not touch winnings")
	require.Len(t, snap.History, 2)
	assert.Equal(t, models.EntrySpin, snap.History[0].Kind)
	assert.Equal(t, 0, snap.History[0].Amount)
}

func TestApplySpinInsufficientBalance(t *testing.T) {
	bounds := ReferenceBounds()
	bounds.SignupBonus = 5 // below one spin cost
	l := New(bounds)
	before := l.Snapshot()

	err := l.ApplySpin(spinResult(100))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, before, l.Snapshot(), "failed spin must leave the ledger untouched")
}

func TestApplyDeposit(t *testing.T) {
	l := New(ReferenceBounds())
	require.NoError(t, l.ApplyDeposit(49))

	snap := l.Snapshot()
	assert.Equal(t, 249, snap.Balance)
	assert.Equal(t, 200, snap.LifetimeWinnings, "deposits are not winnings")
	assert.Equal(t, models.EntryDeposit, snap.History[0].Kind)
}

func TestApplyDepositBelowMinimum(t *testing.T) {
	l := New(ReferenceBounds())
	before := l.Snapshot()

	assert.ErrorIs(t, l.ApplyDeposit(48), ErrBelowMinimum)
	assert.Equal(t, before, l.Snapshot())
}

func TestApplyWithdrawalBelowMinimum(t *testing.T) {
	l := New(ReferenceBounds())
	assert.ErrorIs(t, l.ApplyWithdrawal(100), ErrBelowMinimum)
}

func TestApplyWithdrawalOverBalance(t *testing.T) {
	// Fresh balance is 200 and the minimum withdrawal is 249: the effective
	// cap min(200, 210) sits below the minimum, so every attempt fails.
	l := New(ReferenceBounds())
	before := l.Snapshot()

	assert.ErrorIs(t, l.ApplyWithdrawal(249), ErrInsufficientBalance)
	assert.Equal(t, before, l.Snapshot())
}

func TestApplyWithdrawalAboveMaximum(t *testing.T) {
	l := New(ReferenceBounds())
	require.NoError(t, l.ApplyDeposit(300)) // balance 500

	assert.ErrorIs(t, l.ApplyWithdrawal(249), ErrAboveMaximum)
	assert.Equal(t, 500, l.Balance())
}

func TestWithdrawalUnsatisfiableUnderReferenceBounds(t *testing.T) {
	// MIN_WITHDRAWAL (249) > MAX_WITHDRAWAL (210) in the shipped config, so
	// no amount passes both checks regardless of balance. Kept on purpose;
	// see DESIGN.md.
	l := New(ReferenceBounds())
	require.NoError(t, l.ApplyDeposit(1000))
	for amount := 1; amount <= 1000; amount++ {
		assert.Error(t, l.ApplyWithdrawal(amount), "amount=%d", amount)
	}
}

func TestApplyWithdrawalAccepted(t *testing.T) {
	bounds := ReferenceBounds()
	bounds.MinWithdrawal = 50 // sane config for the happy path
	l := New(bounds)

	require.NoError(t, l.ApplyWithdrawal(60))
	snap := l.Snapshot()
	assert.Equal(t, 140, snap.Balance)
	assert.Equal(t, models.EntryWithdrawal, snap.History[0].Kind)
	assert.Equal(t, -60, snap.History[0].Amount)
}

func TestConservationOverSpinSequence(t *testing.T) {
	bounds := ReferenceBounds()
	l := New(bounds)
	rng := rand.New(rand.NewSource(7))
	segments := wheel.ReferenceSegments()

	spins := 0
	for i := 0; i < 500 && l.CanSpin(); i++ {
		raw := 4*wheel.FullCircle + rng.Float64()*wheel.FullCircle
		res, err := wheel.Resolve(segments, raw)
		require.NoError(t, err)
		require.NoError(t, l.ApplySpin(res))
		spins++
	}

	snap := l.Snapshot()
	sum := 0
	for _, e := range snap.History {
		sum += e.Amount
	}
	// Balance equals the net of every entry minus the costs paid per spin.
	assert.Equal(t, sum-spins*bounds.SpinCost, snap.Balance)
	assert.GreaterOrEqual(t, snap.LifetimeWinnings, bounds.SignupBonus)
}

func TestSnapshotDoesNotAliasHistory(t *testing.T) {
	l := New(ReferenceBounds())
	snap := l.Snapshot()
	snap.History[0].Amount = 9999

	assert.Equal(t, 200, l.Snapshot().History[0].Amount)
}
