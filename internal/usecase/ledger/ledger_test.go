package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
)

var (
	d0      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	engine  = fee.NewEngine(decimal.RequireFromString("0.06"), decimal.RequireFromString("0.20"))
	tenK    = decimal.NewFromInt(10000)
	twelveK = decimal.NewFromInt(12000)
)

func sumUnits(ts []domain.Tranche) decimal.Decimal {
	total := decimal.Zero
	for _, t := range ts {
		total = total.Add(t.Units)
	}
	return total
}

func TestDeposit_CreatesTranche(t *testing.T) {
	l := New(nil)
	alice := uuid.New()

	tr := l.Deposit(alice, decimal.NewFromInt(100000000), tenK, d0)

	assert.True(t, tr.Units.Equal(decimal.NewFromInt(10000)))
	assert.True(t, tr.EntryPrice.Equal(tenK))
	assert.True(t, tr.HWM.Equal(tenK))
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.IsEmpty())
	assert.True(t, l.InvestorUnits(alice).Equal(decimal.NewFromInt(10000)))
}

func TestSnapshotRestore_IsolatesCopies(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	tr := l.Deposit(alice, decimal.NewFromInt(1000), decimal.NewFromInt(10), d0)

	snap := l.Snapshot()
	require.NoError(t, l.Reduce([]Reduction{{TrancheID: tr.ID, WithdrawUnits: decimal.NewFromInt(40)}}, decimal.NewFromInt(10)))
	assert.True(t, l.TotalUnits().Equal(decimal.NewFromInt(60)))
	assert.True(t, snap[0].Units.Equal(decimal.NewFromInt(100)), "snapshot must not see later mutations")

	l.Restore(snap)
	assert.True(t, l.TotalUnits().Equal(decimal.NewFromInt(100)))
}

func TestPlanWithdrawal_PartialScenario(t *testing.T) {
	// 100,000,000 at 10,000 → 10,000 units; price rises to 12,000.
	l := New(nil)
	alice := uuid.New()
	l.Deposit(alice, decimal.NewFromInt(100000000), tenK, d0)

	net := decimal.NewFromInt(20000000)
	plan, err := l.PlanWithdrawal(engine, alice, net, twelveK, d0, true)
	require.NoError(t, err)

	// full fee = 0.2 × 10,000 × 2,000 = 4,000,000; net balance = 116,000,000
	fullFee := decimal.NewFromInt(4000000)
	netBalance := decimal.NewFromInt(116000000)
	expectedFee := fullFee.Mul(net).Div(netBalance)

	assert.False(t, plan.Full)
	assert.True(t, plan.Net.Equal(net))
	assert.InDelta(t, expectedFee.InexactFloat64(), plan.Fee.InexactFloat64(), 1e-6)
	assert.True(t, plan.Net.Add(plan.Fee).LessThanOrEqual(decimal.NewFromInt(120000000)))
	assert.True(t, plan.WithdrawUnits.Equal(net.Div(twelveK)))

	require.NoError(t, l.Reduce(plan.Reductions, plan.Price))
	expectedUnits := decimal.NewFromInt(10000).Sub(plan.WithdrawUnits).Sub(plan.FeeUnits)
	assert.InDelta(t, expectedUnits.InexactFloat64(), l.TotalUnits().InexactFloat64(), 1e-9)

	tr := l.ForInvestor(alice)[0]
	assert.True(t, tr.EntryPrice.Equal(tenK), "interim fee must not crystallize")
	assert.True(t, tr.HWM.Equal(tenK))
	assert.InDelta(t, expectedFee.InexactFloat64(), tr.CumulativeFeesPaid.InexactFloat64(), 1e-6)
}

func TestPlanWithdrawal_FullClampsToNetBalance(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	l.Deposit(alice, decimal.NewFromInt(100000000), tenK, d0)
	l.Deposit(alice, decimal.NewFromInt(50000000), decimal.NewFromInt(11000), d0)

	plan, err := l.PlanWithdrawal(engine, alice, decimal.NewFromInt(999999999), twelveK, d0, true)
	require.NoError(t, err)

	assert.True(t, plan.Full)
	detail := engine.AssessInvestor(l.ForInvestor(alice), d0, twelveK)
	assert.True(t, plan.Net.Equal(detail.NetBalance()))
	assert.True(t, plan.Fee.Equal(detail.Fee))
	assert.True(t, plan.WithdrawUnits.Add(plan.FeeUnits).Equal(plan.UnitsBefore))

	require.NoError(t, l.Reduce(plan.Reductions, plan.Price))
	assert.Empty(t, l.ForInvestor(alice))
	assert.Equal(t, 0, l.Len())
}

func TestPlanWithdrawal_NoPosition(t *testing.T) {
	l := New(nil)

	_, err := l.PlanWithdrawal(engine, uuid.New(), decimal.NewFromInt(1), tenK, d0, true)

	assert.ErrorIs(t, err, domain.ErrNoPosition)
	assert.Equal(t, domain.KindStateInvariant, domain.KindOf(err))
}

func TestPlanWithdrawal_WithoutFee(t *testing.T) {
	l := New(nil)
	l.Deposit(domain.FundOperatorID, decimal.NewFromInt(1000), decimal.NewFromInt(10), d0)

	plan, err := l.PlanWithdrawal(engine, domain.FundOperatorID, decimal.NewFromInt(500), decimal.NewFromInt(20), d0, false)

	require.NoError(t, err)
	assert.True(t, plan.Fee.IsZero())
	assert.True(t, plan.WithdrawUnits.Equal(decimal.NewFromInt(25)))
}

func TestPlanFee_AndCrystallize(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	first := l.Deposit(alice, decimal.NewFromInt(100000), decimal.NewFromInt(100), d0)
	second := l.Deposit(alice, decimal.NewFromInt(150000), decimal.NewFromInt(150), d0)
	price := decimal.NewFromInt(200)

	plan, err := l.PlanFee(engine, alice, price, d0)
	require.NoError(t, err)
	require.NotNil(t, plan)

	// excess: 1000×100 + 1000×50 = 150,000; fee = 30,000 → 150 units
	assert.True(t, plan.Fee.Equal(decimal.NewFromInt(30000)))
	assert.True(t, plan.FeeUnits.Equal(decimal.NewFromInt(150)))

	require.NoError(t, l.Reduce(plan.Reductions, price))
	l.Crystallize([]uuid.UUID{first.ID, second.ID}, d0, price)

	assert.True(t, l.InvestorUnits(alice).Equal(decimal.NewFromInt(1850)))
	for _, tr := range l.ForInvestor(alice) {
		assert.True(t, tr.HWM.Equal(price))
		assert.True(t, tr.EntryPrice.Equal(price))
		assert.True(t, tr.CumulativeFeesPaid.IsPositive())
	}

	again, err := l.PlanFee(engine, alice, price, d0)
	require.NoError(t, err)
	assert.Nil(t, again, "no fee is due right after crystallization")
}

func TestCrystallize_RestoreBasis(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	tr := l.Deposit(alice, decimal.NewFromInt(100000), decimal.NewFromInt(100), d0)
	d1 := d0.AddDate(1, 0, 0)
	price := decimal.NewFromInt(150)

	prior := l.Crystallize([]uuid.UUID{tr.ID, uuid.New()}, d1, price)
	require.Len(t, prior, 1, "unknown tranches are skipped")
	assert.True(t, prior[0].EntryPrice.Equal(decimal.NewFromInt(100)))

	require.NoError(t, l.RestoreBasis(prior, d1, price))

	got := l.ForInvestor(alice)[0]
	assert.True(t, got.EntryDate.Equal(d0))
	assert.True(t, got.EntryPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.HWM.Equal(decimal.NewFromInt(100)))
}

func TestRestoreBasis_RejectsLaterRebase(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	tr := l.Deposit(alice, decimal.NewFromInt(100000), decimal.NewFromInt(100), d0)
	d1 := d0.AddDate(1, 0, 0)
	d2 := d1.AddDate(1, 0, 0)

	prior := l.Crystallize([]uuid.UUID{tr.ID}, d1, decimal.NewFromInt(150))
	l.Crystallize([]uuid.UUID{tr.ID}, d2, decimal.NewFromInt(180))

	err := l.RestoreBasis(prior, d1, decimal.NewFromInt(150))

	assert.ErrorContains(t, err, "re-based")
	assert.True(t, l.ForInvestor(alice)[0].EntryPrice.Equal(decimal.NewFromInt(180)))
}

func TestReduce_RejectsInsufficientUnitsWithoutMutation(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	a := l.Deposit(alice, decimal.NewFromInt(100), decimal.NewFromInt(10), d0)
	b := l.Deposit(alice, decimal.NewFromInt(100), decimal.NewFromInt(10), d0)

	err := l.Reduce([]Reduction{
		{TrancheID: a.ID, WithdrawUnits: decimal.NewFromInt(5)},
		{TrancheID: b.ID, WithdrawUnits: decimal.NewFromInt(11)},
	}, decimal.NewFromInt(10))

	assert.ErrorIs(t, err, domain.ErrInsufficientUnits)
	assert.True(t, l.TotalUnits().Equal(decimal.NewFromInt(20)))
}

func TestCreditOperator_MergesSameDayAndPrice(t *testing.T) {
	l := New(nil)

	l.CreditOperator(decimal.NewFromInt(2), twelveK, d0)
	l.CreditOperator(decimal.NewFromInt(3), twelveK, d0)
	l.CreditOperator(decimal.NewFromInt(1), tenK, d0)

	operator := l.ForInvestor(domain.FundOperatorID)
	require.Len(t, operator, 2)
	assert.True(t, operator[0].Units.Equal(decimal.NewFromInt(5)))
	assert.True(t, operator[0].OriginalInvestedValue.Equal(decimal.NewFromInt(60000)))
}

func TestRestoreUnits(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	l.Deposit(alice, decimal.NewFromInt(300), decimal.NewFromInt(10), d0)
	l.Deposit(alice, decimal.NewFromInt(100), decimal.NewFromInt(10), d0)

	require.NoError(t, l.RestoreUnits(alice, decimal.NewFromInt(8), decimal.NewFromInt(10), d0))

	tranches := l.ForInvestor(alice)
	assert.True(t, tranches[0].Units.Equal(decimal.NewFromInt(36)))
	assert.True(t, tranches[1].Units.Equal(decimal.NewFromInt(12)))

	bob := uuid.New()
	require.NoError(t, l.RestoreUnits(bob, decimal.NewFromInt(4), decimal.NewFromInt(25), d0))
	created := l.ForInvestor(bob)
	require.Len(t, created, 1)
	assert.True(t, created[0].EntryPrice.Equal(decimal.NewFromInt(25)))

	assert.Error(t, l.RestoreUnits(uuid.New(), decimal.NewFromInt(1), decimal.Zero, d0))
}

func TestRollbackFees_ProRata(t *testing.T) {
	l := New(nil)
	alice := uuid.New()
	a := l.Deposit(alice, decimal.NewFromInt(100), decimal.NewFromInt(10), d0)
	b := l.Deposit(alice, decimal.NewFromInt(100), decimal.NewFromInt(10), d0)
	require.NoError(t, l.Reduce([]Reduction{
		{TrancheID: a.ID, FeeUnits: decimal.NewFromInt(3)},
		{TrancheID: b.ID, FeeUnits: decimal.NewFromInt(1)},
	}, decimal.NewFromInt(10)))

	l.RollbackFees(alice, decimal.NewFromInt(20))

	tranches := l.ForInvestor(alice)
	assert.True(t, tranches[0].CumulativeFeesPaid.Equal(decimal.NewFromInt(15)))
	assert.True(t, tranches[1].CumulativeFeesPaid.Equal(decimal.NewFromInt(5)))
}

func TestDebitOperator_NearestFirst(t *testing.T) {
	l := New(nil)
	old := l.CreditOperator(decimal.NewFromInt(5), tenK, d0)
	recent := l.CreditOperator(decimal.NewFromInt(2), twelveK, d0.AddDate(0, 6, 0))

	require.NoError(t, l.DebitOperator(decimal.NewFromInt(3), d0.AddDate(0, 6, 0)))

	_, recentLeft := l.Get(recent.ID)
	assert.False(t, recentLeft, "nearest tranche is consumed first")
	oldLeft, ok := l.Get(old.ID)
	require.True(t, ok)
	assert.True(t, oldLeft.Units.Equal(decimal.NewFromInt(4)))

	err := l.DebitOperator(decimal.NewFromInt(10), d0)
	assert.ErrorIs(t, err, domain.ErrInsufficientUnits)
	assert.True(t, l.InvestorUnits(domain.FundOperatorID).Equal(decimal.NewFromInt(4)))
}
