package processor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
)

// MockStore is a mock implementation of domain.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadInvestors(ctx context.Context) ([]domain.Investor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Investor), args.Error(1)
}

func (m *MockStore) LoadTranches(ctx context.Context) ([]domain.Tranche, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Tranche), args.Error(1)
}

func (m *MockStore) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockStore) LoadFeeRecords(ctx context.Context) ([]domain.FeeRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.FeeRecord), args.Error(1)
}

func (m *MockStore) SaveAllData(ctx context.Context, investors []domain.Investor, tranches []domain.Tranche, transactions []domain.Transaction, feeRecords []domain.FeeRecord) error {
	args := m.Called(ctx, investors, tranches, transactions, feeRecords)
	return args.Error(0)
}

var (
	ctx = context.Background()
	d0  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d1  = d0.AddDate(1, 0, 0)

	alice    = domain.Investor{ID: uuid.MustParse("a1111111-1111-1111-1111-111111111111"), Name: "Alice", JoinDate: d0}
	bob      = domain.Investor{ID: uuid.MustParse("b2222222-2222-2222-2222-222222222222"), Name: "Bob", JoinDate: d0}
	operator = domain.Investor{ID: domain.FundOperatorID, Name: "Fund Operator", JoinDate: d0, IsFundOperator: true}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertApprox(t *testing.T, want, got, tolerance decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, want.Sub(got).Abs().LessThanOrEqual(tolerance), "%s: want %s, got %s", msg, want, got)
}

func savingStore() *MockStore {
	store := new(MockStore)
	store.On("SaveAllData", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return store
}

func newProcessor(t *testing.T, store domain.Store, investors ...domain.Investor) *Processor {
	t.Helper()
	return New(DefaultConfig(), store, domain.Dataset{Investors: investors}, nil,
		WithClock(func() time.Time { return d1 }))
}

func assertConserved(t *testing.T, p *Processor) {
	t.Helper()
	assertApprox(t, p.state.Log.SumUnits(), p.state.Tranches.TotalUnits(), domain.Epsilon, "units in log vs ledger")
}

func TestDeposit_FirstContributionUsesBootstrapPrice(t *testing.T) {
	store := savingStore()
	p := newProcessor(t, store, operator, alice)

	receipt, err := p.Deposit(ctx, alice.ID, dec("100000000"), dec("100000000"), d0)

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, receipt.TransactionIDs)
	assert.True(t, receipt.Persisted)
	assert.Contains(t, receipt.Message, "Alice")

	tranches := p.Tranches(alice.ID)
	require.Len(t, tranches, 1)
	assert.True(t, tranches[0].Units.Equal(dec("10000")))
	assert.True(t, tranches[0].EntryPrice.Equal(dec("10000")))
	assert.True(t, tranches[0].HWM.Equal(dec("10000")))

	nav, ok := p.LatestNAV()
	require.True(t, ok)
	assert.True(t, nav.NAV.Equal(dec("100000000")))
	store.AssertNumberOfCalls(t, "SaveAllData", 1)
}

func TestDeposit_LaterContributionPricedAtNAVBefore(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice, bob)
	_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
	require.NoError(t, err)

	// 0.1 units grew to 1,500 before bob's 500 arrives: price 15,000
	_, err = p.Deposit(ctx, bob.ID, dec("500"), dec("2000"), d1)
	require.NoError(t, err)

	assert.True(t, p.state.Tranches.InvestorUnits(bob.ID).Equal(dec("500").Div(dec("15000"))))
	assertConserved(t, p)
}

func TestDeposit_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		investor uuid.UUID
		amount   string
		navAfter string
		seed     bool
		wantErr  error
		wantKind domain.ErrorKind
	}{
		{name: "zero amount", investor: alice.ID, amount: "0", navAfter: "100", wantErr: domain.ErrNonPositiveAmount, wantKind: domain.KindInputValidation},
		{name: "negative amount", investor: alice.ID, amount: "-5", navAfter: "100", wantErr: domain.ErrNonPositiveAmount, wantKind: domain.KindInputValidation},
		{name: "negative nav", investor: alice.ID, amount: "5", navAfter: "-1", wantErr: domain.ErrNegativeNAV, wantKind: domain.KindInputValidation},
		{name: "nav before deposit negative", investor: alice.ID, amount: "500", navAfter: "100", wantErr: domain.ErrNegativeNAV, wantKind: domain.KindInputValidation},
		{name: "unknown investor", investor: uuid.New(), amount: "5", navAfter: "100", wantErr: domain.ErrUnknownInvestor, wantKind: domain.KindInputValidation},
		{name: "fund holds units but was worth nothing", investor: alice.ID, amount: "100", navAfter: "100", seed: true, wantErr: domain.ErrUnpriceable, wantKind: domain.KindStateInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := savingStore()
			p := newProcessor(t, store, operator, alice)
			if tt.seed {
				_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
				require.NoError(t, err)
			}
			before := p.Dataset()

			receipt, err := p.Deposit(ctx, tt.investor, dec(tt.amount), dec(tt.navAfter), d1)

			assert.Nil(t, receipt)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, before, p.Dataset())
		})
	}
}

// 100,000,000 at the 10,000 bootstrap price, valued at 120,000,000 the same
// day, then 20,000,000 withdrawn: excess is 2,000 per unit and the fee is
// 20% of the excess on the units that leave the investor.
func TestWithdraw_PartialScenario(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	_, err := p.Deposit(ctx, alice.ID, dec("100000000"), dec("100000000"), d0)
	require.NoError(t, err)
	_, err = p.UpdateValuation(ctx, dec("120000000"), d0)
	require.NoError(t, err)

	before, err := p.InvestorBalance(alice.ID, dec("120000000"))
	require.NoError(t, err)
	assert.True(t, before.Price.Equal(dec("12000")))

	receipt, err := p.Withdraw(ctx, alice.ID, dec("20000000"), dec("100000000"), d0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4, 5}, receipt.TransactionIDs)
	assert.Contains(t, receipt.Message, "Partial")

	feeTx, ok := p.state.Log.Get(4)
	require.True(t, ok)
	assert.Equal(t, domain.KindPerformanceFee, feeTx.Kind)
	assert.Equal(t, int64(3), feeTx.RelatedID)
	charged := feeTx.Amount.Neg()

	// fee on the full balance scaled by net / net balance
	assertApprox(t, dec("4000000").Mul(dec("20000000")).Div(dec("116000000")), charged, dec("0.01"), "partial fee")
	// 20% × 2,000 × units given up
	unitsOut := dec("20000000").Add(charged).Div(dec("12000"))
	assertApprox(t, dec("0.2").Mul(dec("2000")).Mul(unitsOut), charged, dec("0.01"), "fee formula")
	assert.True(t, dec("20000000").Add(charged).LessThanOrEqual(before.Balance))

	assertApprox(t, dec("10000").Sub(unitsOut), p.state.Tranches.InvestorUnits(alice.ID), domain.Epsilon, "alice units")
	assertApprox(t, charged.Div(dec("12000")), p.state.Tranches.InvestorUnits(domain.FundOperatorID), domain.Epsilon, "operator units")

	// interim fees never crystallize
	tranche := p.Tranches(alice.ID)[0]
	assert.True(t, tranche.EntryPrice.Equal(dec("10000")))
	assert.True(t, tranche.HWM.Equal(dec("10000")))

	records := p.FeeRecords(alice.ID)
	require.Len(t, records, 1)
	assert.Equal(t, int64(4), records[0].TransactionID)
	assert.False(t, records[0].Crystallized)
	assert.Equal(t, "2024-Q1", records[0].Period)

	transfer, ok := p.state.Log.Get(5)
	require.True(t, ok)
	assert.Equal(t, domain.KindFeeTransfer, transfer.Kind)
	assert.Equal(t, domain.FundOperatorID, transfer.InvestorID)
	assert.Equal(t, int64(4), transfer.RelatedID)

	assertConserved(t, p)
}

func TestWithdraw_FullWithdrawalClampsAmount(t *testing.T) {
	tests := []struct {
		name     string
		net      string
		navAfter string
		wantNet  string
	}{
		{name: "exact balance without gain", net: "1000", navAfter: "9000", wantNet: "1000"},
		// price 10.5: balance 1,050, fee 20% × 0.5 × 100 = 10
		{name: "above balance with gain", net: "1500", navAfter: "9000", wantNet: "1040"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.BootstrapPrice = dec("10")
			p := New(cfg, savingStore(), domain.Dataset{Investors: []domain.Investor{operator, alice, bob}}, nil)

			_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
			require.NoError(t, err)
			_, err = p.Deposit(ctx, bob.ID, dec("9000"), dec("10000"), d0)
			require.NoError(t, err)

			receipt, err := p.Withdraw(ctx, alice.ID, dec(tt.net), dec(tt.navAfter), d0)
			require.NoError(t, err)
			assert.Contains(t, receipt.Message, "Full")

			wd, ok := p.state.Log.Get(receipt.TransactionIDs[0])
			require.True(t, ok)
			assertApprox(t, dec(tt.wantNet).Neg(), wd.Amount, dec("0.000001"), "clamped net")
			assert.Empty(t, p.Tranches(alice.ID))
			assert.True(t, p.state.Tranches.InvestorUnits(alice.ID).IsZero())
			assertConserved(t, p)
		})
	}
}

func TestWithdraw_Rejections(t *testing.T) {
	t.Run("no position", func(t *testing.T) {
		p := newProcessor(t, savingStore(), operator, alice)
		_, err := p.Withdraw(ctx, alice.ID, dec("10"), dec("0"), d0)
		assert.ErrorIs(t, err, domain.ErrNoPosition)
		assert.Equal(t, domain.KindStateInvariant, domain.KindOf(err))
	})

	t.Run("fee due but operator missing", func(t *testing.T) {
		p := newProcessor(t, savingStore(), alice)
		_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
		require.NoError(t, err)
		before := p.Dataset()

		_, err = p.Withdraw(ctx, alice.ID, dec("100"), dec("1900"), d0)
		assert.ErrorIs(t, err, domain.ErrMissingOperator)
		assert.Equal(t, domain.KindStateInvariant, domain.KindOf(err))
		assert.Equal(t, before, p.Dataset())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		p := newProcessor(t, savingStore(), operator, alice)
		_, err := p.Withdraw(ctx, alice.ID, dec("0"), dec("10"), d0)
		assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)
	})
}

func TestUpdateValuation_LeavesUnitsAndHWM(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
	require.NoError(t, err)
	tranchesBefore := p.Tranches(alice.ID)

	_, err = p.UpdateValuation(ctx, dec("5000"), d1)
	require.NoError(t, err)

	assert.Equal(t, tranchesBefore, p.Tranches(alice.ID))
	nav, ok := p.LatestNAV()
	require.True(t, ok)
	assert.True(t, nav.NAV.Equal(dec("5000")))

	_, err = p.UpdateValuation(ctx, dec("-1"), d1)
	assert.ErrorIs(t, err, domain.ErrNegativeNAV)
}

func TestSettleFees_ChargesAndCrystallizes(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	_, err := p.Deposit(ctx, alice.ID, dec("100000000"), dec("100000000"), d0)
	require.NoError(t, err)
	_, err = p.UpdateValuation(ctx, dec("120000000"), d1)
	require.NoError(t, err)

	receipt, err := p.SettleFees(ctx, d1, dec("120000000"))
	require.NoError(t, err)
	require.Len(t, receipt.TransactionIDs, 2)

	// fee == 0.20 × units × max(0, P − E × 1.06^years)
	years := fee.YearsHeld(d0, d1)
	hurdle := 10000 * math.Pow(1.06, years)
	want := decimal.NewFromFloat(0.20 * 10000 * (12000 - hurdle))

	feeTx, ok := p.state.Log.Get(receipt.TransactionIDs[0])
	require.True(t, ok)
	assertApprox(t, want, feeTx.Amount.Neg(), dec("0.01"), "settled fee")
	assert.Zero(t, feeTx.RelatedID)

	tranche := p.Tranches(alice.ID)[0]
	assert.True(t, tranche.EntryPrice.Equal(dec("12000")))
	assert.True(t, tranche.HWM.Equal(dec("12000")))
	assert.True(t, tranche.EntryDate.Equal(d1))
	assert.True(t, tranche.OriginalEntryPrice.Equal(dec("10000")))
	assert.True(t, tranche.CumulativeFeesPaid.IsPositive())

	records := p.FeeRecords(alice.ID)
	require.Len(t, records, 1)
	assert.True(t, records[0].Crystallized)
	require.Len(t, records[0].PriorBasis, 1)
	assert.True(t, records[0].PriorBasis[0].EntryPrice.Equal(dec("10000")))
	assert.True(t, records[0].PriorBasis[0].EntryDate.Equal(d0))
	assert.Equal(t, "2025-Q1", records[0].Period)
	assert.True(t, records[0].UnitsAfter.LessThan(records[0].UnitsBefore))

	assert.Empty(t, p.FeeRecords(domain.FundOperatorID))
	assertConserved(t, p)

	// re-based at the same price: nothing more is due
	again, err := p.SettleFees(ctx, d1, dec("120000000"))
	require.NoError(t, err)
	assert.Empty(t, again.TransactionIDs)
	assert.Contains(t, again.Message, "No fees due")
}

func TestSettleFees_MissingOperator(t *testing.T) {
	p := newProcessor(t, savingStore(), alice)
	_, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
	require.NoError(t, err)
	before := p.Dataset()

	_, err = p.SettleFees(ctx, d1, dec("2000"))
	assert.ErrorIs(t, err, domain.ErrMissingOperator)
	assert.Equal(t, before, p.Dataset())
}

func TestDelete_WithdrawalRoundTrip(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	_, err := p.Deposit(ctx, alice.ID, dec("100000000"), dec("100000000"), d0)
	require.NoError(t, err)
	_, err = p.UpdateValuation(ctx, dec("120000000"), d0)
	require.NoError(t, err)
	before, err := p.InvestorBalance(alice.ID, dec("120000000"))
	require.NoError(t, err)

	receipt, err := p.Withdraw(ctx, alice.ID, dec("20000000"), dec("100000000"), d0)
	require.NoError(t, err)

	deleted, err := p.Delete(ctx, receipt.TransactionIDs[0])
	require.NoError(t, err)
	assert.ElementsMatch(t, receipt.TransactionIDs, deleted.TransactionIDs)

	after, err := p.InvestorBalance(alice.ID, dec("120000000"))
	require.NoError(t, err)
	assertApprox(t, before.Balance, after.Balance, dec("0.01"), "balance")
	assert.Empty(t, p.FeeRecords(alice.ID))
	assert.Empty(t, p.Tranches(domain.FundOperatorID))
	assertConserved(t, p)
}

func TestSettleFees_ReversalRoundTrip(t *testing.T) {
	reversals := map[string]func(*Processor, int64) (*Receipt, error){
		"undo":   func(p *Processor, id int64) (*Receipt, error) { return p.Undo(ctx, id) },
		"delete": func(p *Processor, id int64) (*Receipt, error) { return p.Delete(ctx, id) },
	}

	for name, reverse := range reversals {
		t.Run(name, func(t *testing.T) {
			p := newProcessor(t, savingStore(), operator, alice)
			_, err := p.Deposit(ctx, alice.ID, dec("100000000"), dec("100000000"), d0)
			require.NoError(t, err)
			_, err = p.UpdateValuation(ctx, dec("120000000"), d1)
			require.NoError(t, err)
			owed, err := p.InvestorFeeDetail(alice.ID, d1, dec("120000000"))
			require.NoError(t, err)
			require.True(t, owed.Fee.IsPositive())
			before := p.Tranches(alice.ID)[0]

			settled, err := p.SettleFees(ctx, d1, dec("120000000"))
			require.NoError(t, err)

			reversed, err := reverse(p, settled.TransactionIDs[0])
			require.NoError(t, err)
			assert.ElementsMatch(t, settled.TransactionIDs, reversed.TransactionIDs)

			after := p.Tranches(alice.ID)[0]
			assert.True(t, after.EntryDate.Equal(before.EntryDate))
			assert.True(t, after.EntryPrice.Equal(before.EntryPrice))
			assert.True(t, after.HWM.Equal(before.HWM))
			assertApprox(t, before.Units, after.Units, domain.Epsilon, "units")

			again, err := p.InvestorFeeDetail(alice.ID, d1, dec("120000000"))
			require.NoError(t, err)
			assertApprox(t, owed.Fee, again.Fee, dec("0.01"), "fee owed after reversal")
			assert.Empty(t, p.FeeRecords(alice.ID))
			assert.Empty(t, p.Tranches(domain.FundOperatorID))
			assertConserved(t, p)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.BootstrapPrice.Equal(dec("10000")))
	assert.True(t, cfg.HurdleRate.Equal(dec("0.06")))
	assert.True(t, cfg.PerformanceRate.Equal(dec("0.20")))
	assert.Equal(t, PersistStrict, cfg.Persist)
}

func TestUndo_ContributionThenReject(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	receipt, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)
	require.NoError(t, err)

	undone, err := p.Undo(ctx, receipt.TransactionIDs[0])
	require.NoError(t, err)
	assert.Contains(t, undone.Message, "CONTRIBUTION")
	assert.True(t, p.state.Tranches.IsEmpty())

	_, err = p.Undo(ctx, receipt.TransactionIDs[0])
	assert.ErrorIs(t, err, domain.ErrTransactionMissing)
}

func TestPersistPolicy(t *testing.T) {
	diskFull := errors.New("disk full")

	t.Run("strict returns the error with the receipt", func(t *testing.T) {
		store := new(MockStore)
		store.On("SaveAllData", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(diskFull).Once()
		store.On("SaveAllData", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		p := newProcessor(t, store, operator, alice)

		receipt, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrSaveFailed)
		assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
		require.NotNil(t, receipt)
		assert.False(t, receipt.Persisted)
		assert.Equal(t, 1, p.state.Log.Len(), "memory keeps the committed command")
		assert.True(t, p.Dirty())

		require.NoError(t, p.Flush(ctx))
		assert.False(t, p.Dirty())
		store.AssertNumberOfCalls(t, "SaveAllData", 2)
	})

	t.Run("log and continue reports success", func(t *testing.T) {
		store := new(MockStore)
		store.On("SaveAllData", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(diskFull)
		cfg := DefaultConfig()
		cfg.Persist = PersistLogAndContinue
		p := New(cfg, store, domain.Dataset{Investors: []domain.Investor{operator, alice}}, nil)

		receipt, err := p.Deposit(ctx, alice.ID, dec("1000"), dec("1000"), d0)

		require.NoError(t, err)
		assert.False(t, receipt.Persisted)
		assert.True(t, p.Dirty())

		err = p.Flush(ctx)
		assert.ErrorIs(t, err, domain.ErrSaveFailed)
	})

	t.Run("flush without pending changes skips the store", func(t *testing.T) {
		store := new(MockStore)
		p := newProcessor(t, store, operator)

		require.NoError(t, p.Flush(ctx))
		store.AssertNotCalled(t, "SaveAllData", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUnitConservation_AcrossMixedSequence(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice, bob)
	day := func(n int) time.Time { return d0.AddDate(0, 0, n) }

	steps := []func() error{
		func() error { _, err := p.Deposit(ctx, alice.ID, dec("50000"), dec("50000"), day(0)); return err },
		func() error { _, err := p.Deposit(ctx, bob.ID, dec("30000"), dec("90000"), day(30)); return err },
		func() error { _, err := p.UpdateValuation(ctx, dec("110000"), day(200)); return err },
		func() error { _, err := p.Withdraw(ctx, alice.ID, dec("7000"), dec("103000"), day(400)); return err },
		func() error { _, err := p.SettleFees(ctx, day(450), dec("115000")); return err },
		func() error { _, err := p.Deposit(ctx, alice.ID, dec("5000"), dec("120000"), day(460)); return err },
		func() error { _, err := p.Withdraw(ctx, bob.ID, dec("1000000"), dec("80000"), day(500)); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertConserved(t, p)
	}

	var withdrawal int64
	for _, tx := range p.Transactions(bob.ID) {
		if tx.Kind == domain.KindWithdrawal {
			withdrawal = tx.ID
		}
	}
	_, err := p.Delete(ctx, withdrawal)
	require.NoError(t, err)
	assert.True(t, p.state.Tranches.InvestorUnits(bob.ID).IsPositive())
	assertConserved(t, p)
}

func TestSummary(t *testing.T) {
	p := newProcessor(t, savingStore(), operator, alice)
	s := p.Summary()
	assert.False(t, s.HasNAV)
	assert.True(t, s.Price.Equal(dec("10000")))

	_, err := p.Deposit(ctx, alice.ID, dec("20000"), dec("20000"), d0)
	require.NoError(t, err)

	s = p.Summary()
	assert.True(t, s.HasNAV)
	assert.True(t, s.NAV.Equal(dec("20000")))
	assert.True(t, s.TotalUnits.Equal(dec("2")))
	assert.True(t, s.Price.Equal(dec("10000")))
	assert.Equal(t, 2, s.Investors)
	assert.Equal(t, 1, s.Transactions)
}
