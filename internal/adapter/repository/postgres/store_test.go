package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

var (
	ctx     = context.Background()
	d0      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	aliceID = uuid.MustParse("a1111111-1111-1111-1111-111111111111")
)

// containsArg matches a string argument holding substr
type containsArg string

func (c containsArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, string(c))
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(&DB{DB: db}), mock
}

func TestStore_LoadInvestors(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "join_date", "is_fund_operator"}).
		AddRow(domain.FundOperatorID.String(), "Fund Operator", "", "", d0, true).
		AddRow(aliceID.String(), "Alice", "alice@example.com", "555-0100", d0, false)
	mock.ExpectQuery("SELECT (.+) FROM investors ORDER BY position").WillReturnRows(rows)

	investors, err := store.LoadInvestors(ctx)

	require.NoError(t, err)
	require.Len(t, investors, 2)
	assert.Equal(t, domain.FundOperatorID, investors[0].ID)
	assert.True(t, investors[0].IsFundOperator)
	assert.Equal(t, "alice@example.com", investors[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadTranches(t *testing.T) {
	store, mock := newMockStore(t)
	trancheID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "investor_id", "entry_date", "entry_price", "units", "hwm",
		"original_entry_date", "original_entry_price", "original_invested_value", "cumulative_fees_paid",
	}).AddRow(trancheID.String(), aliceID.String(), d0, "10000", "2.5", "10000", d0, "10000", "25000", "0")
	mock.ExpectQuery("SELECT (.+) FROM tranches ORDER BY position").WillReturnRows(rows)

	tranches, err := store.LoadTranches(ctx)

	require.NoError(t, err)
	require.Len(t, tranches, 1)
	assert.Equal(t, trancheID, tranches[0].ID)
	assert.True(t, tranches[0].Units.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, tranches[0].OriginalInvestedValue.Equal(decimal.NewFromInt(25000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadTransactions(t *testing.T) {
	columns := []string{"id", "investor_id", "date", "kind", "amount", "nav", "units_delta", "related_id", "description"}

	t.Run("valuation updates have no investor", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), aliceID.String(), d0, "CONTRIBUTION", "1000", "1000", "0.1", int64(0), "").
			AddRow(int64(2), nil, d0, "VALUATION_UPDATE", "0", "1500", "0", int64(0), "Valuation update")
		mock.ExpectQuery("SELECT (.+) FROM transactions ORDER BY date, id").WillReturnRows(rows)

		txs, err := store.LoadTransactions(ctx)

		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, aliceID, txs[0].InvestorID)
		assert.Equal(t, uuid.Nil, txs[1].InvestorID)
		assert.Equal(t, domain.KindValuationUpdate, txs[1].Kind)
		assert.True(t, txs[1].NAV.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), aliceID.String(), d0, "DIVIDEND", "1", "-1", "0", int64(0), "")
		mock.ExpectQuery("SELECT (.+) FROM transactions").WillReturnRows(rows)

		_, err := store.LoadTransactions(ctx)
		assert.ErrorContains(t, err, "unknown kind")
	})

	t.Run("bad numeric is rejected", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := sqlmock.NewRows(columns).
			AddRow(int64(1), aliceID.String(), d0, "CONTRIBUTION", "abc", "-1", "0", int64(0), "")
		mock.ExpectQuery("SELECT (.+) FROM transactions").WillReturnRows(rows)

		_, err := store.LoadTransactions(ctx)
		assert.ErrorContains(t, err, "failed to parse amount")
	})
}

func TestStore_LoadFeeRecords(t *testing.T) {
	store, mock := newMockStore(t)
	recordID := uuid.New()
	trancheID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "transaction_id", "investor_id", "date", "period",
		"fee_amount", "fee_units", "calculation_price", "units_before", "units_after",
		"nav_per_unit_before", "nav_per_unit_after", "crystallized", "description", "prior_basis",
	}).AddRow(recordID.String(), int64(4), aliceID.String(), d0, "2024-Q1",
		"400", "0.02", "20000", "1", "0.98", "20000", "20000", true, "Fee settlement",
		`[{"TrancheID":"`+trancheID.String()+`","EntryDate":"2024-01-01T00:00:00Z","EntryPrice":"10000","HWM":"10000"}]`)
	mock.ExpectQuery("SELECT (.+) FROM fee_records ORDER BY position").WillReturnRows(rows)

	records, err := store.LoadFeeRecords(ctx)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(4), records[0].TransactionID)
	assert.True(t, records[0].Crystallized)
	assert.True(t, records[0].UnitsAfter.Equal(decimal.RequireFromString("0.98")))
	require.Len(t, records[0].PriorBasis, 1)
	assert.Equal(t, trancheID, records[0].PriorBasis[0].TrancheID)
	assert.True(t, records[0].PriorBasis[0].EntryDate.Equal(d0))
	assert.True(t, records[0].PriorBasis[0].HWM.Equal(decimal.NewFromInt(10000)))
}

func TestStore_LoadFeeRecords_BadPriorBasis(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "transaction_id", "investor_id", "date", "period",
		"fee_amount", "fee_units", "calculation_price", "units_before", "units_after",
		"nav_per_unit_before", "nav_per_unit_after", "crystallized", "description", "prior_basis",
	}).AddRow(uuid.NewString(), int64(4), aliceID.String(), d0, "2024-Q1",
		"400", "0.02", "20000", "1", "0.98", "20000", "20000", true, "Fee settlement", "{")
	mock.ExpectQuery("SELECT (.+) FROM fee_records ORDER BY position").WillReturnRows(rows)

	_, err := store.LoadFeeRecords(ctx)
	assert.ErrorContains(t, err, "failed to parse prior_basis")
}

func TestStore_LoadQueryFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM investors").WillReturnError(errors.New("connection reset"))

	_, err := store.LoadInvestors(ctx)
	assert.ErrorContains(t, err, "failed to query investors")
}

func fullDataset() ([]domain.Investor, []domain.Tranche, []domain.Transaction, []domain.FeeRecord) {
	investors := []domain.Investor{{ID: aliceID, Name: "Alice", JoinDate: d0}}
	tranches := []domain.Tranche{domain.NewTranche(aliceID, d0, decimal.NewFromInt(10000), decimal.RequireFromString("0.1"))}
	txs := []domain.Transaction{
		{ID: 1, InvestorID: aliceID, Date: d0, Kind: domain.KindContribution, Amount: decimal.NewFromInt(1000), NAV: decimal.NewFromInt(1000), UnitsDelta: decimal.RequireFromString("0.1")},
		{ID: 2, Date: d0, Kind: domain.KindValuationUpdate, Amount: decimal.Zero, NAV: decimal.NewFromInt(1500), UnitsDelta: decimal.Zero},
	}
	records := []domain.FeeRecord{{
		ID: uuid.New(), TransactionID: 3, InvestorID: aliceID, Date: d0, Period: "2024-Q1", Crystallized: true,
		PriorBasis: []domain.FeeBasis{{TrancheID: tranches[0].ID, EntryDate: d0, EntryPrice: decimal.NewFromInt(10000), HWM: decimal.NewFromInt(10000)}},
	}}
	return investors, tranches, txs, records
}

func TestStore_SaveAllData_ReplacesEverythingInOneTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	investors, tranches, txs, records := fullDataset()

	mock.ExpectBegin()
	for _, table := range []string{"fee_records", "transactions", "tranches", "investors"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectExec("INSERT INTO investors").
		WithArgs(sqlmock.AnyArg(), 0, "Alice", "", "", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tranches").
		WithArgs(sqlmock.AnyArg(), 0, sqlmock.AnyArg(), sqlmock.AnyArg(), "10000", "0.1", "10000",
			sqlmock.AnyArg(), "10000", "1000", "0").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), "CONTRIBUTION", "1000", "1000", "0.1", int64(0), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(int64(2), nil, sqlmock.AnyArg(), "VALUATION_UPDATE", "0", "1500", "0", int64(0), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	feeArgs := make([]driver.Value, 0, 16)
	for i := 0; i < 15; i++ {
		feeArgs = append(feeArgs, sqlmock.AnyArg())
	}
	feeArgs = append(feeArgs, containsArg(tranches[0].ID.String()))
	mock.ExpectExec("INSERT INTO fee_records").WithArgs(feeArgs...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SaveAllData(ctx, investors, tranches, txs, records)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAllData_RollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	investors, tranches, txs, records := fullDataset()

	mock.ExpectBegin()
	for _, table := range []string{"fee_records", "transactions", "tranches", "investors"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO investors").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tranches").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.SaveAllData(ctx, investors, tranches, txs, records)

	assert.ErrorContains(t, err, "failed to insert tranche")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAllData_BeginFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := store.SaveAllData(ctx, nil, nil, nil, nil)
	assert.ErrorContains(t, err, "failed to begin transaction")
}
