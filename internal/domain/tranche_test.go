package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTranche_MirrorsEntryFields(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	investorID := uuid.New()

	tranche := NewTranche(investorID, date, decimal.NewFromInt(10000), decimal.NewFromInt(10))

	assert.Equal(t, investorID, tranche.InvestorID)
	assert.True(t, tranche.HWM.Equal(tranche.EntryPrice))
	assert.True(t, tranche.OriginalEntryPrice.Equal(tranche.EntryPrice))
	assert.True(t, tranche.OriginalEntryDate.Equal(date))
	assert.True(t, tranche.OriginalInvestedValue.Equal(decimal.NewFromInt(100000)))
	assert.True(t, tranche.CumulativeFeesPaid.IsZero())
	assert.NoError(t, tranche.Validate())
}

func TestTranche_Validate(t *testing.T) {
	base := NewTranche(uuid.New(), time.Now(), decimal.NewFromInt(100), decimal.NewFromInt(5))

	tests := []struct {
		name    string
		mutate  func(tr *Tranche)
		wantErr string
	}{
		{name: "Valid tranche", mutate: func(tr *Tranche) {}},
		{name: "Negative units", mutate: func(tr *Tranche) { tr.Units = decimal.NewFromInt(-1) }, wantErr: "units cannot be negative"},
		{name: "Zero entry price", mutate: func(tr *Tranche) { tr.EntryPrice = decimal.Zero; tr.HWM = decimal.Zero }, wantErr: "entry price must be positive"},
		{name: "HWM below entry", mutate: func(tr *Tranche) { tr.HWM = decimal.NewFromInt(99) }, wantErr: "high-water mark"},
		{name: "Missing investor", mutate: func(tr *Tranche) { tr.InvestorID = uuid.Nil }, wantErr: "must belong to an investor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTranche_ScaleKeepsFeeBasis(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tr := NewTranche(uuid.New(), date, decimal.NewFromInt(100), decimal.NewFromInt(10))

	tr.Scale(decimal.NewFromInt(4))

	assert.True(t, tr.Units.Equal(decimal.NewFromInt(4)))
	assert.True(t, tr.OriginalInvestedValue.Equal(decimal.NewFromInt(400)))
	assert.True(t, tr.EntryPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, tr.HWM.Equal(decimal.NewFromInt(100)))
	assert.True(t, tr.InvestedValue().Equal(decimal.NewFromInt(400)))
	assert.True(t, tr.IsOpen())

	tr.Scale(decimal.New(1, -7))
	assert.False(t, tr.IsOpen())
}
