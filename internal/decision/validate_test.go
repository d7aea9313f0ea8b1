package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransaction(t *testing.T) {
	valid := testTransaction()

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr string
	}{
		{name: "valid", mutate: func(tx *Transaction) {}},
		{
			name:    "missing id",
			mutate:  func(tx *Transaction) { tx.ID = "" },
			wantErr: "id",
		},
		{
			name:    "missing customer",
			mutate:  func(tx *Transaction) { tx.CustomerID = "" },
			wantErr: "customer_id",
		},
		{
			name:    "zero amount",
			mutate:  func(tx *Transaction) { tx.Amount = 0 },
			wantErr: "amount",
		},
		{
			name:    "negative amount",
			mutate:  func(tx *Transaction) { tx.Amount = -10 },
			wantErr: "amount",
		},
		{
			name:    "bad currency",
			mutate:  func(tx *Transaction) { tx.Currency = "EURO" },
			wantErr: "currency",
		},
		{
			name:    "missing country",
			mutate:  func(tx *Transaction) { tx.Country = "" },
			wantErr: "country",
		},
		{
			name:    "zero timestamp",
			mutate:  func(tx *Transaction) { tx.Timestamp = time.Time{} },
			wantErr: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := ValidateTransaction(tx)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestCustomerProfile_InUsualHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		hour       int
		want       bool
	}{
		{name: "inside plain window", start: 8, end: 20, hour: 12, want: true},
		{name: "outside plain window", start: 8, end: 20, hour: 3, want: false},
		{name: "window end excluded", start: 8, end: 20, hour: 20, want: false},
		{name: "wrapping window late", start: 22, end: 6, hour: 23, want: true},
		{name: "wrapping window early", start: 22, end: 6, hour: 2, want: true},
		{name: "wrapping window outside", start: 22, end: 6, hour: 12, want: false},
		{name: "no window recorded", start: 0, end: 0, hour: 4, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CustomerProfile{UsualHourStart: tt.start, UsualHourEnd: tt.end}
			assert.Equal(t, tt.want, p.InUsualHours(tt.hour))
		})
	}
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
	assert.Equal(t, 0.0, ClampScore(-5))
	assert.Equal(t, 100.0, ClampScore(240))
	assert.Equal(t, 55.5, ClampScore(55.5))
}
