package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingTotal(t *testing.T) {
	price := decimal.RequireFromString("120.50")
	start := NewDate(2025, time.March, 30)
	end := NewDate(2025, time.April, 2)

	total := BookingTotal(price, start, end)

	assert.True(t, decimal.RequireFromString("361.50").Equal(total), "got %s", total)
}

func TestBookingTotalLongStay(t *testing.T) {
	start := NewDate(1, time.January, 1)
	end := NewDate(1000, time.January, 1)

	total := BookingTotal(decimal.RequireFromString("0.01"), start, end)

	assert.True(t, decimal.RequireFromString("3648.77").Equal(total), "got %s", total)
}

func TestAmountInRange(t *testing.T) {
	assert.True(t, AmountInRange(decimal.RequireFromString("99999999.99")))
	assert.True(t, AmountInRange(decimal.RequireFromString("-99999999.99")))
	assert.False(t, AmountInRange(decimal.RequireFromString("100000000")))
	assert.False(t, AmountInRange(decimal.RequireFromString("199999999.98")))
}

func TestBookingTotalSameDay(t *testing.T) {
	d := NewDate(2025, time.June, 1)
	assert.True(t, BookingTotal(decimal.NewFromInt(80), d, d).IsZero())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleGuest.Valid())
	assert.True(t, RoleHost.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.Terminal())
	assert.True(t, PaymentStatusSuccess.Terminal())
	assert.True(t, PaymentStatusFailed.Terminal())
}

func TestDateJSON(t *testing.T) {
	var b struct {
		Start Date `json:"start_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2025-12-24"}`), &b))
	assert.Equal(t, "2025-12-24", b.Start.String())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_date":"2025-12-24"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start_date":"24/12/2025"}`), &b))
	assert.Error(t, json.Unmarshal([]byte(`{"start_date":20251224}`), &b))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-05", d.String())

	require.NoError(t, d.Scan([]byte("2025-02-06T00:00:00Z")))
	assert.Equal(t, "2025-02-06", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-02-06", v)

	assert.Error(t, d.Scan(42))
}

func TestDateDaysSince(t *testing.T) {
	a := NewDate(2024, time.February, 27)
	b := NewDate(2024, time.March, 1)
	assert.Equal(t, 3, b.DaysSince(a))
	assert.Equal(t, -3, a.DaysSince(b))

	assert.Equal(t, 364877, NewDate(1000, time.January, 1).DaysSince(NewDate(1, time.January, 1)))
	assert.Equal(t, -364877, NewDate(1, time.January, 1).DaysSince(NewDate(1000, time.January, 1)))
}
