package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSample_JSONRoundTrip(t *testing.T) {
	start := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	in := Sample{
		Value:       decimal.RequireFromString("123.456789012345"),
		DateFrom:    Millis(start),
		DateTo:      Millis(end),
		Source:      "Walkabout Watch",
		UserEntered: true,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Sample
	require.NoError(t, json.Unmarshal(data, &out))

	require.True(t, in.Value.Equal(out.Value), "value changed across encode/decode")
	require.Equal(t, in.DateFrom, out.DateFrom)
	require.Equal(t, in.DateTo, out.DateTo)
	require.Equal(t, in.Source, out.Source)
	require.Equal(t, in.UserEntered, out.UserEntered)
}

func TestDailyBucket_JSONShape(t *testing.T) {
	b := DailyBucket{Value: decimal.RequireFromString("8421"), Date: "2026-08-19"}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":"8421","date":"2026-08-19"}`, string(data))
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 20, 9, 30, 15, 250_000_000, time.UTC)
	require.Equal(t, ts.UTC(), FromMillis(Millis(ts)).UTC())
}
