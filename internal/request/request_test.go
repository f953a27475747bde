package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/healthbridge-lab/healthbridge/internal/api/v1"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
)

func TestParsePermissions(t *testing.T) {
	reg := metric.NewRegistry()

	tests := []struct {
		name      string
		input     []string
		want      []metric.Type
		wantError bool
	}{
		{name: "single metric", input: []string{"steps"}, want: []metric.Type{metric.TypeSteps}},
		{
			name:  "duplicates collapse silently",
			input: []string{"steps", "energy", "steps"},
			want:  []metric.Type{metric.TypeSteps, metric.TypeEnergy},
		},
		{name: "empty list invalid", input: nil, wantError: true},
		{name: "unknown metric invalid", input: []string{"steps", "mood"}, wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePermissions(tc.input, reg)
			if tc.wantError {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Metrics)
		})
	}
}

func TestParsePermissions_OrderIndependent(t *testing.T) {
	reg := metric.NewRegistry()

	a, err := ParsePermissions([]string{"steps", "energy"}, reg)
	require.NoError(t, err)
	b, err := ParsePermissions([]string{"energy", "steps"}, reg)
	require.NoError(t, err)

	require.ElementsMatch(t, a.Metrics, b.Metrics)
}

func TestParseRead(t *testing.T) {
	reg := metric.NewRegistry()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	from := now.Add(-72 * time.Hour)
	fromMs := v1.Millis(from)
	toMs := v1.Millis(now.Add(-time.Hour))
	badLimit := 0
	goodLimit := 5

	tests := []struct {
		name      string
		args      ReadArgs
		check     func(t *testing.T, r Read)
		wantError bool
	}{
		{
			name: "explicit range with limit",
			args: ReadArgs{Metric: "steps", DateFrom: &fromMs, DateTo: &toMs, Limit: &goodLimit},
			check: func(t *testing.T, r Read) {
				require.Equal(t, metric.TypeSteps, r.Metric)
				require.Equal(t, from.UTC(), r.DateFrom.UTC())
				require.Equal(t, 5, r.Limit)
			},
		},
		{
			name: "absent date_to resolves to call-time now",
			args: ReadArgs{Metric: "steps", DateFrom: &fromMs},
			check: func(t *testing.T, r Read) {
				require.Equal(t, now, r.DateTo)
				require.Equal(t, 0, r.Limit)
			},
		},
		{name: "unknown metric", args: ReadArgs{Metric: "mood", DateFrom: &fromMs}, wantError: true},
		{name: "missing date_from", args: ReadArgs{Metric: "steps"}, wantError: true},
		{name: "non-positive limit", args: ReadArgs{Metric: "steps", DateFrom: &fromMs, Limit: &badLimit}, wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseRead(tc.args, reg, now)
			if tc.wantError {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			tc.check(t, r)
		})
	}
}

func TestParseRead_FromAfterToInvalid(t *testing.T) {
	reg := metric.NewRegistry()
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	fromMs := v1.Millis(now)
	toMs := v1.Millis(now.Add(-time.Hour))

	_, err := ParseRead(ReadArgs{Metric: "steps", DateFrom: &fromMs, DateTo: &toMs}, reg, now)
	require.ErrorIs(t, err, ErrInvalid)
}
