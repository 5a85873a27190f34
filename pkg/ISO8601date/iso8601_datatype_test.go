package iso8601date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2025-03-01", false},
		{"2025-02-30", true},
		{"2025/03/01", true},
		{"2025-03-01T00:00:00+09:00", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseDate(tt.in)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestParseDateTime(t *testing.T) {
	d, err := Parse("2025-03-01T09:30:00+09:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", d.Date())
	assert.True(t, d.Time().Equal(time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)))

	_, err = Parse("2025-03-01")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	d := FromTime(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-31"`, string(raw))

	var back ISO8601date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)
}
