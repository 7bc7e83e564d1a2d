package money

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	b := Breakdown{
		Fifty:  2,  // 100.00
		Twenty: 3,  // 60.00
		Ten:    1,  // 10.00
		Five:   4,  // 20.00
		Two:    5,  // 10.00
		One:    7,  // 7.00
		Half:   3,  // 1.50
		Other:  decimal.RequireFromString("0.35"),
	}
	assert.True(t, b.Total().Equal(decimal.RequireFromString("208.85")),
		"total = %s", b.Total())
}

func TestTotalEmpty(t *testing.T) {
	var b Breakdown
	assert.True(t, b.Total().IsZero())
	assert.True(t, b.IsZero())
}

// The total must be the plain sum of count*face regardless of which
// denominations are populated, so spot-check each denomination alone.
func TestTotalSingleDenominations(t *testing.T) {
	cases := []struct {
		name string
		b    Breakdown
		want string
	}{
		{"fifty", Breakdown{Fifty: 3}, "150"},
		{"twenty", Breakdown{Twenty: 3}, "60"},
		{"ten", Breakdown{Ten: 3}, "30"},
		{"five", Breakdown{Five: 3}, "15"},
		{"two", Breakdown{Two: 3}, "6"},
		{"one", Breakdown{One: 3}, "3"},
		{"half", Breakdown{Half: 3}, "1.5"},
		{"other", Breakdown{Other: decimal.RequireFromString("12.34")}, "12.34"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.b.Total().Equal(decimal.RequireFromString(tc.want)),
				"total = %s, want %s", tc.b.Total(), tc.want)
		})
	}
}

// Persisting a breakdown and reloading it must preserve the total exactly:
// the counts are integers and Other is serialized as a decimal string, so
// there is no room for float drift.
func TestJSONRoundTripPreservesTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		b := Breakdown{
			Fifty:  rng.Int63n(200),
			Twenty: rng.Int63n(200),
			Ten:    rng.Int63n(200),
			Five:   rng.Int63n(200),
			Two:    rng.Int63n(200),
			One:    rng.Int63n(200),
			Half:   rng.Int63n(200),
			Other:  decimal.New(rng.Int63n(100000), -2),
		}
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		var got Breakdown
		require.NoError(t, json.Unmarshal(raw, &got))
		require.True(t, got.Total().Equal(b.Total()),
			"round trip changed total: %s -> %s", b.Total(), got.Total())
	}
}
