package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_ErrorTokensReplaceNumbers(t *testing.T) {
	tokens := map[Status]string{
		StatusNoTrack:      "noTRK",
		StatusNoNavigation: "noNAV",
		StatusNoElevation:  "noELE",
		StatusOffTrack:     "offTRK",
		StatusReset:        "RESET",
	}
	for status, token := range tokens {
		r := Result{Status: status, RemainingUphill: 12, TotalUphill: 99}
		assert.Equal(t, token, r.RemainingUphillText())
		assert.Equal(t, token, r.RemainingDownhillText())
		assert.Equal(t, token, r.RemainingUphillPercentText())
		assert.Equal(t, token, r.RemainingDownhillPercentText())
		assert.Equal(t, token, r.TotalUphillText())
		assert.Equal(t, token, r.TotalDownhillText())
	}
}

func TestResult_Values(t *testing.T) {
	r := Result{
		RemainingUphill:          40,
		RemainingDownhill:        10,
		RemainingUphillPercent:   40,
		RemainingDownhillPercent: 20,
		TotalUphill:              100,
		TotalDownhill:            50,
		RouteName:                "Alpine loop",
	}
	assert.Equal(t, map[string]string{
		"remain_uphill":           "40",
		"remain_downhill":         "10",
		"remain_uphill_percent":   "40",
		"remain_downhill_percent": "20",
		"total_uphill":            "100",
		"total_downhill":          "50",
		"route_name":              "Alpine loop",
	}, r.Values())
}

func TestLookupField(t *testing.T) {
	f, ok := LookupField("total_downhill")
	require.True(t, ok)
	assert.Equal(t, "Total downhill", f.Label)
	assert.Equal(t, "offTRK", f.Get(Result{Status: StatusOffTrack}))

	_, ok = LookupField("my_speed")
	assert.False(t, ok)
}

func TestResult_JSONStatusToken(t *testing.T) {
	b, err := json.Marshal(Result{Status: StatusNoElevation, MatchedIndex: -1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"noELE"`)

	b, err = json.Marshal(Result{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"OK"`)
}

func TestStatus_UnmarshalText(t *testing.T) {
	var s Status
	require.NoError(t, s.UnmarshalText([]byte("offTRK")))
	assert.Equal(t, StatusOffTrack, s)
	assert.Error(t, s.UnmarshalText([]byte("lost")))
}
