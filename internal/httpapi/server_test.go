package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackprogress/internal/elevation"
	"trackprogress/internal/progress"
)

type fakeCalculator struct {
	res     progress.Result
	ready   bool
	profile elevation.Profile
	calls   int
}

func (f *fakeCalculator) Calculate(context.Context) progress.Result {
	f.calls++
	return f.res
}
func (f *fakeCalculator) IsReady() bool              { return f.ready }
func (f *fakeCalculator) Profile() elevation.Profile { return f.profile }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProgress_OK(t *testing.T) {
	c := &fakeCalculator{res: progress.Result{RemainingUphill: 40, TotalUphill: 100, RemainingUphillPercent: 40, RouteName: "Ridge"}}
	rec := get(t, NewHandler(c), "/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var body progressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "40", body.Fields["remain_uphill"])
	assert.Equal(t, "100", body.Fields["total_uphill"])
	assert.Equal(t, "Ridge", body.Fields["route_name"])
}

func TestProgress_ErrorToken(t *testing.T) {
	c := &fakeCalculator{res: progress.Result{Status: progress.StatusNoNavigation}}
	rec := get(t, NewHandler(c), "/progress")

	var body progressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "noNAV", body.Status)
	assert.Equal(t, "noNAV", body.Fields["remain_downhill_percent"])
}

func TestProgressField(t *testing.T) {
	c := &fakeCalculator{res: progress.Result{Status: progress.StatusOffTrack}}
	h := NewHandler(c)

	rec := get(t, h, "/progress/total_downhill")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "offTRK", rec.Body.String())

	rec = get(t, h, "/progress/bogus")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, c.calls, "unknown field does not run a cycle")
}

func TestProfile(t *testing.T) {
	c := &fakeCalculator{}
	rec := get(t, NewHandler(c), "/profile")
	assert.JSONEq(t, `[]`, rec.Body.String())

	c.profile = elevation.Profile{{Uphill: 5, Downhill: 10}, {Uphill: 5, Downhill: 10}}
	rec = get(t, NewHandler(c), "/profile")
	assert.JSONEq(t, `[{"uphill":5,"downhill":10},{"uphill":5,"downhill":10}]`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	c := &fakeCalculator{}
	h := NewHandler(c)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c.ready = true
	rec = get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ready":true}`, rec.Body.String())
}
