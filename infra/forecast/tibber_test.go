package forecast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tibberServer(t *testing.T, today, tomorrow []tibberPrice) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		resp := map[string]any{
			"data": map[string]any{
				"viewer": map[string]any{
					"homes": []any{
						map[string]any{
							"currentSubscription": map[string]any{
								"priceInfo": map[string]any{
									"today":    today,
									"tomorrow": tomorrow,
								},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestTibberRequiresToken(t *testing.T) {
	_, err := NewTibber(TibberConfig{})
	assert.Error(t, err)
}

func TestTibberPrices(t *testing.T) {
	now := time.Date(2026, 1, 10, 22, 30, 0, 0, time.UTC)
	hourStart := now.Truncate(time.Hour)
	stamp := func(offset int) string {
		return hourStart.Add(time.Duration(offset) * time.Hour).Format(time.RFC3339)
	}
	srv := tibberServer(t,
		[]tibberPrice{{Total: 0.28, StartsAt: stamp(-1)}, {Total: 0.30, StartsAt: stamp(0)}, {Total: 0.26, StartsAt: stamp(1)}},
		[]tibberPrice{{Total: 0.22, StartsAt: stamp(2)}},
	)
	defer srv.Close()

	tb, err := NewTibber(TibberConfig{Token: "secret", URL: srv.URL})
	require.NoError(t, err)

	prices, err := tb.Prices(now)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.30, 0.26, 0.22}, prices)
}

func TestTibberNoHomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"viewer": map[string]any{"homes": []any{}}},
		})
	}))
	defer srv.Close()

	tb, err := NewTibber(TibberConfig{Token: "secret", URL: srv.URL})
	require.NoError(t, err)
	_, err = tb.Prices(time.Now())
	assert.Error(t, err)
}
