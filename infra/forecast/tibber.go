package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/heatctl/heatctl/infra/logger"
)

// TibberConfig parameterizes the Tibber GraphQL client.
type TibberConfig struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

const tibberDefaultURL = "https://api.tibber.com/v1-beta/gql"

const tibberPriceQuery = `{"query": "{viewer {homes {currentSubscription {priceInfo(resolution: HOURLY) { today {total startsAt } tomorrow {total startsAt }}}}}}"}`

// Tibber retrieves hourly consumer prices from the Tibber GraphQL API.
type Tibber struct {
	cfg  TibberConfig
	http *http.Client
	log  logger.Logger
}

// NewTibber creates a Tibber client. The access token is required.
func NewTibber(cfg TibberConfig) (*Tibber, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("tibber: access token is required")
	}
	if cfg.URL == "" {
		cfg.URL = tibberDefaultURL
	}
	return &Tibber{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger.New("tibber"),
	}, nil
}

type tibberResponse struct {
	Data struct {
		Viewer struct {
			Homes []struct {
				CurrentSubscription struct {
					PriceInfo struct {
						Today    []tibberPrice `json:"today"`
						Tomorrow []tibberPrice `json:"tomorrow"`
					} `json:"priceInfo"`
				} `json:"currentSubscription"`
			} `json:"homes"`
		} `json:"viewer"`
	} `json:"data"`
}

type tibberPrice struct {
	Total    float64 `json:"total"`
	StartsAt string  `json:"startsAt"`
}

// Prices implements PriceSource.
func (t *Tibber) Prices(now time.Time) ([]float64, error) {
	req, err := http.NewRequest(http.MethodPost, t.cfg.URL, bytes.NewBufferString(tibberPriceQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tibber request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var parsed tibberResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Data.Viewer.Homes) == 0 {
		return nil, fmt.Errorf("tibber account has no homes")
	}

	info := parsed.Data.Viewer.Homes[0].CurrentSubscription.PriceInfo
	hourStart := now.Truncate(time.Hour)
	byOffset := make(map[int]float64)
	for _, p := range append(info.Today, info.Tomorrow...) {
		start, err := time.Parse(time.RFC3339, p.StartsAt)
		if err != nil {
			t.log.Warnf("skipping price with bad timestamp %q: %v", p.StartsAt, err)
			continue
		}
		offset := int(start.Sub(hourStart).Hours())
		if offset < 0 {
			continue
		}
		byOffset[offset] = p.Total
	}
	return contiguousPrices(byOffset), nil
}
