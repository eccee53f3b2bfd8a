package forecast

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/heatctl/heatctl/infra/logger"
)

// AwattarConfig parameterizes the aWATTar market data client.
type AwattarConfig struct {
	// Country selects the market endpoint, "at" or "de".
	Country string `json:"country"`
	// VAT, Fees and Markup convert raw market prices into the effective
	// consumer price: (raw * (1 + markup) + fees) * (1 + vat).
	VAT    float64 `json:"vat"`
	Fees   float64 `json:"fees"`
	Markup float64 `json:"markup"`
}

// SetDefaults applies sane defaults.
func (c *AwattarConfig) SetDefaults() {
	if c.Country == "" {
		c.Country = "de"
	}
}

// Awattar retrieves day-ahead prices from the aWATTar market data API.
type Awattar struct {
	url  string
	cfg  AwattarConfig
	http *http.Client
	log  logger.Logger
}

// NewAwattar creates an Awattar client for the configured country.
func NewAwattar(cfg AwattarConfig) (*Awattar, error) {
	cfg.SetDefaults()
	if cfg.Country != "at" && cfg.Country != "de" {
		return nil, fmt.Errorf("awattar: country code %q not supported", cfg.Country)
	}
	return &Awattar{
		url:  fmt.Sprintf("https://api.awattar.%s/v1/marketdata", cfg.Country),
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger.New("awattar"),
	}, nil
}

type awattarResponse struct {
	Data []struct {
		StartTimestamp int64   `json:"start_timestamp"`
		EndTimestamp   int64   `json:"end_timestamp"`
		MarketPrice    float64 `json:"marketprice"`
		Unit           string  `json:"unit"`
	} `json:"data"`
}

// Prices implements PriceSource. The returned slice starts at the current
// hour boundary and extends as far as the published market data reaches
// without gaps.
func (a *Awattar) Prices(now time.Time) ([]float64, error) {
	resp, err := a.http.Get(a.url)
	if err != nil {
		return nil, fmt.Errorf("awattar request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var market awattarResponse
	if err := json.NewDecoder(resp.Body).Decode(&market); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	hourStart := now.Truncate(time.Hour)
	byOffset := make(map[int]float64, len(market.Data))
	for _, d := range market.Data {
		start := time.UnixMilli(d.StartTimestamp)
		offset := int(start.Sub(hourStart).Hours())
		if offset < 0 || !start.Truncate(time.Hour).Equal(start) {
			continue
		}
		// Market prices are EUR/MWh.
		byOffset[offset] = a.effectivePrice(d.MarketPrice / 1000)
	}
	return contiguousPrices(byOffset), nil
}

func (a *Awattar) effectivePrice(raw float64) float64 {
	return (raw*(1+a.cfg.Markup) + a.cfg.Fees) * (1 + a.cfg.VAT)
}

// contiguousPrices flattens an offset map into a gapless slice from hour 0.
func contiguousPrices(byOffset map[int]float64) []float64 {
	var out []float64
	for h := 0; ; h++ {
		p, ok := byOffset[h]
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}
