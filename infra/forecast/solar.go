package forecast

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/heatctl/heatctl/infra/logger"
)

// SolarConfig describes a single PV plane for the forecast.solar API.
type SolarConfig struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Declination float64 `json:"declination"`
	Azimuth     float64 `json:"azimuth"`
	KWp         float64 `json:"kwp"`
	URL         string  `json:"url"`
}

const forecastSolarDefaultURL = "https://api.forecast.solar"

// ForecastSolar retrieves PV production estimates from forecast.solar.
type ForecastSolar struct {
	cfg  SolarConfig
	http *http.Client
	log  logger.Logger
}

// NewForecastSolar creates a forecast.solar client.
func NewForecastSolar(cfg SolarConfig) *ForecastSolar {
	if cfg.URL == "" {
		cfg.URL = forecastSolarDefaultURL
	}
	return &ForecastSolar{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger.New("forecast.solar"),
	}
}

type forecastSolarResponse struct {
	Result struct {
		Watts map[string]float64 `json:"watts"`
	} `json:"result"`
}

// Production implements ProductionSource. The public API publishes estimates
// at plan-dependent resolution; each sample is attributed to the hour it
// falls in and samples within an hour are averaged.
func (f *ForecastSolar) Production(now time.Time, hours int) ([]float64, error) {
	url := fmt.Sprintf("%s/estimate/%.4f/%.4f/%g/%g/%g",
		f.cfg.URL, f.cfg.Lat, f.cfg.Lon, f.cfg.Declination, f.cfg.Azimuth, f.cfg.KWp)
	resp, err := f.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("forecast.solar request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var parsed forecastSolarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	hourStart := now.Truncate(time.Hour)
	sums := make([]float64, hours)
	counts := make([]int, hours)
	for ts, watts := range parsed.Result.Watts {
		at, err := time.ParseInLocation("2006-01-02 15:04:05", ts, now.Location())
		if err != nil {
			f.log.Warnf("skipping sample with bad timestamp %q: %v", ts, err)
			continue
		}
		offset := int(at.Truncate(time.Hour).Sub(hourStart).Hours())
		if offset < 0 || offset >= hours {
			continue
		}
		sums[offset] += watts
		counts[offset]++
	}
	out := make([]float64, hours)
	for i := range out {
		if counts[i] > 0 {
			out[i] = sums[i] / float64(counts[i])
		}
	}
	return out, nil
}
