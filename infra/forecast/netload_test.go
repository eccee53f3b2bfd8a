package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices struct {
	prices []float64
	err    error
}

func (s stubPrices) Prices(time.Time) ([]float64, error) { return s.prices, s.err }

type stubLoad struct {
	load []float64
	err  error
}

func (s stubLoad) Load(_ time.Time, hours int) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.load[:hours], nil
}

type stubProduction struct {
	prod []float64
	err  error
}

func (s stubProduction) Production(_ time.Time, hours int) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prod[:hours], nil
}

func TestNetLoadCombines(t *testing.T) {
	now := time.Date(2026, 1, 10, 6, 15, 0, 0, time.UTC)
	n := NewNetLoad(
		stubPrices{prices: []float64{0.1, 0.2}},
		stubLoad{load: []float64{500, 500}},
		stubProduction{prod: []float64{2000, 0}},
	)

	f, err := n.Hourly(now)
	require.NoError(t, err)
	assert.True(t, f.Start.Equal(now.Truncate(time.Hour)))
	assert.Equal(t, 2, f.Hours())
	assert.Equal(t, []float64{-1500, 500}, f.NetConsumption)
}

func TestNetLoadWithoutProduction(t *testing.T) {
	n := NewNetLoad(
		stubPrices{prices: []float64{0.1}},
		stubLoad{load: []float64{700}},
		nil,
	)
	f, err := n.Hourly(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{700}, f.NetConsumption)
}

func TestNetLoadProductionFailureDegrades(t *testing.T) {
	n := NewNetLoad(
		stubPrices{prices: []float64{0.1}},
		stubLoad{load: []float64{700}},
		stubProduction{err: errors.New("api down")},
	)
	f, err := n.Hourly(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{700}, f.NetConsumption)
}

func TestNetLoadPriceFailureIsFatal(t *testing.T) {
	n := NewNetLoad(stubPrices{err: errors.New("api down")}, stubLoad{}, nil)
	_, err := n.Hourly(time.Now())
	assert.Error(t, err)

	n = NewNetLoad(stubPrices{}, stubLoad{}, nil)
	_, err = n.Hourly(time.Now())
	assert.Error(t, err, "empty price horizon must not produce a forecast")
}

func TestNetLoadLoadFailureIsFatal(t *testing.T) {
	n := NewNetLoad(
		stubPrices{prices: []float64{0.1}},
		stubLoad{err: errors.New("bad profile")},
		nil,
	)
	_, err := n.Hourly(time.Now())
	assert.Error(t, err)
}
