package app

import (
	"context"
	"fmt"
	"time"

	"github.com/heatctl/heatctl/config"
	coreforecast "github.com/heatctl/heatctl/core/forecast"
	coremetrics "github.com/heatctl/heatctl/core/metrics"
	"github.com/heatctl/heatctl/core/scheduler"
	"github.com/heatctl/heatctl/core/telemetry"
	"github.com/heatctl/heatctl/infra/device"
	"github.com/heatctl/heatctl/infra/forecast"
	"github.com/heatctl/heatctl/infra/logger"
	"github.com/heatctl/heatctl/infra/metrics"
	"github.com/heatctl/heatctl/infra/mqtt"
)

// Service orchestrates the planning loop.
type Service struct {
	Scheduler   *scheduler.Scheduler
	Forecast    coreforecast.Source
	sink        *mqtt.Sink
	interval    time.Duration
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	dev, err := device.New(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	src, err := forecast.New(cfg.Forecast)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	var sink telemetry.Sink = telemetry.NopSink{}
	var mqttSink *mqtt.Sink
	if cfg.MQTT.Enabled() {
		mqttSink, err = mqtt.NewSink(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt sink: %w", err)
		}
		sink = mqttSink
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		s, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var rec coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		rec = sinks[0]
	} else if len(sinks) > 1 {
		rec = metrics.NewMultiSink(sinks...)
	}

	sched := scheduler.New(dev, cfg.Planner, sink, rec, logger.New("scheduler"))

	return &Service{
		Scheduler:   sched,
		Forecast:    src,
		sink:        mqttSink,
		interval:    time.Duration(cfg.LoopSeconds) * time.Second,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run executes planning passes at the configured interval until the context
// is cancelled. Passes run sequentially; a slow pass delays the next one.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.Scheduler.PublishConfig()
	s.pass()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.pass()
		}
	}
}

func (s *Service) pass() {
	f, err := s.Forecast.Hourly(time.Now())
	if err != nil {
		s.log.Errorf("forecast fetch failed, skipping pass: %v", err)
		return
	}
	if err := s.Scheduler.Plan(f); err != nil {
		s.log.Errorf("planning pass failed: %v", err)
	}
}

// Close removes the schedules the service created and releases resources.
func (s *Service) Close() error {
	s.Scheduler.Shutdown()
	if s.sink != nil {
		s.sink.Disconnect()
	}
	return nil
}
