/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	defaultJob          = "fabricsync"
	defaultPushInterval = 15 * time.Second
)

var counterLabels = []string{"device_ip", "ether_name"}

// PrometheusSink accumulates interface counters in a private registry and
// pushes it to a Pushgateway. Cumulative fields become CounterVecs fed with
// the growth between readings; instantaneous fields become GaugeVecs.
type PrometheusSink struct {
	registry *prometheus.Registry
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	pusher   *push.Pusher
	interval time.Duration
	logger   logger.Logger

	mu   sync.Mutex
	last map[seriesKey]reading
}

type seriesKey struct {
	deviceIP  string
	etherName string
}

// reading is the previous cumulative snapshot of one interface.
type reading struct {
	lastClear float64
	totals    map[string]float64
}

var _ CounterSink = (*PrometheusSink)(nil)

func NewPrometheusSink(cfg *models.PrometheusConfig, log logger.Logger) (*PrometheusSink, error) {
	if cfg.PushgatewayURL == "" {
		return nil, ErrPushgatewayURL
	}

	job := cfg.Job
	if job == "" {
		job = defaultJob
	}

	interval := time.Duration(cfg.PushInterval)
	if interval <= 0 {
		interval = defaultPushInterval
	}

	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec, len(CounterFields)),
		gauges:   make(map[string]*prometheus.GaugeVec),
		interval: interval,
		logger:   log,
		last:     make(map[seriesKey]reading),
	}

	for _, f := range CounterFields {
		var collector prometheus.Collector

		if f.Kind == Instantaneous {
			vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: f.Name,
				Help: fmt.Sprintf("Last reported interface value %s.", f.Name),
			}, counterLabels)
			s.gauges[f.Name] = vec
			collector = vec
		} else {
			vec := prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: f.Name,
				Help: fmt.Sprintf("Accumulated interface counter %s.", f.Name),
			}, counterLabels)
			s.counters[f.Name] = vec
			collector = vec
		}

		if err := s.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register %s: %w", f.Name, err)
		}
	}

	s.pusher = push.New(cfg.PushgatewayURL, job).Gatherer(s.registry)

	return s, nil
}

// Observe records one reading of the interface's counters. Cumulative fields
// add the growth since the previous reading of the same series. The first
// reading, a value that dropped, or a changed last_clear counts the whole
// new value. Instantaneous fields set their gauge.
func (s *PrometheusSink) Observe(deviceIP string, intf *models.Interface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := seriesKey{deviceIP: deviceIP, etherName: intf.Name}
	prev, seen := s.last[key]
	restarted := !seen || prev.lastClear != intf.Counters.LastClear

	next := reading{
		lastClear: intf.Counters.LastClear,
		totals:    make(map[string]float64, len(s.counters)),
	}

	for _, f := range CounterFields {
		v := f.Value(&intf.Counters)

		if f.Kind == Instantaneous {
			s.gauges[f.Name].WithLabelValues(deviceIP, intf.Name).Set(v)
			continue
		}

		next.totals[f.Name] = v

		delta := v
		if old, ok := prev.totals[f.Name]; ok && !restarted && v >= old {
			delta = v - old
		}

		if delta > 0 {
			s.counters[f.Name].WithLabelValues(deviceIP, intf.Name).Add(delta)
		}
	}

	s.last[key] = next
}

// Push replaces the job's metrics on the gateway with the registry contents.
func (s *PrometheusSink) Push(ctx context.Context) error {
	if err := s.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push counters: %w", err)
	}

	return nil
}

// Run pushes on every interval until ctx is done. Failures are logged.
func (s *PrometheusSink) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Push(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("Pushgateway push failed")
			}
		}
	}
}

// Registry exposes the sink's collectors.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}
