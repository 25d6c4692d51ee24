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

// Package poller schedules reconciliation sweeps across the fabric.
package poller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
)

// Poller periodically reconciles every feature on every known device.
type Poller struct {
	config     *Config
	discoverer Discoverer
	devices    DeviceSource
	clock      Clock
	logger     logger.Logger
	features   []string

	sweeping  atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	startWg   sync.WaitGroup
}

// New creates a poller. devices may be nil, in which case only the
// configured device list is swept. A nil clock uses wall time.
func New(config *Config, discoverer Discoverer, devices DeviceSource, clock Clock, log logger.Logger) (*Poller, error) {
	if config == nil {
		return nil, errConfigRequired
	}

	if discoverer == nil {
		return nil, errNoDiscoverer
	}

	if clock == nil {
		clock = realClock{}
	}

	registered := discoverer.Features()

	features := config.Features
	if len(features) == 0 {
		features = registered
	}

	for _, name := range features {
		if !slices.Contains(registered, name) {
			return nil, fmt.Errorf("%w: %q", discovery.ErrUnknownFeature, name)
		}
	}

	return &Poller{
		config:     config,
		discoverer: discoverer,
		devices:    devices,
		clock:      clock,
		logger:     log,
		features:   features,
		done:       make(chan struct{}),
	}, nil
}

// Start runs an initial sweep and then one per poll interval until ctx is
// cancelled or Stop is called. A tick that arrives while a sweep is still
// running is dropped.
func (p *Poller) Start(ctx context.Context) error {
	interval := time.Duration(p.config.PollInterval)
	ticker := p.clock.Ticker(interval)

	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", interval).
		Int("concurrency", p.config.Concurrency).
		Strs("features", p.features).
		Msg("Starting poller")

	p.startWg.Add(1)
	defer p.startWg.Done()

	p.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.Chan():
			p.wg.Add(1)

			go func() {
				defer p.wg.Done()

				p.sweep(ctx)
			}()
		}
	}
}

// Stop ends the schedule and waits for a running sweep to finish.
func (p *Poller) Stop() {
	p.closeOnce.Do(func() { close(p.done) })

	p.startWg.Wait()
	p.wg.Wait()
}

func (p *Poller) sweep(ctx context.Context) {
	if !p.sweeping.CompareAndSwap(false, true) {
		p.logger.Warn().Msg("Previous sweep still running, skipping tick")
		return
	}
	defer p.sweeping.Store(false)

	started := p.clock.Now()

	if err := p.SweepAll(ctx); err != nil {
		p.logger.Error().Err(err).Msg("Sweep finished with errors")
	}

	p.logger.Info().Dur("duration", p.clock.Now().Sub(started)).Msg("Sweep complete")
}

// SweepAll reconciles every feature on every target device, at most
// Concurrency devices at a time. A failing device does not stop the others;
// all device errors are joined into the result.
func (p *Poller) SweepAll(ctx context.Context) error {
	targets := p.targets(ctx)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	if p.config.Concurrency > 0 {
		g.SetLimit(p.config.Concurrency)
	}

	for _, ip := range targets {
		g.Go(func() error {
			if err := p.sweepDevice(ctx, ip); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

// targets merges the configured devices with those already in the graph.
func (p *Poller) targets(ctx context.Context) []string {
	targets := slices.Clone(p.config.Devices)

	if p.devices != nil {
		known, err := p.devices.DeviceIPs(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to list known devices, sweeping configured devices only")
		}

		targets = append(targets, known...)
	}

	slices.Sort(targets)

	return slices.Compact(targets)
}

func (p *Poller) sweepDevice(ctx context.Context, ip string) error {
	var errs []error

	for _, feature := range p.features {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		err := p.discover(ctx, discovery.Request{DeviceIP: ip, Feature: feature})
		if err == nil {
			continue
		}

		errs = append(errs, err)

		if errors.Is(err, gnmi.ErrDeviceUnreachable) || errors.Is(err, gnmi.ErrDeviceNotReady) {
			p.logger.Warn().Err(err).Str("device_ip", ip).Msg("Skipping remaining features for device")
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("sweep %s: %w", ip, errors.Join(errs...))
	}

	return nil
}

// discover retries transient transport failures with exponential backoff.
func (p *Poller) discover(ctx context.Context, req discovery.Request) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(p.config.Retry.InitialInterval)
	bo.MaxInterval = time.Duration(p.config.Retry.MaxInterval)

	operation := func() (*discovery.Report, error) {
		report, err := p.discoverer.Discover(ctx, req)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}

		return report, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.logger.Debug().
				Err(err).
				Str("device_ip", req.DeviceIP).
				Str("feature", req.Feature).
				Dur("retry_in", next).
				Msg("Retrying discovery")
		}),
	}

	if p.config.Retry.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(p.config.Retry.MaxTries))
	}

	_, err := backoff.Retry(ctx, operation, opts...)

	return err
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, gnmi.ErrDeviceUnreachable), errors.Is(err, gnmi.ErrDeviceNotReady):
		return false
	case errors.Is(err, gnmi.ErrInvalidConfig):
		return false
	default:
		return errors.Is(err, gnmi.ErrTransport)
	}
}
