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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/events"
	"github.com/carverauto/fabricsync/pkg/feature/device"
	"github.com/carverauto/fabricsync/pkg/feature/iface"
	"github.com/carverauto/fabricsync/pkg/feature/lldp"
	"github.com/carverauto/fabricsync/pkg/feature/portchannel"
	"github.com/carverauto/fabricsync/pkg/feature/vlan"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/poller"
	"github.com/carverauto/fabricsync/pkg/telemetry"
	"github.com/carverauto/fabricsync/pkg/topology"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired pipeline shared by every subcommand.
type app struct {
	cfg        *poller.Config
	logger     logger.Logger
	store      *topology.Store
	transport  *gnmi.Transport
	reconciler *discovery.Reconciler
	vlans      *vlan.Service

	closers []func()
}

func newApp(ctx context.Context, cfg *poller.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	graph, err := a.openGraph(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store = topology.NewStore(graph, log)

	prober, err := gnmi.NewProber(&cfg.GNMI)
	if err != nil {
		a.Close()
		return nil, err
	}

	creds := gnmi.StaticCredentials{Username: cfg.GNMI.Username, Password: cfg.GNMI.Password}
	dialer := gnmi.NewSecureDialer(&cfg.GNMI, prober, creds, log)

	pool := gnmi.NewChannelPool(dialer, cfg.GNMI.Port, log)
	a.onClose(func() {
		if err := pool.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close gNMI channels")
		}
	})

	a.transport = gnmi.NewTransport(pool, a.store, time.Duration(cfg.GNMI.Timeout), log)

	// Device runs first so the readiness gate sees a fresh status.
	a.reconciler, err = discovery.NewReconciler(a.transport, a.store, log,
		device.New(log),
		iface.New(log),
		portchannel.New(log),
		vlan.New(log),
		lldp.New(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.vlans = vlan.NewService(a.transport, a.reconciler, a.store, log)

	return a, nil
}

func (a *app) openGraph(ctx context.Context) (topology.Graph, error) {
	if a.cfg.Database == nil {
		a.logger.Warn().Msg("No database configured, topology is kept in memory only")
		return topology.NewMemoryGraph(), nil
	}

	pool, err := topology.NewPool(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect topology database: %w", err)
	}

	a.onClose(pool.Close)

	if err := topology.RunMigrations(ctx, pool, a.logger); err != nil {
		return nil, fmt.Errorf("migrate topology database: %w", err)
	}

	return topology.NewPostgresGraph(pool, a.logger), nil
}

// attachSinks subscribes the configured event and telemetry sinks to
// committed passes.
func (a *app) attachSinks(ctx context.Context) error {
	if a.cfg.NATS != nil {
		publisher, nc, err := events.Connect(ctx, a.cfg.NATS, a.logger)
		if err != nil {
			return err
		}

		a.onClose(func() {
			if err := nc.Drain(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to drain NATS connection")
			}
		})

		a.reconciler.AddObserver(publisher)
	}

	var (
		counters telemetry.CounterSink
		series   telemetry.TimeSeriesWriter
	)

	if a.cfg.Prometheus != nil {
		sink, err := telemetry.NewPrometheusSink(a.cfg.Prometheus, a.logger)
		if err != nil {
			return err
		}

		go sink.Run(ctx)

		a.onClose(func() {
			pushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := sink.Push(pushCtx); err != nil {
				a.logger.Warn().Err(err).Msg("Final Pushgateway push failed")
			}
		})

		counters = sink
	}

	if a.cfg.InfluxDB != nil {
		writer, err := telemetry.NewInfluxWriter(a.cfg.InfluxDB, a.logger)
		if err != nil {
			return err
		}

		a.onClose(writer.Close)

		series = writer
	}

	if counters != nil || series != nil {
		a.reconciler.AddObserver(telemetry.NewObserver(a.store.Interfaces, counters, series, a.logger))
	}

	return nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}
