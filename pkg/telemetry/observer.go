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
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/iface"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
)

// InterfaceLister reads committed interfaces of a device.
type InterfaceLister interface {
	FindAll(ctx context.Context, filter topology.NodeFilter) ([]models.Interface, error)
}

// Observer exports interfaces after each committed interface pass. Either
// sink may be nil. Nothing here can fail the pass.
type Observer struct {
	interfaces InterfaceLister
	counters   CounterSink
	series     TimeSeriesWriter
	logger     logger.Logger
	now        func() time.Time
}

var _ discovery.Observer = (*Observer)(nil)

func NewObserver(interfaces InterfaceLister, counters CounterSink, series TimeSeriesWriter, log logger.Logger) *Observer {
	return &Observer{
		interfaces: interfaces,
		counters:   counters,
		series:     series,
		logger:     log,
		now:        time.Now,
	}
}

func (o *Observer) Reconciled(ctx context.Context, report *discovery.Report) {
	if report.Feature != iface.Name || (o.counters == nil && o.series == nil) {
		return
	}

	intfs, err := o.interfaces.FindAll(ctx, topology.NodeFilter{DeviceIP: report.DeviceIP})
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("device_ip", report.DeviceIP).
			Msg("Could not read interfaces for telemetry")

		return
	}

	if !report.Scope.IsZero() {
		intfs = only(intfs, report.Scope.Name)
	}

	if o.series != nil {
		o.series.WriteInterfaces(report.DeviceIP, intfs, o.now())
	}

	if o.counters != nil {
		for i := range intfs {
			o.counters.Observe(report.DeviceIP, &intfs[i])
		}
	}
}

func only(intfs []models.Interface, name string) []models.Interface {
	for i := range intfs {
		if intfs[i].Name == name {
			return intfs[i : i+1]
		}
	}

	return nil
}
