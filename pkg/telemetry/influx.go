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
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	interfacesMeasurement = "discovered_interfaces"
	countersMeasurement   = "interface_counters"
)

// pointWriter is the part of the non-blocking influx WriteAPI we use.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// InfluxWriter writes interface points through the batching write API.
type InfluxWriter struct {
	client influxdb2.Client
	writer pointWriter
	logger logger.Logger
}

var _ TimeSeriesWriter = (*InfluxWriter)(nil)

func NewInfluxWriter(cfg *models.InfluxDBConfig, log logger.Logger) (*InfluxWriter, error) {
	if cfg.URL == "" {
		return nil, ErrInfluxURL
	}

	opts := influxdb2.DefaultOptions()

	if cfg.BatchSize > 0 {
		opts.SetBatchSize(cfg.BatchSize)
	}

	if cfg.FlushInterval > 0 {
		opts.SetFlushInterval(uint(time.Duration(cfg.FlushInterval).Milliseconds()))
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	w := &InfluxWriter{
		client: client,
		writer: writeAPI,
		logger: log,
	}

	go w.logErrors(writeAPI.Errors())

	return w, nil
}

func (w *InfluxWriter) logErrors(errs <-chan error) {
	for err := range errs {
		w.logger.Warn().Err(err).Msg("InfluxDB write failed")
	}
}

// WriteInterfaces emits one discovered_interfaces and one interface_counters
// point per interface.
func (w *InfluxWriter) WriteInterfaces(deviceIP string, intfs []models.Interface, ts time.Time) {
	for i := range intfs {
		intf := &intfs[i]

		w.writer.WritePoint(write.NewPoint(interfacesMeasurement,
			map[string]string{"device_ip": deviceIP},
			map[string]interface{}{
				"interface_name": intf.Name,
				"enabled":        intf.Enabled,
				"mtu":            intf.MTU,
				"speed":          intf.Speed,
				"fec":            intf.FEC,
				"oper_status":    intf.OperStatus,
				"admin_status":   intf.AdminStatus,
				"description":    intf.Description,
				"mac_address":    intf.MAC,
			},
			ts,
		))

		fields := make(map[string]interface{}, len(CounterFields))
		for _, f := range CounterFields {
			fields[f.Name] = f.Value(&intf.Counters)
		}

		w.writer.WritePoint(write.NewPoint(countersMeasurement,
			map[string]string{"device_ip": deviceIP, "ether_name": intf.Name},
			fields,
			ts,
		))
	}
}

// Flush blocks until buffered points are sent.
func (w *InfluxWriter) Flush() {
	w.writer.Flush()
}

// Close flushes and releases the client.
func (w *InfluxWriter) Close() {
	w.Flush()

	if w.client != nil {
		w.client.Close()
	}
}
