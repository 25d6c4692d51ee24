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

// Package telemetry exports discovered interface state and counters to
// InfluxDB and a Prometheus Pushgateway.
package telemetry

import "github.com/carverauto/fabricsync/pkg/models"

// FieldKind says how a device reports a counter field.
type FieldKind int

const (
	// Cumulative fields are running totals since the last clear.
	Cumulative FieldKind = iota
	// Instantaneous fields are rates, utilization and timestamps sampled at
	// read time.
	Instantaneous
)

// CounterField maps one interface counter to its exported name.
type CounterField struct {
	Name  string
	Kind  FieldKind
	Value func(*models.InterfaceCounters) float64
}

// CounterFields covers every field of models.InterfaceCounters.
var CounterFields = []CounterField{
	{"in_bits_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.InBitsPerSecond }},
	{"in_broadcast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InBroadcastPkts }},
	{"in_discards", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InDiscards }},
	{"in_errors", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InErrors }},
	{"in_multicast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InMulticastPkts }},
	{"in_octets", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InOctets }},
	{"in_octets_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.InOctetsPerSecond }},
	{"in_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InPkts }},
	{"in_pkts_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.InPktsPerSecond }},
	{"in_unicast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.InUnicastPkts }},
	{"in_utilization", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.InUtilization }},
	{"last_clear", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.LastClear }},
	{"out_bits_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.OutBitsPerSecond }},
	{"out_broadcast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutBroadcastPkts }},
	{"out_discards", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutDiscards }},
	{"out_errors", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutErrors }},
	{"out_multicast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutMulticastPkts }},
	{"out_octets", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutOctets }},
	{"out_octets_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.OutOctetsPerSecond }},
	{"out_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutPkts }},
	{"out_pkts_per_second", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.OutPktsPerSecond }},
	{"out_unicast_pkts", Cumulative, func(c *models.InterfaceCounters) float64 { return c.OutUnicastPkts }},
	{"out_utilization", Instantaneous, func(c *models.InterfaceCounters) float64 { return c.OutUtilization }},
}
