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
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/iface"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errListFailed = errors.New("list failed")

func TestCounterFieldsExhaustive(t *testing.T) {
	t.Parallel()

	typ := reflect.TypeOf(models.InterfaceCounters{})
	require.Len(t, CounterFields, typ.NumField())

	var c models.InterfaceCounters

	v := reflect.ValueOf(&c).Elem()
	for i := 0; i < typ.NumField(); i++ {
		v.Field(i).SetFloat(float64(i + 1))
	}

	byName := make(map[string]CounterField, len(CounterFields))
	for _, f := range CounterFields {
		byName[f.Name] = f
	}

	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]

		f, ok := byName[tag]
		require.True(t, ok, "no accessor for %s", tag)
		assert.InDelta(t, float64(i+1), f.Value(&c), 0, tag)
	}
}

func TestPrometheusSinkAccumulates(t *testing.T) {
	t.Parallel()

	_, err := NewPrometheusSink(&models.PrometheusConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrPushgatewayURL)

	sink, err := NewPrometheusSink(&models.PrometheusConfig{PushgatewayURL: "http://127.0.0.1:9091"}, logger.NewTestLogger())
	require.NoError(t, err)

	eth0 := &models.Interface{Name: "Ethernet0", Counters: models.InterfaceCounters{InOctets: 100, OutPkts: 3}}
	eth4 := &models.Interface{Name: "Ethernet4", Counters: models.InterfaceCounters{InOctets: 7}}

	sink.Observe("10.0.0.1", eth0)
	sink.Observe("10.0.0.1", eth0)
	sink.Observe("10.0.0.1", eth4)

	assert.InDelta(t, 100.0, testutil.ToFloat64(sink.counters["in_octets"].WithLabelValues("10.0.0.1", "Ethernet0")), 0)
	assert.InDelta(t, 7.0, testutil.ToFloat64(sink.counters["in_octets"].WithLabelValues("10.0.0.1", "Ethernet4")), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(sink.counters["out_pkts"].WithLabelValues("10.0.0.1", "Ethernet0")), 0)

	// Zero readings never create a series.
	assert.Equal(t, 0, testutil.CollectAndCount(sink.counters["in_errors"]))
}

func TestPrometheusSinkAddsGrowthOnly(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(&models.PrometheusConfig{PushgatewayURL: "http://127.0.0.1:9091"}, logger.NewTestLogger())
	require.NoError(t, err)

	inOctets := func() float64 {
		return testutil.ToFloat64(sink.counters["in_octets"].WithLabelValues("10.0.0.1", "Ethernet0"))
	}

	observe := func(octets, lastClear float64) {
		sink.Observe("10.0.0.1", &models.Interface{
			Name:     "Ethernet0",
			Counters: models.InterfaceCounters{InOctets: octets, LastClear: lastClear},
		})
	}

	for _, v := range []float64{1000, 1000, 1010} {
		observe(v, 1)
	}

	assert.InDelta(t, 1010.0, inOctets(), 0)

	// Device counter wrapped or restarted: count from the new reading.
	observe(4, 1)
	assert.InDelta(t, 1014.0, inOctets(), 0)

	observe(9, 1)
	assert.InDelta(t, 1019.0, inOctets(), 0)

	// Cleared counters restart even when the new total is higher.
	observe(50, 2)
	assert.InDelta(t, 1069.0, inOctets(), 0)
}

func TestPrometheusSinkGauges(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(&models.PrometheusConfig{PushgatewayURL: "http://127.0.0.1:9091"}, logger.NewTestLogger())
	require.NoError(t, err)

	for _, f := range CounterFields {
		if f.Kind == Instantaneous {
			assert.Contains(t, sink.gauges, f.Name)
			assert.NotContains(t, sink.counters, f.Name)
		} else {
			assert.Contains(t, sink.counters, f.Name)
		}
	}

	sink.Observe("10.0.0.1", &models.Interface{Name: "Ethernet0", Counters: models.InterfaceCounters{InUtilization: 40}})
	sink.Observe("10.0.0.1", &models.Interface{Name: "Ethernet0", Counters: models.InterfaceCounters{InUtilization: 15}})

	assert.InDelta(t, 15.0, testutil.ToFloat64(sink.gauges["in_utilization"].WithLabelValues("10.0.0.1", "Ethernet0")), 0)
}

func TestPrometheusSinkPush(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		path   string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewPrometheusSink(&models.PrometheusConfig{PushgatewayURL: srv.URL, Job: "orca"}, logger.NewTestLogger())
	require.NoError(t, err)

	sink.Observe("10.0.0.1", &models.Interface{Name: "Ethernet0", Counters: models.InterfaceCounters{InOctets: 1}})
	require.NoError(t, sink.Push(context.Background()))

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/orca", path)
}

func TestPrometheusSinkPushFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink, err := NewPrometheusSink(&models.PrometheusConfig{PushgatewayURL: srv.URL}, logger.NewTestLogger())
	require.NoError(t, err)

	require.Error(t, sink.Push(context.Background()))
}

type fakePointWriter struct {
	points  []*write.Point
	flushed int
}

func (f *fakePointWriter) WritePoint(p *write.Point) { f.points = append(f.points, p) }

func (f *fakePointWriter) Flush() { f.flushed++ }

func tags(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}

	return out
}

func fields(p *write.Point) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}

	return out
}

func TestInfluxWriterPoints(t *testing.T) {
	t.Parallel()

	_, err := NewInfluxWriter(&models.InfluxDBConfig{}, logger.NewTestLogger())
	require.ErrorIs(t, err, ErrInfluxURL)

	fake := &fakePointWriter{}
	w := &InfluxWriter{writer: fake, logger: logger.NewTestLogger()}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.WriteInterfaces("10.0.0.1", []models.Interface{{
		Name:       "Ethernet0",
		Enabled:    true,
		MTU:        9100,
		OperStatus: "up",
		Counters:   models.InterfaceCounters{InOctets: 42},
	}}, ts)
	w.Close()

	require.Len(t, fake.points, 2)
	assert.Equal(t, 1, fake.flushed)

	disc := fake.points[0]
	assert.Equal(t, interfacesMeasurement, disc.Name())
	assert.Equal(t, map[string]string{"device_ip": "10.0.0.1"}, tags(disc))
	assert.Equal(t, "Ethernet0", fields(disc)["interface_name"])
	assert.Equal(t, true, fields(disc)["enabled"])
	assert.Equal(t, ts, disc.Time())

	counters := fake.points[1]
	assert.Equal(t, countersMeasurement, counters.Name())
	assert.Equal(t, map[string]string{"device_ip": "10.0.0.1", "ether_name": "Ethernet0"}, tags(counters))
	assert.Len(t, counters.FieldList(), len(CounterFields))
	assert.Equal(t, 42.0, fields(counters)["in_octets"])
}

type fakeLister struct {
	intfs []models.Interface
	err   error
}

func (f *fakeLister) FindAll(_ context.Context, filter topology.NodeFilter) ([]models.Interface, error) {
	if f.err != nil {
		return nil, f.err
	}

	var out []models.Interface

	for _, i := range f.intfs {
		if i.DeviceIP == filter.DeviceIP {
			out = append(out, i)
		}
	}

	return out, nil
}

type recordingSink struct {
	observed []string
}

func (r *recordingSink) Observe(_ string, intf *models.Interface) {
	r.observed = append(r.observed, intf.Name)
}

func (*recordingSink) Push(context.Context) error { return nil }

func TestObserverExportsInterfacePasses(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{intfs: []models.Interface{
		{DeviceIP: "10.0.0.1", Name: "Ethernet0"},
		{DeviceIP: "10.0.0.1", Name: "Ethernet4"},
		{DeviceIP: "10.0.0.2", Name: "Ethernet0"},
	}}
	sink := &recordingSink{}
	points := &fakePointWriter{}

	o := NewObserver(lister, sink, &InfluxWriter{writer: points, logger: logger.NewTestLogger()}, logger.NewTestLogger())
	ctx := context.Background()

	o.Reconciled(ctx, &discovery.Report{DeviceIP: "10.0.0.1", Feature: "vlan"})
	assert.Empty(t, sink.observed)

	o.Reconciled(ctx, &discovery.Report{DeviceIP: "10.0.0.1", Feature: iface.Name})
	assert.Equal(t, []string{"Ethernet0", "Ethernet4"}, sink.observed)
	assert.Len(t, points.points, 4)

	sink.observed = nil
	o.Reconciled(ctx, &discovery.Report{DeviceIP: "10.0.0.1", Feature: iface.Name, Scope: discovery.Scope{Name: "Ethernet4"}})
	assert.Equal(t, []string{"Ethernet4"}, sink.observed)
}

func TestObserverSwallowsReadErrors(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	o := NewObserver(&fakeLister{err: errListFailed}, sink, nil, logger.NewTestLogger())

	assert.NotPanics(t, func() {
		o.Reconciled(context.Background(), &discovery.Report{DeviceIP: "10.0.0.1", Feature: iface.Name})
	})
	assert.Empty(t, sink.observed)
}
