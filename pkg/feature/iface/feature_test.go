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

package iface

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDevice = "10.0.0.1"

const fixture = `{
  "openconfig-interfaces:interfaces": {
    "interface": [
      {
        "name": "Ethernet4",
        "config": {"enabled": false, "mtu": 9100},
        "state": {"admin-status": "DOWN", "oper-status": "DOWN"}
      },
      {
        "name": "Ethernet0",
        "config": {"enabled": true, "mtu": 1500, "description": "config desc"},
        "state": {
          "enabled": true,
          "admin-status": "UP",
          "oper-status": "openconfig-interfaces:UP",
          "mtu": 9100,
          "description": "uplink",
          "mac-address": "0C:29:EF:CF:AC:A0",
          "last-change": "1700000000",
          "counters": {"in-octets": "18446744073709", "out-pkts": 42, "in-utilization": 3}
        },
        "openconfig-if-ethernet:ethernet": {
          "state": {
            "port-speed": "openconfig-if-ethernet:SPEED_25GB",
            "openconfig-if-ethernet-ext2:port-fec": "openconfig-platform-types:FEC_RS"
          }
        },
        "subinterfaces": {
          "subinterface": [
            {"index": 0, "openconfig-if-ip:ipv4": {"addresses": {"address": [
              {"ip": "192.0.2.1", "config": {"prefix-length": 31}}
            ]}}}
          ]
        }
      }
    ]
  }
}`

func resultFrom(t *testing.T, doc string) gnmi.Result {
	t.Helper()

	var result gnmi.Result
	require.NoError(t, json.Unmarshal([]byte(doc), &result))

	return result
}

func apply(t *testing.T, store *topology.Store, scope discovery.Scope, result gnmi.Result) discovery.Summary {
	t.Helper()

	var summary discovery.Summary

	err := store.Atomic(context.Background(), func(repos *topology.Repos) error {
		s, err := New(logger.NewTestLogger()).Apply(context.Background(), repos, testDevice, scope, result)
		summary = s

		return err
	})
	require.NoError(t, err)

	return summary
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got, err := Normalize(testDevice, resultFrom(t, fixture))
	require.NoError(t, err)
	require.Len(t, got, 2)

	eth0 := got[0]
	assert.Equal(t, "Ethernet0", eth0.Name)
	assert.True(t, eth0.Enabled)
	assert.Equal(t, "up", eth0.AdminStatus)
	assert.Equal(t, "up", eth0.OperStatus)
	assert.Equal(t, 9100, eth0.MTU)
	assert.Equal(t, "speed_25gb", eth0.Speed)
	assert.True(t, eth0.FEC)
	assert.Equal(t, "uplink", eth0.Description)
	assert.Equal(t, "0c:29:ef:cf:ac:a0", eth0.MAC)
	assert.InDelta(t, 18446744073709.0, eth0.Counters.InOctets, 1)
	assert.InDelta(t, 42.0, eth0.Counters.OutPkts, 0)
	assert.Equal(t, []models.SubInterface{{Index: 0, IPAddresses: []string{"192.0.2.1/31"}}}, eth0.SubInterfaces)

	eth4 := got[1]
	assert.False(t, eth4.Enabled)
	assert.Equal(t, 9100, eth4.MTU)
	assert.False(t, eth4.FEC)
}

func TestNormalizeScopedResult(t *testing.T) {
	t.Parallel()

	got, err := Normalize(testDevice, resultFrom(t, `{"openconfig-interfaces:interface":[{"name":"Ethernet8"}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ethernet8", got[0].Name)
}

func TestReadPaths(t *testing.T) {
	t.Parallel()

	f := New(logger.NewTestLogger())

	all, err := f.ReadPaths(discovery.Scope{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].GetElem(), 1)

	one, err := f.ReadPaths(discovery.Scope{Name: "Ethernet1/1"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, map[string]string{"name": "Ethernet1/1"}, one[0].GetElem()[1].GetKey())
}

func TestApplyRemovesVanishedInterfaces(t *testing.T) {
	t.Parallel()

	store := topology.NewStore(topology.NewMemoryGraph(), logger.NewTestLogger())
	ctx := context.Background()

	first := apply(t, store, discovery.Scope{}, resultFrom(t, fixture))
	assert.Equal(t, discovery.Summary{Upserted: 2, Relationships: 2}, first)

	// Scoped pass for an interface the device no longer has.
	scoped := apply(t, store, discovery.Scope{Name: "Ethernet4"}, gnmi.Result{})
	assert.Equal(t, 1, scoped.Deleted)

	has, err := store.Devices.Relationships(ctx, testDevice, topology.RelHas)
	require.NoError(t, err)
	require.Len(t, has, 1)
	assert.Equal(t, topology.InterfaceRef(testDevice, "Ethernet0"), has[0].To)

	empty := apply(t, store, discovery.Scope{}, gnmi.Result{})
	assert.Equal(t, 1, empty.Deleted)

	all, err := store.Interfaces.FindAll(ctx, topology.NodeFilter{DeviceIP: testDevice})
	require.NoError(t, err)
	assert.Empty(t, all)
}
