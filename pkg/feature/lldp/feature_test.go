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

package lldp

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

const fixture = `{
  "openconfig-lldp:interfaces": {
    "interface": [
      {"name": "Ethernet0", "neighbors": {"neighbor": [
        {"id": "Ethernet0", "state": {"chassis-id": "0c:29:ef:cf:ac:a1", "management-address": "10.0.0.2",
          "port-id": "Ethernet4", "system-name": "leaf2"}}
      ]}},
      {"name": "Ethernet8", "neighbors": {"neighbor": [
        {"id": "Ethernet8", "state": {"management-address": "10.0.0.9/24", "port-id": "Ethernet0"}}
      ]}},
      {"name": "Ethernet12", "neighbors": {"neighbor": [
        {"id": "Ethernet12", "state": {"port-id": "Ethernet0"}}
      ]}}
    ]
  }
}`

func resultFrom(t *testing.T, doc string) gnmi.Result {
	t.Helper()

	var result gnmi.Result
	require.NoError(t, json.Unmarshal([]byte(doc), &result))

	return result
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got, err := Normalize(resultFrom(t, fixture))
	require.NoError(t, err)

	assert.Equal(t, []Neighbor{
		{LocalInterface: "Ethernet0", RemoteIP: "10.0.0.2", RemotePort: "Ethernet4", SystemName: "leaf2", ChassisID: "0c:29:ef:cf:ac:a1"},
		{LocalInterface: "Ethernet8", RemoteIP: "10.0.0.9", RemotePort: "Ethernet0"},
	}, got)
}

func TestApplyLinksKnownDevicesOnly(t *testing.T) {
	t.Parallel()

	store := topology.NewStore(topology.NewMemoryGraph(), logger.NewTestLogger())
	ctx := context.Background()

	require.NoError(t, store.Atomic(ctx, func(repos *topology.Repos) error {
		if err := repos.Devices.Upsert(ctx, &models.Device{MgmtIP: "10.0.0.1"}); err != nil {
			return err
		}

		if err := repos.Devices.Upsert(ctx, &models.Device{MgmtIP: "10.0.0.2"}); err != nil {
			return err
		}

		return repos.Interfaces.Upsert(ctx, &models.Interface{DeviceIP: "10.0.0.1", Name: "Ethernet0"})
	}))

	run := func(result gnmi.Result) discovery.Summary {
		var summary discovery.Summary

		require.NoError(t, store.Atomic(ctx, func(repos *topology.Repos) error {
			s, err := New(logger.NewTestLogger()).Apply(ctx, repos, "10.0.0.1", discovery.Scope{}, result)
			summary = s

			return err
		}))

		return summary
	}

	summary := run(resultFrom(t, fixture))
	assert.Equal(t, 2, summary.Relationships)

	nbrs, err := store.Interfaces.Relationships(ctx, topology.InterfaceRef("10.0.0.1", "Ethernet0").Key, topology.RelLLDPNeighbor)
	require.NoError(t, err)
	require.Len(t, nbrs, 1)
	assert.Equal(t, topology.InterfaceRef("10.0.0.2", "Ethernet4"), nbrs[0].To)
	assert.Equal(t, "leaf2", nbrs[0].Attrs["system_name"])

	peers, err := store.Devices.Relationships(ctx, "10.0.0.1", topology.RelLLDP)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, topology.DeviceRef("10.0.0.2"), peers[0].To)

	// The neighbor went away.
	run(gnmi.Result{})

	nbrs, err = store.Interfaces.Relationships(ctx, topology.InterfaceRef("10.0.0.1", "Ethernet0").Key, topology.RelLLDPNeighbor)
	require.NoError(t, err)
	assert.Empty(t, nbrs)

	peers, err = store.Devices.Relationships(ctx, "10.0.0.1", topology.RelLLDP)
	require.NoError(t, err)
	assert.Empty(t, peers)
}
