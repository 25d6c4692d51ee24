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

package device

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
  "sonic-device_metadata:DEVICE_METADATA_LIST": [
    {"name": "localhost", "hostname": "leaf1", "hwsku": "DellEMC-S5248f-P-25G-DPB",
     "mac": "0C:29:EF:CF:AC:A0", "platform": "x86_64-kvm_x86_64-r0", "type": "LeafRouter"}
  ],
  "openconfig-system:state": {"hostname": "ignored", "software-version": "SONiC-OS-4.1.0", "mgmt-interface": "eth0"},
  "sonic-system-status:SYSTEM_STATUS": {"status": "System is ready"}
}`

func resultFrom(t *testing.T, doc string) gnmi.Result {
	t.Helper()

	var result gnmi.Result
	require.NoError(t, json.Unmarshal([]byte(doc), &result))

	return result
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	d, err := Normalize("10.0.0.1", resultFrom(t, fixture))
	require.NoError(t, err)

	assert.Equal(t, &models.Device{
		MgmtIP:       "10.0.0.1",
		MAC:          "0c:29:ef:cf:ac:a0",
		Hostname:     "leaf1",
		ImageName:    "SONiC-OS-4.1.0",
		MgmtIntf:     "eth0",
		HwSKU:        "DellEMC-S5248f-P-25G-DPB",
		Platform:     "x86_64-kvm_x86_64-r0",
		Type:         "LeafRouter",
		SystemStatus: "System is ready",
	}, d)
}

func TestNormalizeEmpty(t *testing.T) {
	t.Parallel()

	d, err := Normalize("10.0.0.1", gnmi.Result{})
	require.NoError(t, err)
	assert.Equal(t, &models.Device{MgmtIP: "10.0.0.1"}, d)
}

func TestReadPathsIncludeStatus(t *testing.T) {
	t.Parallel()

	paths, err := New(logger.NewTestLogger()).ReadPaths(discovery.Scope{Name: "ignored"})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, gnmi.SystemStatusPath, gnmi.PathString(paths[2]))
	assert.True(t, New(logger.NewTestLogger()).ReadsStatus())
}

func TestApplyRejectsMACCollision(t *testing.T) {
	t.Parallel()

	store := topology.NewStore(topology.NewMemoryGraph(), logger.NewTestLogger())
	f := New(logger.NewTestLogger())
	ctx := context.Background()
	result := resultFrom(t, fixture)

	run := func(ip string) error {
		return store.Atomic(ctx, func(repos *topology.Repos) error {
			_, err := f.Apply(ctx, repos, ip, discovery.Scope{}, result)
			return err
		})
	}

	require.NoError(t, run("10.0.0.1"))
	require.NoError(t, run("10.0.0.1"))
	require.ErrorIs(t, run("10.0.0.2"), topology.ErrDuplicateKey)

	ips, err := store.DeviceIPs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, ips)

	status, found, err := store.DeviceStatus(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "System is ready", status)
}
