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

// Package device discovers the switch itself: metadata, image and readiness.
package device

import (
	"context"
	"strings"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/yangjson"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

const Name = "device"

const (
	metadataPath = "sonic-device_metadata:sonic-device_metadata/DEVICE_METADATA/DEVICE_METADATA_LIST"
	systemPath   = "openconfig-system:system/state"

	metadataKey = "sonic-device_metadata:DEVICE_METADATA_LIST"
	systemKey   = "openconfig-system:state"
	statusKey   = "sonic-system-status:SYSTEM_STATUS"

	// localhostEntry is the DEVICE_METADATA row describing the switch.
	localhostEntry = "localhost"
)

type metadataEntry struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	HwSKU    string `json:"hwsku"`
	MAC      string `json:"mac"`
	Platform string `json:"platform"`
	Type     string `json:"type"`
}

type systemState struct {
	Hostname        string `json:"hostname"`
	SoftwareVersion string `json:"software-version"`
	MgmtIntf        string `json:"mgmt-interface"`
}

type systemStatus struct {
	Status string `json:"status"`
}

// Feature keeps one Device node per management IP.
type Feature struct {
	logger logger.Logger
}

var (
	_ discovery.Feature      = (*Feature)(nil)
	_ discovery.StatusReader = (*Feature)(nil)
)

func New(log logger.Logger) *Feature {
	return &Feature{logger: log}
}

func (*Feature) Name() string { return Name }

// ReadsStatus is true: the device read carries the system status, so it must
// reach devices the store still marks not ready.
func (*Feature) ReadsStatus() bool { return true }

// ReadPaths ignores scope; a device is always read whole.
func (*Feature) ReadPaths(discovery.Scope) ([]*gpb.Path, error) {
	return gnmi.EncodePaths(metadataPath, systemPath, gnmi.SystemStatusPath)
}

// Normalize builds the Device reported at deviceIP.
func Normalize(deviceIP string, result gnmi.Result) (*models.Device, error) {
	var (
		rows   []metadataEntry
		state  systemState
		status systemStatus
	)

	if _, err := yangjson.Decode(result, &rows, metadataKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &state, systemKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &status, statusKey); err != nil {
		return nil, err
	}

	d := &models.Device{
		MgmtIP:       deviceIP,
		ImageName:    state.SoftwareVersion,
		MgmtIntf:     state.MgmtIntf,
		Hostname:     state.Hostname,
		SystemStatus: status.Status,
	}

	for _, row := range rows {
		if row.Name != localhostEntry {
			continue
		}

		if row.Hostname != "" {
			d.Hostname = row.Hostname
		}

		d.HwSKU = row.HwSKU
		d.MAC = strings.ToLower(row.MAC)
		d.Platform = row.Platform
		d.Type = row.Type
	}

	return d, nil
}

// Apply upserts the Device. A MAC already owned by another device fails
// the pass with topology.ErrDuplicateKey.
func (f *Feature) Apply(ctx context.Context, repos *topology.Repos, deviceIP string, _ discovery.Scope, result gnmi.Result) (discovery.Summary, error) {
	d, err := Normalize(deviceIP, result)
	if err != nil {
		return discovery.Summary{}, err
	}

	if err := repos.Devices.Upsert(ctx, d); err != nil {
		return discovery.Summary{}, err
	}

	f.logger.Debug().
		Str("device_ip", deviceIP).
		Str("hostname", d.Hostname).
		Str("status", d.SystemStatus).
		Msg("Applied device state")

	return discovery.Summary{Upserted: 1}, nil
}
