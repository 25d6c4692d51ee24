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

// Package lldp links interfaces to their LLDP neighbors on other known devices.
package lldp

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/yangjson"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

const Name = "lldp"

const (
	lldpPath = "openconfig-lldp:lldp/interfaces"
	lldpKey  = "openconfig-lldp:interfaces"
)

type lldpInterfaces struct {
	Interface []struct {
		Name      string `json:"name"`
		Neighbors struct {
			Neighbor []struct {
				ID    string        `json:"id"`
				State neighborState `json:"state"`
			} `json:"neighbor"`
		} `json:"neighbors"`
	} `json:"interface"`
}

type neighborState struct {
	ChassisID         string `json:"chassis-id"`
	ManagementAddress string `json:"management-address"`
	PortID            string `json:"port-id"`
	SystemName        string `json:"system-name"`
}

// Neighbor is one LLDP adjacency seen on a local interface.
type Neighbor struct {
	LocalInterface string
	RemoteIP       string
	RemotePort     string
	SystemName     string
	ChassisID      string
}

// Feature maintains Interface LLDP_NBR edges and the device LLDP edge set.
type Feature struct {
	logger logger.Logger
}

var _ discovery.Feature = (*Feature)(nil)

func New(log logger.Logger) *Feature {
	return &Feature{logger: log}
}

func (*Feature) Name() string { return Name }

// ReadPaths ignores scope; adjacency is always read for the whole device.
func (*Feature) ReadPaths(discovery.Scope) ([]*gpb.Path, error) {
	return gnmi.EncodePaths(lldpPath)
}

// Normalize lists neighbors ordered by local interface then remote address.
// Neighbors without a management address or port cannot be linked and are
// dropped.
func Normalize(result gnmi.Result) ([]Neighbor, error) {
	var doc lldpInterfaces

	if _, err := yangjson.Decode(result, &doc, lldpKey); err != nil {
		return nil, err
	}

	var out []Neighbor

	for _, intf := range doc.Interface {
		for _, n := range intf.Neighbors.Neighbor {
			ip, _, _ := strings.Cut(n.State.ManagementAddress, "/")
			if intf.Name == "" || ip == "" || n.State.PortID == "" {
				continue
			}

			out = append(out, Neighbor{
				LocalInterface: intf.Name,
				RemoteIP:       ip,
				RemotePort:     n.State.PortID,
				SystemName:     n.State.SystemName,
				ChassisID:      n.State.ChassisID,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LocalInterface != out[j].LocalInterface {
			return out[i].LocalInterface < out[j].LocalInterface
		}

		return out[i].RemoteIP < out[j].RemoteIP
	})

	return out, nil
}

// Apply replaces the neighbor edges of every local interface. Neighbors on
// devices not yet in the graph are skipped until those devices are discovered.
func (f *Feature) Apply(ctx context.Context, repos *topology.Repos, deviceIP string, _ discovery.Scope, result gnmi.Result) (discovery.Summary, error) {
	var summary discovery.Summary

	neighbors, err := Normalize(result)
	if err != nil {
		return summary, err
	}

	known := make(map[string]bool)
	byLocal := make(map[string][]topology.EdgeTarget)

	var devices []topology.Ref

	for _, n := range neighbors {
		ok, seen := known[n.RemoteIP]
		if !seen {
			ok, err = deviceKnown(ctx, repos, n.RemoteIP)
			if err != nil {
				return summary, err
			}

			known[n.RemoteIP] = ok

			if ok {
				devices = append(devices, topology.DeviceRef(n.RemoteIP))
			}
		}

		if !ok {
			f.logger.Debug().
				Str("device_ip", deviceIP).
				Str("neighbor_ip", n.RemoteIP).
				Msg("Skipping LLDP neighbor on unknown device")

			continue
		}

		byLocal[n.LocalInterface] = append(byLocal[n.LocalInterface], topology.EdgeTarget{
			To: topology.InterfaceRef(n.RemoteIP, n.RemotePort),
			Attrs: map[string]string{
				"system_name": n.SystemName,
				"chassis_id":  n.ChassisID,
			},
		})
	}

	locals, err := repos.Interfaces.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return summary, err
	}

	names := make(map[string]struct{}, len(locals)+len(byLocal))
	for i := range locals {
		names[locals[i].Name] = struct{}{}
	}

	for name := range byLocal {
		names[name] = struct{}{}
	}

	for name := range names {
		targets := byLocal[name]

		key := topology.InterfaceRef(deviceIP, name).Key
		if err := repos.Interfaces.ReplaceRelationships(ctx, key, topology.RelLLDPNeighbor, topology.KindInterface, targets); err != nil {
			return summary, err
		}

		summary.Relationships += len(targets)
	}

	err = repos.Devices.ReplaceRelationships(ctx, deviceIP, topology.RelLLDP, topology.KindDevice, topology.Targets(devices...))
	if err != nil {
		return summary, err
	}

	summary.Relationships += len(devices)

	return summary, nil
}

func deviceKnown(ctx context.Context, repos *topology.Repos, ip string) (bool, error) {
	_, err := repos.Devices.FindByKey(ctx, ip)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, topology.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
