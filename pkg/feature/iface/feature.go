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

// Package iface discovers openconfig interfaces with their counters and
// sub-interface addresses.
package iface

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/yangjson"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

const Name = "interface"

const (
	interfacesPath = "openconfig-interfaces:interfaces"
	interfacePath  = "openconfig-interfaces:interfaces/interface"

	interfacesKey = "openconfig-interfaces:interfaces"
	interfaceKey  = "openconfig-interfaces:interface"

	fecDisabled = "disabled"
)

type interfaces struct {
	Interface []ocInterface `json:"interface"`
}

type ocInterface struct {
	Name     string         `json:"name"`
	Config   ocConfig       `json:"config"`
	State    ocState        `json:"state"`
	Ethernet ocEthernet     `json:"openconfig-if-ethernet:ethernet"`
	Subs     ocSubContainer `json:"subinterfaces"`
}

type ocConfig struct {
	Enabled     *yangjson.Bool `json:"enabled"`
	MTU         yangjson.Int   `json:"mtu"`
	Description string         `json:"description"`
}

type ocState struct {
	Enabled     *yangjson.Bool `json:"enabled"`
	AdminStatus string         `json:"admin-status"`
	OperStatus  string         `json:"oper-status"`
	MTU         yangjson.Int   `json:"mtu"`
	Description string         `json:"description"`
	MAC         string         `json:"mac-address"`
	LastChange  string         `json:"last-change"`
	Counters    ocCounters     `json:"counters"`
}

type ocCounters struct {
	InBitsPerSecond    yangjson.Float `json:"in-bits-per-second"`
	InBroadcastPkts    yangjson.Float `json:"in-broadcast-pkts"`
	InDiscards         yangjson.Float `json:"in-discards"`
	InErrors           yangjson.Float `json:"in-errors"`
	InMulticastPkts    yangjson.Float `json:"in-multicast-pkts"`
	InOctets           yangjson.Float `json:"in-octets"`
	InOctetsPerSecond  yangjson.Float `json:"in-octets-per-second"`
	InPkts             yangjson.Float `json:"in-pkts"`
	InPktsPerSecond    yangjson.Float `json:"in-pkts-per-second"`
	InUnicastPkts      yangjson.Float `json:"in-unicast-pkts"`
	InUtilization      yangjson.Float `json:"in-utilization"`
	LastClear          yangjson.Float `json:"last-clear"`
	OutBitsPerSecond   yangjson.Float `json:"out-bits-per-second"`
	OutBroadcastPkts   yangjson.Float `json:"out-broadcast-pkts"`
	OutDiscards        yangjson.Float `json:"out-discards"`
	OutErrors          yangjson.Float `json:"out-errors"`
	OutMulticastPkts   yangjson.Float `json:"out-multicast-pkts"`
	OutOctets          yangjson.Float `json:"out-octets"`
	OutOctetsPerSecond yangjson.Float `json:"out-octets-per-second"`
	OutPkts            yangjson.Float `json:"out-pkts"`
	OutPktsPerSecond   yangjson.Float `json:"out-pkts-per-second"`
	OutUnicastPkts     yangjson.Float `json:"out-unicast-pkts"`
	OutUtilization     yangjson.Float `json:"out-utilization"`
}

type ocEthernet struct {
	State struct {
		PortSpeed string `json:"port-speed"`
		PortFEC   string `json:"openconfig-if-ethernet-ext2:port-fec"`
	} `json:"state"`
}

type ocSubContainer struct {
	Subinterface []ocSubinterface `json:"subinterface"`
}

type ocSubinterface struct {
	Index yangjson.Int `json:"index"`
	IPv4  struct {
		Addresses struct {
			Address []ocAddress `json:"address"`
		} `json:"addresses"`
	} `json:"openconfig-if-ip:ipv4"`
}

type ocAddress struct {
	IP     string `json:"ip"`
	Config struct {
		PrefixLength yangjson.Int `json:"prefix-length"`
	} `json:"config"`
}

// Feature writes Interface nodes and the device HAS edges to them.
type Feature struct {
	logger logger.Logger
}

var _ discovery.Feature = (*Feature)(nil)

func New(log logger.Logger) *Feature {
	return &Feature{logger: log}
}

func (*Feature) Name() string { return Name }

// ReadPaths reads the whole interfaces container, or one interface by name.
func (*Feature) ReadPaths(scope discovery.Scope) ([]*gpb.Path, error) {
	if scope.IsZero() {
		return gnmi.EncodePaths(interfacesPath)
	}

	return gnmi.EncodePaths(gnmi.Filter(interfacePath, "name", scope.Name))
}

// Normalize returns the interfaces in result ordered by name.
func Normalize(deviceIP string, result gnmi.Result) ([]models.Interface, error) {
	var container interfaces

	found, err := yangjson.Decode(result, &container, interfacesKey)
	if err != nil {
		return nil, err
	}

	if !found {
		if _, err := yangjson.Decode(result, &container.Interface, interfaceKey); err != nil {
			return nil, err
		}
	}

	out := make([]models.Interface, 0, len(container.Interface))

	for i := range container.Interface {
		oc := &container.Interface[i]
		if oc.Name == "" {
			continue
		}

		out = append(out, convert(deviceIP, oc))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func convert(deviceIP string, oc *ocInterface) models.Interface {
	st := &oc.State

	intf := models.Interface{
		DeviceIP:    deviceIP,
		Name:        oc.Name,
		AdminStatus: yangjson.Lower(st.AdminStatus),
		OperStatus:  yangjson.Lower(st.OperStatus),
		MTU:         int(st.MTU),
		Speed:       yangjson.Lower(oc.Ethernet.State.PortSpeed),
		Description: st.Description,
		MAC:         strings.ToLower(st.MAC),
		LastChange:  st.LastChange,
		Counters:    counters(&st.Counters),
	}

	switch {
	case st.Enabled != nil:
		intf.Enabled = bool(*st.Enabled)
	case oc.Config.Enabled != nil:
		intf.Enabled = bool(*oc.Config.Enabled)
	}

	if intf.MTU == 0 {
		intf.MTU = int(oc.Config.MTU)
	}

	if intf.Description == "" {
		intf.Description = oc.Config.Description
	}

	if fec := yangjson.Lower(oc.Ethernet.State.PortFEC); fec != "" {
		intf.FEC = !strings.Contains(fec, fecDisabled)
	}

	for _, sub := range oc.Subs.Subinterface {
		s := models.SubInterface{Index: int(sub.Index)}

		for _, addr := range sub.IPv4.Addresses.Address {
			if addr.IP == "" {
				continue
			}

			ip := addr.IP
			if addr.Config.PrefixLength > 0 {
				ip = fmt.Sprintf("%s/%d", ip, addr.Config.PrefixLength)
			}

			s.IPAddresses = append(s.IPAddresses, ip)
		}

		intf.SubInterfaces = append(intf.SubInterfaces, s)
	}

	return intf
}

func counters(c *ocCounters) models.InterfaceCounters {
	return models.InterfaceCounters{
		InBitsPerSecond:    float64(c.InBitsPerSecond),
		InBroadcastPkts:    float64(c.InBroadcastPkts),
		InDiscards:         float64(c.InDiscards),
		InErrors:           float64(c.InErrors),
		InMulticastPkts:    float64(c.InMulticastPkts),
		InOctets:           float64(c.InOctets),
		InOctetsPerSecond:  float64(c.InOctetsPerSecond),
		InPkts:             float64(c.InPkts),
		InPktsPerSecond:    float64(c.InPktsPerSecond),
		InUnicastPkts:      float64(c.InUnicastPkts),
		InUtilization:      float64(c.InUtilization),
		LastClear:          float64(c.LastClear),
		OutBitsPerSecond:   float64(c.OutBitsPerSecond),
		OutBroadcastPkts:   float64(c.OutBroadcastPkts),
		OutDiscards:        float64(c.OutDiscards),
		OutErrors:          float64(c.OutErrors),
		OutMulticastPkts:   float64(c.OutMulticastPkts),
		OutOctets:          float64(c.OutOctets),
		OutOctetsPerSecond: float64(c.OutOctetsPerSecond),
		OutPkts:            float64(c.OutPkts),
		OutPktsPerSecond:   float64(c.OutPktsPerSecond),
		OutUnicastPkts:     float64(c.OutUnicastPkts),
		OutUtilization:     float64(c.OutUtilization),
	}
}

// Apply upserts reported interfaces, drops those in scope the device no
// longer reports, and rebuilds the device HAS edge set.
func (f *Feature) Apply(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope, result gnmi.Result) (discovery.Summary, error) {
	var summary discovery.Summary

	discovered, err := Normalize(deviceIP, result)
	if err != nil {
		return summary, err
	}

	stale, err := f.stale(ctx, repos, deviceIP, scope, discovered)
	if err != nil {
		return summary, err
	}

	for _, key := range stale {
		if err := repos.Interfaces.Delete(ctx, key); err != nil {
			return summary, err
		}

		summary.Deleted++
	}

	for i := range discovered {
		if err := repos.Interfaces.Upsert(ctx, &discovered[i]); err != nil {
			return summary, err
		}

		summary.Upserted++
	}

	all, err := repos.Interfaces.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return summary, err
	}

	refs := make([]topology.Ref, 0, len(all))
	for i := range all {
		refs = append(refs, repos.Interfaces.RefOf(&all[i]))
	}

	err = repos.Devices.ReplaceRelationships(ctx, deviceIP, topology.RelHas, topology.KindInterface, topology.Targets(refs...))
	if err != nil {
		return summary, err
	}

	summary.Relationships = len(refs)

	f.logger.Debug().
		Str("device_ip", deviceIP).
		Str("scope", scope.Name).
		Int("interfaces", len(discovered)).
		Int("deleted", summary.Deleted).
		Msg("Applied interface state")

	return summary, nil
}

func (*Feature) stale(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope, discovered []models.Interface) ([]string, error) {
	seen := make(map[string]struct{}, len(discovered))
	for _, d := range discovered {
		seen[d.Name] = struct{}{}
	}

	if !scope.IsZero() {
		if _, ok := seen[scope.Name]; ok {
			return nil, nil
		}

		key := topology.InterfaceRef(deviceIP, scope.Name).Key

		_, err := repos.Interfaces.FindByKey(ctx, key)
		if errors.Is(err, topology.ErrNotFound) {
			return nil, nil
		}

		if err != nil {
			return nil, err
		}

		return []string{key}, nil
	}

	existing, err := repos.Interfaces.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return nil, err
	}

	var keys []string

	for i := range existing {
		if _, ok := seen[existing[i].Name]; !ok {
			keys = append(keys, repos.Interfaces.RefOf(&existing[i]).Key)
		}
	}

	return keys, nil
}
