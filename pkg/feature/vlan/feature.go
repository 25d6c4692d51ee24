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

// Package vlan discovers and configures VLANs on SONiC switches.
package vlan

import (
	"context"
	"sort"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/yangjson"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

// Name identifies the VLAN feature in requests and events.
const Name = "vlan"

const (
	vlanListPath   = "sonic-vlan:sonic-vlan/VLAN/VLAN_LIST"
	vlanTablePath  = "sonic-vlan:sonic-vlan/VLAN_TABLE/VLAN_TABLE_LIST"
	vlanMemberPath = "sonic-vlan:sonic-vlan/VLAN_MEMBER/VLAN_MEMBER_LIST"

	vlanListKey   = "sonic-vlan:VLAN_LIST"
	vlanTableKey  = "sonic-vlan:VLAN_TABLE_LIST"
	vlanMemberKey = "sonic-vlan:VLAN_MEMBER_LIST"
)

type vlanEntry struct {
	Name   string       `json:"name"`
	VlanID yangjson.Int `json:"vlanid"`
}

type vlanTableEntry struct {
	Name        string       `json:"name"`
	MTU         yangjson.Int `json:"mtu"`
	AdminStatus string       `json:"admin_status"`
	OperStatus  string       `json:"oper_status"`
	Autostate   string       `json:"autostate"`
}

type memberEntry struct {
	Name        string `json:"name"`
	IfName      string `json:"ifname"`
	TaggingMode string `json:"tagging_mode"`
}

// Discovered is one VLAN as read from the device, with its members.
type Discovered struct {
	Vlan    models.Vlan
	Members []models.VlanMember
}

// Feature reads sonic-vlan state into Vlan nodes and MEMBER edges.
type Feature struct {
	logger logger.Logger
}

var _ discovery.Feature = (*Feature)(nil)

func New(log logger.Logger) *Feature {
	return &Feature{logger: log}
}

func (*Feature) Name() string { return Name }

// ReadPaths covers the VLAN list, its operational table and members,
// each filtered by name when the scope names one VLAN.
func (*Feature) ReadPaths(scope discovery.Scope) ([]*gpb.Path, error) {
	if scope.IsZero() {
		return gnmi.EncodePaths(vlanListPath, vlanTablePath, vlanMemberPath)
	}

	return gnmi.EncodePaths(
		gnmi.Filter(vlanListPath, "name", scope.Name),
		gnmi.Filter(vlanTablePath, "name", scope.Name),
		gnmi.Filter(vlanMemberPath, "name", scope.Name),
	)
}

// Normalize turns a merged Get result into VLANs ordered by name. Table
// and member rows for VLANs absent from VLAN_LIST are dropped.
func Normalize(deviceIP string, result gnmi.Result) ([]Discovered, error) {
	var (
		list    []vlanEntry
		table   []vlanTableEntry
		members []memberEntry
	)

	if _, err := yangjson.Decode(result, &list, vlanListKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &table, vlanTableKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &members, vlanMemberKey); err != nil {
		return nil, err
	}

	byName := make(map[string]*Discovered, len(list))
	out := make([]Discovered, 0, len(list))

	for _, e := range list {
		if e.Name == "" {
			continue
		}

		out = append(out, Discovered{Vlan: models.Vlan{
			DeviceIP: deviceIP,
			Name:     e.Name,
			VlanID:   int(e.VlanID),
		}})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Vlan.Name < out[j].Vlan.Name })

	for i := range out {
		byName[out[i].Vlan.Name] = &out[i]
	}

	for _, row := range table {
		d, ok := byName[row.Name]
		if !ok {
			continue
		}

		d.Vlan.MTU = int(row.MTU)
		d.Vlan.AdminStatus = row.AdminStatus
		d.Vlan.OperStatus = row.OperStatus
		d.Vlan.Autostate = row.Autostate
	}

	for _, m := range members {
		d, ok := byName[m.Name]
		if !ok || m.IfName == "" {
			continue
		}

		d.Members = append(d.Members, models.VlanMember{
			IfName:      m.IfName,
			TaggingMode: models.TagMode(m.TaggingMode),
		})
	}

	for i := range out {
		sort.Slice(out[i].Members, func(a, b int) bool { return out[i].Members[a].IfName < out[i].Members[b].IfName })
	}

	return out, nil
}

// Apply makes the VLANs in scope match result: reported VLANs are upserted
// with their member sets replaced, VLANs no longer reported are deleted,
// and the device HAS edges are rebuilt from what remains.
func (f *Feature) Apply(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope, result gnmi.Result) (discovery.Summary, error) {
	var summary discovery.Summary

	discovered, err := Normalize(deviceIP, result)
	if err != nil {
		return summary, err
	}

	existing, err := f.existing(ctx, repos, deviceIP, scope)
	if err != nil {
		return summary, err
	}

	seen := make(map[string]struct{}, len(discovered))
	for _, d := range discovered {
		seen[d.Vlan.Name] = struct{}{}
	}

	// Stale VLANs go first so a renamed VLAN can take over its old id.
	for _, v := range existing {
		if _, ok := seen[v.Name]; ok {
			continue
		}

		if err := repos.Vlans.Delete(ctx, topology.VlanRef(deviceIP, v.Name).Key); err != nil {
			return summary, err
		}

		summary.Deleted++
	}

	for i := range discovered {
		d := &discovered[i]

		if err := repos.Vlans.Upsert(ctx, &d.Vlan); err != nil {
			return summary, err
		}

		if err := repos.Vlans.ReplaceMembers(ctx, deviceIP, d.Vlan.Name, d.Members); err != nil {
			return summary, err
		}

		summary.Upserted++
		summary.Relationships += len(d.Members)
	}

	all, err := repos.Vlans.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return summary, err
	}

	refs := make([]topology.Ref, 0, len(all))
	for i := range all {
		refs = append(refs, repos.Vlans.RefOf(&all[i]))
	}

	err = repos.Devices.ReplaceRelationships(ctx, deviceIP, topology.RelHas, topology.KindVlan, topology.Targets(refs...))
	if err != nil {
		return summary, err
	}

	summary.Relationships += len(refs)

	f.logger.Debug().
		Str("device_ip", deviceIP).
		Str("scope", scope.Name).
		Int("vlans", len(discovered)).
		Int("deleted", summary.Deleted).
		Msg("Applied VLAN state")

	return summary, nil
}

func (*Feature) existing(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope) ([]models.Vlan, error) {
	if scope.IsZero() {
		return repos.Vlans.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	}

	v, err := repos.Vlans.FindByKey(ctx, topology.VlanRef(deviceIP, scope.Name).Key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return []models.Vlan{*v}, nil
}
