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

// Package portchannel discovers link aggregation groups and their members.
package portchannel

import (
	"context"
	"errors"
	"sort"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/feature/yangjson"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

const Name = "portchannel"

const (
	listPath   = "sonic-portchannel:sonic-portchannel/PORTCHANNEL/PORTCHANNEL_LIST"
	memberPath = "sonic-portchannel:sonic-portchannel/PORTCHANNEL_MEMBER/PORTCHANNEL_MEMBER_LIST"
	lagPath    = "sonic-portchannel:sonic-portchannel/LAG_TABLE/LAG_TABLE_LIST"

	listKey   = "sonic-portchannel:PORTCHANNEL_LIST"
	memberKey = "sonic-portchannel:PORTCHANNEL_MEMBER_LIST"
	lagKey    = "sonic-portchannel:LAG_TABLE_LIST"
)

type listEntry struct {
	Name        string       `json:"name"`
	AdminStatus string       `json:"admin_status"`
	MTU         yangjson.Int `json:"mtu"`
	Speed       string       `json:"speed"`
}

type memberEntry struct {
	Name   string `json:"name"`
	IfName string `json:"ifname"`
}

type lagEntry struct {
	LagName             string        `json:"lagname"`
	Active              yangjson.Bool `json:"active"`
	OperStatus          string        `json:"oper_status"`
	Reason              string        `json:"reason"`
	Speed               string        `json:"speed"`
	FallbackOperational yangjson.Bool `json:"fallback_operational"`
}

// Discovered is one port channel with the names of its member interfaces.
type Discovered struct {
	PortChannel models.PortChannel
	Members     []string
}

// Feature writes PortChannel nodes, their HAS_MEMBER edges and the device
// HAS edges to them.
type Feature struct {
	logger logger.Logger
}

var _ discovery.Feature = (*Feature)(nil)

func New(log logger.Logger) *Feature {
	return &Feature{logger: log}
}

func (*Feature) Name() string { return Name }

func (*Feature) ReadPaths(scope discovery.Scope) ([]*gpb.Path, error) {
	if scope.IsZero() {
		return gnmi.EncodePaths(listPath, memberPath, lagPath)
	}

	return gnmi.EncodePaths(
		gnmi.Filter(listPath, "name", scope.Name),
		gnmi.Filter(memberPath, "name", scope.Name),
		gnmi.Filter(lagPath, "lagname", scope.Name),
	)
}

// Normalize joins config, member and LAG state rows by port channel name.
func Normalize(deviceIP string, result gnmi.Result) ([]Discovered, error) {
	var (
		list    []listEntry
		members []memberEntry
		lags    []lagEntry
	)

	if _, err := yangjson.Decode(result, &list, listKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &members, memberKey); err != nil {
		return nil, err
	}

	if _, err := yangjson.Decode(result, &lags, lagKey); err != nil {
		return nil, err
	}

	out := make([]Discovered, 0, len(list))

	for _, e := range list {
		if e.Name == "" {
			continue
		}

		out = append(out, Discovered{PortChannel: models.PortChannel{
			DeviceIP:    deviceIP,
			LagName:     e.Name,
			AdminStatus: e.AdminStatus,
			MTU:         int(e.MTU),
			Speed:       e.Speed,
		}})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PortChannel.LagName < out[j].PortChannel.LagName })

	byName := make(map[string]*Discovered, len(out))
	for i := range out {
		byName[out[i].PortChannel.LagName] = &out[i]
	}

	for _, l := range lags {
		d, ok := byName[l.LagName]
		if !ok {
			continue
		}

		d.PortChannel.Active = bool(l.Active)
		d.PortChannel.OperStatus = l.OperStatus
		d.PortChannel.OperStatusReason = l.Reason
		d.PortChannel.FallbackOperational = bool(l.FallbackOperational)

		if l.Speed != "" {
			d.PortChannel.Speed = l.Speed
		}
	}

	for _, m := range members {
		if d, ok := byName[m.Name]; ok && m.IfName != "" {
			d.Members = append(d.Members, m.IfName)
		}
	}

	for i := range out {
		sort.Strings(out[i].Members)
	}

	return out, nil
}

// Apply follows the same replace-in-scope rules as the other features:
// reported port channels are upserted with their member sets replaced and
// port channels in scope that were not reported are deleted.
func (f *Feature) Apply(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope, result gnmi.Result) (discovery.Summary, error) {
	var summary discovery.Summary

	discovered, err := Normalize(deviceIP, result)
	if err != nil {
		return summary, err
	}

	seen := make(map[string]struct{}, len(discovered))
	for _, d := range discovered {
		seen[d.PortChannel.LagName] = struct{}{}
	}

	existing, err := f.existing(ctx, repos, deviceIP, scope)
	if err != nil {
		return summary, err
	}

	for i := range existing {
		if _, ok := seen[existing[i].LagName]; ok {
			continue
		}

		if err := repos.PortChannels.Delete(ctx, repos.PortChannels.RefOf(&existing[i]).Key); err != nil {
			return summary, err
		}

		summary.Deleted++
	}

	for i := range discovered {
		d := &discovered[i]

		if err := repos.PortChannels.Upsert(ctx, &d.PortChannel); err != nil {
			return summary, err
		}

		refs := make([]topology.Ref, 0, len(d.Members))
		for _, ifName := range d.Members {
			refs = append(refs, topology.InterfaceRef(deviceIP, ifName))
		}

		key := repos.PortChannels.RefOf(&d.PortChannel).Key
		if err := repos.PortChannels.ReplaceRelationships(ctx, key, topology.RelHasMember, topology.KindInterface, topology.Targets(refs...)); err != nil {
			return summary, err
		}

		summary.Upserted++
		summary.Relationships += len(refs)
	}

	all, err := repos.PortChannels.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return summary, err
	}

	refs := make([]topology.Ref, 0, len(all))
	for i := range all {
		refs = append(refs, repos.PortChannels.RefOf(&all[i]))
	}

	err = repos.Devices.ReplaceRelationships(ctx, deviceIP, topology.RelHas, topology.KindPortChannel, topology.Targets(refs...))
	if err != nil {
		return summary, err
	}

	summary.Relationships += len(refs)

	return summary, nil
}

func (*Feature) existing(ctx context.Context, repos *topology.Repos, deviceIP string, scope discovery.Scope) ([]models.PortChannel, error) {
	if scope.IsZero() {
		return repos.PortChannels.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
	}

	pc, err := repos.PortChannels.FindByKey(ctx, topology.PortChannelRef(deviceIP, scope.Name).Key)
	if errors.Is(err, topology.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return []models.PortChannel{*pc}, nil
}
