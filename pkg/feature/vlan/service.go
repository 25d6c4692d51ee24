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

package vlan

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

const (
	vlanListContainer   = "sonic-vlan:sonic-vlan/VLAN/VLAN_LIST"
	vlanMemberContainer = "sonic-vlan:sonic-vlan/VLAN_MEMBER/VLAN_MEMBER_LIST"

	maxVlanID = 4094
)

// Rediscoverer refreshes a feature after a device write.
type Rediscoverer interface {
	AfterMutation(ctx context.Context, req discovery.Request, mutationErr error) error
}

// Service applies VLAN changes to devices. Every write is followed by a
// scoped rediscovery so the graph reflects what the device confirms.
type Service struct {
	transport  discovery.Transport
	rediscover Rediscoverer
	store      *topology.Store
	logger     logger.Logger
}

func NewService(transport discovery.Transport, rediscover Rediscoverer, store *topology.Store, log logger.Logger) *Service {
	return &Service{
		transport:  transport,
		rediscover: rediscover,
		store:      store,
		logger:     log,
	}
}

type vlanPayload struct {
	Name   string `json:"name"`
	VlanID int    `json:"vlanid"`
}

type memberPayload struct {
	Name        string         `json:"name"`
	IfName      string         `json:"ifname"`
	TaggingMode models.TagMode `json:"tagging_mode"`
}

// ConfigVlan creates or updates a VLAN and optionally adds members to it.
func (s *Service) ConfigVlan(ctx context.Context, deviceIP, name string, vlanID int, members []models.VlanMember) error {
	if err := validate(deviceIP, name); err != nil {
		return err
	}

	if vlanID < 1 || vlanID > maxVlanID {
		return fmt.Errorf("%w: %w: %d", ErrInvalidRequest, errVlanIDRange, vlanID)
	}

	if err := validateMembers(members); err != nil {
		return err
	}

	vlanUpdate, err := gnmi.NewUpdate(gnmi.MustEncodePath(vlanListContainer), map[string][]vlanPayload{
		"sonic-vlan:VLAN_LIST": {{Name: name, VlanID: vlanID}},
	})
	if err != nil {
		return err
	}

	updates := []*gpb.Update{vlanUpdate}

	if len(members) > 0 {
		memberUpdate, err := membersUpdate(name, members)
		if err != nil {
			return err
		}

		updates = append(updates, memberUpdate)
	}

	return s.mutate(ctx, deviceIP, name, gnmi.UpdateRequest(updates...))
}

// AddMembers adds interfaces to an existing VLAN.
func (s *Service) AddMembers(ctx context.Context, deviceIP, name string, members []models.VlanMember) error {
	if err := validate(deviceIP, name); err != nil {
		return err
	}

	if len(members) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, errMissingIfName)
	}

	if err := validateMembers(members); err != nil {
		return err
	}

	update, err := membersUpdate(name, members)
	if err != nil {
		return err
	}

	return s.mutate(ctx, deviceIP, name, gnmi.UpdateRequest(update))
}

// SetTaggingMode changes the tagging mode of one member.
func (s *Service) SetTaggingMode(ctx context.Context, deviceIP, name, ifName string, mode models.TagMode) error {
	if err := validate(deviceIP, name); err != nil {
		return err
	}

	if err := validateMembers([]models.VlanMember{{IfName: ifName, TaggingMode: mode}}); err != nil {
		return err
	}

	path, err := gnmi.EncodePath(gnmi.Filter(vlanMemberContainer, "name", name, "ifname", ifName) + "/tagging_mode")
	if err != nil {
		return err
	}

	update, err := gnmi.NewUpdate(path, map[string]models.TagMode{"sonic-vlan:tagging_mode": mode})
	if err != nil {
		return err
	}

	return s.mutate(ctx, deviceIP, name, gnmi.UpdateRequest(update))
}

// DeleteMember removes one member, or every known member when ifName is empty.
func (s *Service) DeleteMember(ctx context.Context, deviceIP, name, ifName string) error {
	if err := validate(deviceIP, name); err != nil {
		return err
	}

	ifNames := []string{ifName}

	if ifName == "" {
		known, err := s.Members(ctx, deviceIP, name)
		if err != nil {
			return err
		}

		ifNames = ifNames[:0]
		for _, m := range known {
			ifNames = append(ifNames, m.IfName)
		}
	}

	if len(ifNames) == 0 {
		return s.rediscover.AfterMutation(ctx, s.request(deviceIP, name), nil)
	}

	paths, err := memberPaths(name, ifNames)
	if err != nil {
		return err
	}

	return s.mutate(ctx, deviceIP, name, gnmi.DeleteRequest(paths...))
}

// DeleteVlan removes the known members of a VLAN and then the VLAN itself.
func (s *Service) DeleteVlan(ctx context.Context, deviceIP, name string) error {
	if err := validate(deviceIP, name); err != nil {
		return err
	}

	known, err := s.Members(ctx, deviceIP, name)
	if err != nil {
		return err
	}

	ifNames := make([]string, 0, len(known))
	for _, m := range known {
		ifNames = append(ifNames, m.IfName)
	}

	paths, err := memberPaths(name, ifNames)
	if err != nil {
		return err
	}

	vlanPath, err := gnmi.EncodePath(gnmi.Filter(vlanListContainer, "name", name))
	if err != nil {
		return err
	}

	return s.mutate(ctx, deviceIP, name, gnmi.DeleteRequest(append(paths, vlanPath)...))
}

// Vlans lists the stored VLANs of a device.
func (s *Service) Vlans(ctx context.Context, deviceIP string) ([]models.Vlan, error) {
	return s.store.Vlans.FindAll(ctx, topology.NodeFilter{DeviceIP: deviceIP})
}

// Vlan returns one stored VLAN.
func (s *Service) Vlan(ctx context.Context, deviceIP, name string) (*models.Vlan, error) {
	return s.store.Vlans.FindByKey(ctx, topology.VlanRef(deviceIP, name).Key)
}

// Members lists the stored members of a VLAN. A VLAN without members, or
// one not yet discovered, yields an empty list.
func (s *Service) Members(ctx context.Context, deviceIP, name string) ([]models.VlanMember, error) {
	members, err := s.store.Vlans.Members(ctx, deviceIP, name)
	if err != nil && !errors.Is(err, topology.ErrNotFound) {
		return nil, err
	}

	return members, nil
}

func (s *Service) mutate(ctx context.Context, deviceIP, name string, req *gpb.SetRequest) error {
	setErr := s.transport.Set(ctx, deviceIP, req)
	if setErr != nil {
		s.logger.Error().
			Err(setErr).
			Str("device_ip", deviceIP).
			Str("vlan", name).
			Msg("VLAN change rejected by device")
	}

	return s.rediscover.AfterMutation(ctx, s.request(deviceIP, name), setErr)
}

func (*Service) request(deviceIP, name string) discovery.Request {
	return discovery.Request{DeviceIP: deviceIP, Feature: Name, Scope: discovery.Scope{Name: name}}
}

func membersUpdate(name string, members []models.VlanMember) (*gpb.Update, error) {
	rows := make([]memberPayload, 0, len(members))
	for _, m := range members {
		rows = append(rows, memberPayload{Name: name, IfName: m.IfName, TaggingMode: m.TaggingMode})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].IfName < rows[j].IfName })

	return gnmi.NewUpdate(gnmi.MustEncodePath(vlanMemberContainer), map[string][]memberPayload{
		"sonic-vlan:VLAN_MEMBER_LIST": rows,
	})
}

func memberPaths(name string, ifNames []string) ([]*gpb.Path, error) {
	filtered := make([]string, 0, len(ifNames))
	for _, ifName := range ifNames {
		filtered = append(filtered, gnmi.Filter(vlanMemberContainer, "name", name, "ifname", ifName))
	}

	return gnmi.EncodePaths(filtered...)
}

func validate(deviceIP, name string) error {
	if deviceIP == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, discovery.ErrDeviceRequired)
	}

	if name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, errMissingName)
	}

	return nil
}

func validateMembers(members []models.VlanMember) error {
	for _, m := range members {
		if m.IfName == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, errMissingIfName)
		}

		if !m.TaggingMode.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, errInvalidTagMode, m.TaggingMode)
		}
	}

	return nil
}
