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

package topology

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/carverauto/fabricsync/pkg/models"
)

type entity[T any] struct {
	kind     Kind
	key      func(*T) string
	altKey   func(*T) string
	deviceIP func(*T) string
}

// Repository maps one model type onto graph nodes of a single kind.
type Repository[T any] struct {
	tx     GraphTx
	entity entity[T]
}

type (
	DeviceRepository      = Repository[models.Device]
	InterfaceRepository   = Repository[models.Interface]
	PortChannelRepository = Repository[models.PortChannel]
	MCLAGRepository       = Repository[models.MCLAG]
	PortGroupRepository   = Repository[models.PortGroup]
)

var (
	deviceEntity = entity[models.Device]{
		kind:     KindDevice,
		key:      func(d *models.Device) string { return d.MgmtIP },
		altKey:   func(d *models.Device) string { return d.MAC },
		deviceIP: func(d *models.Device) string { return d.MgmtIP },
	}

	interfaceEntity = entity[models.Interface]{
		kind:     KindInterface,
		key:      func(i *models.Interface) string { return CompositeKey(i.DeviceIP, i.Name) },
		deviceIP: func(i *models.Interface) string { return i.DeviceIP },
	}

	portChannelEntity = entity[models.PortChannel]{
		kind:     KindPortChannel,
		key:      func(p *models.PortChannel) string { return CompositeKey(p.DeviceIP, p.LagName) },
		deviceIP: func(p *models.PortChannel) string { return p.DeviceIP },
	}

	mclagEntity = entity[models.MCLAG]{
		kind:     KindMCLAG,
		key:      func(m *models.MCLAG) string { return CompositeKey(m.DeviceIP, strconv.Itoa(m.DomainID)) },
		deviceIP: func(m *models.MCLAG) string { return m.DeviceIP },
	}

	portGroupEntity = entity[models.PortGroup]{
		kind:     KindPortGroup,
		key:      func(p *models.PortGroup) string { return CompositeKey(p.DeviceIP, strconv.Itoa(p.GroupID)) },
		deviceIP: func(p *models.PortGroup) string { return p.DeviceIP },
	}

	vlanEntity = entity[models.Vlan]{
		kind: KindVlan,
		key:  func(v *models.Vlan) string { return CompositeKey(v.DeviceIP, v.Name) },
		altKey: func(v *models.Vlan) string {
			if v.VlanID == 0 {
				return ""
			}

			return CompositeKey(v.DeviceIP, strconv.Itoa(v.VlanID))
		},
		deviceIP: func(v *models.Vlan) string { return v.DeviceIP },
	}
)

func DeviceRef(mgmtIP string) Ref { return Ref{Kind: KindDevice, Key: mgmtIP} }

func InterfaceRef(deviceIP, name string) Ref {
	return Ref{Kind: KindInterface, Key: CompositeKey(deviceIP, name)}
}

func PortChannelRef(deviceIP, lagName string) Ref {
	return Ref{Kind: KindPortChannel, Key: CompositeKey(deviceIP, lagName)}
}

func MCLAGRef(deviceIP string, domainID int) Ref {
	return Ref{Kind: KindMCLAG, Key: CompositeKey(deviceIP, strconv.Itoa(domainID))}
}

func PortGroupRef(deviceIP string, groupID int) Ref {
	return Ref{Kind: KindPortGroup, Key: CompositeKey(deviceIP, strconv.Itoa(groupID))}
}

func VlanRef(deviceIP, name string) Ref {
	return Ref{Kind: KindVlan, Key: CompositeKey(deviceIP, name)}
}

// Kind is the node kind this repository manages.
func (r *Repository[T]) Kind() Kind {
	return r.entity.kind
}

// RefOf returns the node reference for v.
func (r *Repository[T]) RefOf(v *T) Ref {
	return Ref{Kind: r.entity.kind, Key: r.entity.key(v)}
}

// FindByKey returns ErrNotFound when no node has key.
func (r *Repository[T]) FindByKey(ctx context.Context, key string) (*T, error) {
	n, err := r.tx.GetNode(ctx, Ref{Kind: r.entity.kind, Key: key})
	if err != nil {
		return nil, err
	}

	return decodeNode[T](n)
}

func (r *Repository[T]) FindAll(ctx context.Context, filter NodeFilter) ([]T, error) {
	nodes, err := r.tx.ListNodes(ctx, r.entity.kind, filter)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(nodes))

	for i := range nodes {
		v, err := decodeNode[T](&nodes[i])
		if err != nil {
			return nil, err
		}

		out = append(out, *v)
	}

	return out, nil
}

// Upsert creates v or updates it in place. A unique key held by another node
// fails with ErrDuplicateKey.
func (r *Repository[T]) Upsert(ctx context.Context, v *T) error {
	props, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.entity.kind, err)
	}

	node := &Node{
		Ref:      r.RefOf(v),
		DeviceIP: r.entity.deviceIP(v),
		Props:    props,
	}

	if r.entity.altKey != nil {
		node.AltKey = r.entity.altKey(v)
	}

	return r.tx.UpsertNode(ctx, node)
}

func (r *Repository[T]) Delete(ctx context.Context, key string) error {
	return r.tx.DeleteNode(ctx, Ref{Kind: r.entity.kind, Key: key})
}

// ReplaceRelationships swaps the rel edges from key to nodes of toKind for targets.
func (r *Repository[T]) ReplaceRelationships(ctx context.Context, key string, rel Relation, toKind Kind, targets []EdgeTarget) error {
	return r.tx.ReplaceEdges(ctx, Ref{Kind: r.entity.kind, Key: key}, rel, toKind, targets)
}

func (r *Repository[T]) Relationships(ctx context.Context, key string, rel Relation) ([]Edge, error) {
	return r.tx.Edges(ctx, Ref{Kind: r.entity.kind, Key: key}, rel)
}

func decodeNode[T any](n *Node) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(n.Props, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", n.Ref, err)
	}

	return v, nil
}

// VlanRepository adds membership access to the plain Vlan repository.
type VlanRepository struct {
	*Repository[models.Vlan]
}

// FindByVlanID looks a VLAN up by its numeric id on one device.
func (r *VlanRepository) FindByVlanID(ctx context.Context, deviceIP string, vlanID int) (*models.Vlan, error) {
	vlans, err := r.FindAll(ctx, NodeFilter{DeviceIP: deviceIP})
	if err != nil {
		return nil, err
	}

	for i := range vlans {
		if vlans[i].VlanID == vlanID {
			return &vlans[i], nil
		}
	}

	return nil, fmt.Errorf("%w: vlan id %d on %s", ErrNotFound, vlanID, deviceIP)
}

// Members lists the interfaces of a VLAN with their tagging mode.
func (r *VlanRepository) Members(ctx context.Context, deviceIP, name string) ([]models.VlanMember, error) {
	edges, err := r.tx.Edges(ctx, VlanRef(deviceIP, name), RelMember)
	if err != nil {
		return nil, err
	}

	out := make([]models.VlanMember, 0, len(edges))

	for _, e := range edges {
		if e.To.Kind != KindInterface {
			continue
		}

		_, ifName := SplitKey(e.To.Key)
		out = append(out, models.VlanMember{
			IfName:      ifName,
			TaggingMode: models.TagMode(e.Attrs[AttrTaggingMode]),
		})
	}

	return out, nil
}

// ReplaceMembers sets the VLAN's interface membership to exactly members.
func (r *VlanRepository) ReplaceMembers(ctx context.Context, deviceIP, name string, members []models.VlanMember) error {
	targets := make([]EdgeTarget, 0, len(members))

	for _, m := range members {
		targets = append(targets, EdgeTarget{
			To:    InterfaceRef(deviceIP, m.IfName),
			Attrs: map[string]string{AttrTaggingMode: string(m.TaggingMode)},
		})
	}

	return r.tx.ReplaceEdges(ctx, VlanRef(deviceIP, name), RelMember, KindInterface, targets)
}

// Repos bundles the typed repositories over one GraphTx.
type Repos struct {
	Devices      *DeviceRepository
	Interfaces   *InterfaceRepository
	PortChannels *PortChannelRepository
	MCLAGs       *MCLAGRepository
	PortGroups   *PortGroupRepository
	Vlans        *VlanRepository
}

// NewRepos binds every repository to tx.
func NewRepos(tx GraphTx) *Repos {
	return &Repos{
		Devices:      &DeviceRepository{tx: tx, entity: deviceEntity},
		Interfaces:   &InterfaceRepository{tx: tx, entity: interfaceEntity},
		PortChannels: &PortChannelRepository{tx: tx, entity: portChannelEntity},
		MCLAGs:       &MCLAGRepository{tx: tx, entity: mclagEntity},
		PortGroups:   &PortGroupRepository{tx: tx, entity: portGroupEntity},
		Vlans:        &VlanRepository{Repository: &Repository[models.Vlan]{tx: tx, entity: vlanEntity}},
	}
}
