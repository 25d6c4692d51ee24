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

// Package topology stores discovered switch state as a typed property graph.
package topology

import (
	"context"
	"encoding/json"
	"strings"
)

// Kind names a node label.
type Kind string

const (
	KindDevice      Kind = "Device"
	KindInterface   Kind = "Interface"
	KindPortChannel Kind = "PortChannel"
	KindMCLAG       Kind = "MCLAG"
	KindPortGroup   Kind = "PortGroup"
	KindVlan        Kind = "Vlan"
)

// Relation names an edge type.
type Relation string

const (
	RelHas          Relation = "HAS"
	RelLLDP         Relation = "LLDP"
	RelLLDPNeighbor Relation = "LLDP_NBR"
	RelHasMember    Relation = "HAS_MEMBER"
	RelPeerLink     Relation = "PEER_LINK"
	RelMember       Relation = "MEMBER"
)

// AttrTaggingMode is the edge attribute carried on Vlan MEMBER edges.
const AttrTaggingMode = "tagging_mode"

const keySeparator = "|"

// Ref identifies a node by kind and primary key.
type Ref struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
}

func (r Ref) valid() bool {
	return r.Kind != "" && r.Key != ""
}

func (r Ref) String() string {
	return string(r.Kind) + "(" + r.Key + ")"
}

// Node is one stored entity. AltKey, when set, is unique within Kind.
type Node struct {
	Ref
	AltKey   string          `json:"alt_key,omitempty"`
	DeviceIP string          `json:"device_ip,omitempty"`
	Props    json.RawMessage `json:"props"`
}

// Edge is a directed, typed relationship. Targets may reference nodes that
// have not been discovered yet.
type Edge struct {
	From  Ref               `json:"from"`
	Rel   Relation          `json:"rel"`
	To    Ref               `json:"to"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// EdgeTarget is the far end of an edge in a ReplaceEdges call.
type EdgeTarget struct {
	To    Ref
	Attrs map[string]string
}

// NodeFilter narrows ListNodes. The zero value matches everything.
type NodeFilter struct {
	DeviceIP string
}

// GraphTx is the node and edge contract every backend implements. Inside
// Graph.Atomic it is bound to a single transaction.
type GraphTx interface {
	GetNode(ctx context.Context, ref Ref) (*Node, error)
	ListNodes(ctx context.Context, kind Kind, filter NodeFilter) ([]Node, error)
	UpsertNode(ctx context.Context, node *Node) error
	// DeleteNode removes the node and every edge touching it. Missing nodes are not an error.
	DeleteNode(ctx context.Context, ref Ref) error
	Edges(ctx context.Context, from Ref, rel Relation) ([]Edge, error)
	// ReplaceEdges makes the outgoing rel edges of from that point at toKind
	// exactly targets. Edges of other kinds are untouched.
	ReplaceEdges(ctx context.Context, from Ref, rel Relation, toKind Kind, targets []EdgeTarget) error
}

// Graph is a GraphTx that can also run a group of writes atomically.
type Graph interface {
	GraphTx
	Atomic(ctx context.Context, fn func(tx GraphTx) error) error
}

// CompositeKey joins key parts. Device-scoped entities are keyed by the
// device management address plus their local name.
func CompositeKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// SplitKey returns the device address and local name of a composite key.
func SplitKey(key string) (deviceIP, name string) {
	deviceIP, name, _ = strings.Cut(key, keySeparator)
	return deviceIP, name
}

// Targets builds attribute-less edge targets.
func Targets(refs ...Ref) []EdgeTarget {
	out := make([]EdgeTarget, 0, len(refs))
	for _, r := range refs {
		out = append(out, EdgeTarget{To: r})
	}

	return out
}
