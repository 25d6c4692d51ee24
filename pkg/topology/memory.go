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
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

type altIndexKey struct {
	kind   Kind
	altKey string
}

type edgeKey struct {
	from Ref
	rel  Relation
	to   Ref
}

type memoryState struct {
	nodes map[Ref]Node
	alt   map[altIndexKey]string
	edges map[edgeKey]Edge
}

func newMemoryState() *memoryState {
	return &memoryState{
		nodes: make(map[Ref]Node),
		alt:   make(map[altIndexKey]string),
		edges: make(map[edgeKey]Edge),
	}
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		nodes: maps.Clone(s.nodes),
		alt:   maps.Clone(s.alt),
		edges: maps.Clone(s.edges),
	}
}

// MemoryGraph keeps the graph in process. Transactions work on a copy of the
// state that replaces the live state only when the body succeeds, and one
// transaction runs at a time.
type MemoryGraph struct {
	mu    sync.Mutex
	state *memoryState
}

var _ Graph = (*MemoryGraph)(nil)

// NewMemoryGraph returns an empty in-process graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{state: newMemoryState()}
}

// Atomic runs fn against a private copy of the graph and publishes it on success.
func (g *MemoryGraph) Atomic(ctx context.Context, fn func(tx GraphTx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{state: g.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}

	g.state = tx.state

	return nil
}

func (g *MemoryGraph) read() *memoryTx {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Committed state is never mutated in place, so readers can share it.
	return &memoryTx{state: g.state}
}

func (g *MemoryGraph) GetNode(ctx context.Context, ref Ref) (*Node, error) {
	return g.read().GetNode(ctx, ref)
}

func (g *MemoryGraph) ListNodes(ctx context.Context, kind Kind, filter NodeFilter) ([]Node, error) {
	return g.read().ListNodes(ctx, kind, filter)
}

func (g *MemoryGraph) Edges(ctx context.Context, from Ref, rel Relation) ([]Edge, error) {
	return g.read().Edges(ctx, from, rel)
}

func (g *MemoryGraph) UpsertNode(ctx context.Context, node *Node) error {
	return g.Atomic(ctx, func(tx GraphTx) error { return tx.UpsertNode(ctx, node) })
}

func (g *MemoryGraph) DeleteNode(ctx context.Context, ref Ref) error {
	return g.Atomic(ctx, func(tx GraphTx) error { return tx.DeleteNode(ctx, ref) })
}

func (g *MemoryGraph) ReplaceEdges(ctx context.Context, from Ref, rel Relation, toKind Kind, targets []EdgeTarget) error {
	return g.Atomic(ctx, func(tx GraphTx) error { return tx.ReplaceEdges(ctx, from, rel, toKind, targets) })
}

type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) GetNode(_ context.Context, ref Ref) (*Node, error) {
	n, ok := t.state.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	return &n, nil
}

func (t *memoryTx) ListNodes(_ context.Context, kind Kind, filter NodeFilter) ([]Node, error) {
	var out []Node

	for ref, n := range t.state.nodes {
		if ref.Kind != kind {
			continue
		}

		if filter.DeviceIP != "" && n.DeviceIP != filter.DeviceIP {
			continue
		}

		out = append(out, n)
	}

	slices.SortFunc(out, func(a, b Node) int { return compareRefs(a.Ref, b.Ref) })

	return out, nil
}

func (t *memoryTx) UpsertNode(_ context.Context, node *Node) error {
	if !node.valid() {
		return errEmptyRef
	}

	if node.AltKey != "" {
		owner, taken := t.state.alt[altIndexKey{kind: node.Kind, altKey: node.AltKey}]
		if taken && owner != node.Key {
			return fmt.Errorf("%w: %s alt key %q already held by %q", ErrDuplicateKey, node.Kind, node.AltKey, owner)
		}
	}

	if prev, ok := t.state.nodes[node.Ref]; ok && prev.AltKey != "" && prev.AltKey != node.AltKey {
		delete(t.state.alt, altIndexKey{kind: prev.Kind, altKey: prev.AltKey})
	}

	if node.AltKey != "" {
		t.state.alt[altIndexKey{kind: node.Kind, altKey: node.AltKey}] = node.Key
	}

	stored := *node
	stored.Props = slices.Clone(node.Props)
	t.state.nodes[node.Ref] = stored

	return nil
}

func (t *memoryTx) DeleteNode(_ context.Context, ref Ref) error {
	n, ok := t.state.nodes[ref]
	if !ok {
		return nil
	}

	delete(t.state.nodes, ref)

	if n.AltKey != "" {
		delete(t.state.alt, altIndexKey{kind: n.Kind, altKey: n.AltKey})
	}

	for k := range t.state.edges {
		if k.from == ref || k.to == ref {
			delete(t.state.edges, k)
		}
	}

	return nil
}

func (t *memoryTx) Edges(_ context.Context, from Ref, rel Relation) ([]Edge, error) {
	var out []Edge

	for k, e := range t.state.edges {
		if k.from == from && k.rel == rel {
			e.Attrs = maps.Clone(e.Attrs)
			out = append(out, e)
		}
	}

	slices.SortFunc(out, func(a, b Edge) int { return compareRefs(a.To, b.To) })

	return out, nil
}

func (t *memoryTx) ReplaceEdges(_ context.Context, from Ref, rel Relation, toKind Kind, targets []EdgeTarget) error {
	if !from.valid() {
		return errEmptyRef
	}

	for _, target := range targets {
		if target.To.Kind != toKind {
			return fmt.Errorf("%w: %s %s edge to %s, want %s", errTargetKind, from, rel, target.To, toKind)
		}

		if !target.To.valid() {
			return errEmptyRef
		}
	}

	for k := range t.state.edges {
		if k.from == from && k.rel == rel && k.to.Kind == toKind {
			delete(t.state.edges, k)
		}
	}

	for _, target := range targets {
		t.state.edges[edgeKey{from: from, rel: rel, to: target.To}] = Edge{
			From:  from,
			Rel:   rel,
			To:    target.To,
			Attrs: maps.Clone(target.Attrs),
		}
	}

	return nil
}

func compareRefs(a, b Ref) int {
	return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Key, b.Key))
}
