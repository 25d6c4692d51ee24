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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(kind Kind, key, alt string) *Node {
	return &Node{Ref: Ref{Kind: kind, Key: key}, AltKey: alt, Props: json.RawMessage(`{}`)}
}

func TestMemoryUpsertUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	require.NoError(t, g.UpsertNode(ctx, &Node{Ref: DeviceRef("10.0.0.1"), Props: json.RawMessage(`{"v":1}`)}))
	require.NoError(t, g.UpsertNode(ctx, &Node{Ref: DeviceRef("10.0.0.1"), Props: json.RawMessage(`{"v":2}`)}))

	nodes, err := g.ListNodes(ctx, KindDevice, NodeFilter{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.JSONEq(t, `{"v":2}`, string(nodes[0].Props))
}

func TestMemoryAltKeyUniqueness(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	require.NoError(t, g.UpsertNode(ctx, node(KindDevice, "10.0.0.1", "aa:bb")))

	err := g.UpsertNode(ctx, node(KindDevice, "10.0.0.2", "aa:bb"))
	require.ErrorIs(t, err, ErrDuplicateKey)

	// Same alt key in another kind is fine.
	require.NoError(t, g.UpsertNode(ctx, node(KindVlan, "x", "aa:bb")))

	// Re-keying the holder frees the old alt key.
	require.NoError(t, g.UpsertNode(ctx, node(KindDevice, "10.0.0.1", "cc:dd")))
	require.NoError(t, g.UpsertNode(ctx, node(KindDevice, "10.0.0.2", "aa:bb")))
}

func TestMemoryDeleteNodeRemovesEdges(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	dev := DeviceRef("10.0.0.1")
	eth := InterfaceRef("10.0.0.1", "Ethernet0")

	require.NoError(t, g.UpsertNode(ctx, &Node{Ref: dev}))
	require.NoError(t, g.UpsertNode(ctx, &Node{Ref: eth}))
	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindInterface, Targets(eth)))

	require.NoError(t, g.DeleteNode(ctx, eth))
	require.NoError(t, g.DeleteNode(ctx, eth))

	edges, err := g.Edges(ctx, dev, RelHas)
	require.NoError(t, err)
	assert.Empty(t, edges)

	_, err = g.GetNode(ctx, eth)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReplaceEdges(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	dev := DeviceRef("10.0.0.1")
	eth0 := InterfaceRef("10.0.0.1", "Ethernet0")
	eth4 := InterfaceRef("10.0.0.1", "Ethernet4")
	vlan := VlanRef("10.0.0.1", "Vlan10")

	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindInterface, Targets(eth0, eth4)))
	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindVlan, Targets(vlan)))

	// Replacing the interface set leaves the vlan edge alone.
	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindInterface, Targets(eth4)))

	edges, err := g.Edges(ctx, dev, RelHas)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, eth4, edges[0].To)
	assert.Equal(t, vlan, edges[1].To)

	// Replaying the same set is idempotent.
	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindInterface, Targets(eth4)))

	edges, err = g.Edges(ctx, dev, RelHas)
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	require.NoError(t, g.ReplaceEdges(ctx, dev, RelHas, KindInterface, nil))

	edges, err = g.Edges(ctx, dev, RelHas)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, vlan, edges[0].To)
}

func TestMemoryReplaceEdgesRejectsWrongKind(t *testing.T) {
	g := NewMemoryGraph()

	err := g.ReplaceEdges(context.Background(), DeviceRef("10.0.0.1"), RelHas, KindInterface, Targets(VlanRef("10.0.0.1", "Vlan10")))
	require.ErrorIs(t, err, errTargetKind)
}

func TestMemoryAtomicRollback(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	require.NoError(t, g.UpsertNode(ctx, node(KindDevice, "10.0.0.1", "aa:bb")))

	err := g.Atomic(ctx, func(tx GraphTx) error {
		require.NoError(t, tx.UpsertNode(ctx, node(KindDevice, "10.0.0.2", "")))
		require.NoError(t, tx.ReplaceEdges(ctx, DeviceRef("10.0.0.2"), RelLLDP, KindDevice, Targets(DeviceRef("10.0.0.1"))))

		// Visible inside the transaction.
		_, err := tx.GetNode(ctx, DeviceRef("10.0.0.2"))
		require.NoError(t, err)

		return tx.UpsertNode(ctx, node(KindDevice, "10.0.0.3", "aa:bb"))
	})
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = g.GetNode(ctx, DeviceRef("10.0.0.2"))
	require.ErrorIs(t, err, ErrNotFound)

	edges, err := g.Edges(ctx, DeviceRef("10.0.0.2"), RelLLDP)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestMemoryAtomicCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewMemoryGraph().Atomic(ctx, func(GraphTx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemoryConcurrentReplaceEdgesConverge(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	vlan := VlanRef("10.0.0.1", "Vlan10")
	want := Targets(InterfaceRef("10.0.0.1", "Ethernet0"), InterfaceRef("10.0.0.1", "Ethernet4"))

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, g.Atomic(ctx, func(tx GraphTx) error {
				if err := tx.ReplaceEdges(ctx, vlan, RelMember, KindInterface, nil); err != nil {
					return err
				}

				return tx.ReplaceEdges(ctx, vlan, RelMember, KindInterface, want)
			}))
		}()
	}

	wg.Wait()

	edges, err := g.Edges(ctx, vlan, RelMember)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestListNodesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	for _, n := range []*Node{
		{Ref: InterfaceRef("10.0.0.2", "Ethernet0"), DeviceIP: "10.0.0.2"},
		{Ref: InterfaceRef("10.0.0.1", "Ethernet8"), DeviceIP: "10.0.0.1"},
		{Ref: InterfaceRef("10.0.0.1", "Ethernet0"), DeviceIP: "10.0.0.1"},
	} {
		require.NoError(t, g.UpsertNode(ctx, n))
	}

	nodes, err := g.ListNodes(ctx, KindInterface, NodeFilter{DeviceIP: "10.0.0.1"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "10.0.0.1|Ethernet0", nodes[0].Key)
	assert.Equal(t, "10.0.0.1|Ethernet8", nodes[1].Key)

	_, err = g.ListNodes(ctx, KindVlan, NodeFilter{})
	require.NoError(t, err)

	require.ErrorIs(t, g.UpsertNode(ctx, &Node{Ref: Ref{Kind: KindVlan}}), errEmptyRef)
}

func TestCompositeKey(t *testing.T) {
	key := CompositeKey("10.0.0.1", "Ethernet1/1")
	assert.Equal(t, "10.0.0.1|Ethernet1/1", key)

	ip, name := SplitKey(key)
	assert.Equal(t, "10.0.0.1", ip)
	assert.Equal(t, "Ethernet1/1", name)
}
