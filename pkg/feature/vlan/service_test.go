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
	"testing"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errRejected = errors.New("rejected")

type recordedMutation struct {
	req discovery.Request
	err error
}

type recordingRediscoverer struct {
	calls []recordedMutation
}

func (r *recordingRediscoverer) AfterMutation(_ context.Context, req discovery.Request, mutationErr error) error {
	r.calls = append(r.calls, recordedMutation{req: req, err: mutationErr})
	return mutationErr
}

func newService(t *testing.T, ctrl *gomock.Controller) (*Service, *discovery.MockTransport, *recordingRediscoverer) {
	t.Helper()

	transport := discovery.NewMockTransport(ctrl)
	rec := &recordingRediscoverer{}

	return NewService(transport, rec, newStore(), logger.NewTestLogger()), transport, rec
}

func captureSet(transport *discovery.MockTransport, err error) *gpb.SetRequest {
	captured := &gpb.SetRequest{}

	transport.EXPECT().Set(gomock.Any(), testDevice, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req *gpb.SetRequest) error {
			captured.Update = req.GetUpdate()
			captured.Delete = req.GetDelete()

			return err
		})

	return captured
}

func TestConfigVlanPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, rec := newService(t, ctrl)
	req := captureSet(transport, nil)

	err := svc.ConfigVlan(context.Background(), testDevice, "Vlan10", 10, []models.VlanMember{
		{IfName: "Ethernet4", TaggingMode: models.TagModeUntagged},
		{IfName: "Ethernet0", TaggingMode: models.TagModeTagged},
	})
	require.NoError(t, err)

	require.Len(t, req.GetUpdate(), 2)
	assert.Equal(t, vlanListContainer, gnmi.PathString(req.GetUpdate()[0].GetPath()))
	assert.JSONEq(t, `{"sonic-vlan:VLAN_LIST":[{"name":"Vlan10","vlanid":10}]}`,
		string(req.GetUpdate()[0].GetVal().GetJsonIetfVal()))
	assert.JSONEq(t, `{"sonic-vlan:VLAN_MEMBER_LIST":[
		{"name":"Vlan10","ifname":"Ethernet0","tagging_mode":"tagged"},
		{"name":"Vlan10","ifname":"Ethernet4","tagging_mode":"untagged"}]}`,
		string(req.GetUpdate()[1].GetVal().GetJsonIetfVal()))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, discovery.Request{DeviceIP: testDevice, Feature: Name, Scope: discovery.Scope{Name: "Vlan10"}}, rec.calls[0].req)
	require.NoError(t, rec.calls[0].err)
}

func TestConfigVlanValidationSkipsDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, rec := newService(t, ctrl)
	transport.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	ctx := context.Background()

	require.ErrorIs(t, svc.ConfigVlan(ctx, testDevice, "", 10, nil), ErrInvalidRequest)
	require.ErrorIs(t, svc.ConfigVlan(ctx, testDevice, "Vlan0", 0, nil), ErrInvalidRequest)
	require.ErrorIs(t, svc.ConfigVlan(ctx, testDevice, "Vlan5000", 5000, nil), ErrInvalidRequest)
	require.ErrorIs(t, svc.ConfigVlan(ctx, "", "Vlan10", 10, nil), ErrInvalidRequest)
	require.ErrorIs(t, svc.AddMembers(ctx, testDevice, "Vlan10", nil), ErrInvalidRequest)
	require.ErrorIs(t, svc.SetTaggingMode(ctx, testDevice, "Vlan10", "Ethernet0", "trunk"), ErrInvalidRequest)
	require.ErrorIs(t, svc.AddMembers(ctx, testDevice, "Vlan10",
		[]models.VlanMember{{TaggingMode: models.TagModeTagged}}), ErrInvalidRequest)

	assert.Empty(t, rec.calls)
}

func TestSetTaggingModePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, _ := newService(t, ctrl)
	req := captureSet(transport, nil)

	require.NoError(t, svc.SetTaggingMode(context.Background(), testDevice, "Vlan10", "Ethernet1/1", models.TagModeTagged))

	require.Len(t, req.GetUpdate(), 1)

	elems := req.GetUpdate()[0].GetPath().GetElem()
	require.Len(t, elems, 4)
	assert.Equal(t, map[string]string{"name": "Vlan10", "ifname": "Ethernet1/1"}, elems[2].GetKey())
	assert.Equal(t, "tagging_mode", elems[3].GetName())
	assert.JSONEq(t, `{"sonic-vlan:tagging_mode":"tagged"}`, string(req.GetUpdate()[0].GetVal().GetJsonIetfVal()))
}

func TestMutationErrorStillRediscovers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, rec := newService(t, ctrl)
	captureSet(transport, errRejected)

	err := svc.AddMembers(context.Background(), testDevice, "Vlan10",
		[]models.VlanMember{{IfName: "Ethernet0", TaggingMode: models.TagModeTagged}})
	require.ErrorIs(t, err, errRejected)

	require.Len(t, rec.calls, 1)
	require.ErrorIs(t, rec.calls[0].err, errRejected)
}

func TestDeleteVlanRemovesKnownMembersFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, _ := newService(t, ctrl)
	apply(t, svc.store, discovery.Scope{}, resultFrom(t, fixture))

	req := captureSet(transport, nil)

	require.NoError(t, svc.DeleteVlan(context.Background(), testDevice, "Vlan10"))

	deletes := req.GetDelete()
	require.Len(t, deletes, 3)
	assert.Equal(t, map[string]string{"name": "Vlan10", "ifname": "Ethernet0"}, deletes[0].GetElem()[2].GetKey())
	assert.Equal(t, map[string]string{"name": "Vlan10", "ifname": "Ethernet4"}, deletes[1].GetElem()[2].GetKey())
	assert.Equal(t, map[string]string{"name": "Vlan10"}, deletes[2].GetElem()[2].GetKey())
	assert.Equal(t, "VLAN", deletes[2].GetElem()[1].GetName())
}

func TestDeleteMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, rec := newService(t, ctrl)
	apply(t, svc.store, discovery.Scope{}, resultFrom(t, fixture))

	ctx := context.Background()

	one := captureSet(transport, nil)
	require.NoError(t, svc.DeleteMember(ctx, testDevice, "Vlan10", "Ethernet4"))
	require.Len(t, one.GetDelete(), 1)

	all := captureSet(transport, nil)
	require.NoError(t, svc.DeleteMember(ctx, testDevice, "Vlan10", ""))
	require.Len(t, all.GetDelete(), 2)

	// No known members: nothing to send, but the VLAN is still refreshed.
	require.NoError(t, svc.DeleteMember(ctx, testDevice, "Vlan20", ""))
	assert.Len(t, rec.calls, 3)
}

func TestServiceRoundTripThroughReconciler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := discovery.NewMockTransport(ctrl)
	store := newStore()

	r, err := discovery.NewReconciler(transport, store, logger.NewTestLogger(), New(logger.NewTestLogger()))
	require.NoError(t, err)

	svc := NewService(transport, r, store, logger.NewTestLogger())

	gomock.InOrder(
		transport.EXPECT().Set(gomock.Any(), testDevice, gomock.Any()).Return(nil),
		transport.EXPECT().Get(gomock.Any(), testDevice, gomock.Len(3)).
			Return(resultFrom(t, `{"sonic-vlan:VLAN_LIST":[{"name":"Vlan30","vlanid":30}]}`), nil),
	)

	require.NoError(t, svc.ConfigVlan(context.Background(), testDevice, "Vlan30", 30, nil))

	v, err := svc.Vlan(context.Background(), testDevice, "Vlan30")
	require.NoError(t, err)
	assert.Equal(t, 30, v.VlanID)

	vlans, err := svc.Vlans(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Len(t, vlans, 1)
}
