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

package gnmi

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MockGNMIClient is a mock implementation of gpb.GNMIClient.
type MockGNMIClient struct {
	gpb.GNMIClient
	mock.Mock
}

func (m *MockGNMIClient) Get(ctx context.Context, req *gpb.GetRequest, _ ...grpc.CallOption) (*gpb.GetResponse, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*gpb.GetResponse)

	return resp, args.Error(1)
}

func (m *MockGNMIClient) Set(ctx context.Context, req *gpb.SetRequest, _ ...grpc.CallOption) (*gpb.SetResponse, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*gpb.SetResponse)

	return resp, args.Error(1)
}

type statusMap map[string]string

func (s statusMap) DeviceStatus(_ context.Context, ip string) (string, bool, error) {
	st, ok := s[ip]
	return st, ok, nil
}

func jsonUpdate(t *testing.T, path string, v any) *gpb.Update {
	t.Helper()

	u, err := NewUpdate(MustEncodePath(path), v)
	require.NoError(t, err)

	return u
}

func newTestTransport(t *testing.T, ctrl *gomock.Controller, client gpb.GNMIClient, statuses statusMap) (*Transport, *MockDialer) {
	t.Helper()

	dialer := NewMockDialer(ctrl)
	dialer.EXPECT().
		Dial(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, addr string) (*Channel, error) {
			return NewChannel(addr, client, nil), nil
		}).
		AnyTimes()

	pool := NewChannelPool(dialer, 8080, logger.NewTestLogger())

	return NewTransport(pool, StatusReadiness{Source: statuses}, time.Second, logger.NewTestLogger()), dialer
}

func TestTransportGetMergesUpdates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{})

	paths, err := EncodePaths("sonic-vlan:sonic-vlan/VLAN/VLAN_LIST", "sonic-vlan:sonic-vlan/VLAN_TABLE/VLAN_TABLE_LIST")
	require.NoError(t, err)

	client.On("Get", mock.Anything, mock.MatchedBy(func(req *gpb.GetRequest) bool {
		return req.GetType() == gpb.GetRequest_ALL &&
			req.GetEncoding() == gpb.Encoding_JSON_IETF &&
			len(req.GetPath()) == 2
	})).Return(&gpb.GetResponse{
		Notification: []*gpb.Notification{
			{Update: []*gpb.Update{
				jsonUpdate(t, "sonic-vlan:sonic-vlan/VLAN/VLAN_LIST", map[string]any{
					"sonic-vlan:VLAN_LIST": []map[string]any{{"name": "Vlan10", "vlanid": 10}},
					"shared":               "first",
				}),
			}},
			{Update: []*gpb.Update{
				jsonUpdate(t, "sonic-vlan:sonic-vlan/VLAN_TABLE/VLAN_TABLE_LIST", map[string]any{
					"sonic-vlan:VLAN_TABLE_LIST": []map[string]any{{"name": "Vlan10", "mtu": 9100}},
					"shared":                     "second",
				}),
			}},
		},
	}, nil).Once()

	result, err := transport.Get(context.Background(), "10.0.0.1", paths)
	require.NoError(t, err)

	assert.Len(t, result, 3)
	assert.Contains(t, result, "sonic-vlan:VLAN_LIST")
	assert.Contains(t, result, "sonic-vlan:VLAN_TABLE_LIST")

	var shared string
	require.NoError(t, json.Unmarshal(result["shared"], &shared))
	assert.Equal(t, "second", shared)

	client.AssertExpectations(t)
}

func TestTransportGetEmptyResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{})

	client.On("Get", mock.Anything, mock.Anything).Return(&gpb.GetResponse{
		Notification: []*gpb.Notification{{Update: []*gpb.Update{{
			Path: MustEncodePath("a"),
			Val:  &gpb.TypedValue{Value: &gpb.TypedValue_JsonIetfVal{JsonIetfVal: []byte("{}")}},
		}}}},
	}, nil).Once()

	result, err := transport.Get(context.Background(), "10.0.0.1", []*gpb.Path{MustEncodePath("a")})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTransportNotReadySkipsRPC(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}

	dialer := NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), gomock.Any()).Times(0)

	pool := NewChannelPool(dialer, 8080, logger.NewTestLogger())
	transport := NewTransport(pool,
		StatusReadiness{Source: statusMap{"10.0.0.1": "System is not ready - core services down"}},
		time.Second, logger.NewTestLogger())

	_, err := transport.Get(context.Background(), "10.0.0.1", []*gpb.Path{MustEncodePath("a")})
	require.ErrorIs(t, err, ErrDeviceNotReady)

	err = transport.Set(context.Background(), "10.0.0.1", DeleteRequest(MustEncodePath("a")))
	require.ErrorIs(t, err, ErrDeviceNotReady)

	client.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestTransportGetStatusSkipsGate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{"10.0.0.1": "System is not ready"})

	client.On("Get", mock.Anything, mock.Anything).Return(&gpb.GetResponse{}, nil).Once()

	paths, err := EncodePaths("sonic-device_metadata:sonic-device_metadata/DEVICE_METADATA", SystemStatusPath)
	require.NoError(t, err)

	// Plain reads stay gated even when they include the status path.
	_, err = transport.Get(context.Background(), "10.0.0.1", paths)
	require.ErrorIs(t, err, ErrDeviceNotReady)

	_, err = transport.GetStatus(context.Background(), "10.0.0.1", paths)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestTransportReadyStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{"10.0.0.1": "System is ready"})

	client.On("Set", mock.Anything, mock.Anything).Return(&gpb.SetResponse{}, nil).Once()

	require.NoError(t, transport.Set(context.Background(), "10.0.0.1", DeleteRequest(MustEncodePath("a"))))
	client.AssertExpectations(t)
}

func TestTransportWrapsRPCFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{})

	client.On("Get", mock.Anything, mock.Anything).
		Return(nil, status.Error(codes.DeadlineExceeded, "deadline exceeded")).Once()
	client.On("Set", mock.Anything, mock.Anything).
		Return(nil, status.Error(codes.InvalidArgument, "bad path")).Once()

	_, err := transport.Get(context.Background(), "10.0.0.1", []*gpb.Path{MustEncodePath("a")})
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(unwrapStatus(err)))

	u := jsonUpdate(t, "a", map[string]int{"b": 1})
	err = transport.Set(context.Background(), "10.0.0.1", UpdateRequest(u))
	require.ErrorIs(t, err, ErrTransport)
}

func TestTransportMalformedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{})

	client.On("Get", mock.Anything, mock.Anything).Return(&gpb.GetResponse{
		Notification: []*gpb.Notification{{Update: []*gpb.Update{{
			Path: MustEncodePath("a"),
			Val:  &gpb.TypedValue{Value: &gpb.TypedValue_UintVal{UintVal: 7}},
		}}}},
	}, nil).Once()

	_, err := transport.Get(context.Background(), "10.0.0.1", []*gpb.Path{MustEncodePath("a")})
	require.ErrorIs(t, err, ErrTransport)
}

func TestTransportAppliesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := &MockGNMIClient{}
	transport, _ := newTestTransport(t, ctrl, client, statusMap{})

	client.On("Get", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(&gpb.GetResponse{}, nil).Once()

	_, err := transport.Get(context.Background(), "10.0.0.1", []*gpb.Path{MustEncodePath("a")})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestRequestBuilders(t *testing.T) {
	p := MustEncodePath("sonic-vlan:sonic-vlan/VLAN/VLAN_LIST")

	u, err := NewUpdate(p, map[string]any{"name": "Vlan10"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Vlan10"}`, string(u.GetVal().GetJsonIetfVal()))

	assert.Len(t, UpdateRequest(u).GetUpdate(), 1)
	assert.Len(t, ReplaceRequest(u).GetReplace(), 1)
	assert.Len(t, DeleteRequest(p, p).GetDelete(), 2)

	_, err = NewUpdate(p, make(chan int))
	require.Error(t, err)
}

func unwrapStatus(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() []error })
		if !ok {
			return err
		}

		errs := u.Unwrap()
		err = errs[len(errs)-1]
	}
}
