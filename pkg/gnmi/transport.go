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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
)

const (
	tracerName = "github.com/carverauto/fabricsync/pkg/gnmi"

	// notReadyMarker is the substring a device reports in its system status while booting or upgrading.
	notReadyMarker = "system is not ready"

	// SystemStatusPath is where a device reports its readiness.
	SystemStatusPath = "sonic-system-status:sonic-system-status/SYSTEM_STATUS"
)

// Result is the key union of every JSON object returned by a Get.
type Result map[string]json.RawMessage

// ReadinessChecker vetoes device I/O based on last-known state.
type ReadinessChecker interface {
	CheckReady(ctx context.Context, deviceIP string) error
}

// DeviceStatusSource reports the last stored system status of a device.
// found is false when the device has never been discovered.
type DeviceStatusSource interface {
	DeviceStatus(ctx context.Context, deviceIP string) (status string, found bool, err error)
}

// StatusReadiness rejects devices whose stored status says they are not ready.
// Unknown devices are treated as ready so first discovery can proceed.
type StatusReadiness struct {
	Source DeviceStatusSource
}

func (s StatusReadiness) CheckReady(ctx context.Context, deviceIP string) error {
	status, found, err := s.Source.DeviceStatus(ctx, deviceIP)
	if err != nil {
		return err
	}

	if found && strings.Contains(strings.ToLower(status), notReadyMarker) {
		return fmt.Errorf("%w: %s reports %q", ErrDeviceNotReady, deviceIP, status)
	}

	return nil
}

// Transport issues Get and Set against devices through the channel pool.
type Transport struct {
	pool    *ChannelPool
	ready   ReadinessChecker
	timeout time.Duration
	logger  logger.Logger
	tracer  trace.Tracer
}

// NewTransport wires a transport. timeout bounds every RPC.
func NewTransport(pool *ChannelPool, ready ReadinessChecker, timeout time.Duration, log logger.Logger) *Transport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Transport{
		pool:    pool,
		ready:   ready,
		timeout: timeout,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Get reads the full subtree at each path as JSON_IETF and merges the
// top-level keys of every update. On collision the later update wins,
// so callers should pass disjoint paths. Devices the readiness checker
// rejects are not contacted.
func (t *Transport) Get(ctx context.Context, deviceIP string, paths []*gpb.Path) (Result, error) {
	return t.get(ctx, "gnmi.Get", deviceIP, paths, true)
}

// GetStatus reads like Get without consulting the readiness checker. It is
// the read that refreshes the status the checker decides on.
func (t *Transport) GetStatus(ctx context.Context, deviceIP string, paths []*gpb.Path) (Result, error) {
	return t.get(ctx, "gnmi.GetStatus", deviceIP, paths, false)
}

func (t *Transport) get(ctx context.Context, spanName, deviceIP string, paths []*gpb.Path, gated bool) (Result, error) {
	ctx, span := t.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("device.ip", deviceIP),
		attribute.StringSlice("gnmi.paths", pathStrings(paths)),
	))
	defer span.End()

	if gated {
		if err := t.ready.CheckReady(ctx, deviceIP); err != nil {
			return nil, t.fail(span, "get", deviceIP, paths, nil, err)
		}
	}

	ch, err := t.pool.Get(ctx, deviceIP)
	if err != nil {
		return nil, t.fail(span, "get", deviceIP, paths, nil, err)
	}

	req := &gpb.GetRequest{
		Path:     paths,
		Type:     gpb.GetRequest_ALL,
		Encoding: gpb.Encoding_JSON_IETF,
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := ch.Client.Get(callCtx, req)
	if err != nil {
		return nil, t.fail(span, "get", deviceIP, paths, req, fmt.Errorf("%w: get %s: %w", ErrTransport, deviceIP, err))
	}

	result, err := mergeNotifications(resp.GetNotification())
	if err != nil {
		return nil, t.fail(span, "get", deviceIP, paths, req, fmt.Errorf("%w: get %s: %w", ErrTransport, deviceIP, err))
	}

	span.SetAttributes(attribute.Int("gnmi.result_keys", len(result)))

	return result, nil
}

// Set applies req. Composition of updates, replaces and deletes is up to the caller.
func (t *Transport) Set(ctx context.Context, deviceIP string, req *gpb.SetRequest) error {
	paths := setPaths(req)

	ctx, span := t.tracer.Start(ctx, "gnmi.Set", trace.WithAttributes(
		attribute.String("device.ip", deviceIP),
		attribute.StringSlice("gnmi.paths", pathStrings(paths)),
	))
	defer span.End()

	if err := t.ready.CheckReady(ctx, deviceIP); err != nil {
		return t.fail(span, "set", deviceIP, paths, nil, err)
	}

	ch, err := t.pool.Get(ctx, deviceIP)
	if err != nil {
		return t.fail(span, "set", deviceIP, paths, nil, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if _, err := ch.Client.Set(callCtx, req); err != nil {
		return t.fail(span, "set", deviceIP, paths, req, fmt.Errorf("%w: set %s: %w", ErrTransport, deviceIP, err))
	}

	return nil
}

func (t *Transport) fail(span trace.Span, op, deviceIP string, paths []*gpb.Path, payload proto.Message, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	event := t.logger.Error().
		Err(err).
		Str("op", op).
		Str("device_ip", deviceIP).
		Strs("paths", pathStrings(paths))

	if payload != nil {
		event = event.Str("payload", prototext.Format(payload))
	}

	event.Msg("gNMI request failed")

	return err
}

func mergeNotifications(notifications []*gpb.Notification) (Result, error) {
	out := make(Result)

	for _, n := range notifications {
		for _, u := range n.GetUpdate() {
			raw, err := jsonPayload(u.GetVal())
			if err != nil {
				return nil, fmt.Errorf("update %s: %w", PathString(u.GetPath()), err)
			}

			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}

			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fmt.Errorf("update %s: %w", PathString(u.GetPath()), err)
			}

			for k, v := range obj {
				out[k] = v
			}
		}
	}

	return out, nil
}

func jsonPayload(v *gpb.TypedValue) ([]byte, error) {
	switch val := v.GetValue().(type) {
	case *gpb.TypedValue_JsonIetfVal:
		return val.JsonIetfVal, nil
	case *gpb.TypedValue_JsonVal:
		return val.JsonVal, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unexpected value type %T", ErrTransport, val)
	}
}

func setPaths(req *gpb.SetRequest) []*gpb.Path {
	paths := make([]*gpb.Path, 0, len(req.GetDelete())+len(req.GetUpdate())+len(req.GetReplace()))
	paths = append(paths, req.GetDelete()...)

	for _, u := range req.GetReplace() {
		paths = append(paths, u.GetPath())
	}

	for _, u := range req.GetUpdate() {
		paths = append(paths, u.GetPath())
	}

	return paths
}

func pathStrings(paths []*gpb.Path) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, PathString(p))
	}

	return out
}
