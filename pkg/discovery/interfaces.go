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

// Package discovery reconciles device state read over gNMI into the topology store.
package discovery

//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/carverauto/fabricsync/pkg/discovery Transport,Feature,Observer

import (
	"context"

	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/topology"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

// Transport is the device I/O surface used by the reconciler and feature services.
type Transport interface {
	// Get reads the subtrees at paths and returns the merged top-level keys.
	Get(ctx context.Context, deviceIP string, paths []*gpb.Path) (gnmi.Result, error)

	// GetStatus reads like Get without consulting the readiness gate.
	GetStatus(ctx context.Context, deviceIP string, paths []*gpb.Path) (gnmi.Result, error)

	// Set applies a composed update/replace/delete request.
	Set(ctx context.Context, deviceIP string, req *gpb.SetRequest) error
}

// Feature is one discoverable domain on a device, such as VLANs or interfaces.
type Feature interface {
	// Name is the stable identifier used in requests and events.
	Name() string

	// ReadPaths returns the paths to read for scope. An empty scope reads the whole feature.
	ReadPaths(scope Scope) ([]*gpb.Path, error)

	// Apply normalizes result and writes it through repos. It runs inside one
	// store transaction and must make the graph match result exactly for scope,
	// including emptying it when result has no entries.
	Apply(ctx context.Context, repos *topology.Repos, deviceIP string, scope Scope, result gnmi.Result) (Summary, error)
}

// StatusReader is implemented by features whose read refreshes the device
// status the readiness gate consults. When ReadsStatus reports true the
// reconciler reads through Transport.GetStatus.
type StatusReader interface {
	ReadsStatus() bool
}

// Observer is told about every committed pass. Implementations must not block
// and own their failures.
type Observer interface {
	Reconciled(ctx context.Context, report *Report)
}

// Store runs a group of writes atomically.
type Store interface {
	Atomic(ctx context.Context, fn func(repos *topology.Repos) error) error
}
