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

package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/topology"
	"github.com/google/uuid"
)

// Reconciler drives Idle -> Discovering -> Idle passes that overwrite the
// graph subtree of one (device, feature) with what the device reports.
type Reconciler struct {
	transport Transport
	store     Store
	logger    logger.Logger

	features map[string]Feature
	order    []string

	observerMu sync.RWMutex
	observers  []Observer

	mu       sync.Mutex
	inFlight map[passKey]int

	now func() time.Time
}

// NewReconciler registers features in the given order. Feature names must be unique.
func NewReconciler(transport Transport, store Store, log logger.Logger, features ...Feature) (*Reconciler, error) {
	r := &Reconciler{
		transport: transport,
		store:     store,
		logger:    log,
		features:  make(map[string]Feature, len(features)),
		inFlight:  make(map[passKey]int),
		now:       time.Now,
	}

	for _, f := range features {
		if _, exists := r.features[f.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeature, f.Name())
		}

		r.features[f.Name()] = f
		r.order = append(r.order, f.Name())
	}

	return r, nil
}

// AddObserver subscribes o to committed passes.
func (r *Reconciler) AddObserver(o Observer) {
	r.observerMu.Lock()
	defer r.observerMu.Unlock()

	r.observers = append(r.observers, o)
}

// Features returns the registered feature names in registration order.
func (r *Reconciler) Features() []string {
	return append([]string(nil), r.order...)
}

// State reports whether a pass is running for the pair.
func (r *Reconciler) State(deviceIP, feature string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[passKey{deviceIP: deviceIP, feature: feature}] > 0 {
		return StateDiscovering
	}

	return StateIdle
}

// Discover runs one pass. Transport and store failures are returned to the
// caller as is; nothing is retried here.
func (r *Reconciler) Discover(ctx context.Context, req Request) (*Report, error) {
	if req.DeviceIP == "" {
		return nil, ErrDeviceRequired
	}

	feature, ok := r.features[req.Feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, req.Feature)
	}

	key := passKey{deviceIP: req.DeviceIP, feature: req.Feature}

	r.begin(key)
	defer r.end(key)

	log := r.logger.With().
		Str("device_ip", req.DeviceIP).
		Str("feature", req.Feature).
		Str("scope", req.Scope.Name).
		Logger()

	paths, err := feature.ReadPaths(req.Scope)
	if err != nil {
		return nil, fmt.Errorf("discover %s on %s: %w", req.Feature, req.DeviceIP, err)
	}

	started := r.now()

	read := r.transport.Get
	if sr, ok := feature.(StatusReader); ok && sr.ReadsStatus() {
		read = r.transport.GetStatus
	}

	result, err := read(ctx, req.DeviceIP, paths)
	if err != nil {
		log.Error().Err(err).Msg("Device read failed")
		return nil, fmt.Errorf("discover %s on %s: %w", req.Feature, req.DeviceIP, err)
	}

	var summary Summary

	err = r.store.Atomic(ctx, func(repos *topology.Repos) error {
		s, applyErr := feature.Apply(ctx, repos, req.DeviceIP, req.Scope, result)
		summary = s

		return applyErr
	})
	if err != nil {
		log.Error().Err(err).Msg("Topology write failed")
		return nil, fmt.Errorf("discover %s on %s: %w", req.Feature, req.DeviceIP, err)
	}

	report := &Report{
		ID:        uuid.NewString(),
		DeviceIP:  req.DeviceIP,
		Feature:   req.Feature,
		Scope:     req.Scope,
		Summary:   summary,
		StartedAt: started,
		Duration:  r.now().Sub(started),
	}

	log.Debug().
		Str("pass_id", report.ID).
		Int("upserted", summary.Upserted).
		Int("deleted", summary.Deleted).
		Int("relationships", summary.Relationships).
		Dur("duration", report.Duration).
		Msg("Reconciliation pass committed")

	r.notify(ctx, report)

	return report, nil
}

// AfterMutation rediscovers the feature after a write to the device, whether
// or not the write succeeded, so the graph only shows confirmed state. The
// mutation error wins over a rediscovery error.
func (r *Reconciler) AfterMutation(ctx context.Context, req Request, mutationErr error) error {
	_, err := r.Discover(ctx, req)

	if mutationErr != nil {
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("device_ip", req.DeviceIP).
				Str("feature", req.Feature).
				Msg("Rediscovery after failed mutation also failed")
		}

		return mutationErr
	}

	return err
}

func (r *Reconciler) begin(key passKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inFlight[key]++
}

func (r *Reconciler) end(key passKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[key] <= 1 {
		delete(r.inFlight, key)
		return
	}

	r.inFlight[key]--
}

func (r *Reconciler) notify(ctx context.Context, report *Report) {
	r.observerMu.RLock()
	observers := append([]Observer(nil), r.observers...)
	r.observerMu.RUnlock()

	for _, o := range observers {
		o.Reconciled(ctx, report)
	}
}
