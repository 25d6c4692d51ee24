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
	"errors"

	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
)

// Store is the topology store. Its embedded repositories run outside any
// transaction; use Atomic to group writes.
type Store struct {
	*Repos
	graph  Graph
	logger logger.Logger
}

var (
	_ gnmi.ReadinessChecker   = (*Store)(nil)
	_ gnmi.DeviceStatusSource = (*Store)(nil)
)

// NewStore wraps a graph backend.
func NewStore(graph Graph, log logger.Logger) *Store {
	return &Store{
		Repos:  NewRepos(graph),
		graph:  graph,
		logger: log,
	}
}

// Atomic runs fn with transaction-scoped repositories. Either every write in
// fn commits or none does.
func (s *Store) Atomic(ctx context.Context, fn func(repos *Repos) error) error {
	err := s.graph.Atomic(ctx, func(tx GraphTx) error {
		return fn(NewRepos(tx))
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("topology transaction rolled back")
	}

	return err
}

// DeviceStatus returns the last discovered system status of a device.
func (s *Store) DeviceStatus(ctx context.Context, deviceIP string) (string, bool, error) {
	dev, err := s.Devices.FindByKey(ctx, deviceIP)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return dev.SystemStatus, true, nil
}

// CheckReady vetoes I/O to devices that last reported they were not ready.
func (s *Store) CheckReady(ctx context.Context, deviceIP string) error {
	return gnmi.StatusReadiness{Source: s}.CheckReady(ctx, deviceIP)
}

// DeviceIPs lists the management address of every known device.
func (s *Store) DeviceIPs(ctx context.Context) ([]string, error) {
	nodes, err := s.graph.ListNodes(ctx, KindDevice, NodeFilter{})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Key)
	}

	return out, nil
}
