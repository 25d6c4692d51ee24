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

//go:generate mockgen -destination=mock_gnmi.go -package=gnmi github.com/carverauto/fabricsync/pkg/gnmi Dialer,ReadinessChecker

package gnmi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/carverauto/fabricsync/pkg/logger"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

// Channel is an authenticated, encrypted session to one device.
type Channel struct {
	Address string
	Client  gpb.GNMIClient
	closer  io.Closer
}

// NewChannel wraps a client. closer may be nil.
func NewChannel(address string, client gpb.GNMIClient, closer io.Closer) *Channel {
	return &Channel{Address: address, Client: client, closer: closer}
}

func (c *Channel) Close() error {
	if c.closer == nil {
		return nil
	}

	return c.closer.Close()
}

// Dialer establishes a channel to an address on first use.
type Dialer interface {
	Dial(ctx context.Context, address string) (*Channel, error)
}

type poolEntry struct {
	mu sync.Mutex
	ch *Channel
}

// ChannelPool caches one channel per device address for the pool's lifetime.
// The map lock is held only for lookup; establishment is serialized per
// entry so a slow device never blocks others.
type ChannelPool struct {
	dialer  Dialer
	port    int
	logger  logger.Logger
	mu      sync.Mutex
	entries map[string]*poolEntry
	closed  bool
}

// NewChannelPool creates an empty pool dialing devices on port.
func NewChannelPool(dialer Dialer, port int, log logger.Logger) *ChannelPool {
	return &ChannelPool{
		dialer:  dialer,
		port:    port,
		logger:  log,
		entries: make(map[string]*poolEntry),
	}
}

// Address returns the pool key for a device.
func (p *ChannelPool) Address(deviceIP string) string {
	return net.JoinHostPort(deviceIP, strconv.Itoa(p.port))
}

// Get returns the cached channel for deviceIP, dialing it on first access.
// Failed dials are not cached; the next call tries again.
func (p *ChannelPool) Get(ctx context.Context, deviceIP string) (*Channel, error) {
	addr := p.Address(deviceIP)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	entry, ok := p.entries[addr]
	if !ok {
		entry = &poolEntry{}
		p.entries[addr] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.ch != nil {
		return entry.ch, nil
	}

	ch, err := p.dialer.Dial(ctx, addr)
	if err != nil {
		p.logger.Error().Err(err).Str("address", addr).Msg("Failed to establish gNMI channel")
		return nil, err
	}

	// Close may have run while the dial was in flight.
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		if err := ch.Close(); err != nil {
			p.logger.Warn().Err(err).Str("address", addr).Msg("Failed to close gNMI channel dialed during shutdown")
		}

		return nil, ErrPoolClosed
	}

	p.logger.Info().Str("address", addr).Msg("Established gNMI channel")

	entry.ch = ch

	return ch, nil
}

// Len reports the number of established channels.
func (p *ChannelPool) Len() int {
	p.mu.Lock()
	entries := make([]*poolEntry, 0, len(p.entries))
	for _, e := range p.entries {
		entries = append(entries, e)
	}
	p.mu.Unlock()

	n := 0

	for _, e := range entries {
		e.mu.Lock()
		if e.ch != nil {
			n++
		}
		e.mu.Unlock()
	}

	return n
}

// Close releases every channel. It is meant for process shutdown only.
// A Get still dialing when Close runs discards its channel and returns
// ErrPoolClosed.
func (p *ChannelPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}

	p.closed = true
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	var errs []error

	for addr, e := range entries {
		e.mu.Lock()
		if e.ch != nil {
			if err := e.ch.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
			}

			e.ch = nil
		}
		e.mu.Unlock()
	}

	return errors.Join(errs...)
}
