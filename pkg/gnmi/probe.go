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
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const (
	icmpProtocol   = 1
	icmpReadBuffer = 1500
)

// Prober decides whether a host is reachable before a channel is built.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// NewProber returns the prober selected by cfg.Mode.
func NewProber(cfg *Config) (Prober, error) {
	timeout := time.Duration(cfg.Probe.Timeout)

	switch cfg.Probe.Mode {
	case "", ProbeModeTCP:
		return &TCPProber{Port: cfg.Port, Timeout: timeout}, nil
	case ProbeModeICMP:
		return &ICMPProber{Timeout: timeout}, nil
	case ProbeModeNone:
		return noopProber{}, nil
	default:
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, errUnknownProbeMode, cfg.Probe.Mode)
	}
}

// TCPProber connects to the gNMI port and closes the connection immediately.
type TCPProber struct {
	Port    int
	Timeout time.Duration
}

func (p *TCPProber) Probe(ctx context.Context, host string) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var dialer net.Dialer

	conn, err := dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(p.Port)))
	if err != nil {
		return err
	}

	return conn.Close()
}

// ICMPProber sends a single echo request. It uses an unprivileged datagram
// socket, so net.ipv4.ping_group_range must admit the process group.
type ICMPProber struct {
	Timeout time.Duration
}

func (p *ICMPProber) Probe(ctx context.Context, host string) error {
	dst, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return err
	}

	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return fmt.Errorf("failed to create ICMP listener: %w", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(p.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	id := os.Getpid() & 0xffff

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("fabricsync")},
	}

	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: dst.IP}); err != nil {
		return err
	}

	rb := make([]byte, icmpReadBuffer)

	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			return err
		}

		if udp, ok := peer.(*net.UDPAddr); !ok || !udp.IP.Equal(dst.IP) {
			continue
		}

		reply, err := icmp.ParseMessage(icmpProtocol, rb[:n])
		if err != nil {
			return err
		}

		if reply.Type == ipv4.ICMPTypeEchoReply {
			return nil
		}

		return fmt.Errorf("%w: %v", errEchoMismatch, reply.Type)
	}
}

type noopProber struct{}

func (noopProber) Probe(context.Context, string) error { return nil }
