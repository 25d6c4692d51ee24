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
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	gpb "github.com/openconfig/gnmi/proto/gnmi"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// SecureDialer probes the device, pins its own certificate, and attaches
// per-call credentials.
type SecureDialer struct {
	serverName string
	prober     Prober
	certs      CertificateFetcher
	creds      CredentialProvider
	logger     logger.Logger
}

// NewSecureDialer builds the production dialer from a validated config.
func NewSecureDialer(cfg *Config, prober Prober, creds CredentialProvider, log logger.Logger) *SecureDialer {
	return &SecureDialer{
		serverName: cfg.ServerNameOverride,
		prober:     prober,
		certs:      &TLSCertificateFetcher{Timeout: time.Duration(cfg.Timeout)},
		creds:      creds,
		logger:     log,
	}
}

// WithCertificateFetcher replaces the certificate source.
func (d *SecureDialer) WithCertificateFetcher(f CertificateFetcher) *SecureDialer {
	d.certs = f
	return d
}

func (d *SecureDialer) Dial(ctx context.Context, address string) (*Channel, error) {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidConfig, address, err)
	}

	if err := d.prober.Probe(ctx, host); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnreachable, host, err)
	}

	cert, err := d.certs.FetchCertificate(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch certificate from %s: %w", ErrTransport, address, err)
	}

	d.logger.Debug().
		Str("address", address).
		Str("subject", cert.Subject.String()).
		Time("not_after", cert.NotAfter).
		Msg("Pinned device certificate")

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(credentials.NewTLS(pinnedTLSConfig(cert, d.serverName))),
		grpc.WithPerRPCCredentials(newBasicAuth(d.creds, address)),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, address, err)
	}

	return NewChannel(address, gpb.NewGNMIClient(conn), conn), nil
}
