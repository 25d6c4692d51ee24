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
	"crypto/tls"
	"crypto/x509"
	"time"
)

// CertificateFetcher retrieves the certificate a device presents on its gNMI port.
type CertificateFetcher interface {
	FetchCertificate(ctx context.Context, address string) (*x509.Certificate, error)
}

// TLSCertificateFetcher performs an unverified handshake and keeps the leaf.
// The leaf is only used as a pin for the real channel, never trusted on its own.
type TLSCertificateFetcher struct {
	Timeout time.Duration
}

func (f *TLSCertificateFetcher) FetchCertificate(ctx context.Context, address string) (*x509.Certificate, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	dialer := &tls.Dialer{
		Config: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // certificate is pinned, not trusted
			MinVersion:         tls.VersionTLS12,
		},
	}

	conn, err := dialer.DialContext(fetchCtx, "tcp", address)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, errNoPeerCertificate
	}

	return state.PeerCertificates[0], nil
}

// pinnedTLSConfig trusts exactly cert and validates it against serverName
// rather than the dialed address.
func pinnedTLSConfig(cert *x509.Certificate, serverName string) *tls.Config {
	pool := x509.NewCertPool()
	pool.AddCert(cert)

	return &tls.Config{
		RootCAs:    pool,
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
}
