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

	"google.golang.org/grpc/credentials"
)

// CredentialProvider is consulted on every RPC, so rotating credentials
// never requires re-establishing a channel.
type CredentialProvider interface {
	Credentials(ctx context.Context, address string) (username, password string, err error)
}

// StaticCredentials returns the same username and password for every device.
type StaticCredentials struct {
	Username string
	Password string
}

func (s StaticCredentials) Credentials(context.Context, string) (username, password string, err error) {
	if s.Username == "" || s.Password == "" {
		return "", "", fmt.Errorf("%w: credentials not set", ErrInvalidConfig)
	}

	return s.Username, s.Password, nil
}

// basicAuth attaches username/password metadata to each call.
type basicAuth struct {
	provider CredentialProvider
	address  string
}

var _ credentials.PerRPCCredentials = (*basicAuth)(nil)

func newBasicAuth(provider CredentialProvider, address string) *basicAuth {
	return &basicAuth{provider: provider, address: address}
}

func (b *basicAuth) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	user, pass, err := b.provider.Credentials(ctx, b.address)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"username": user,
		"password": pass,
	}, nil
}

func (*basicAuth) RequireTransportSecurity() bool {
	return true
}
