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

import "errors"

var (
	// Malformed path input. Never retried.
	ErrInvalidPathSegment = errors.New("invalid path segment")
	ErrInvalidFilterEntry = errors.New("invalid filter entry")

	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrDeviceNotReady    = errors.New("device not ready")

	// ErrInvalidConfig is a fatal misconfiguration such as a missing port or credentials.
	ErrInvalidConfig = errors.New("invalid gnmi configuration")

	// ErrTransport covers timeouts, refusals and malformed responses.
	ErrTransport = errors.New("gnmi transport failure")

	ErrPoolClosed = errors.New("channel pool closed")

	errInvalidPort       = errors.New("port out of range")
	errMissingUsername   = errors.New("username is required")
	errMissingPassword   = errors.New("password is required")
	errNegativeTimeout   = errors.New("timeout must not be negative")
	errNoPeerCertificate = errors.New("device presented no certificate")
	errUnknownProbeMode  = errors.New("unknown probe mode")
	errEchoMismatch      = errors.New("unexpected icmp reply")
)
