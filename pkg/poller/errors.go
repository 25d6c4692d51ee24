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

package poller

import (
	"errors"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	errConfigRequired  = errors.New("poller config is required")
	errNoDiscoverer    = errors.New("discoverer is required")

	errInvalidDeviceIP      = errors.New("device must be an IP address")
	errDuplicateDevice      = errors.New("device listed twice")
	errInvalidConcurrency   = errors.New("concurrency must not be negative")
	errDatabaseHostRequired = errors.New("database host is required")
	errNATSURLRequired      = errors.New("nats url is required")
	errInfluxIncomplete     = errors.New("influxdb url and bucket are required")
	errPushgatewayRequired  = errors.New("prometheus pushgateway url is required")
)
