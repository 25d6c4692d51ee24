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
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/fabricsync/pkg/models"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultProbeTimeout = 10 * time.Second
	defaultServerName   = "localhost"

	ProbeModeTCP  = "tcp"
	ProbeModeICMP = "icmp"
	ProbeModeNone = "none"
)

// Config describes how devices are reached over gNMI.
type Config struct {
	Port               int             `json:"port" yaml:"port"`
	Username           string          `json:"username" yaml:"username"`
	Password           string          `json:"password" yaml:"password" sensitive:"true"`
	Timeout            models.Duration `json:"timeout" yaml:"timeout"`
	ServerNameOverride string          `json:"server_name_override" yaml:"server_name_override"`
	Probe              ProbeConfig     `json:"probe" yaml:"probe"`
}

// ProbeConfig selects the reachability check run before a channel is opened.
type ProbeConfig struct {
	Mode    string          `json:"mode" yaml:"mode"`
	Timeout models.Duration `json:"timeout" yaml:"timeout"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = models.Duration(defaultTimeout)
	}

	if c.ServerNameOverride == "" {
		c.ServerNameOverride = defaultServerName
	}

	if c.Probe.Mode == "" {
		c.Probe.Mode = ProbeModeTCP
	}

	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = models.Duration(defaultProbeTimeout)
	}
}

// Validate reports every missing or invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d", errInvalidPort, c.Port))
	}

	if c.Username == "" {
		errs = append(errs, errMissingUsername)
	}

	if c.Password == "" {
		errs = append(errs, errMissingPassword)
	}

	if c.Timeout < 0 {
		errs = append(errs, errNegativeTimeout)
	}

	switch c.Probe.Mode {
	case "", ProbeModeTCP, ProbeModeICMP, ProbeModeNone:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errUnknownProbeMode, c.Probe.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}
