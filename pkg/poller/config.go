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
	"fmt"
	"net/netip"
	"time"

	"github.com/carverauto/fabricsync/pkg/gnmi"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
)

const (
	defaultPollInterval    = 5 * time.Minute
	defaultConcurrency     = 8
	defaultMaxTries        = 3
	defaultInitialInterval = time.Second
	defaultMaxInterval     = 30 * time.Second
)

// RetryConfig bounds the per-feature retry of a device sweep.
type RetryConfig struct {
	MaxTries        uint            `json:"max_tries" yaml:"max_tries"`
	InitialInterval models.Duration `json:"initial_interval" yaml:"initial_interval"`
	MaxInterval     models.Duration `json:"max_interval" yaml:"max_interval"`
}

// Config is the fabricsync service configuration.
type Config struct {
	GNMI         gnmi.Config              `json:"gnmi" yaml:"gnmi"`
	Devices      []string                 `json:"devices" yaml:"devices"`
	PollInterval models.Duration          `json:"poll_interval" yaml:"poll_interval"`
	Concurrency  int                      `json:"concurrency" yaml:"concurrency"`
	Features     []string                 `json:"features,omitempty" yaml:"features,omitempty"`
	Retry        RetryConfig              `json:"retry" yaml:"retry"`
	Database     *models.Database         `json:"database,omitempty" yaml:"database,omitempty"`
	NATS         *models.NATSConfig       `json:"nats,omitempty" yaml:"nats,omitempty"`
	InfluxDB     *models.InfluxDBConfig   `json:"influxdb,omitempty" yaml:"influxdb,omitempty"`
	Prometheus   *models.PrometheusConfig `json:"prometheus,omitempty" yaml:"prometheus,omitempty"`
	Logging      *logger.Config           `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	c.GNMI.ApplyDefaults()

	if c.PollInterval == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.Concurrency == 0 {
		c.Concurrency = defaultConcurrency
	}

	if c.Retry.MaxTries == 0 {
		c.Retry.MaxTries = defaultMaxTries
	}

	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = models.Duration(defaultInitialInterval)
	}

	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = models.Duration(defaultMaxInterval)
	}
}

// Validate implements config.Validator. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	if err := c.GNMI.Validate(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]struct{}, len(c.Devices))

	for _, d := range c.Devices {
		if _, err := netip.ParseAddr(d); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", errInvalidDeviceIP, d))
			continue
		}

		if _, dup := seen[d]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", errDuplicateDevice, d))
		}

		seen[d] = struct{}{}
	}

	if c.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: poll_interval", ErrInvalidDuration))
	}

	if c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: retry", ErrInvalidDuration))
	}

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", errInvalidConcurrency, c.Concurrency))
	}

	if c.Database != nil && c.Database.Host == "" {
		errs = append(errs, errDatabaseHostRequired)
	}

	if c.NATS != nil && c.NATS.URL == "" {
		errs = append(errs, errNATSURLRequired)
	}

	if c.InfluxDB != nil && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, errInfluxIncomplete)
	}

	if c.Prometheus != nil && c.Prometheus.PushgatewayURL == "" {
		errs = append(errs, errPushgatewayRequired)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", gnmi.ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}
