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

// Package config loads service configuration from a file or the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/carverauto/fabricsync/pkg/logger"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errPathRequired        = errors.New("config path is required for CONFIG_SOURCE=file")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix namespaces every environment variable the loader reads.
	DefaultEnvPrefix = "FABRICSYNC_"
)

// ConfigLoader fills dst from some source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configs that can check themselves.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by configs with optional fields.
type Defaulter interface {
	ApplyDefaults()
}

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	env           *EnvConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a Config with a file loader and the default
// environment prefix. log may be nil.
func NewConfig(log logger.Logger) *Config {
	return &Config{
		defaultLoader: &FileConfigLoader{},
		env:           NewEnvConfigLoader(log, DefaultEnvPrefix),
		logger:        log,
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads cfg, applies environment overrides and defaults,
// then validates it. CONFIG_SOURCE selects "file" (the default) or "env".
// With the file source, environment variables still override file values,
// so secrets such as FABRICSYNC_GNMI_PASSWORD can stay out of the file.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case configSourceFile, "":
		if path == "" {
			return errPathRequired
		}

		if err := c.defaultLoader.Load(ctx, path, cfg); err != nil {
			return err
		}

		if err := c.env.Overlay(cfg); err != nil {
			return err
		}
	case configSourceEnv:
		if err := c.env.Load(ctx, path, cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}

	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Debug().Str("source", source).Str("path", path).Msg("Configuration loaded")
	}

	return nil
}
