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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var errUnknownOutput = errors.New("unknown log output")

type Config struct {
	Level      string        `json:"level" yaml:"level"`
	Debug      bool          `json:"debug" yaml:"debug"`
	Output     string        `json:"output" yaml:"output"`
	TimeFormat string        `json:"time_format" yaml:"time_format"`
	Tracing    TracingConfig `json:"tracing" yaml:"tracing"`
}

// ZerologLevel resolves the effective level. Debug wins over Level.
func (c *Config) ZerologLevel() (zerolog.Level, error) {
	if c.Debug {
		return zerolog.DebugLevel, nil
	}

	if c.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(c.Level)
}

// Writer returns the destination named by Output.
func (c *Config) Writer() (io.Writer, error) {
	switch c.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownOutput, c.Output)
	}
}

// New builds a zerolog.Logger from the config writing to w.
func New(config *Config, w io.Writer) (zerolog.Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := config.ZerologLevel()
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}
