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

// Command fabricsync keeps a topology graph of a SONiC fabric in sync with
// what the switches report over gNMI, and pushes VLAN changes back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/fabricsync/pkg/config"
	"github.com/carverauto/fabricsync/pkg/lifecycle"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/poller"
	"github.com/carverauto/fabricsync/pkg/version"
)

const defaultConfigPath = "/etc/fabricsync/fabricsync.yaml"

var (
	errFailedToLoadConfig = errors.New("failed to load config")
	errUnknownCommand     = errors.New("unknown command")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	command := "run"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	switch command {
	case "run":
		return runPoller(ctx, args)
	case "discover":
		return runDiscover(ctx, args, out)
	case "vlan":
		return runVlan(ctx, args, out)
	case "version":
		_, err := fmt.Fprintln(out, version.GetFullVersion())
		return err
	default:
		return fmt.Errorf("%w: %s (expected run, discover, vlan or version)", errUnknownCommand, command)
	}
}

// bootstrap loads the configuration and builds the pipeline.
func bootstrap(ctx context.Context, configPath string) (*app, func(), error) {
	var cfg poller.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, configPath, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	log, err := lifecycle.CreateComponentLogger("fabricsync", logConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if safe, err := config.Sanitized(&cfg); err == nil {
		log.Debug().RawJSON("config", safe).Msg("Effective configuration")
	}

	tp, err := logger.InitializeTracing(ctx, logConfig.Tracing, version.GetVersion(), log)
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(ctx, &cfg, log)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, nil, err
	}

	cleanup := func() {
		a.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Tracer shutdown failed")
		}
	}

	return a, cleanup, nil
}

func runPoller(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file (JSON or YAML)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing run flags: %w", err)
	}

	a, cleanup, err := bootstrap(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.attachSinks(ctx); err != nil {
		return err
	}

	p, err := poller.New(a.cfg, a.reconciler, a.store, nil, a.logger)
	if err != nil {
		return err
	}

	err = p.Start(ctx)
	p.Stop()

	if errors.Is(err, context.Canceled) {
		a.logger.Info().Msg("Shutting down")
		return nil
	}

	return err
}
