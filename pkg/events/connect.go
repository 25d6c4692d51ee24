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

package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const defaultStream = "FABRICSYNC_TOPOLOGY"

// Connect dials NATS, makes sure the stream captures the event subjects and
// returns a ready publisher. The caller owns the returned connection.
func Connect(ctx context.Context, cfg *models.NATSConfig, log logger.Logger) (*Publisher, *nats.Conn, error) {
	if cfg.URL == "" {
		return nil, nil, ErrNATSURL
	}

	opts := []nats.Option{
		nats.Name("fabricsync"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream := cfg.Stream
	if stream == "" {
		stream = defaultStream
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	if err := ensureStream(ctx, js, stream, prefix+".>"); err != nil {
		nc.Close()
		return nil, nil, err
	}

	log.Info().Str("stream", stream).Str("prefix", prefix).Msg("Connected to NATS JetStream")

	return NewPublisher(js, prefix, log).WithTimeout(time.Duration(cfg.PublishTimeout)), nc, nil
}

type streamManager interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

func ensureStream(ctx context.Context, js streamManager, name, subject string) error {
	if name == "" {
		return errStreamRequired
	}

	cfg := jetstream.StreamConfig{Name: name}

	existing, err := js.Stream(ctx, name)

	switch {
	case err == nil:
		cfg = existing.CachedInfo().Config
		if slices.ContainsFunc(cfg.Subjects, func(s string) bool { return matchesSubject(s, subject) }) {
			return nil
		}
	case !errors.Is(err, jetstream.ErrStreamNotFound):
		return fmt.Errorf("failed to look up stream %s: %w", name, err)
	}

	cfg.Subjects = ensureSubjectList(cfg.Subjects, subject)

	if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to create or update stream %s: %w", name, err)
	}

	return nil
}

// ensureSubjectList appends subject unless an existing entry already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject using NATS token
// wildcards. A '>' in subject is matched only by '>' in pattern.
func matchesSubject(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")

	for i, tok := range p {
		if tok == ">" {
			return i < len(s)
		}

		if i >= len(s) {
			return false
		}

		if s[i] == ">" {
			return false
		}

		if tok != "*" && tok != s[i] {
			return false
		}
	}

	return len(p) == len(s)
}
