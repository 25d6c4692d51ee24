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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// DefaultSubjectPrefix roots every event subject.
	DefaultSubjectPrefix = "fabricsync.topology"

	defaultPublishTimeout = 2 * time.Second
)

type jetStreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher sends one event per committed pass on
// <prefix>.<feature>.<device>.
type Publisher struct {
	js      jetStreamPublisher
	prefix  string
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

var _ discovery.Observer = (*Publisher)(nil)

func NewPublisher(js jetStreamPublisher, prefix string, log logger.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &Publisher{
		js:      js,
		prefix:  strings.TrimSuffix(prefix, "."),
		timeout: defaultPublishTimeout,
		logger:  log,
		now:     time.Now,
	}
}

// WithTimeout bounds how long Reconciled waits for the stream ack.
// Non-positive values keep the current bound.
func (p *Publisher) WithTimeout(d time.Duration) *Publisher {
	if d > 0 {
		p.timeout = d
	}

	return p
}

// Subject returns the subject a report is published on.
func (p *Publisher) Subject(report *discovery.Report) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, report.Feature, report.DeviceIP)
}

// Publish sends report and waits for the stream ack.
func (p *Publisher) Publish(ctx context.Context, report *discovery.Report) error {
	event := ReconcileEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.Subject(report),
		Time:            p.now(),
		Data:            report,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reconcile event: %w", err)
	}

	ack, err := p.js.Publish(ctx, event.Subject, body)
	if err != nil {
		return fmt.Errorf("failed to publish reconcile event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", event.Subject).
		Uint64("seq", ack.Sequence).
		Msg("Published reconcile event")

	return nil
}

// Reconciled publishes the report under the publisher's own deadline so a slow
// server cannot stall the pass. Failures are logged and otherwise ignored.
func (p *Publisher) Reconciled(ctx context.Context, report *discovery.Report) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.Publish(ctx, report); err != nil {
		p.logger.Warn().
			Err(err).
			Str("device_ip", report.DeviceIP).
			Str("feature", report.Feature).
			Msg("Reconcile event not published")
	}
}
