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

// Package events publishes committed reconciliation passes to NATS JetStream.
package events

import (
	"time"

	"github.com/carverauto/fabricsync/pkg/discovery"
)

const (
	eventSource = "fabricsync/reconciler"
	eventType   = "com.carverauto.fabricsync.topology.reconciled"
)

// ReconcileEvent is a CloudEvents envelope around a pass report.
type ReconcileEvent struct {
	SpecVersion     string            `json:"specversion"`
	ID              string            `json:"id"`
	Source          string            `json:"source"`
	Type            string            `json:"type"`
	DataContentType string            `json:"datacontenttype"`
	Subject         string            `json:"subject"`
	Time            time.Time         `json:"time"`
	Data            *discovery.Report `json:"data"`
}
