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

package telemetry

import (
	"context"
	"time"

	"github.com/carverauto/fabricsync/pkg/models"
)

// CounterSink accumulates interface counters and pushes them somewhere.
type CounterSink interface {
	Observe(deviceIP string, intf *models.Interface)
	Push(ctx context.Context) error
}

// TimeSeriesWriter records timestamped interface points. Writes never block
// on the backend.
type TimeSeriesWriter interface {
	WriteInterfaces(deviceIP string, intfs []models.Interface, ts time.Time)
	Flush()
}
