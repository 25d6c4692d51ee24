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

package discovery

import "time"

// State is the reconciliation state of one (device, feature) pair.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
)

// Scope narrows a pass to one named instance, for example a single VLAN.
// The zero value covers the whole feature.
type Scope struct {
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the scope covers the whole feature.
func (s Scope) IsZero() bool {
	return s.Name == ""
}

// Request asks for one reconciliation pass.
type Request struct {
	DeviceIP string
	Feature  string
	Scope    Scope
}

// Summary counts what a pass wrote.
type Summary struct {
	Upserted      int `json:"upserted"`
	Deleted       int `json:"deleted"`
	Relationships int `json:"relationships"`
}

// Report describes a committed pass.
type Report struct {
	ID        string        `json:"id"`
	DeviceIP  string        `json:"device_ip"`
	Feature   string        `json:"feature"`
	Scope     Scope         `json:"scope"`
	Summary   Summary       `json:"summary"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

type passKey struct {
	deviceIP string
	feature  string
}
