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

package vlan

import (
	"errors"

	"github.com/carverauto/fabricsync/pkg/topology"
)

var (
	// ErrInvalidRequest rejects a mutation before any device I/O.
	ErrInvalidRequest = errors.New("invalid vlan request")

	errMissingName    = errors.New("vlan name is required")
	errVlanIDRange    = errors.New("vlan id must be between 1 and 4094")
	errMissingIfName  = errors.New("member interface name is required")
	errInvalidTagMode = errors.New("tagging mode must be tagged or untagged")
)

func isNotFound(err error) bool {
	return errors.Is(err, topology.ErrNotFound)
}
