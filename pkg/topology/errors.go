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

package topology

import "errors"

var (
	// ErrDuplicateKey is returned when a write would give two nodes of the same kind the same unique key.
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrNotFound     = errors.New("node not found")

	errEmptyRef   = errors.New("node kind and key are required")
	errTargetKind = errors.New("edge target kind mismatch")
)
