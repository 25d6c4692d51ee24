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

// Package yangjson decodes JSON_IETF payloads returned by SONiC devices.
package yangjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/fabricsync/pkg/gnmi"
)

// Int decodes a JSON number or a decimal string. JSON_IETF encodes 64-bit
// integers as strings.
type Int int64

func (n *Int) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("integer %s: %w", b, err)
		}

		v = int64(f)
	}

	*n = Int(v)

	return nil
}

// Float decodes a JSON number or a numeric string.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number %s: %w", b, err)
	}

	*f = Float(v)

	return nil
}

// Bool decodes a JSON boolean or one of the strings "true"/"false".
type Bool bool

func (v *Bool) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*v = false
		return nil
	}

	parsed, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("boolean %s: %w", b, err)
	}

	*v = Bool(parsed)

	return nil
}

func unquote(b []byte) string {
	return strings.Trim(string(bytes.TrimSpace(b)), `"`)
}

// Decode unmarshals the first of keys present in result into v and reports
// whether one was found. Keys are tried in order so callers can list the
// module-qualified name before the bare one.
func Decode(result gnmi.Result, v any, keys ...string) (bool, error) {
	for _, key := range keys {
		raw, ok := result[key]
		if !ok {
			continue
		}

		if err := json.Unmarshal(raw, v); err != nil {
			return true, fmt.Errorf("%w: decode %s: %w", gnmi.ErrTransport, key, err)
		}

		return true, nil
	}

	return false, nil
}

// Lower returns s lower-cased with any YANG identity prefix removed, so
// "openconfig-interfaces:UP" becomes "up".
func Lower(s string) string {
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = after
	}

	return strings.ToLower(s)
}
