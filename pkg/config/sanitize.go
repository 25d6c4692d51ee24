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

package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
)

var errNotStruct = errors.New("config must be a struct or pointer to struct")

// Redact returns cfg as a JSON-shaped map with every field tagged
// sensitive:"true" removed, for logging the effective configuration.
func Redact(cfg interface{}) (map[string]interface{}, error) {
	if cfg == nil {
		return map[string]interface{}{}, nil
	}

	out, ok := redact(reflect.ValueOf(cfg)).(map[string]interface{})
	if !ok {
		return nil, errNotStruct
	}

	return out, nil
}

// Sanitized marshals the redacted form of cfg.
func Sanitized(cfg interface{}) ([]byte, error) {
	safe, err := Redact(cfg)
	if err != nil {
		return nil, err
	}

	return json.Marshal(safe)
}

func redact(v reflect.Value) interface{} {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if _, ok := v.Interface().(json.Marshaler); ok {
			return v.Interface()
		}

		t := v.Type()
		out := make(map[string]interface{}, t.NumField())

		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)

			if f.PkgPath != "" || f.Tag.Get("sensitive") == "true" {
				continue
			}

			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}

			if name == "" {
				name = f.Name
			}

			out[name] = redact(v.Field(i))
		}

		return out
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}

		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = redact(v.Index(i))
		}

		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}

		out := make(map[string]interface{}, v.Len())

		iter := v.MapRange()
		for iter.Next() {
			out[toKey(iter.Key())] = redact(iter.Value())
		}

		return out
	default:
		if !v.IsValid() {
			return nil
		}

		return v.Interface()
	}
}

func toKey(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}

	b, err := json.Marshal(v.Interface())
	if err != nil {
		return ""
	}

	return string(b)
}
