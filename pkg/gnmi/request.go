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

package gnmi

import (
	"encoding/json"
	"fmt"

	gpb "github.com/openconfig/gnmi/proto/gnmi"
)

// NewUpdate encodes value as a JSON_IETF update at path.
func NewUpdate(path *gpb.Path, value any) (*gpb.Update, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value for %s: %w", PathString(path), err)
	}

	return &gpb.Update{
		Path: path,
		Val:  &gpb.TypedValue{Value: &gpb.TypedValue_JsonIetfVal{JsonIetfVal: raw}},
	}, nil
}

// UpdateRequest merges each update into existing device state.
func UpdateRequest(updates ...*gpb.Update) *gpb.SetRequest {
	return &gpb.SetRequest{Update: updates}
}

// ReplaceRequest overwrites the subtree at each update path.
func ReplaceRequest(updates ...*gpb.Update) *gpb.SetRequest {
	return &gpb.SetRequest{Replace: updates}
}

// DeleteRequest removes each path.
func DeleteRequest(paths ...*gpb.Path) *gpb.SetRequest {
	return &gpb.SetRequest{Delete: paths}
}
