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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string", in: `"30s"`, want: 30 * time.Second},
		{name: "compound string", in: `"1m30s"`, want: 90 * time.Second},
		{name: "nanoseconds", in: `1500000000`, want: 1500 * time.Millisecond},
		{name: "garbage string", in: `"soon"`, wantErr: true},
		{name: "bool", in: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var d Duration

			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidDuration)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDurationMarshalJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Duration(15 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"15s"`, string(b))
}

func TestDurationUnmarshalYAML(t *testing.T) {
	t.Parallel()

	var cfg struct {
		Timeout  Duration `yaml:"timeout"`
		Interval Duration `yaml:"interval"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 10s\ninterval: 2000\n"), &cfg))
	assert.Equal(t, 10*time.Second, time.Duration(cfg.Timeout))
	assert.Equal(t, 2000*time.Nanosecond, time.Duration(cfg.Interval))

	err := yaml.Unmarshal([]byte("timeout: [1, 2]\n"), &cfg)
	require.ErrorIs(t, err, errInvalidDuration)
}

func TestTagModeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, TagModeTagged.Valid())
	assert.True(t, TagModeUntagged.Valid())
	assert.False(t, TagMode("trunk").Valid())
	assert.False(t, TagMode("").Valid())
}
