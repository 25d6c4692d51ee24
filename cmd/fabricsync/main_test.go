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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"frobnicate"}, &bytes.Buffer{})
	require.ErrorIs(t, err, errUnknownCommand)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "dev"))
}

func TestRunMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	err := run(context.Background(), []string{"-config", missing}, &bytes.Buffer{})
	require.ErrorIs(t, err, errFailedToLoadConfig)

	err = run(context.Background(), []string{"discover", "-config", missing}, &bytes.Buffer{})
	require.ErrorIs(t, err, errFailedToLoadConfig)
}

func TestRunVlanArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "no action", args: []string{"vlan"}, want: errUnknownVlanVerb},
		{name: "bad action", args: []string{"vlan", "rename"}, want: errUnknownVlanVerb},
		{name: "missing device", args: []string{"vlan", "create", "-name", "Vlan10"}, want: errMissingFlag},
		{name: "missing name", args: []string{"vlan", "delete", "-device", "10.0.0.1"}, want: errMissingFlag},
		{name: "bad member", args: []string{"vlan", "add-members", "-device", "10.0.0.1", "-name", "Vlan10", "-members", "Ethernet0:trunk"}, want: errInvalidMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseVlanFlagsListNeedsNoName(t *testing.T) {
	f, err := parseVlanFlags("list", []string{"-device", "10.0.0.1", "-config", "x.json"})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", f.deviceIP)
	assert.Equal(t, "x.json", f.configPath)
	assert.Empty(t, f.name)
}

func TestParseMembers(t *testing.T) {
	members, err := parseMembers("Ethernet0:tagged, Ethernet4 ,Ethernet8:UNTAGGED,")
	require.NoError(t, err)

	assert.Equal(t, []models.VlanMember{
		{IfName: "Ethernet0", TaggingMode: models.TagModeTagged},
		{IfName: "Ethernet4", TaggingMode: models.TagModeUntagged},
		{IfName: "Ethernet8", TaggingMode: models.TagModeUntagged},
	}, members)

	members, err = parseMembers("")
	require.NoError(t, err)
	assert.Empty(t, members)

	_, err = parseMembers(":tagged")
	require.ErrorIs(t, err, errInvalidMember)
}
