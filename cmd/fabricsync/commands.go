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
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/fabricsync/pkg/discovery"
	"github.com/carverauto/fabricsync/pkg/models"
	"github.com/carverauto/fabricsync/pkg/poller"
)

var (
	errMissingFlag     = errors.New("missing required flag")
	errInvalidMember   = errors.New("invalid member, expected ifname[:tagged|untagged]")
	errUnknownVlanVerb = errors.New("unknown vlan action")
)

func runDiscover(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file (JSON or YAML)")
	deviceIP := fs.String("device", "", "Device management IP; empty sweeps every known device")
	feature := fs.String("feature", "", "Feature to discover; empty runs all")
	scope := fs.String("scope", "", "Instance name to narrow the pass to, e.g. Vlan10")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing discover flags: %w", err)
	}

	a, cleanup, err := bootstrap(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.attachSinks(ctx); err != nil {
		return err
	}

	if *deviceIP == "" {
		cfg := *a.cfg
		if *feature != "" {
			cfg.Features = []string{*feature}
		}

		p, err := poller.New(&cfg, a.reconciler, a.store, nil, a.logger)
		if err != nil {
			return err
		}

		return p.SweepAll(ctx)
	}

	features := a.reconciler.Features()
	if *feature != "" {
		features = []string{*feature}
	}

	reports := make([]*discovery.Report, 0, len(features))

	for _, name := range features {
		report, err := a.reconciler.Discover(ctx, discovery.Request{
			DeviceIP: *deviceIP,
			Feature:  name,
			Scope:    discovery.Scope{Name: *scope},
		})
		if err != nil {
			return err
		}

		reports = append(reports, report)
	}

	return writeJSON(out, reports)
}

type vlanFlags struct {
	configPath string
	deviceIP   string
	name       string
	vlanID     int
	members    string
	ifName     string
	mode       string
}

func parseVlanFlags(action string, args []string) (*vlanFlags, error) {
	f := &vlanFlags{}

	fs := flag.NewFlagSet("vlan "+action, flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", defaultConfigPath, "Path to config file (JSON or YAML)")
	fs.StringVar(&f.deviceIP, "device", "", "Device management IP")
	fs.StringVar(&f.name, "name", "", "VLAN name, e.g. Vlan10")
	fs.IntVar(&f.vlanID, "id", 0, "VLAN id (create)")
	fs.StringVar(&f.members, "members", "", "Comma separated ifname[:tagged|untagged] list")
	fs.StringVar(&f.ifName, "ifname", "", "Member interface name")
	fs.StringVar(&f.mode, "mode", "", "Tagging mode, tagged or untagged")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing vlan %s flags: %w", action, err)
	}

	if f.deviceIP == "" {
		return nil, fmt.Errorf("%w: -device", errMissingFlag)
	}

	if f.name == "" && action != "list" {
		return nil, fmt.Errorf("%w: -name", errMissingFlag)
	}

	return f, nil
}

// parseMembers reads "Ethernet0:tagged,Ethernet4". A bare name is untagged.
func parseMembers(s string) ([]models.VlanMember, error) {
	var members []models.VlanMember

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, mode, hasMode := strings.Cut(part, ":")
		if name == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidMember, part)
		}

		m := models.VlanMember{IfName: name, TaggingMode: models.TagModeUntagged}
		if hasMode {
			m.TaggingMode = models.TagMode(strings.ToLower(mode))
		}

		if !m.TaggingMode.Valid() {
			return nil, fmt.Errorf("%w: %q", errInvalidMember, part)
		}

		members = append(members, m)
	}

	return members, nil
}

func runVlan(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expected create, delete, add-members, delete-member, set-mode or list", errUnknownVlanVerb)
	}

	action := args[0]

	switch action {
	case "create", "delete", "add-members", "delete-member", "set-mode", "list":
	default:
		return fmt.Errorf("%w: %s", errUnknownVlanVerb, action)
	}

	f, err := parseVlanFlags(action, args[1:])
	if err != nil {
		return err
	}

	members, err := parseMembers(f.members)
	if err != nil {
		return err
	}

	a, cleanup, err := bootstrap(ctx, f.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := a.vlans

	switch action {
	case "create":
		err = svc.ConfigVlan(ctx, f.deviceIP, f.name, f.vlanID, members)
	case "delete":
		return svc.DeleteVlan(ctx, f.deviceIP, f.name)
	case "add-members":
		err = svc.AddMembers(ctx, f.deviceIP, f.name, members)
	case "delete-member":
		err = svc.DeleteMember(ctx, f.deviceIP, f.name, f.ifName)
	case "set-mode":
		err = svc.SetTaggingMode(ctx, f.deviceIP, f.name, f.ifName, models.TagMode(f.mode))
	case "list":
		return listVlans(ctx, a, f, out)
	}

	if err != nil {
		return err
	}

	return listVlans(ctx, a, f, out)
}

// listVlans reads from the graph. A fresh process starts with an empty
// in-memory graph, so the device is discovered first.
func listVlans(ctx context.Context, a *app, f *vlanFlags, out io.Writer) error {
	if a.cfg.Database == nil {
		if _, err := a.reconciler.Discover(ctx, discovery.Request{DeviceIP: f.deviceIP, Feature: "vlan"}); err != nil {
			return err
		}
	}

	if f.name == "" {
		vlans, err := a.vlans.Vlans(ctx, f.deviceIP)
		if err != nil {
			return err
		}

		return writeJSON(out, vlans)
	}

	v, err := a.vlans.Vlan(ctx, f.deviceIP, f.name)
	if err != nil {
		return err
	}

	members, err := a.vlans.Members(ctx, f.deviceIP, f.name)
	if err != nil {
		return err
	}

	return writeJSON(out, struct {
		*models.Vlan
		Members []models.VlanMember `json:"members"`
	}{Vlan: v, Members: members})
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
