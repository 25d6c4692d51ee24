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

// Device is a managed switch. MgmtIP and MAC are both unique.
type Device struct {
	MgmtIP       string `json:"mgmt_ip"`
	MAC          string `json:"mac,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	ImageName    string `json:"img_name,omitempty"`
	MgmtIntf     string `json:"mgmt_intf,omitempty"`
	HwSKU        string `json:"hwsku,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Type         string `json:"type,omitempty"`
	SystemStatus string `json:"system_status,omitempty"`
}

// Interface is keyed by (DeviceIP, Name).
type Interface struct {
	DeviceIP      string            `json:"device_ip"`
	Name          string            `json:"name"`
	Enabled       bool              `json:"enabled"`
	AdminStatus   string            `json:"admin_status,omitempty"`
	OperStatus    string            `json:"oper_status,omitempty"`
	MTU           int               `json:"mtu,omitempty"`
	Speed         string            `json:"speed,omitempty"`
	FEC           bool              `json:"fec"`
	Description   string            `json:"description,omitempty"`
	MAC           string            `json:"mac_addr,omitempty"`
	LastChange    string            `json:"last_chng,omitempty"`
	Counters      InterfaceCounters `json:"counters"`
	SubInterfaces []SubInterface    `json:"sub_interfaces,omitempty"`
}

// SubInterface carries the addresses configured on one sub-interface index.
type SubInterface struct {
	Index       int      `json:"index"`
	IPAddresses []string `json:"ip_addresses,omitempty"`
}

// InterfaceCounters is the fixed counter set reported per interface.
type InterfaceCounters struct {
	InBitsPerSecond    float64 `json:"in_bits_per_second"`
	InBroadcastPkts    float64 `json:"in_broadcast_pkts"`
	InDiscards         float64 `json:"in_discards"`
	InErrors           float64 `json:"in_errors"`
	InMulticastPkts    float64 `json:"in_multicast_pkts"`
	InOctets           float64 `json:"in_octets"`
	InOctetsPerSecond  float64 `json:"in_octets_per_second"`
	InPkts             float64 `json:"in_pkts"`
	InPktsPerSecond    float64 `json:"in_pkts_per_second"`
	InUnicastPkts      float64 `json:"in_unicast_pkts"`
	InUtilization      float64 `json:"in_utilization"`
	LastClear          float64 `json:"last_clear"`
	OutBitsPerSecond   float64 `json:"out_bits_per_second"`
	OutBroadcastPkts   float64 `json:"out_broadcast_pkts"`
	OutDiscards        float64 `json:"out_discards"`
	OutErrors          float64 `json:"out_errors"`
	OutMulticastPkts   float64 `json:"out_multicast_pkts"`
	OutOctets          float64 `json:"out_octets"`
	OutOctetsPerSecond float64 `json:"out_octets_per_second"`
	OutPkts            float64 `json:"out_pkts"`
	OutPktsPerSecond   float64 `json:"out_pkts_per_second"`
	OutUnicastPkts     float64 `json:"out_unicast_pkts"`
	OutUtilization     float64 `json:"out_utilization"`
}

// PortChannel is keyed by (DeviceIP, LagName).
type PortChannel struct {
	DeviceIP            string `json:"device_ip"`
	LagName             string `json:"lag_name"`
	Active              bool   `json:"active"`
	AdminStatus         string `json:"admin_status,omitempty"`
	OperStatus          string `json:"oper_status,omitempty"`
	OperStatusReason    string `json:"oper_status_reason,omitempty"`
	MTU                 int    `json:"mtu,omitempty"`
	Speed               string `json:"speed,omitempty"`
	FallbackOperational bool   `json:"fallback_operational"`
}

// MCLAG is keyed by (DeviceIP, DomainID).
type MCLAG struct {
	DeviceIP          string   `json:"device_ip"`
	DomainID          int      `json:"domain_id"`
	KeepaliveInterval int      `json:"keepalive_interval,omitempty"`
	PeerAddress       string   `json:"peer_addr,omitempty"`
	PeerLink          string   `json:"peer_link,omitempty"`
	SessionTimeout    int      `json:"session_timeout,omitempty"`
	SourceAddress     string   `json:"source_address,omitempty"`
	OperStatus        string   `json:"oper_status,omitempty"`
	Role              string   `json:"role,omitempty"`
	SystemMAC         string   `json:"system_mac,omitempty"`
	MCLAGSystemMAC    string   `json:"mclag_sys_mac,omitempty"`
	GatewayMACs       []string `json:"gateway_macs,omitempty"`
	DelayRestore      int      `json:"delay_restore,omitempty"`
}

// PortGroup is keyed by (DeviceIP, GroupID).
type PortGroup struct {
	DeviceIP     string   `json:"device_ip"`
	GroupID      int      `json:"port_group_id"`
	Speed        string   `json:"speed,omitempty"`
	ValidSpeeds  []string `json:"valid_speeds,omitempty"`
	DefaultSpeed string   `json:"default_speed,omitempty"`
}

// Vlan is keyed by (DeviceIP, Name) and also unique on (DeviceIP, VlanID).
type Vlan struct {
	DeviceIP    string `json:"device_ip"`
	Name        string `json:"name"`
	VlanID      int    `json:"vlanid"`
	MTU         int    `json:"mtu,omitempty"`
	AdminStatus string `json:"admin_status,omitempty"`
	OperStatus  string `json:"oper_status,omitempty"`
	Autostate   string `json:"autostate,omitempty"`
}

// TagMode is the tagging mode carried on a VLAN membership edge.
type TagMode string

const (
	TagModeTagged   TagMode = "tagged"
	TagModeUntagged TagMode = "untagged"
)

// Valid reports whether m is one of the known modes.
func (m TagMode) Valid() bool {
	return m == TagModeTagged || m == TagModeUntagged
}

// VlanMember is one interface membership of a VLAN.
type VlanMember struct {
	IfName      string  `json:"ifname"`
	TaggingMode TagMode `json:"tagging_mode"`
}
