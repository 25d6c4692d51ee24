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

// Database configures the PostgreSQL cluster backing the topology graph.
type Database struct {
	Host            string            `json:"host" yaml:"host"`
	Port            int               `json:"port,omitempty" yaml:"port,omitempty"`
	Database        string            `json:"database" yaml:"database"`
	Username        string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password        string            `json:"password,omitempty" yaml:"password,omitempty" sensitive:"true"`
	SSLMode         string            `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	ApplicationName string            `json:"application_name,omitempty" yaml:"application_name,omitempty"`
	MaxConnections  int32             `json:"max_connections,omitempty" yaml:"max_connections,omitempty"`
	MinConnections  int32             `json:"min_connections,omitempty" yaml:"min_connections,omitempty"`
	MaxConnLifetime Duration          `json:"max_conn_lifetime,omitempty" yaml:"max_conn_lifetime,omitempty"`
	RuntimeParams   map[string]string `json:"runtime_params,omitempty" yaml:"runtime_params,omitempty"`
}

// NATSConfig configures the change event publisher.
type NATSConfig struct {
	URL            string   `json:"url" yaml:"url"`
	Stream         string   `json:"stream,omitempty" yaml:"stream,omitempty"`
	SubjectPrefix  string   `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	CredsFile      string   `json:"creds_file,omitempty" yaml:"creds_file,omitempty"`
	PublishTimeout Duration `json:"publish_timeout,omitempty" yaml:"publish_timeout,omitempty"`
}

// InfluxDBConfig configures the time-series writer.
type InfluxDBConfig struct {
	URL           string   `json:"url" yaml:"url"`
	Token         string   `json:"token,omitempty" yaml:"token,omitempty" sensitive:"true"`
	Org           string   `json:"org" yaml:"org"`
	Bucket        string   `json:"bucket" yaml:"bucket"`
	BatchSize     uint     `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	FlushInterval Duration `json:"flush_interval,omitempty" yaml:"flush_interval,omitempty"`
}

// PrometheusConfig configures the Pushgateway counter sink.
type PrometheusConfig struct {
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string   `json:"job,omitempty" yaml:"job,omitempty"`
	PushInterval   Duration `json:"push_interval,omitempty" yaml:"push_interval,omitempty"`
}
