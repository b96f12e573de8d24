// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package entities

// AnalysisConfig
// limits and switches of a single analysis run
type AnalysisConfig struct {
	MaxCaptureSize  int64  // bigger input is rejected
	ExportDirectory string // extracted artifacts go there when set
	CacheDirectory  string // disk cache location, temp dir by default
	FlowExportDir   string // per-flow pcap files go there when set
	RunId           string // unique per process
}

// MinioStorageCreds
// S3/minio connection attributes
type MinioStorageCreds struct {
	BucketName           string
	IsActive             bool
	Endpoint             string
	Crt                  string // base64 encoded PEM, optional
	AccessKeyId          string
	SecretAccessKey      string
	CompressBeforeUpload bool
	Secure               bool
}

// DbConnAttrs
// transaction store connection attributes
type DbConnAttrs struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
}

// IsActive
// true when a driver is configured
func (a DbConnAttrs) IsActive() bool {
	return a.Driver != ""
}

// PublisherConfig
// message broker attributes
type PublisherConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	NatsUrl      string
	NatsSubject  string
}

// ServerConfig
// report service attributes
type ServerConfig struct {
	ListenAddress  string
	OriginAllowed  string
	ProductionMode bool
}
