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

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) Exists(path string) bool {
	_, ok := m[path]
	return ok
}

func (m mapSource) String(path string) string {
	return m[path]
}

func TestEnvironmentConfiguration(t *testing.T) {
	t.Setenv(MaxCaptureSize, "1000")
	t.Setenv(ListenAddress, "127.0.0.1:9090")
	t.Setenv(ProductionMode, "false")
	t.Setenv(ExportDirectory, "/tmp/export")
	t.Setenv(KafkaBrokers, "k1:9092, k2:9092,")
	t.Setenv(KafkaTopic, "")
	t.Setenv(NatsUrl, "")
	t.Setenv(DbDriver, "sqlite3")
	t.Setenv(DbName, "")
	t.Setenv(DbPort, "")

	s, err := NewSystemInfoService(nil)
	require.NoError(t, err)
	ac := s.GetAnalysisConfig()
	assert.Equal(t, int64(1000), ac.MaxCaptureSize)
	assert.Equal(t, "/tmp/export", ac.ExportDirectory)
	assert.Equal(t, s.GetInstanceId(), ac.RunId)
	assert.NotEmpty(t, ac.RunId)

	sc := s.GetServerConfig()
	assert.Equal(t, "127.0.0.1:9090", sc.ListenAddress)
	assert.False(t, sc.ProductionMode)

	pc := s.GetPublisherConfig()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, pc.KafkaBrokers)
	assert.Equal(t, DefaultKafkaTopic, pc.KafkaTopic)
	assert.Empty(t, pc.NatsSubject)

	db := s.GetDbConnAttrs()
	assert.True(t, db.IsActive())
	assert.Equal(t, DefaultDbName, db.DbName)
	assert.Equal(t, 5432, db.Port)
}

func TestConfigSourceFallback(t *testing.T) {
	t.Setenv(ListenAddress, "")
	t.Setenv(HttpPort, "")
	t.Setenv(NatsSubject, "")
	source := mapSource{
		"nats.url":       "nats://localhost:4222",
		"nats.subject":   "from.file",
		"listen.address": ":7000",
	}
	// an empty environment value still wins over the source
	s, err := NewSystemInfoService(source)
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", s.GetPublisherConfig().NatsUrl)
	assert.Equal(t, DefaultNatsSubject, s.GetPublisherConfig().NatsSubject)
	assert.Equal(t, ":8080", s.GetListenAddress())
}

func TestHttpPort(t *testing.T) {
	t.Setenv(ListenAddress, "")
	t.Setenv(HttpPort, "8181")
	s, err := NewSystemInfoService(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8181", s.GetListenAddress())
}

func TestInvalidNumbers(t *testing.T) {
	t.Setenv(MaxCaptureSize, "lots")
	_, err := NewSystemInfoService(nil)
	assert.ErrorContains(t, err, MaxCaptureSize)

	t.Setenv(MaxCaptureSize, "-5")
	_, err = NewSystemInfoService(nil)
	assert.Error(t, err)
}

func TestMinioCredentials(t *testing.T) {
	t.Setenv(MinioStorageActive, "true")
	t.Setenv(MinioEndpoint, "")
	s, err := NewSystemInfoService(nil)
	require.NoError(t, err)
	_, err = s.GetMinioCredentials()
	assert.Error(t, err)

	t.Setenv(MinioEndpoint, "minio:9000")
	t.Setenv(MinioBucketName, "forensics")
	t.Setenv(MinioCompression, "")
	s, err = NewSystemInfoService(nil)
	require.NoError(t, err)
	creds, err := s.GetMinioCredentials()
	require.NoError(t, err)
	assert.True(t, creds.IsActive)
	assert.True(t, creds.CompressBeforeUpload)
	assert.Equal(t, "forensics", creds.BucketName)
}

func TestExtractBool(t *testing.T) {
	assert.True(t, extractBoolDef("", true))
	assert.True(t, extractBoolDef("garbage", true))
	assert.False(t, extractBool("0"))
	assert.True(t, extractBool("TRUE"))
	assert.Equal(t, "storage.server.url", sourcePath(MinioEndpoint))
}
