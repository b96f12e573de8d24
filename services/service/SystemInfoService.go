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
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

const (
	MaxCaptureSize       = "MAX_CAPTURE_SIZE"
	HttpPort             = "HTTP_PORT"
	ListenAddress        = "LISTEN_ADDRESS"
	OriginAllowed        = "ORIGIN_ALLOWED"
	ProductionMode       = "PRODUCTION_MODE"
	ExportDirectory      = "EXPORT_DIRECTORY"
	CacheDirectory       = "CACHE_DIRECTORY"
	FlowExportDirectory  = "FLOW_EXPORT_DIRECTORY"
	MinioAccessKeyId     = "STORAGE_SERVER_USERNAME"
	MinioSecretAccessKey = "STORAGE_SERVER_PASSWORD"
	MinioCrt             = "STORAGE_SERVER_CRT"
	MinioEndpoint        = "STORAGE_SERVER_URL"
	MinioBucketName      = "STORAGE_SERVER_BUCKET_NAME"
	MinioSecure          = "STORAGE_SERVER_SECURE"
	MinioStorageActive   = "MINIO_STORAGE_ACTIVE"
	MinioCompression     = "STORAGE_SERVER_COMPRESSION"
	DbDriver             = "DB_DRIVER"
	DbHost               = "DB_HOST"
	DbPort               = "DB_PORT"
	DbUser               = "DB_USER"
	DbPassword           = "DB_PASSWORD"
	DbName               = "DB_NAME"
	KafkaBrokers         = "KAFKA_BROKERS"
	KafkaTopic           = "KAFKA_TOPIC"
	NatsUrl              = "NATS_URL"
	NatsSubject          = "NATS_SUBJECT"
	CfgDefaultPort       = 8080 // default port number
	DefaultKafkaTopic    = "http-forensics"
	DefaultNatsSubject   = "http.forensics.transactions"
	DefaultDbName        = "http_forensics.db"
)

// ConfigSource
// a secondary source of values, koanf satisfies it
type ConfigSource interface {
	Exists(path string) bool
	String(path string) string
}

type SystemInfoService interface {
	Init() error
	GetListenAddress() string
	GetOriginAllowed() string
	GetString(name string) string
	GetInt64(name string, defVal int64) int64
	GetBool(name string) bool
	GetInstanceId() string
	GetAnalysisConfig() entities.AnalysisConfig
	GetMinioCredentials() (*entities.MinioStorageCreds, error)
	GetDbConnAttrs() entities.DbConnAttrs
	GetPublisherConfig() entities.PublisherConfig
	GetServerConfig() entities.ServerConfig
}

// NewSystemInfoService
// creates an interface instance reading the environment first and then the source
func NewSystemInfoService(source ConfigSource) (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{}),
		instanceId:    utils.MakeUniqueId(),
		source:        source,
	}
	log.Debugf("instance ID:%s", s.instanceId)
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

// systemInfoServiceImpl an interface implementation
type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{} // parameters
	instanceId    string
	source        ConfigSource
}

// extractBoolDef
// extracts bool value from string with default value
func extractBoolDef(v string, defVal bool) bool {
	if v == view.EmptyString {
		return defVal
	}
	val, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return val
}

// extractBool
// extracts bool value from string. error, empty or absent value means 'false'
func extractBool(v string) bool {
	return extractBoolDef(v, false)
}

// sourcePath
// DB_HOST => db.host
func sourcePath(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

// lookup
// environment wins over the config source
func (g systemInfoServiceImpl) lookup(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	if g.source != nil {
		if p := sourcePath(name); g.source.Exists(p) {
			return g.source.String(p)
		}
	}
	return view.EmptyString
}

func (g systemInfoServiceImpl) parseInt(name string, defVal int64) (int64, error) {
	v := g.lookup(name)
	if v == view.EmptyString {
		return defVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("improper number format for %s => '%s' (%v)", name, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("non-positive value for %s (%s) is not allowed", name, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var result []string
	for _, item := range strings.Split(v, view.ArrayJoinSeparator) {
		if item = strings.TrimSpace(item); item != view.EmptyString {
			result = append(result, item)
		}
	}
	return result
}

// interface functions

// Init
// loads configuration
func (g systemInfoServiceImpl) Init() error {
	g.systemInfoMap[ProductionMode] = extractBoolDef(g.lookup(ProductionMode), true)
	g.systemInfoMap[OriginAllowed] = g.lookup(OriginAllowed)
	maxSize, err := g.parseInt(MaxCaptureSize, view.DefaultMaxCaptureSize)
	if err != nil {
		return err
	}
	g.systemInfoMap[MaxCaptureSize] = maxSize
	// directories
	g.systemInfoMap[ExportDirectory] = g.lookup(ExportDirectory)
	g.systemInfoMap[CacheDirectory] = g.lookup(CacheDirectory)
	g.systemInfoMap[FlowExportDirectory] = g.lookup(FlowExportDirectory)
	// S3/Minio
	g.systemInfoMap[MinioAccessKeyId] = g.lookup(MinioAccessKeyId)
	g.systemInfoMap[MinioSecretAccessKey] = g.lookup(MinioSecretAccessKey)
	g.systemInfoMap[MinioCrt] = g.lookup(MinioCrt)
	g.systemInfoMap[MinioEndpoint] = g.lookup(MinioEndpoint)
	g.systemInfoMap[MinioBucketName] = g.lookup(MinioBucketName)
	g.systemInfoMap[MinioSecure] = extractBool(g.lookup(MinioSecure))
	g.systemInfoMap[MinioStorageActive] = extractBool(g.lookup(MinioStorageActive))
	g.systemInfoMap[MinioCompression] = extractBoolDef(g.lookup(MinioCompression), true)
	// transaction store
	driver := g.lookup(DbDriver)
	g.systemInfoMap[DbDriver] = driver
	g.systemInfoMap[DbHost] = g.lookup(DbHost)
	g.systemInfoMap[DbUser] = g.lookup(DbUser)
	g.systemInfoMap[DbPassword] = g.lookup(DbPassword)
	dbName := g.lookup(DbName)
	if dbName == view.EmptyString && driver != view.EmptyString {
		dbName = DefaultDbName
	}
	g.systemInfoMap[DbName] = dbName
	dbPort, err := g.parseInt(DbPort, 5432)
	if err != nil {
		return err
	}
	g.systemInfoMap[DbPort] = dbPort
	// brokers
	g.systemInfoMap[KafkaBrokers] = g.lookup(KafkaBrokers)
	g.systemInfoMap[KafkaTopic] = g.lookup(KafkaTopic)
	g.systemInfoMap[NatsUrl] = g.lookup(NatsUrl)
	g.systemInfoMap[NatsSubject] = g.lookup(NatsSubject)
	// ListenAddress a.k.a. endpoint
	sla := g.lookup(ListenAddress)
	if sla == view.EmptyString {
		port, err := g.parseInt(HttpPort, CfgDefaultPort)
		if err != nil {
			return err
		}
		sla = ":" + strconv.FormatInt(port, 10)
	}
	re := regexp.MustCompile(`^([^:]*)(:(\d+))?$`)
	if re.FindStringSubmatch(sla) == nil {
		return fmt.Errorf("invalid listen address: %s", sla)
	}
	g.systemInfoMap[ListenAddress] = sla
	return nil
}

// GetListenAddress
// returns string value for ListenAddress
func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.GetString(ListenAddress)
}

// GetOriginAllowed
// returns string value for OriginAllowed
func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.GetString(OriginAllowed)
}

// GetString
// returns string by name or empty string when not found
func (g systemInfoServiceImpl) GetString(name string) string {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(string)
	}
	return ""
}

// GetInt64
// returns int64 by name or defVal when not found
func (g systemInfoServiceImpl) GetInt64(name string, defVal int64) int64 {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(int64)
	}
	return defVal
}

// GetBool
// get bool value from configuration
func (g systemInfoServiceImpl) GetBool(name string) bool {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(bool)
	}
	return false
}

// GetInstanceId
// returns unique instance Id, generated at start
func (g systemInfoServiceImpl) GetInstanceId() string {
	return g.instanceId
}

func (g systemInfoServiceImpl) GetAnalysisConfig() entities.AnalysisConfig {
	return entities.AnalysisConfig{
		MaxCaptureSize:  g.GetInt64(MaxCaptureSize, view.DefaultMaxCaptureSize),
		ExportDirectory: g.GetString(ExportDirectory),
		CacheDirectory:  g.GetString(CacheDirectory),
		FlowExportDir:   g.GetString(FlowExportDirectory),
		RunId:           g.instanceId,
	}
}

// GetMinioCredentials
// constructs MINIO credentials from configuration
func (g systemInfoServiceImpl) GetMinioCredentials() (*entities.MinioStorageCreds, error) {
	creds := &entities.MinioStorageCreds{
		BucketName:           g.GetString(MinioBucketName),
		IsActive:             g.GetBool(MinioStorageActive),
		Endpoint:             g.GetString(MinioEndpoint),
		Crt:                  g.GetString(MinioCrt),
		AccessKeyId:          g.GetString(MinioAccessKeyId),
		SecretAccessKey:      g.GetString(MinioSecretAccessKey),
		CompressBeforeUpload: g.GetBool(MinioCompression),
		Secure:               g.GetBool(MinioSecure),
	}
	if creds.IsActive && (creds.Endpoint == view.EmptyString || creds.BucketName == view.EmptyString) {
		return nil, fmt.Errorf("%s requires %s and %s", MinioStorageActive, MinioEndpoint, MinioBucketName)
	}
	return creds, nil
}

func (g systemInfoServiceImpl) GetDbConnAttrs() entities.DbConnAttrs {
	return entities.DbConnAttrs{
		Driver:   g.GetString(DbDriver),
		Host:     g.GetString(DbHost),
		Port:     int(g.GetInt64(DbPort, 5432)),
		User:     g.GetString(DbUser),
		Password: g.GetString(DbPassword),
		DbName:   g.GetString(DbName),
	}
}

// GetPublisherConfig
// topic and subject fall back to defaults only when their broker is configured
func (g systemInfoServiceImpl) GetPublisherConfig() entities.PublisherConfig {
	pc := entities.PublisherConfig{
		KafkaBrokers: splitList(g.GetString(KafkaBrokers)),
		KafkaTopic:   g.GetString(KafkaTopic),
		NatsUrl:      g.GetString(NatsUrl),
		NatsSubject:  g.GetString(NatsSubject),
	}
	if len(pc.KafkaBrokers) > 0 && pc.KafkaTopic == view.EmptyString {
		pc.KafkaTopic = DefaultKafkaTopic
	}
	if pc.NatsUrl != view.EmptyString && pc.NatsSubject == view.EmptyString {
		pc.NatsSubject = DefaultNatsSubject
	}
	return pc
}

func (g systemInfoServiceImpl) GetServerConfig() entities.ServerConfig {
	return entities.ServerConfig{
		ListenAddress:  g.GetListenAddress(),
		OriginAllowed:  g.GetOriginAllowed(),
		ProductionMode: g.GetBool(ProductionMode),
	}
}
