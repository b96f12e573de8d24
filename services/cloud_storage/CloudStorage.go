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

package cloud_storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

// CloudStorage
// uploads exported artifacts to S3/Minio in the background
type CloudStorage interface {
	StoreFile(fileName string)
	Close()
}

type Request struct {
	FilePath string
}

type cloudStorage struct {
	inputQueue         chan Request
	done               sync.WaitGroup
	closeOnce          sync.Once
	storageCredentials entities.MinioStorageCreds
	minioClient        *minioClient
	productionMode     bool
}

type minioClient struct {
	client *minio.Client
	error  error
}

const (
	ObjectPrefix   = "ForensicArtifacts"
	QueueSize      = 64
	UploadAttempts = 3
)

// mustGetSystemCertPool
// acquires certification pool
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}

// createMinioClient
// nil for inactive storage
func createMinioClient(creds *entities.MinioStorageCreds) *minioClient {
	if !creds.IsActive {
		return nil
	}
	client := new(minioClient)
	tr, err := minio.DefaultTransport(creds.Secure)
	if err != nil {
		log.Warnf("error creating the minio connection: error creating the default transport layer: %v", err)
		client.error = err
		return client
	}
	if creds.Crt != view.EmptyString {
		pem, err := base64.StdEncoding.DecodeString(creds.Crt)
		if err != nil {
			log.Warnf("unable to decode storage certificate: %v", err)
			client.error = err
			return client
		}
		rootCAs := mustGetSystemCertPool()
		rootCAs.AppendCertsFromPEM(pem)
		tr.TLSClientConfig.RootCAs = rootCAs
	}
	mc, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
		Secure:    creds.Secure,
		Transport: tr,
	})
	if err != nil {
		log.Warn(err.Error())
		client.error = err
		return client
	}
	log.Infof("MINIO instance initialized")
	client.client = mc
	return client
}

// NewCloudStorage
// starts the upload loop
func NewCloudStorage(creds entities.MinioStorageCreds, productionMode bool) CloudStorage {
	s3 := &cloudStorage{
		inputQueue:         make(chan Request, QueueSize),
		storageCredentials: creds,
		minioClient:        createMinioClient(&creds),
		productionMode:     productionMode,
	}
	s3.done.Add(1)
	utils.SafeAsync(func() {
		defer s3.done.Done()
		s3.storeProcedure()
	})
	return s3
}

// StoreFile
// queues a file for upload
func (s3 *cloudStorage) StoreFile(fileName string) {
	s3.inputQueue <- Request{FilePath: fileName}
	log.Debugf("requested to store file: %s", fileName)
}

// Close
// stops accepting files and waits for queued uploads
func (s3 *cloudStorage) Close() {
	s3.closeOnce.Do(func() {
		close(s3.inputQueue)
		s3.done.Wait()
	})
}

// storeProcedure
// serves the queue until it is closed
func (s3 *cloudStorage) storeProcedure() {
	for req := range s3.inputQueue {
		if req.FilePath == view.EmptyString {
			continue
		}
		if !s3.storageCredentials.IsActive {
			log.Debugf("storage inactive. do not store file %s", req.FilePath)
			continue
		}
		if s3.minioClient == nil || s3.minioClient.client == nil {
			log.Errorf("storage client unavailable, file '%s' not stored. Error: %v", req.FilePath, s3.clientError())
			continue
		}
		s3.store(req.FilePath)
	}
}

func (s3 *cloudStorage) clientError() error {
	if s3.minioClient == nil {
		return fmt.Errorf("client is not created")
	}
	return s3.minioClient.error
}

func (s3 *cloudStorage) store(filePath string) {
	if s3.storageCredentials.CompressBeforeUpload && !strings.HasSuffix(filePath, view.GzipSuffix) {
		compressed, err := compressFile(filePath)
		if err != nil {
			log.Errorf("unable to compress file '%s'. Error: %v", filePath, err)
			return
		}
		s3.removeFile(filePath)
		filePath = compressed
	}
	ctx := context.Background()
	for i := 0; i < UploadAttempts; i++ {
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			log.Errorf("unable to read file '%s'. Error: %v", filePath, err)
			return
		}
		if err = s3.createBucketIfNotExists(ctx); err != nil {
			log.Errorf("unable to acquire bucket for file '%s'. Error: '%v'", filePath, err)
			continue
		}
		if err = s3.UploadFile(ctx, ObjectPrefix, filepath.Base(filePath), fileBytes); err != nil {
			log.Errorf("unable to store file '%s'. Error: %v", filePath, err)
			continue
		}
		log.Infof("stored %d byte(s) from file '%s' in s3/minio", len(fileBytes), filePath)
		break
	}
	s3.removeFile(filePath)
}

// removeFile
// local copies are kept outside production mode
func (s3 *cloudStorage) removeFile(filePath string) {
	if !s3.productionMode {
		log.Debugf("file '%s' was not deleted in non-production mode", filePath)
		return
	}
	if err := os.Remove(filePath); err != nil {
		log.Warnf("unable to delete file %s. Error: %v", filePath, err)
	}
}

// compressFile
// writes <file>.gz next to the file and returns its name
func compressFile(filePath string) (string, error) {
	input, err := os.Open(filePath)
	if err != nil {
		return view.EmptyString, err
	}
	defer input.Close()
	outputName := filePath + view.GzipSuffix
	output, err := os.Create(outputName)
	if err != nil {
		return view.EmptyString, err
	}
	wz := gzip.NewWriter(output)
	wz.Name = filepath.Base(filePath)
	_, err = io.Copy(wz, input)
	if cerr := wz.Close(); err == nil {
		err = cerr
	}
	if cerr := output.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outputName)
		return view.EmptyString, err
	}
	return outputName, nil
}

func bucketExists(ctx context.Context, minioClient *minio.Client, bucketName string) (bool, error) {
	return minioClient.BucketExists(ctx, bucketName)
}

func buildFileName(prefix, entityId string) string {
	return fmt.Sprintf("%s/%s", prefix, entityId)
}

func (s3 *cloudStorage) createBucketIfNotExists(ctx context.Context) error {
	exists, err := bucketExists(ctx, s3.minioClient.client, s3.storageCredentials.BucketName)
	if err != nil {
		return err
	}
	if exists {
		log.Debugf("Using S3/Minio bucket '%s'", s3.storageCredentials.BucketName)
		return nil
	}
	if err = s3.minioClient.client.MakeBucket(ctx, s3.storageCredentials.BucketName, minio.MakeBucketOptions{}); err != nil {
		return err
	}
	log.Debugf("S3/Minio bucket '%s' has been created", s3.storageCredentials.BucketName)
	return nil
}

func (s3 *cloudStorage) UploadFile(ctx context.Context, prefix, entityId string, content []byte) error {
	_, err := s3.minioClient.client.PutObject(ctx, s3.storageCredentials.BucketName, buildFileName(prefix, entityId),
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}
