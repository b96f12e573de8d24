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

package artifact

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/cloud_storage"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/disk_cache"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/report"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

const defaultImageName = "image"

// ImageExporter
// writes extracted images to files, one per distinct body
type ImageExporter interface {
	report.ImageSink
	Exported() []string
}

type imageExporter struct {
	exportDir string
	digests   disk_cache.DiskCache
	storage   cloud_storage.CloudStorage
	exported  []string
}

// NewImageExporter
// digests is mandatory, storage may be nil
func NewImageExporter(exportDir string, digests disk_cache.DiskCache, storage cloud_storage.CloudStorage) (ImageExporter, error) {
	if exportDir == view.EmptyString {
		return nil, fmt.Errorf("export directory is not set")
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create export directory '%s': %w", exportDir, err)
	}
	return &imageExporter{exportDir: exportDir, digests: digests, storage: storage}, nil
}

// ImageFileName
// "<runId>_<n>_<base>" with the URL query dropped and unsafe characters replaced
func ImageFileName(runId string, n int, url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	if base == "." || base == "/" || base == view.EmptyString {
		base = defaultImageName
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	return fmt.Sprintf("%s_%d_%s", runId, n, base)
}

// ExportImages
// identical bodies are written once
func (e *imageExporter) ExportImages(ctx context.Context, runId string, txs []entities.HttpTransaction) error {
	for n, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum := md5.Sum(tx.Response.Body)
		digest := hex.EncodeToString(sum[:])
		fileName := ImageFileName(runId, n, tx.Request.Url)
		stored, err := e.digests.StoreIfAbsent(digest, []byte(fileName))
		if err != nil {
			return err
		}
		if !stored {
			existing, _ := e.digests.GetItemAsString(digest)
			log.Debugf("image %s is identical to %s, skipped", tx.Request.Url, existing)
			continue
		}
		filePath := filepath.Join(e.exportDir, fileName)
		if err = os.WriteFile(filePath, tx.Response.Body, 0o644); err != nil {
			return fmt.Errorf("unable to write image '%s': %w", filePath, err)
		}
		e.exported = append(e.exported, filePath)
		log.Debugf("image %s exported to %s (%d byte(s))", tx.Request.Url, filePath, len(tx.Response.Body))
		if e.storage != nil {
			e.storage.StoreFile(filePath)
		}
	}
	return nil
}

// Exported
// written files in export order
func (e *imageExporter) Exported() []string {
	return e.exported
}
