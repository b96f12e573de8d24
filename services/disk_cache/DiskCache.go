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

package disk_cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	"github.com/akrylysov/pogreb"
	log "github.com/sirupsen/logrus"
)

const (
	ErrorCacheIsNil         = "current cache for %s is nil"
	ErrorCacheLookup        = "cache %s lookup failed for key %s. Error %v"
	ErrorCacheStore         = "cache %s failed to store item under key %s. Error %v"
	ErrorCacheKeyNotInvalid = "invalid cache key for %s"
)

// DiskCache
// on-disk key/value index living for one run, e.g. exported artifacts by content digest
type DiskCache interface {
	StoreItem(cacheKey string, value []byte) error
	StoreIfAbsent(cacheKey string, value []byte) (bool, error)
	GetItem(cacheKey string) ([]byte, error)
	GetItemAsString(cacheKey string) (string, error)
	ForEach(fn func(key string, value []byte) error) error
	Sync() int
	Count() int
	Close() error
}

type diskCache struct {
	db        *pogreb.DB
	cacheName string
	cachePath string
}

// NewDiskCache
// opens a uniquely named pogreb database under cacheDir (temp dir when empty)
func NewDiskCache(cacheName string, cacheDir string) (DiskCache, error) {
	if cacheDir == view.EmptyString {
		cacheDir = os.TempDir()
	}
	cachePath := filepath.Join(cacheDir, cacheName+utils.MakeUniqueId())
	db, err := pogreb.Open(cachePath, nil)
	if err != nil {
		return nil, err
	}
	return &diskCache{db: db, cacheName: cacheName, cachePath: cachePath}, nil
}

func (cache *diskCache) checkKey(cacheKey string) error {
	if cache == nil || cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cacheKey)
	}
	if cacheKey == view.EmptyString {
		return fmt.Errorf(ErrorCacheKeyNotInvalid, cache.cacheName)
	}
	return nil
}

// StoreItem
// puts or replaces the value
func (cache *diskCache) StoreItem(cacheKey string, value []byte) error {
	if err := cache.checkKey(cacheKey); err != nil {
		return err
	}
	if err := cache.db.Put([]byte(cacheKey), value); err != nil {
		return fmt.Errorf(ErrorCacheStore, cache.cacheName, cacheKey, err)
	}
	return nil
}

// StoreIfAbsent
// stores the value only for a new key, reports whether it was stored
func (cache *diskCache) StoreIfAbsent(cacheKey string, value []byte) (bool, error) {
	if err := cache.checkKey(cacheKey); err != nil {
		return false, err
	}
	found, err := cache.db.Has([]byte(cacheKey))
	if err != nil {
		return false, fmt.Errorf(ErrorCacheLookup, cache.cacheName, cacheKey, err)
	}
	if found {
		return false, nil
	}
	return true, cache.StoreItem(cacheKey, value)
}

// GetItem
// nil without error for a missing key
func (cache *diskCache) GetItem(cacheKey string) ([]byte, error) {
	if err := cache.checkKey(cacheKey); err != nil {
		return nil, err
	}
	return cache.db.Get([]byte(cacheKey))
}

func (cache *diskCache) GetItemAsString(cacheKey string) (string, error) {
	val, err := cache.GetItem(cacheKey)
	if err == nil && val != nil {
		return string(val), nil
	}
	return view.EmptyString, err
}

// ForEach
// visits all items in storage order
func (cache *diskCache) ForEach(fn func(key string, value []byte) error) error {
	if cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	it := cache.db.Items()
	for {
		key, val, err := it.Next()
		if errors.Is(err, pogreb.ErrIterationDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if err = fn(string(key), val); err != nil {
			return err
		}
	}
}

// Sync
// flushes to disk and returns the item count, -1 on failure
func (cache *diskCache) Sync() int {
	if cache.db != nil && cache.db.Sync() == nil {
		return int(cache.db.Count())
	}
	return -1
}

func (cache *diskCache) Count() int {
	if cache.db != nil {
		return int(cache.db.Count())
	}
	return -1
}

// Close
// closes the database and removes its files
func (cache *diskCache) Close() error {
	if cache.db == nil {
		return fmt.Errorf(ErrorCacheIsNil, cache.cacheName)
	}
	count := cache.db.Count()
	if err := cache.db.Close(); err != nil {
		return err
	}
	cache.db = nil
	log.Debugf("Cache %s closed (%d)", cache.cacheName, count)
	if err := os.RemoveAll(cache.cachePath); err != nil {
		return fmt.Errorf("unable to delete cache files at '%s'. Error: %v", cache.cachePath, err)
	}
	return nil
}
