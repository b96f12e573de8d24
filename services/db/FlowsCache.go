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

package db

import (
	"time"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
)

const (
	MinSize    = 100
	DefaultAge = 6 * time.Hour
)

// FlowsCache
// flow ids of the current run in front of the Flows table
type FlowsCache interface {
	GetId(runId string, flow entities.ConnectionKey) (int, error)
}

type flowsCache struct {
	instance libcache.Cache
	db       Connection
}

func NewFlowsCache(db Connection) FlowsCache {
	fc := flowsCache{instance: libcache.LRU.New(MinSize), db: db}
	fc.instance.SetTTL(DefaultAge)
	return &fc
}

// GetId
// flow is oriented client to server
func (fc *flowsCache) GetId(runId string, flow entities.ConnectionKey) (int, error) {
	key := runId + " " + flow.String()
	if cached, exists := fc.instance.Load(key); exists {
		return cached.(int), nil
	}
	id, err := fc.db.GetFlowId(runId, flow.Source, flow.Destination)
	if err != nil {
		return id, err
	}
	fc.instance.Store(key, id)
	return id, nil
}
