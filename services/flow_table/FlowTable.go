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

package flow_table

import (
	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/decoder"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
)

// FlowTable
// direction-insensitive map of TCP conversations; entries live for the whole run
type FlowTable interface {
	Classify(frame decoder.Frame) entities.ConnectionKey
	LookupOrCreate(key entities.ConnectionKey) *entities.TcpFlow
	Lookup(key entities.ConnectionKey) (*entities.TcpFlow, bool)
	AppendPayload(flow *entities.TcpFlow, key entities.ConnectionKey, packet entities.CapturedPacket)
	Flows() []*entities.TcpFlow
	Len() int
}

type flowTableImpl struct {
	flows map[entities.ConnectionKey]*entities.TcpFlow
	order []*entities.TcpFlow
}

// NewFlowTable
// creates an empty table
func NewFlowTable() FlowTable {
	return &flowTableImpl{flows: make(map[entities.ConnectionKey]*entities.TcpFlow)}
}

// IsHttp
// one of the ports is the HTTP port
func IsHttp(key entities.ConnectionKey) bool {
	return key.Source.Port == view.HttpPort || key.Destination.Port == view.HttpPort
}

func (ft *flowTableImpl) Classify(frame decoder.Frame) entities.ConnectionKey {
	return frame.Key
}

func (ft *flowTableImpl) Lookup(key entities.ConnectionKey) (*entities.TcpFlow, bool) {
	flow, found := ft.flows[key.Canonical()]
	return flow, found
}

// LookupOrCreate
// returns the stable handle for the connection, creating it on first sight
func (ft *flowTableImpl) LookupOrCreate(key entities.ConnectionKey) *entities.TcpFlow {
	canonical := key.Canonical()
	if flow, found := ft.flows[canonical]; found {
		return flow
	}
	flow := &entities.TcpFlow{Key: canonical, Client: key.Source, Server: key.Destination}
	if key.Destination.Port != view.HttpPort && key.Source.Port == view.HttpPort {
		flow.Client, flow.Server = key.Destination, key.Source
	}
	ft.flows[canonical] = flow
	ft.order = append(ft.order, flow)
	return flow
}

// AppendPayload
// attributes the packet to the upstream or downstream side by the HTTP port
func (ft *flowTableImpl) AppendPayload(flow *entities.TcpFlow, key entities.ConnectionKey, packet entities.CapturedPacket) {
	flow.PacketCount++
	if key.Destination.Port == view.HttpPort {
		flow.Upstream = append(flow.Upstream, packet)
		flow.UpDataLength += int64(len(packet.Payload))
	} else if key.Source.Port == view.HttpPort {
		flow.Downstream = append(flow.Downstream, packet)
		flow.DownDataLength += int64(len(packet.Payload))
	}
}

// Flows
// flows in creation order
func (ft *flowTableImpl) Flows() []*entities.TcpFlow {
	return ft.order
}

func (ft *flowTableImpl) Len() int {
	return len(ft.order)
}
