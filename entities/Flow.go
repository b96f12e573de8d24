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

import "fmt"

// TcpFlow
// bidirectional TCP conversation, owned by a flow table for the whole run
type TcpFlow struct {
	Key            ConnectionKey // canonical identity
	Client         Endpoint
	Server         Endpoint
	Upstream       []CapturedPacket // client -> server (destination port 80)
	Downstream     []CapturedPacket // server -> client (source port 80)
	UpDataLength   int64
	DownDataLength int64
	PacketCount    int
}

// Oriented
// connection key from client to server
func (f *TcpFlow) Oriented() ConnectionKey {
	return ConnectionKey{Source: f.Client, Destination: f.Server}
}

// Summary
// text form "clientIP clientPort serverIP serverPort up down"
func (f *TcpFlow) Summary() string {
	return fmt.Sprintf("%s %s %d %d", f.Client, f.Server, f.UpDataLength, f.DownDataLength)
}

// UpstreamBytes
// concatenated client payload in capture order
func (f *TcpFlow) UpstreamBytes() []byte {
	return joinPayloads(f.Upstream, f.UpDataLength)
}

// DownstreamBytes
// concatenated server payload in capture order
func (f *TcpFlow) DownstreamBytes() []byte {
	return joinPayloads(f.Downstream, f.DownDataLength)
}

func joinPayloads(packets []CapturedPacket, size int64) []byte {
	out := make([]byte, 0, size)
	for _, p := range packets {
		out = append(out, p.Payload...)
	}
	return out
}

// TrafficCounters
// frame level statistics of a capture
type TrafficCounters struct {
	TotalPackets           int
	IpPackets              int
	NonIpPackets           int
	TcpPackets             int
	UdpPackets             int
	DistinctTcpConnections int
	DecodeFailures         map[string]int
}

func (c TrafficCounters) String() string {
	return fmt.Sprintf("%d %d %d %d %d", c.TotalPackets, c.IpPackets, c.TcpPackets, c.UdpPackets, c.DistinctTcpConnections)
}
