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

package decoder

import (
	"encoding/binary"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"
)

type FrameKind int

const (
	KindNotIPv4 FrameKind = iota
	KindIPv4Other
	KindIPv4UDP
	KindIPv4TCP
)

// failure counter names
const (
	FailureEthernet      = "eth_parse"
	FailureIPv4          = "ipv4_parse"
	FailureIPv4Truncated = "ipv4_truncated"
	FailureTCP           = "tcp_parse"
	FailureTCPOptions    = "tcp_options" // options unparsable, payload taken by data offset
)

const tcpMinHeaderLength = 20

// Frame
// decoded view of one capture record
type Frame struct {
	Kind            FrameKind
	Decoded         bool // Key and Packet are valid (TCP only)
	Key             entities.ConnectionKey
	Packet          entities.CapturedPacket
	IpHeaderLength  int
	IpTotalLength   int
	TcpHeaderLength int
	Failure         string
}

// IsIPv4
// EtherType was 0x0800
func (f Frame) IsIPv4() bool {
	return f.Kind != KindNotIPv4
}

// decodeFeedback
// gopacket decoder required interface
type decodeFeedback struct {
	Truncated bool
}

// SetTruncated
// required method to maintain interface
func (df *decodeFeedback) SetTruncated() {
	df.Truncated = true
}

// FrameDecoder
// decodes Ethernet/IPv4/TCP records and counts failures by reason
type FrameDecoder interface {
	Decode(rec capture.Record) Frame
	Failures() map[string]int
}

type frameDecoderImpl struct {
	errCount map[string]int
}

// NewFrameDecoder
// creates a decoder with empty failure counters
func NewFrameDecoder() FrameDecoder {
	return &frameDecoderImpl{errCount: make(map[string]int)}
}

func incErrorCount(m map[string]int, name string) {
	m[name] = m[name] + 1
}

// Decode
// never reads outside rec.Data
func (d *frameDecoderImpl) Decode(rec capture.Record) Frame {
	frame := Frame{Kind: KindNotIPv4}
	df := decodeFeedback{}
	eth := layers.Ethernet{}
	if err := eth.DecodeFromBytes(rec.Data, &df); err != nil {
		log.Tracef("record %d: unable to decode ethernet header: %v", rec.Index, err)
		frame.Failure = FailureEthernet
		incErrorCount(d.errCount, frame.Failure)
		return frame
	}
	if eth.EthernetType != layers.EthernetTypeIPv4 {
		return frame
	}
	frame.Kind = KindIPv4Other
	ipv4 := layers.IPv4{}
	if err := ipv4.DecodeFromBytes(eth.Payload, &df); err != nil {
		log.Tracef("record %d: unable to decode IPv4 header: %v", rec.Index, err)
		frame.Failure = FailureIPv4
		incErrorCount(d.errCount, frame.Failure)
		return frame
	}
	if df.Truncated {
		incErrorCount(d.errCount, FailureIPv4Truncated)
	}
	frame.IpHeaderLength = int(ipv4.IHL) * 4
	frame.IpTotalLength = int(ipv4.Length)
	switch ipv4.Protocol {
	case layers.IPProtocolUDP:
		frame.Kind = KindIPv4UDP
		return frame
	case layers.IPProtocolTCP:
		frame.Kind = KindIPv4TCP
	default:
		return frame
	}
	tcp := layers.TCP{}
	if err := tcp.DecodeFromBytes(ipv4.Payload, &df); err != nil {
		if !fixedTcpHeader(ipv4.Payload, &tcp) {
			log.Tracef("record %d: unable to decode TCP header: %v", rec.Index, err)
			frame.Failure = FailureTCP
			incErrorCount(d.errCount, frame.Failure)
			return frame
		}
		log.Tracef("record %d: TCP options ignored: %v", rec.Index, err)
		incErrorCount(d.errCount, FailureTCPOptions)
	}
	frame.TcpHeaderLength = int(tcp.DataOffset) * 4
	frame.Key = entities.ConnectionKey{
		Source:      entities.Endpoint{Address: entities.IPv4FromIP(ipv4.SrcIP), Port: uint16(tcp.SrcPort)},
		Destination: entities.Endpoint{Address: entities.IPv4FromIP(ipv4.DstIP), Port: uint16(tcp.DstPort)},
	}
	frame.Packet = entities.CapturedPacket{
		Seconds: rec.Seconds,
		Micros:  rec.Micros,
		Seq:     tcp.Seq,
		Ack:     tcp.Ack,
		Payload: tcp.Payload,
		Frame:   rec.Data,
	}
	frame.Decoded = true
	return frame
}

// fixedTcpHeader
// fills ports, sequence numbers and payload from the fixed header alone,
// false when the data offset does not fit the segment
func fixedTcpHeader(data []byte, tcp *layers.TCP) bool {
	if len(data) < tcpMinHeaderLength {
		return false
	}
	offset := int(data[12]>>4) * 4
	if offset < tcpMinHeaderLength || offset > len(data) {
		return false
	}
	tcp.SrcPort = layers.TCPPort(binary.BigEndian.Uint16(data[0:2]))
	tcp.DstPort = layers.TCPPort(binary.BigEndian.Uint16(data[2:4]))
	tcp.Seq = binary.BigEndian.Uint32(data[4:8])
	tcp.Ack = binary.BigEndian.Uint32(data[8:12])
	tcp.DataOffset = data[12] >> 4
	tcp.Payload = data[offset:]
	return true
}

// Failures
// decode failure counters by reason
func (d *frameDecoderImpl) Failures() map[string]int {
	return d.errCount
}
