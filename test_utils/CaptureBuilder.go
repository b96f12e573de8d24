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

package test_utils

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PacketSpec
// one synthetic frame
type PacketSpec struct {
	Seconds uint32
	Micros  uint32
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Payload []byte
	Udp     bool
	NonIP   bool
}

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

// SerializeFrame
// builds an Ethernet frame for the spec
func SerializeFrame(p PacketSpec) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if p.NonIP {
		eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeARP}
		err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(make([]byte, 28)))
		return buf.Bytes(), err
	}
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		SrcIP:   net.ParseIP(p.SrcIP).To4(),
		DstIP:   net.ParseIP(p.DstIP).To4(),
		Version: 4,
		TTL:     64,
	}
	var err error
	if p.Udp {
		ip.Protocol = layers.IPProtocolUDP
		udp := &layers.UDP{SrcPort: layers.UDPPort(p.SrcPort), DstPort: layers.UDPPort(p.DstPort)}
		if err = udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		err = gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(p.Payload))
	} else {
		ip.Protocol = layers.IPProtocolTCP
		tcp := &layers.TCP{
			SrcPort: layers.TCPPort(p.SrcPort),
			DstPort: layers.TCPPort(p.DstPort),
			Seq:     p.Seq,
			Ack:     p.Ack,
			ACK:     true,
			PSH:     len(p.Payload) > 0,
			Window:  14600,
		}
		if err = tcp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		err = gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(p.Payload))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCapture
// writes a complete pcap file into memory
func BuildCapture(packets ...PacketSpec) ([]byte, error) {
	out := bytes.Buffer{}
	pcapWriter := pcapgo.NewWriter(&out)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	for i, p := range packets {
		frame, err := SerializeFrame(p)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize packet %d: %w", i, err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(int64(p.Seconds), int64(p.Micros)*int64(time.Microsecond)),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err = pcapWriter.WritePacket(ci, frame); err != nil {
			return nil, fmt.Errorf("failed to write packet %d: %w", i, err)
		}
	}
	return out.Bytes(), nil
}

// MustBuildCapture
// BuildCapture for fixtures which can not fail
func MustBuildCapture(packets ...PacketSpec) []byte {
	data, err := BuildCapture(packets...)
	if err != nil {
		panic(err)
	}
	return data
}

// Conversation
// keeps sequence numbers and the clock of a synthetic TCP connection
type Conversation struct {
	ClientIP   string
	ClientPort uint16
	ServerIP   string
	ServerPort uint16
	ClientSeq  uint32
	ServerSeq  uint32
	Seconds    uint32
	Micros     uint32
	Step       uint32 // microseconds between packets
}

// NewConversation
// a client talking to ServerIP:80
func NewConversation(clientIP string, clientPort uint16, serverIP string, clientSeq, serverSeq uint32) *Conversation {
	return &Conversation{
		ClientIP:   clientIP,
		ClientPort: clientPort,
		ServerIP:   serverIP,
		ServerPort: 80,
		ClientSeq:  clientSeq,
		ServerSeq:  serverSeq,
		Seconds:    1,
		Step:       10,
	}
}

func (c *Conversation) tick() (uint32, uint32) {
	sec, usec := c.Seconds, c.Micros
	c.Micros += c.Step
	for c.Micros >= 1000000 {
		c.Micros -= 1000000
		c.Seconds++
	}
	return sec, usec
}

// ClientSends
// client to server segment
func (c *Conversation) ClientSends(payload string) PacketSpec {
	sec, usec := c.tick()
	p := PacketSpec{
		Seconds: sec, Micros: usec,
		SrcIP: c.ClientIP, DstIP: c.ServerIP,
		SrcPort: c.ClientPort, DstPort: c.ServerPort,
		Seq: c.ClientSeq, Ack: c.ServerSeq,
		Payload: []byte(payload),
	}
	c.ClientSeq += uint32(len(payload))
	return p
}

// ServerSends
// server to client segment
func (c *Conversation) ServerSends(payload string) PacketSpec {
	sec, usec := c.tick()
	p := PacketSpec{
		Seconds: sec, Micros: usec,
		SrcIP: c.ServerIP, DstIP: c.ClientIP,
		SrcPort: c.ServerPort, DstPort: c.ClientPort,
		Seq: c.ServerSeq, Ack: c.ClientSeq,
		Payload: []byte(payload),
	}
	c.ServerSeq += uint32(len(payload))
	return p
}
