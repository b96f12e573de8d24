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

import (
	"bytes"
	"fmt"
	"net"
)

// IPv4Address
// raw IPv4 address, compared byte-wise
type IPv4Address [4]byte

// IPv4FromIP
// converts a net.IP, zero address for non IPv4 values
func IPv4FromIP(ip net.IP) IPv4Address {
	var a IPv4Address
	if v4 := ip.To4(); v4 != nil {
		copy(a[:], v4)
	}
	return a
}

func (a IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// Compare
// byte-wise ordering
func (a IPv4Address) Compare(b IPv4Address) int {
	return bytes.Compare(a[:], b[:])
}

// Endpoint
// one side of a TCP connection
type Endpoint struct {
	Address IPv4Address
	Port    uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s %d", e.Address, e.Port)
}

// Compare
// orders by address bytes, then port
func (e Endpoint) Compare(o Endpoint) int {
	if c := e.Address.Compare(o.Address); c != 0 {
		return c
	}
	switch {
	case e.Port < o.Port:
		return -1
	case e.Port > o.Port:
		return 1
	}
	return 0
}

// ConnectionKey
// connection identity as observed on the wire
type ConnectionKey struct {
	Source      Endpoint
	Destination Endpoint
}

// Swapped
// the same connection seen from the other side
func (k ConnectionKey) Swapped() ConnectionKey {
	return ConnectionKey{Source: k.Destination, Destination: k.Source}
}

// Canonical
// direction independent form: the lower endpoint goes first
func (k ConnectionKey) Canonical() ConnectionKey {
	if k.Source.Compare(k.Destination) > 0 {
		return k.Swapped()
	}
	return k
}

// SameConnection
// equality under endpoint swap
func (k ConnectionKey) SameConnection(o ConnectionKey) bool {
	return k.Canonical() == o.Canonical()
}

func (k ConnectionKey) String() string {
	return k.Source.String() + " " + k.Destination.String()
}

// CapturedPacket
// a decoded TCP segment; Payload and Frame share memory with the capture buffer
type CapturedPacket struct {
	Seconds uint32
	Micros  uint32
	Seq     uint32
	Ack     uint32
	Payload []byte
	Frame   []byte
}

// Before
// capture time ordering
func (p CapturedPacket) Before(o CapturedPacket) bool {
	return TimestampBefore(p.Seconds, p.Micros, o.Seconds, o.Micros)
}

// TimestampBefore
// compares two (seconds, microseconds) capture times
func TimestampBefore(sec1, usec1, sec2, usec2 uint32) bool {
	if sec1 == sec2 {
		return usec1 < usec2
	}
	return sec1 < sec2
}
