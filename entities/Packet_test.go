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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	client := Endpoint{Address: IPv4Address{10, 0, 0, 2}, Port: 51000}
	server := Endpoint{Address: IPv4Address{10, 0, 0, 1}, Port: 80}
	up := ConnectionKey{Source: client, Destination: server}
	down := up.Swapped()
	assert.Equal(t, up.Canonical(), down.Canonical())
	assert.Equal(t, server, up.Canonical().Source)
	assert.True(t, up.SameConnection(down))
	assert.False(t, up.SameConnection(ConnectionKey{Source: client, Destination: Endpoint{Address: server.Address, Port: 81}}))
}

func TestCanonicalKeySameAddress(t *testing.T) {
	a := Endpoint{Address: IPv4Address{127, 0, 0, 1}, Port: 80}
	b := Endpoint{Address: IPv4Address{127, 0, 0, 1}, Port: 40000}
	k := ConnectionKey{Source: b, Destination: a}
	assert.Equal(t, a, k.Canonical().Source)
	assert.Equal(t, k.Canonical(), k.Swapped().Canonical())
}

func TestAddressText(t *testing.T) {
	a := IPv4FromIP(net.ParseIP("192.168.1.254"))
	assert.Equal(t, "192.168.1.254", a.String())
	assert.Equal(t, IPv4Address{}, IPv4FromIP(net.ParseIP("::1")))
	assert.Equal(t, "192.168.1.254 8080", Endpoint{Address: a, Port: 8080}.String())
}

func TestTimestampOrdering(t *testing.T) {
	assert.True(t, TimestampBefore(10, 100, 10, 500))
	assert.False(t, TimestampBefore(10, 500, 10, 100))
	assert.True(t, TimestampBefore(9, 999999, 10, 0))
	assert.False(t, TimestampBefore(10, 0, 10, 0))
}

func TestFlowSummary(t *testing.T) {
	f := &TcpFlow{
		Client:     Endpoint{Address: IPv4Address{10, 0, 0, 2}, Port: 1234},
		Server:     Endpoint{Address: IPv4Address{10, 0, 0, 1}, Port: 80},
		Upstream:   []CapturedPacket{{Payload: []byte("ab")}, {Payload: []byte("c")}},
		Downstream: []CapturedPacket{{Payload: []byte("xyz")}},
	}
	f.UpDataLength, f.DownDataLength = 3, 3
	assert.Equal(t, "10.0.0.2 1234 10.0.0.1 80 3 3", f.Summary())
	assert.Equal(t, []byte("abc"), f.UpstreamBytes())
	assert.Equal(t, []byte("xyz"), f.DownstreamBytes())
}

func TestTransactionLogLine(t *testing.T) {
	tx := HttpTransaction{
		Request:  HttpRequest{Url: "/A.PNG", Host: "Example.COM"},
		Response: HttpResponse{StatusCode: 200, BodyLength: 3},
	}
	assert.Equal(t, "/a.png example.com 200 3", tx.LogLine())
	rec := MakeTransactionRecord("run", tx)
	assert.Equal(t, "run", rec.RunId)
	assert.Equal(t, "/A.PNG", rec.Url)
}
