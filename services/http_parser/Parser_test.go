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

package http_parser

import (
	"strings"
	"testing"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(seq, ack uint32, payload string) entities.CapturedPacket {
	return entities.CapturedPacket{Seconds: 1, Micros: seq % 1000, Seq: seq, Ack: ack, Payload: []byte(payload)}
}

func TestLineAssembler(t *testing.T) {
	la := LineAssembler{}
	_, n, ok := la.Next([]byte("GET / HT"))
	assert.False(t, ok)
	assert.Equal(t, 8, n)
	assert.True(t, la.Pending())
	line, n, ok := la.Next([]byte("TP/1.1\r\nHost"))
	assert.True(t, ok)
	assert.Equal(t, 8, n)
	assert.Equal(t, "GET / HTTP/1.1", string(line))
	line, _, ok = la.Next([]byte("\r\n"))
	assert.True(t, ok)
	assert.Equal(t, "", string(line))
	la.Reset()
	assert.False(t, la.Pending())
}

func TestLineAssemblerOverflow(t *testing.T) {
	la := LineAssembler{}
	long := []byte(strings.Repeat("x", MaxLineLength+1))
	_, _, ok := la.Next(long)
	assert.False(t, ok)
	_, n, ok := la.Next([]byte("tail\r\nnext\r\n"))
	assert.False(t, ok)
	assert.Equal(t, 6, n)
	line, _, ok := la.Next([]byte("next\r\n"))
	assert.True(t, ok)
	assert.Equal(t, "next", string(line))
}

func TestRequestParser(t *testing.T) {
	payload := "GET /a.png HTTP/1.1\r\nHost: x\r\n\r\n"
	rp := NewRequestParser("test", nil)
	rp.Feed(seg(1000, 9, payload))
	requests := rp.Finish()
	require.Len(t, requests, 1)
	r := requests[0]
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/a.png", r.Url)
	assert.Equal(t, "x", r.Host)
	assert.Equal(t, uint32(1000), r.Seq)
	assert.Equal(t, uint32(9), r.Ack)
	assert.Equal(t, uint32(1000+len(payload)), r.Key)
}

func TestRequestKeyFiftyBytes(t *testing.T) {
	payload := "GET /x HTTP/1.1\r\nHost: h\r\n\r\n"
	payload += strings.Repeat("y", 50-len(payload))
	rp := NewRequestParser("test", nil)
	rp.Feed(seg(1000, 0, payload))
	requests := rp.Finish()
	require.Len(t, requests, 1)
	assert.Equal(t, uint32(1050), requests[0].Key)
}

func TestRequestMethodsCaseInsensitive(t *testing.T) {
	for _, m := range []string{"get", "Head", "POST", "put", "DeLeTe"} {
		rp := NewRequestParser("test", nil)
		rp.Feed(seg(1, 0, m+" /p HTTP/1.1\r\nHOST: Example.org\r\n\r\n"))
		requests := rp.Finish()
		require.Len(t, requests, 1, m)
		assert.Equal(t, strings.ToUpper(m), requests[0].Method)
		assert.Equal(t, "Example.org", requests[0].Host)
	}
	rp := NewRequestParser("test", nil)
	rp.Feed(seg(1, 0, "OPTIONS /p HTTP/1.1\r\n\r\n"))
	assert.Empty(t, rp.Finish())
}

func TestRequestHeadersSpanPackets(t *testing.T) {
	rp := NewRequestParser("test", nil)
	first := "GET /long/path HTTP/1.1\r\nHo"
	second := "st: split.example\r\n\r\n"
	rp.Feed(seg(100, 5, first))
	rp.Feed(seg(100+uint32(len(first)), 5, second))
	requests := rp.Finish()
	require.Len(t, requests, 1)
	assert.Equal(t, "/long/path", requests[0].Url)
	assert.Equal(t, "split.example", requests[0].Host)
	assert.Equal(t, uint32(100), requests[0].Seq)
	assert.Equal(t, uint32(100+len(first)+len(second)), requests[0].Key)
}

func TestRequestBodySkipped(t *testing.T) {
	rp := NewRequestParser("test", nil)
	head := "POST /form HTTP/1.1\r\nHost: h\r\nContent-Length: 10\r\n\r\nGET /"
	rp.Feed(seg(0, 0, head))
	rp.Feed(seg(uint32(len(head)), 0, "x/y\r\n"))
	rp.Feed(seg(uint32(len(head))+5, 0, "GET /next HTTP/1.1\r\n\r\n"))
	requests := rp.Finish()
	require.Len(t, requests, 2)
	assert.Equal(t, "/form", requests[0].Url)
	assert.Equal(t, uint32(len(head)+5), requests[0].Key)
	assert.Equal(t, "/next", requests[1].Url)
}

func TestRequestImageFilter(t *testing.T) {
	assert.True(t, HasImageSuffix("/img/A.JPEG"))
	assert.True(t, HasImageSuffix("/x.webp"))
	assert.True(t, HasImageSuffix("/x.gif"))
	assert.False(t, HasImageSuffix("/x.png?size=1"))
	assert.False(t, HasImageSuffix("/index.html"))
	rp := NewRequestParser("test", HasImageSuffix)
	rp.Feed(seg(0, 0, "GET /index.html HTTP/1.1\r\n\r\nGET /logo.PNG HTTP/1.1\r\n\r\n"))
	requests := rp.Finish()
	require.Len(t, requests, 1)
	assert.Equal(t, "/logo.PNG", requests[0].Url)
}

func TestResponseFixedLengthSplit(t *testing.T) {
	rp := NewResponseParser("test", true)
	rp.Feed(seg(500, 1050, "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nab"))
	rp.Feed(seg(600, 1050, "c"))
	rp.Feed(seg(601, 1050, "d"))
	responses := rp.Finish()
	require.Len(t, responses, 1)
	r := responses[0]
	assert.Equal(t, uint32(1050), r.Ack)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, int64(4), r.BodyLength)
	assert.Equal(t, []byte("abcd"), r.Body)
	assert.True(t, r.Complete)
	assert.Equal(t, 0, rp.Malformed())
}

func TestResponseChunked(t *testing.T) {
	rp := NewResponseParser("test", true)
	rp.Feed(seg(1, 77, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nAAA"))
	rp.Feed(seg(2, 78, "AA\r\n3\r\nBBB\r\n0\r\n\r\n"))
	responses := rp.Finish()
	require.Len(t, responses, 1)
	assert.Equal(t, uint32(77), responses[0].Ack)
	assert.Equal(t, int64(8), responses[0].BodyLength)
	assert.Equal(t, "AAAAABBB", string(responses[0].Body))
	assert.True(t, responses[0].Chunked)
}

func TestResponseWithoutBody(t *testing.T) {
	rp := NewResponseParser("test", false)
	rp.Feed(seg(1, 10, "HTTP/1.1 304 Not Modified\r\nETag: x\r\n\r\nHTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n"))
	responses := rp.Finish()
	require.Len(t, responses, 2)
	assert.Equal(t, 304, responses[0].StatusCode)
	assert.Equal(t, 204, responses[1].StatusCode)
	assert.Equal(t, int64(0), responses[1].BodyLength)
	assert.Nil(t, responses[0].Body)
}

func TestResponseMalformedDropped(t *testing.T) {
	rp := NewResponseParser("test", false)
	rp.Feed(seg(1, 10, "HTTP/1.1 abc OK\r\nContent-Length: 2\r\n\r\nzz"))
	rp.Feed(seg(2, 20, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\nxyz\r\n"))
	rp.Feed(seg(3, 30, "HTTP/1.1 404 Not Found\r\nContent-Length: 1\r\n\r\n!"))
	responses := rp.Finish()
	require.Len(t, responses, 1)
	assert.Equal(t, 404, responses[0].StatusCode)
	assert.Equal(t, uint32(30), responses[0].Ack)
	assert.Equal(t, 2, rp.Malformed())
}

func TestResponseStatusLineToken(t *testing.T) {
	rp := NewResponseParser("test", true)
	rp.Feed(seg(1, 10, "HTTP/1.10 200 OK\r\nContent-Length: 0\r\n\r\n"))
	rp.Feed(seg(2, 20, "http/1.1 201 Created\r\nContent-Length: 2\r\n\r\nok"))
	responses := rp.Finish()
	require.Len(t, responses, 1)
	assert.Equal(t, 201, responses[0].StatusCode)
	assert.Equal(t, uint32(20), responses[0].Ack)
	assert.Equal(t, "ok", string(responses[0].Body))
	assert.Zero(t, rp.Malformed())
}

func TestResponseIncompleteFixedLength(t *testing.T) {
	rp := NewResponseParser("test", true)
	rp.Feed(seg(1, 10, "HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nshort"))
	rp.Feed(seg(2, 20, "HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\nX"))
	responses := rp.Finish()
	require.Len(t, responses, 2)
	assert.False(t, responses[0].Complete)
	assert.Equal(t, int64(100), responses[0].BodyLength)
	assert.Equal(t, "short", string(responses[0].Body))
	assert.True(t, responses[1].Complete)
	assert.Equal(t, "X", string(responses[1].Body))
}

func TestResponseUnfinishedAtEnd(t *testing.T) {
	rp := NewResponseParser("test", false)
	rp.Feed(seg(1, 10, "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n1234"))
	rp.Feed(seg(2, 20, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n"))
	responses := rp.Finish()
	require.Len(t, responses, 1)
	assert.Equal(t, uint32(10), responses[0].Ack)
	assert.False(t, responses[0].Complete)
}

func TestParseFlow(t *testing.T) {
	flow := &entities.TcpFlow{
		Upstream:   []entities.CapturedPacket{seg(10, 0, "GET / HTTP/1.1\r\n\r\n")},
		Downstream: []entities.CapturedPacket{seg(0, 28, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")},
	}
	requests := ParseRequests(flow, nil)
	responses, malformed := ParseResponses(flow, false)
	require.Len(t, requests, 1)
	require.Len(t, responses, 1)
	assert.Equal(t, requests[0].Key, responses[0].Ack)
	assert.Equal(t, 0, malformed)
}
