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
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

// UrlFilter
// decides which request URLs are kept
type UrlFilter func(url string) bool

// AcceptAll
// keeps every request
func AcceptAll(string) bool {
	return true
}

// HasImageSuffix
// URL ends with one of the image extensions, case-insensitive
func HasImageSuffix(url string) bool {
	lower := strings.ToLower(url)
	for _, suffix := range view.ImageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

var requestMethods = map[string]struct{}{
	"HEAD":   {},
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
}

// IsRequestLine
// first token is one of the supported methods
func IsRequestLine(line string) (string, bool) {
	token := line
	if i := strings.IndexByte(line, ' '); i >= 0 {
		token = line[:i]
	}
	method := strings.ToUpper(token)
	_, ok := requestMethods[method]
	return method, ok
}

// RequestUrl
// text between the first and the second space
func RequestUrl(line string) string {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return view.EmptyString
	}
	return parts[1]
}

type requestState int

const (
	reqAwaitingRequestLine requestState = iota
	reqHeaders
	reqBody
)

// RequestParser
// client to server message reader of one flow
type RequestParser interface {
	Feed(packet entities.CapturedPacket)
	Finish() []entities.HttpRequest
}

type requestParserImpl struct {
	flowName  string
	filter    UrlFilter
	lines     LineAssembler
	state     requestState
	current   entities.HttpRequest
	remaining int64
	lastEnd   uint32
	requests  []entities.HttpRequest
}

// NewRequestParser
// creates a parser; nil filter keeps everything
func NewRequestParser(flowName string, filter UrlFilter) RequestParser {
	if filter == nil {
		filter = AcceptAll
	}
	return &requestParserImpl{flowName: flowName, filter: filter}
}

// ParseRequests
// runs a parser over the flow upstream
func ParseRequests(flow *entities.TcpFlow, filter UrlFilter) []entities.HttpRequest {
	rp := NewRequestParser(flow.Oriented().String(), filter)
	for _, p := range flow.Upstream {
		rp.Feed(p)
	}
	return rp.Finish()
}

// Feed
// consumes one upstream segment
func (rp *requestParserImpl) Feed(packet entities.CapturedPacket) {
	data := packet.Payload
	if len(data) == 0 {
		return
	}
	// the key is the sequence number the server acknowledges after this segment
	end := packet.Seq + uint32(len(data))
	for len(data) > 0 {
		if rp.state == reqBody {
			n := int64(len(data))
			if n > rp.remaining {
				n = rp.remaining
			}
			rp.remaining -= n
			data = data[n:]
			rp.lastEnd = end
			if rp.remaining == 0 {
				rp.complete()
			}
			continue
		}
		line, consumed, ok := rp.lines.Next(data)
		data = data[consumed:]
		if rp.state == reqHeaders {
			rp.lastEnd = end
		}
		if ok {
			rp.onLine(string(line), packet, end)
		}
	}
}

func (rp *requestParserImpl) onLine(line string, packet entities.CapturedPacket, end uint32) {
	switch rp.state {
	case reqAwaitingRequestLine:
		if line == view.EmptyString {
			return
		}
		method, ok := IsRequestLine(line)
		if !ok {
			log.Tracef("flow %s: skipping non request line '%s'", rp.flowName, line)
			return
		}
		rp.current = entities.HttpRequest{
			Seq:     packet.Seq,
			Ack:     packet.Ack,
			Seconds: packet.Seconds,
			Micros:  packet.Micros,
			Method:  method,
			Url:     RequestUrl(line),
		}
		rp.remaining = 0
		rp.lastEnd = end
		rp.state = reqHeaders
	case reqHeaders:
		if line == view.EmptyString {
			if rp.remaining > 0 {
				rp.state = reqBody
				return
			}
			rp.complete()
			return
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "host:"):
			rp.current.Host = headerValue(line)
		case strings.HasPrefix(lower, "content-length:"):
			n, err := strconv.ParseInt(strings.TrimSpace(line[len("content-length:"):]), 10, 64)
			if err == nil && n > 0 {
				rp.remaining = n
			}
		}
	}
}

// headerValue
// text after the first space of a header line
func headerValue(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return view.EmptyString
}

func (rp *requestParserImpl) complete() {
	rp.current.Key = rp.lastEnd
	if rp.filter(rp.current.Url) {
		rp.requests = append(rp.requests, rp.current)
	} else {
		log.Tracef("flow %s: request %s filtered out", rp.flowName, rp.current.Url)
	}
	rp.current = entities.HttpRequest{}
	rp.remaining = 0
	rp.state = reqAwaitingRequestLine
}

// Finish
// flushes a request whose header block never ended and returns all requests
func (rp *requestParserImpl) Finish() []entities.HttpRequest {
	if rp.state != reqAwaitingRequestLine {
		rp.complete()
	}
	rp.lines.Reset()
	return rp.requests
}
