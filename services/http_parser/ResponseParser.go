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
	"bytes"
	"strconv"
	"strings"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

const statusLinePrefix = "HTTP/1.1"

type responseState int

const (
	respAwaitingStatus responseState = iota
	respHeaders
	respFixedBody
	respChunked
)

// ResponseParser
// server to client message reader of one flow
type ResponseParser interface {
	Feed(packet entities.CapturedPacket)
	Finish() []entities.HttpResponse
	Malformed() int
}

type responseParserImpl struct {
	flowName      string
	retainBody    bool
	lines         LineAssembler
	state         responseState
	current       entities.HttpResponse
	contentLength int64
	remaining     int64
	chunks        ChunkedDecoder
	responses     []entities.HttpResponse
	malformed     int
}

// NewResponseParser
// creates a parser; retainBody keeps body bytes for extraction
func NewResponseParser(flowName string, retainBody bool) ResponseParser {
	return &responseParserImpl{flowName: flowName, retainBody: retainBody}
}

// ParseResponses
// runs a parser over the flow downstream
func ParseResponses(flow *entities.TcpFlow, retainBody bool) ([]entities.HttpResponse, int) {
	rp := NewResponseParser(flow.Oriented().String(), retainBody)
	for _, p := range flow.Downstream {
		rp.Feed(p)
	}
	return rp.Finish(), rp.Malformed()
}

// Feed
// consumes one downstream segment
func (rp *responseParserImpl) Feed(packet entities.CapturedPacket) {
	data := packet.Payload
	if len(data) == 0 {
		return
	}
	// a segment opening with a status line starts a new message
	if opensStatusLine(data) {
		switch rp.state {
		case respFixedBody, respChunked:
			log.Debugf("flow %s: response %d abandoned by a new status line", rp.flowName, rp.current.Ack)
			rp.abandon()
		case respAwaitingStatus:
			rp.lines.Reset()
		}
	}
	for len(data) > 0 {
		switch rp.state {
		case respFixedBody:
			n := int64(len(data))
			if n > rp.remaining {
				n = rp.remaining
			}
			if rp.retainBody {
				rp.current.Body = append(rp.current.Body, data[:n]...)
			}
			rp.remaining -= n
			data = data[n:]
			if rp.remaining == 0 {
				rp.current.BodyLength = rp.contentLength
				rp.complete()
			}
		case respChunked:
			consumed, err := rp.chunks.Feed(data)
			data = data[consumed:]
			if err != nil {
				rp.dropMalformed("chunk size", err.Error())
				continue
			}
			if rp.chunks.Done() {
				rp.current.BodyLength = rp.chunks.Total()
				if rp.retainBody {
					rp.current.Body = rp.chunks.Body()
				}
				rp.complete()
			}
		default:
			line, consumed, ok := rp.lines.Next(data)
			data = data[consumed:]
			if ok {
				rp.onLine(string(line), packet)
			}
		}
	}
}

// opensStatusLine
// the segment starts with the protocol token followed by a space, case-insensitive
func opensStatusLine(data []byte) bool {
	n := len(statusLinePrefix)
	return len(data) > n && data[n] == ' ' && bytes.EqualFold(data[:n], []byte(statusLinePrefix))
}

func (rp *responseParserImpl) onLine(line string, packet entities.CapturedPacket) {
	switch rp.state {
	case respAwaitingStatus:
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.EqualFold(fields[0], statusLinePrefix) {
			return
		}
		if len(fields) < 2 {
			rp.dropMalformed("status line", line)
			return
		}
		code, err := strconv.Atoi(fields[1])
		if err != nil || code < 0 {
			rp.dropMalformed("status code", fields[1])
			return
		}
		rp.current = entities.HttpResponse{
			Ack:        packet.Ack,
			Seconds:    packet.Seconds,
			Micros:     packet.Micros,
			StatusCode: code,
		}
		rp.contentLength = 0
		rp.state = respHeaders
	case respHeaders:
		if line == view.EmptyString {
			rp.startBody()
			return
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "content-length:"):
			value := strings.TrimSpace(line[len("content-length:"):])
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				rp.dropMalformed("content length", value)
				return
			}
			rp.contentLength = n
		case strings.HasPrefix(lower, "transfer-encoding:"):
			if strings.Contains(lower[len("transfer-encoding:"):], "chunked") {
				rp.current.Chunked = true
			}
		}
	}
}

// startBody
// the header block ended; chunked wins over a declared length
func (rp *responseParserImpl) startBody() {
	switch {
	case rp.current.Chunked:
		rp.chunks = NewChunkedDecoder(rp.retainBody)
		rp.state = respChunked
	case rp.contentLength > 0:
		rp.remaining = rp.contentLength
		rp.state = respFixedBody
	default:
		rp.current.BodyLength = 0
		rp.complete()
	}
}

func (rp *responseParserImpl) complete() {
	rp.current.Complete = true
	rp.responses = append(rp.responses, rp.current)
	rp.reset()
}

// abandon
// keeps an interrupted fixed-length response as incomplete, drops a chunked one
func (rp *responseParserImpl) abandon() {
	if rp.state == respFixedBody {
		rp.current.BodyLength = rp.contentLength
		rp.current.Complete = false
		rp.responses = append(rp.responses, rp.current)
	}
	rp.reset()
}

func (rp *responseParserImpl) dropMalformed(part, value string) {
	rp.malformed++
	log.Debug(exception.NewError(exception.MalformedHttp, exception.MalformedHttpMsg,
		map[string]interface{}{"part": part, "value": value, "flow": rp.flowName}).Error())
	rp.reset()
}

func (rp *responseParserImpl) reset() {
	rp.current = entities.HttpResponse{}
	rp.contentLength = 0
	rp.remaining = 0
	rp.chunks = nil
	rp.lines.Reset()
	rp.state = respAwaitingStatus
}

// Finish
// flushes an unfinished fixed-length response and returns all responses
func (rp *responseParserImpl) Finish() []entities.HttpResponse {
	if rp.state == respFixedBody || rp.state == respChunked {
		rp.abandon()
	}
	rp.reset()
	return rp.responses
}

func (rp *responseParserImpl) Malformed() int {
	return rp.malformed
}
