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
	"fmt"
	"strings"
)

// HttpRequest
// request half of a transaction
type HttpRequest struct {
	Seq     uint32
	Ack     uint32
	Seconds uint32
	Micros  uint32
	Method  string
	Url     string
	Host    string
	Key     uint32 // Seq + payload length of the packet completing the request
}

// HttpResponse
// response half of a transaction, keyed by Ack of the status line packet
type HttpResponse struct {
	Ack        uint32
	Seconds    uint32
	Micros     uint32
	StatusCode int
	BodyLength int64
	Body       []byte
	Chunked    bool
	Complete   bool
}

// HttpTransaction
// request joined to its response
type HttpTransaction struct {
	Flow     ConnectionKey
	Request  HttpRequest
	Response HttpResponse
}

// LogLine
// "url host status length" with url and host lowercased
func (t HttpTransaction) LogLine() string {
	return fmt.Sprintf("%s %s %d %d",
		strings.ToLower(t.Request.Url),
		strings.ToLower(t.Request.Host),
		t.Response.StatusCode,
		t.Response.BodyLength)
}

// TransactionRecord
// serialisable form of a transaction for external sinks
type TransactionRecord struct {
	RunId      string `json:"run_id,omitempty"`
	Client     string `json:"client"`
	Server     string `json:"server"`
	Seconds    uint32 `json:"seconds"`
	Micros     uint32 `json:"micros"`
	Method     string `json:"method"`
	Url        string `json:"url"`
	Host       string `json:"host"`
	StatusCode int    `json:"status_code"`
	BodyLength int64  `json:"body_length"`
	Chunked    bool   `json:"chunked,omitempty"`
}

// MakeTransactionRecord
// flattens a transaction
func MakeTransactionRecord(runId string, t HttpTransaction) TransactionRecord {
	return TransactionRecord{
		RunId:      runId,
		Client:     t.Flow.Source.String(),
		Server:     t.Flow.Destination.String(),
		Seconds:    t.Request.Seconds,
		Micros:     t.Request.Micros,
		Method:     t.Request.Method,
		Url:        t.Request.Url,
		Host:       t.Request.Host,
		StatusCode: t.Response.StatusCode,
		BodyLength: t.Response.BodyLength,
		Chunked:    t.Response.Chunked,
	}
}
