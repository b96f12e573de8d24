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

package report

import (
	"context"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/correlator"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/decoder"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/flow_table"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/http_parser"
	log "github.com/sirupsen/logrus"
)

// Analysis
// result of one pass over a capture
type Analysis struct {
	Counters entities.TrafficCounters
	Flows    flow_table.FlowTable
}

// Analyze
// decodes every record and builds the flow table.
// httpOnly skips flows without the HTTP port; connections are still counted.
func Analyze(ctx context.Context, cb *capture.CaptureBuffer, httpOnly bool) (*Analysis, error) {
	fd := decoder.NewFrameDecoder()
	ft := flow_table.NewFlowTable()
	connections := make(map[entities.ConnectionKey]struct{})
	counters := entities.TrafficCounters{}
	total, err := cb.ForEachRecord(ctx, func(rec capture.Record) error {
		frame := fd.Decode(rec)
		if !frame.IsIPv4() {
			counters.NonIpPackets++
			return nil
		}
		counters.IpPackets++
		switch frame.Kind {
		case decoder.KindIPv4UDP:
			counters.UdpPackets++
			return nil
		case decoder.KindIPv4TCP:
			counters.TcpPackets++
		default:
			return nil
		}
		if !frame.Decoded {
			return nil
		}
		key := ft.Classify(frame)
		connections[key.Canonical()] = struct{}{}
		if httpOnly && !flow_table.IsHttp(key) {
			return nil
		}
		flow := ft.LookupOrCreate(key)
		ft.AppendPayload(flow, key, frame.Packet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	counters.TotalPackets = total
	counters.DistinctTcpConnections = len(connections)
	counters.DecodeFailures = fd.Failures()
	if len(counters.DecodeFailures) > 0 {
		log.Debugf("decode failures: %v", counters.DecodeFailures)
	}
	return &Analysis{Counters: counters, Flows: ft}, nil
}

// HttpFlows
// flows with the HTTP port in creation order
func (a *Analysis) HttpFlows() []*entities.TcpFlow {
	var result []*entities.TcpFlow
	for _, flow := range a.Flows.Flows() {
		if flow_table.IsHttp(flow.Key) {
			result = append(result, flow)
		}
	}
	return result
}

// TransactionOptions
// parameters of request/response extraction
type TransactionOptions struct {
	Filter       http_parser.UrlFilter
	RetainBody   bool
	CompleteOnly bool
}

// Transactions
// parses HTTP flows and correlates their messages in capture time order
func (a *Analysis) Transactions(opts TransactionOptions) []entities.HttpTransaction {
	c := correlator.NewCorrelator(opts.CompleteOnly)
	malformed := 0
	for _, flow := range a.HttpFlows() {
		requests := http_parser.ParseRequests(flow, opts.Filter)
		if len(requests) == 0 {
			continue
		}
		responses, m := http_parser.ParseResponses(flow, opts.RetainBody)
		malformed += m
		c.AddFlow(flow.Oriented(), requests, responses)
	}
	if malformed > 0 {
		log.Debugf("%d malformed response(s) dropped", malformed)
	}
	return c.Transactions()
}
