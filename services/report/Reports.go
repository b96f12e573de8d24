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
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/http_parser"
	log "github.com/sirupsen/logrus"
)

// countersGenerator
// "total ip tcp udp conns"
type countersGenerator struct{}

func (g *countersGenerator) Id() ReportId {
	return CountersReport
}

func (g *countersGenerator) Name() string {
	return CountersReport.String()
}

func (g *countersGenerator) Generate(ctx context.Context, cb *capture.CaptureBuffer, w io.Writer) error {
	analysis, err := Analyze(ctx, cb, false)
	if err != nil {
		return err
	}
	buf := bytes.Buffer{}
	buf.WriteString(analysis.Counters.String())
	buf.WriteByte('\n')
	return emit(g.Id(), &buf, w)
}

// flowDumpGenerator
// HTTP flow summaries sorted by text, then the payload of each flow
type flowDumpGenerator struct {
	registry *Registry
}

func (g *flowDumpGenerator) Id() ReportId {
	return FlowDumpReport
}

func (g *flowDumpGenerator) Name() string {
	return FlowDumpReport.String()
}

func (g *flowDumpGenerator) Generate(ctx context.Context, cb *capture.CaptureBuffer, w io.Writer) error {
	analysis, err := Analyze(ctx, cb, true)
	if err != nil {
		return err
	}
	flows := analysis.HttpFlows()
	summaries := make(map[*entities.TcpFlow]string, len(flows))
	for _, flow := range flows {
		summaries[flow] = flow.Summary()
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return summaries[flows[i]] < summaries[flows[j]]
	})
	buf := bytes.Buffer{}
	for _, flow := range flows {
		buf.WriteString(summaries[flow])
		buf.WriteByte('\n')
	}
	for _, flow := range flows {
		for _, p := range flow.Upstream {
			buf.Write(p.Payload)
		}
		for _, p := range flow.Downstream {
			buf.Write(p.Payload)
		}
	}
	if err := emit(g.Id(), &buf, w); err != nil {
		return err
	}
	g.registry.feedFlowSinks(ctx, flows)
	return nil
}

// transactionLogGenerator
// "url host status length" per transaction in capture time order
type transactionLogGenerator struct {
	registry *Registry
}

func (g *transactionLogGenerator) Id() ReportId {
	return TransactionLogReport
}

func (g *transactionLogGenerator) Name() string {
	return TransactionLogReport.String()
}

func (g *transactionLogGenerator) Generate(ctx context.Context, cb *capture.CaptureBuffer, w io.Writer) error {
	analysis, err := Analyze(ctx, cb, true)
	if err != nil {
		return err
	}
	txs := analysis.Transactions(TransactionOptions{})
	buf := bytes.Buffer{}
	for _, tx := range txs {
		buf.WriteString(tx.LogLine())
		buf.WriteByte('\n')
	}
	if err := emit(g.Id(), &buf, w); err != nil {
		return err
	}
	log.Debugf("run %s: %d transaction(s) logged", g.registry.RunId, len(txs))
	g.registry.feedTransactionSinks(ctx, txs)
	return nil
}

// imageExtractGenerator
// raw bodies of complete image responses in capture time order
type imageExtractGenerator struct {
	registry *Registry
}

func (g *imageExtractGenerator) Id() ReportId {
	return ImageExtractReport
}

func (g *imageExtractGenerator) Name() string {
	return ImageExtractReport.String()
}

func (g *imageExtractGenerator) Generate(ctx context.Context, cb *capture.CaptureBuffer, w io.Writer) error {
	analysis, err := Analyze(ctx, cb, true)
	if err != nil {
		return err
	}
	txs := analysis.Transactions(TransactionOptions{
		Filter:       http_parser.HasImageSuffix,
		RetainBody:   true,
		CompleteOnly: true,
	})
	buf := bytes.Buffer{}
	for _, tx := range txs {
		buf.Write(tx.Response.Body)
	}
	if err := emit(g.Id(), &buf, w); err != nil {
		return err
	}
	log.Debugf("run %s: %d image(s) extracted", g.registry.RunId, len(txs))
	g.registry.feedTransactionSinks(ctx, txs)
	g.registry.feedImageSinks(ctx, txs)
	return nil
}
