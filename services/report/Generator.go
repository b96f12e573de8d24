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
	"strings"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	log "github.com/sirupsen/logrus"
)

type ReportId int

const (
	CountersReport       ReportId = 1
	FlowDumpReport       ReportId = 2
	TransactionLogReport ReportId = 3
	ImageExtractReport   ReportId = 4
)

// AllReports
// in argument order
var AllReports = []ReportId{CountersReport, FlowDumpReport, TransactionLogReport, ImageExtractReport}

var reportNames = map[ReportId]string{
	CountersReport:       "counters",
	FlowDumpReport:       "flows",
	TransactionLogReport: "transactions",
	ImageExtractReport:   "images",
}

var reportArgs = map[string]ReportId{
	"1":            CountersReport,
	"2":            FlowDumpReport,
	"3":            TransactionLogReport,
	"4":            ImageExtractReport,
	"counters":     CountersReport,
	"flows":        FlowDumpReport,
	"transactions": TransactionLogReport,
	"images":       ImageExtractReport,
}

func (id ReportId) String() string {
	return reportNames[id]
}

// ParseReportId
// accepts report numbers and names
func ParseReportId(arg string) (ReportId, error) {
	id, found := reportArgs[strings.ToLower(strings.TrimSpace(arg))]
	if !found {
		return 0, exception.NewError(exception.UnrecognizedArgument, exception.UnrecognizedArgumentMsg,
			map[string]interface{}{"report": arg})
	}
	return id, nil
}

// Generator
// produces one report from a capture
type Generator interface {
	Id() ReportId
	Name() string
	Generate(ctx context.Context, cb *capture.CaptureBuffer, w io.Writer) error
}

// TransactionSink
// receives correlated transactions once a report is built
type TransactionSink interface {
	StoreTransactions(ctx context.Context, runId string, txs []entities.HttpTransaction) error
}

// ImageSink
// receives transactions carrying extracted image bodies
type ImageSink interface {
	ExportImages(ctx context.Context, runId string, txs []entities.HttpTransaction) error
}

// FlowSink
// receives the HTTP flows of a flow dump
type FlowSink interface {
	ExportFlows(ctx context.Context, runId string, flows []*entities.TcpFlow) error
}

// Registry
// builds generators wired to the configured sinks
type Registry struct {
	RunId            string
	TransactionSinks []TransactionSink
	ImageSinks       []ImageSink
	FlowSinks        []FlowSink
}

// NewRegistry
// registry without sinks
func NewRegistry(runId string) *Registry {
	return &Registry{RunId: runId}
}

func (r *Registry) AddTransactionSink(sink TransactionSink) {
	r.TransactionSinks = append(r.TransactionSinks, sink)
}

func (r *Registry) AddImageSink(sink ImageSink) {
	r.ImageSinks = append(r.ImageSinks, sink)
}

func (r *Registry) AddFlowSink(sink FlowSink) {
	r.FlowSinks = append(r.FlowSinks, sink)
}

// Generator
// generator for the argument, UnrecognizedArgument for unknown ones
func (r *Registry) Generator(arg string) (Generator, error) {
	id, err := ParseReportId(arg)
	if err != nil {
		return nil, err
	}
	return r.GeneratorById(id), nil
}

func (r *Registry) GeneratorById(id ReportId) Generator {
	switch id {
	case CountersReport:
		return &countersGenerator{}
	case FlowDumpReport:
		return &flowDumpGenerator{registry: r}
	case TransactionLogReport:
		return &transactionLogGenerator{registry: r}
	case ImageExtractReport:
		return &imageExtractGenerator{registry: r}
	}
	return nil
}

// emit
// writes a fully built report
func emit(id ReportId, buf *bytes.Buffer, w io.Writer) error {
	if _, err := buf.WriteTo(w); err != nil {
		return exception.NewError(exception.UnableToWriteReport, exception.UnableToWriteReportMsg,
			map[string]interface{}{"report": id.String(), "error": err}).Wrap(err)
	}
	return nil
}

// feedTransactionSinks
// sink failures are logged and never fail the report
func (r *Registry) feedTransactionSinks(ctx context.Context, txs []entities.HttpTransaction) {
	for _, sink := range r.TransactionSinks {
		s := sink
		if err := utils.SafeRunErr(func() error { return s.StoreTransactions(ctx, r.RunId, txs) }); err != nil {
			log.Errorf("run %s: failed to store transactions: %v", r.RunId, err)
		}
	}
}

func (r *Registry) feedImageSinks(ctx context.Context, txs []entities.HttpTransaction) {
	for _, sink := range r.ImageSinks {
		s := sink
		if err := utils.SafeRunErr(func() error { return s.ExportImages(ctx, r.RunId, txs) }); err != nil {
			log.Errorf("run %s: failed to export images: %v", r.RunId, err)
		}
	}
}

func (r *Registry) feedFlowSinks(ctx context.Context, flows []*entities.TcpFlow) {
	for _, sink := range r.FlowSinks {
		s := sink
		if err := utils.SafeRunErr(func() error { return s.ExportFlows(ctx, r.RunId, flows) }); err != nil {
			log.Errorf("run %s: failed to export flows: %v", r.RunId, err)
		}
	}
}
