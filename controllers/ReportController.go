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

package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/report"
	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	HttpContentType  = "Content-Type"
	HttpRunId        = "X-Run-Id"
	ReportsPath      = "/api/v1/reports"
	ReportPath       = ReportsPath + "/{" + reportVar + "}"
	reportVar        = "report"
	contentJson      = "application/json"
	contentText      = "text/plain; charset=utf-8"
	contentBinary    = "application/octet-stream"
	requestBodyError = "unable to close request body. error: %v"
)

// RegistryFactory
// builds the report registry for one run
type RegistryFactory func(runId string) *report.Registry

// Service
// an interface to controller
type Service interface {
	OnReport(w http.ResponseWriter, r *http.Request)
	OnReportList(w http.ResponseWriter, r *http.Request)
	OnStatus(w http.ResponseWriter, r *http.Request)
}

type webService struct {
	maxCaptureSize int64
	registries     RegistryFactory
}

// NewWebService
// creates a new web interface instance
func NewWebService(maxCaptureSize int64, registries RegistryFactory) Service {
	return &webService{maxCaptureSize: maxCaptureSize, registries: registries}
}

// NewRouter
// routes the service handlers
func NewRouter(ws Service) *mux.Router {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.UseEncodedPath()
	r.HandleFunc(ReportsPath, ws.OnReportList).Methods(http.MethodGet)
	r.HandleFunc(ReportPath, ws.OnReport).Methods(http.MethodPost)
	r.HandleFunc("/live", ws.OnStatus).Methods(http.MethodGet)
	r.HandleFunc("/ready", ws.OnStatus).Methods(http.MethodGet)
	return r
}

func RespondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set(HttpContentType, contentJson)
	w.WriteHeader(code)
	write, err := w.Write(response)
	if err != nil {
		log.Debugf("%d response bytes written with error: %v", write, err)
	}
}

// errorStatus
// http status for a failed run
func errorStatus(err error) int {
	var fe *exception.ForensicsError
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError
	}
	switch fe.Code {
	case exception.InputTooLarge:
		return http.StatusRequestEntityTooLarge
	case exception.TruncatedRecord, exception.UnableToReadCapture:
		return http.StatusUnprocessableEntity
	case exception.UnrecognizedArgument:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func RespondWithError(w http.ResponseWriter, result view.ReportResult, err error) {
	code := errorStatus(err)
	state := view.ReportStateFailed
	if code < http.StatusInternalServerError {
		state = view.ReportStateRejected
	}
	result.Status = view.ReportStateToReqStatus(state)
	result.Error = err.Error()
	log.Debugf("report %s request failed. Code = %d. Error: %v", result.Report, code, err)
	RespondWithJson(w, code, result)
}

// OnReport
// runs one report over the capture sent as the request body
func (ws *webService) OnReport(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Debugf(requestBodyError, err)
		}
	}()
	runId := utils.MakeUniqueId()
	result := view.ReportResult{Report: mux.Vars(r)[reportVar], Id: runId}
	registry := ws.registries(runId)
	generator, err := registry.Generator(result.Report)
	if err != nil {
		RespondWithError(w, result, err)
		return
	}
	result.Report = generator.Name()
	cb, err := capture.ReadCapture(r.Body, ws.maxCaptureSize)
	if err != nil {
		RespondWithError(w, result, err)
		return
	}
	out := bytes.Buffer{}
	err = utils.SafeRunErr(func() error {
		return generator.Generate(r.Context(), cb, &out)
	})
	if err != nil {
		RespondWithError(w, result, err)
		return
	}
	contentType := contentText
	if generator.Id() == report.ImageExtractReport {
		contentType = contentBinary
	}
	w.Header().Set(HttpContentType, contentType)
	w.Header().Set(HttpRunId, runId)
	w.WriteHeader(http.StatusOK)
	written, err := out.WriteTo(w)
	if err != nil {
		log.Debugf("run %s: %d report bytes written with error: %v", runId, written, err)
		return
	}
	log.Infof("run %s: report %s, %d byte(s) of capture, %d byte(s) sent", runId, result.Report, cb.Size(), written)
}

// OnReportList
// names of the available reports
func (ws *webService) OnReportList(w http.ResponseWriter, r *http.Request) {
	var names []view.ReportResult
	registry := ws.registries(view.EmptyString)
	for _, id := range report.AllReports {
		g := registry.GeneratorById(id)
		names = append(names, view.ReportResult{Report: g.Name(), Id: strconv.Itoa(int(g.Id()))})
	}
	RespondWithJson(w, http.StatusOK, names)
}

// OnStatus
// liveness and readiness
func (ws *webService) OnStatus(w http.ResponseWriter, r *http.Request) {
	RespondWithJson(w, http.StatusOK, view.ReportResult{Status: view.ReportStateToReqStatus(view.ReportStateRunning)})
}
