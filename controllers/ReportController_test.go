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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Netcracker/qubership-apihub-http-forensics/services/report"
	"github.com/Netcracker/qubership-apihub-http-forensics/test_utils"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/resty.v1"
)

func imageCapture() []byte {
	conv := test_utils.NewConversation("10.1.1.1", 3333, "10.1.1.2", 10, 20)
	return test_utils.MustBuildCapture(
		conv.ClientSends("GET /logo.png HTTP/1.1\r\nHost: h\r\n\r\n"),
		conv.ServerSends("HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nPNG!"),
	)
}

func startServer(t *testing.T, maxSize int64) string {
	ws := NewWebService(maxSize, report.NewRegistry)
	srv := httptest.NewServer(NewRouter(ws))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestReports(t *testing.T) {
	url := startServer(t, 0)
	client := resty.New()

	resp, err := client.R().SetBody(imageCapture()).Post(url + ReportsPath + "/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "2 2 2 0 1\n", string(resp.Body()))
	assert.NotEmpty(t, resp.Header().Get(HttpRunId))

	resp, err = client.R().SetBody(imageCapture()).Post(url + ReportsPath + "/transactions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "/logo.png h 200 4\n", string(resp.Body()))

	resp, err = client.R().SetBody(imageCapture()).Post(url + ReportsPath + "/4")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, contentBinary, resp.Header().Get(HttpContentType))
	assert.Equal(t, "PNG!", string(resp.Body()))
}

func TestReportErrors(t *testing.T) {
	url := startServer(t, 0)
	client := resty.New()

	resp, err := client.R().SetBody(imageCapture()).Post(url + ReportsPath + "/7")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	result := view.ReportResult{}
	require.NoError(t, json.Unmarshal(resp.Body(), &result))
	assert.Equal(t, view.RequestStatusRejected, result.Status)
	assert.Equal(t, "7", result.Report)

	data := imageCapture()
	resp, err = client.R().SetBody(data[:len(data)-3]).Post(url + ReportsPath + "/3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
	assert.Equal(t, contentJson, resp.Header().Get(HttpContentType))

	small := startServer(t, 30)
	resp, err = client.R().SetBody(imageCapture()).Post(small + ReportsPath + "/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode())
}

func TestStatusAndList(t *testing.T) {
	url := startServer(t, 0)
	client := resty.New()

	resp, err := client.R().Get(url + "/live")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client.R().Get(url + ReportsPath)
	require.NoError(t, err)
	var list []view.ReportResult
	require.NoError(t, json.Unmarshal(resp.Body(), &list))
	require.Len(t, list, 4)
	assert.Equal(t, "counters", list[0].Report)
	assert.Equal(t, "4", list[3].Id)
}
