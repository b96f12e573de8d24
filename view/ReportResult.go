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

package view

type RequestStatus string
type ReportState int

const (
	ReportStateNone ReportState = iota
	ReportStateRunning
	ReportStateFailed
	ReportStateRejected
	ReportStateCompleted
)

const (
	RequestStatusNone      RequestStatus = "NONE"
	RequestStatusRunning   RequestStatus = "STARTED"
	RequestStatusFailed    RequestStatus = "FAILED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

// ReportResult
// outcome of a single requested report
type ReportResult struct {
	Report string        `json:"report,omitempty"`
	Status RequestStatus `json:"status,omitempty"`
	Id     string        `json:"id,omitempty"`
	Bytes  int64         `json:"bytes,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// converts int state to text
func ReportStateToReqStatus(state ReportState) RequestStatus {
	switch state {
	case ReportStateRunning:
		return RequestStatusRunning
	case ReportStateFailed:
		return RequestStatusFailed
	case ReportStateRejected:
		return RequestStatusRejected
	case ReportStateCompleted:
		return RequestStatusCompleted
	default:
		break
	}
	return RequestStatusNone
}
