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

package exception

const EmptyParameter = "8"
const EmptyParameterMsg = "Parameter $param should not be empty"

const RequiredParamsMissing = "15"
const RequiredParamsMissingMsg = "Required parameters are missing: $params"

const InputTooLarge = "30000"
const InputTooLargeMsg = "capture exceeds the maximum accepted size of $limit bytes"
const TruncatedRecord = "30001"
const TruncatedRecordMsg = "record at offset $offset declares $length byte(s) but only $available available"
const UnrecognizedArgument = "30002"
const UnrecognizedArgumentMsg = "unrecognized report '$report', expected one of 1, 2, 3, 4"
const MalformedHttp = "30003"
const MalformedHttpMsg = "malformed HTTP $part '$value' in flow $flow"
const UnableToReadCapture = "30004"
const UnableToReadCaptureMsg = "unable to read capture: $error"
const UnableToWriteReport = "30005"
const UnableToWriteReportMsg = "unable to write report $report: $error"

// process exit codes
const (
	ExitOk                   = 0
	ExitInternalError        = 1
	ExitUsage                = 2
	ExitInputTooLarge        = 3
	ExitMalformedCapture     = 4
	ExitUnrecognizedArgument = 5
)
