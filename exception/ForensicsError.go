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

import (
	"errors"
	"fmt"
	"strings"
)

// ForensicsError
// coded error with a message template
type ForensicsError struct {
	Code    string
	Message string
	Params  map[string]interface{}
	Fatal   bool
	Err     error
}

// NewError
// creates a non-fatal error for the code and message template
func NewError(code, message string, params map[string]interface{}) *ForensicsError {
	return &ForensicsError{Code: code, Message: message, Params: params}
}

// NewFatalError
// creates an error which aborts the current run
func NewFatalError(code, message string, params map[string]interface{}) *ForensicsError {
	return &ForensicsError{Code: code, Message: message, Params: params, Fatal: true}
}

// Wrap
// attaches a cause
func (e *ForensicsError) Wrap(err error) *ForensicsError {
	e.Err = err
	return e
}

func (e *ForensicsError) Error() string {
	msg := e.Message
	for k, v := range e.Params {
		msg = strings.ReplaceAll(msg, "$"+k, fmt.Sprint(v))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Code)
}

func (e *ForensicsError) Unwrap() error {
	return e.Err
}

// Is
// errors with equal codes match
func (e *ForensicsError) Is(target error) bool {
	var t *ForensicsError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// HasCode
// reports whether err carries the code
func HasCode(err error, code string) bool {
	var fe *ForensicsError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// ExitCode
// maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOk
	}
	var fe *ForensicsError
	if !errors.As(err, &fe) {
		return ExitInternalError
	}
	switch fe.Code {
	case InputTooLarge:
		return ExitInputTooLarge
	case TruncatedRecord, UnableToReadCapture:
		return ExitMalformedCapture
	case UnrecognizedArgument:
		return ExitUnrecognizedArgument
	case EmptyParameter, RequiredParamsMissing:
		return ExitUsage
	}
	return ExitInternalError
}

// MostSevereExitCode
// picks the exit code to report for several outcomes
func MostSevereExitCode(codes ...int) int {
	rank := func(c int) int {
		switch c {
		case ExitOk:
			return 0
		case ExitUnrecognizedArgument:
			return 1
		case ExitUsage:
			return 2
		case ExitMalformedCapture:
			return 3
		case ExitInputTooLarge:
			return 4
		}
		return 5
	}
	result := ExitOk
	for _, c := range codes {
		if rank(c) > rank(result) {
			result = c
		}
	}
	return result
}
