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

	log "github.com/sirupsen/logrus"
)

// MaxLineLength longer lines are dropped
const MaxLineLength = 64 * 1024

// LineAssembler
// rebuilds CRLF terminated lines across packet boundaries
type LineAssembler struct {
	buf      []byte
	overflow bool
}

// Next
// extracts the next complete line from data.
// Returns the line without its terminator, the number of bytes consumed and
// whether a line was completed. Incomplete tails are kept for the next call,
// overlong lines are consumed without being returned.
func (la *LineAssembler) Next(data []byte) ([]byte, int, bool) {
	j := bytes.IndexByte(data, '\n')
	if j < 0 {
		la.keep(data)
		return nil, len(data), false
	}
	var line []byte
	if len(la.buf) > 0 {
		la.keep(data[:j])
		line = la.buf
		la.buf = nil
	} else {
		line = data[:j]
	}
	if la.overflow {
		la.overflow = false
		log.Debugf("line longer than %d byte(s) dropped", MaxLineLength)
		return nil, j + 1, false
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, j + 1, true
}

func (la *LineAssembler) keep(data []byte) {
	if la.overflow {
		return
	}
	if len(la.buf)+len(data) > MaxLineLength {
		la.overflow = true
		la.buf = la.buf[:0]
		return
	}
	la.buf = append(la.buf, data...)
}

// Pending
// true when a partial line is buffered
func (la *LineAssembler) Pending() bool {
	return len(la.buf) > 0 || la.overflow
}

// Reset
// drops a partial line
func (la *LineAssembler) Reset() {
	la.buf = nil
	la.overflow = false
}
