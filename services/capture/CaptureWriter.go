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

package capture

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Netcracker/qubership-apihub-http-forensics/view"
)

const fileWriteErr = "unable to write %s header. Error: %w"

// CaptureWriter
// writes little-endian microsecond pcap files
type CaptureWriter struct {
	w        io.Writer
	snapLen  int
	records  int
	dataSize int64
}

// NewCaptureWriter
// writes the file header and returns a writer for records
func NewCaptureWriter(w io.Writer, snapLen int) (*CaptureWriter, error) {
	if snapLen <= 0 {
		snapLen = view.DefaultSnapLenBytes
	}
	fileHeader := pcapFileHeader{
		Magic:     magicMicros,
		VerMajor:  2,
		VerMinor:  4,
		Reserved1: 0, // gmt to local correction; this is always 0
		Reserved2: 0, // accuracy of timestamps; this is always 0
		SnapLen:   int32(snapLen),
		LinkType:  1, // ethernet
		Fcs:       0,
	}
	if err := binary.Write(w, binary.LittleEndian, &fileHeader); err != nil {
		return nil, fmt.Errorf(fileWriteErr, "file", err)
	}
	return &CaptureWriter{w: w, snapLen: snapLen, dataSize: int64(binary.Size(fileHeader))}, nil
}

// WriteRecord
// appends one frame
func (cw *CaptureWriter) WriteRecord(seconds, micros uint32, frame []byte) error {
	ph := pcapRecordHeader{
		Seconds:   seconds,
		Fractions: micros,
		CapLen:    uint32(len(frame)),
		OrigLen:   uint32(len(frame)),
	}
	if err := binary.Write(cw.w, binary.LittleEndian, &ph); err != nil {
		return fmt.Errorf(fileWriteErr, "packet", err)
	}
	if _, err := cw.w.Write(frame); err != nil {
		return fmt.Errorf("unable to write bytes for packet %d. Error: %w", cw.records, err)
	}
	cw.records++
	cw.dataSize += int64(binary.Size(ph)) + int64(len(frame))
	return nil
}

// Records
// number of written records
func (cw *CaptureWriter) Records() int {
	return cw.records
}

// Size
// bytes written so far
func (cw *CaptureWriter) Size() int64 {
	return cw.dataSize
}
