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
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

// capture file magics as read little-endian
const (
	magicMicros        = uint32(0xA1B2C3D4)
	magicNanos         = uint32(0xA1B23C4D)
	magicMicrosSwapped = uint32(0xD4C3B2A1)
	magicNanosSwapped  = uint32(0x4D3CB2A1)
)

// pcapFileHeader
// file starting header
type pcapFileHeader struct {
	Magic     uint32 // file type magic
	VerMajor  int16  // major version, 2 for now
	VerMinor  int16  // minor version 4 for now
	Reserved1 int32  // reserved, always 0
	Reserved2 int32  // reserved, always 0
	SnapLen   int32  // snapshot length (maximum stored packet size)
	LinkType  int16  // link layer type, 1 (LINK_TYPE_ETHERNET) for this
	Fcs       int16  // FCS len [0:3], R[4], P[5], reserved [6:15]
}

// pcapRecordHeader
// packet starting header
type pcapRecordHeader struct {
	Seconds   uint32 // timestamp.seconds
	Fractions uint32 // timestamp.fractions (microseconds or nanoseconds)
	CapLen    uint32 // captured packet length
	OrigLen   uint32 // original packet length
}

// Record
// one capture record; Data shares memory with the buffer
type Record struct {
	Index          int
	Offset         int // offset of the record header
	Seconds        uint32
	Micros         uint32
	CapturedLength uint32
	OriginalLength uint32
	Data           []byte
}

// CaptureBuffer
// a whole capture held in memory and owned by one analysis run
type CaptureBuffer struct {
	data      []byte
	byteOrder binary.ByteOrder
	nanos     bool
	header    pcapFileHeader
}

// ReadCapture
// reads the whole capture, rejecting input bigger than maxSize
func ReadCapture(r io.Reader, maxSize int64) (*CaptureBuffer, error) {
	if maxSize <= 0 {
		maxSize = view.DefaultMaxCaptureSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, exception.NewFatalError(exception.UnableToReadCapture, exception.UnableToReadCaptureMsg,
			map[string]interface{}{"error": err}).Wrap(err)
	}
	if int64(len(data)) > maxSize {
		return nil, exception.NewFatalError(exception.InputTooLarge, exception.InputTooLargeMsg,
			map[string]interface{}{"limit": maxSize})
	}
	return NewCaptureBuffer(data)
}

// NewCaptureBuffer
// takes ownership of data and validates the global header
func NewCaptureBuffer(data []byte) (*CaptureBuffer, error) {
	cb := &CaptureBuffer{data: data, byteOrder: binary.LittleEndian}
	if len(data) == 0 {
		return cb, nil
	}
	if len(data) < view.PcapGlobalHeaderSize {
		return nil, truncatedError(0, view.PcapGlobalHeaderSize, len(data))
	}
	switch binary.LittleEndian.Uint32(data[0:4]) {
	case magicMicros:
	case magicNanos:
		cb.nanos = true
	case magicMicrosSwapped:
		cb.byteOrder = binary.BigEndian
	case magicNanosSwapped:
		cb.byteOrder = binary.BigEndian
		cb.nanos = true
	default:
		log.Warnf("unknown capture magic %x, assuming little-endian records", data[0:4])
	}
	err := binary.Read(bytes.NewReader(data[:view.PcapGlobalHeaderSize]), cb.byteOrder, &cb.header)
	if err != nil {
		return nil, err
	}
	log.Debugf("capture: %d byte(s), version %d.%d, snaplen %d, link type %d",
		len(data), cb.header.VerMajor, cb.header.VerMinor, cb.header.SnapLen, cb.header.LinkType)
	return cb, nil
}

// Size
// capture size in bytes
func (cb *CaptureBuffer) Size() int {
	return len(cb.data)
}

// LinkType
// link layer type from the global header
func (cb *CaptureBuffer) LinkType() int {
	return int(cb.header.LinkType)
}

// Bytes
// the raw capture
func (cb *CaptureBuffer) Bytes() []byte {
	return cb.data
}

// ForEachRecord
// walks records in file order advancing by the original length;
// stops at the first record which would read past the buffer end
func (cb *CaptureBuffer) ForEachRecord(ctx context.Context, fn func(Record) error) (int, error) {
	if len(cb.data) == 0 {
		return 0, nil
	}
	offset := view.PcapGlobalHeaderSize
	count := 0
	for offset < len(cb.data) {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return count, err
			}
		}
		if offset+view.PcapRecordHeaderSize > len(cb.data) {
			return count, truncatedError(offset, view.PcapRecordHeaderSize, len(cb.data)-offset)
		}
		var rh pcapRecordHeader
		hdr := cb.data[offset : offset+view.PcapRecordHeaderSize]
		rh.Seconds = cb.byteOrder.Uint32(hdr[0:4])
		rh.Fractions = cb.byteOrder.Uint32(hdr[4:8])
		rh.CapLen = cb.byteOrder.Uint32(hdr[8:12])
		rh.OrigLen = cb.byteOrder.Uint32(hdr[12:16])
		start := offset + view.PcapRecordHeaderSize
		if uint64(rh.OrigLen) > uint64(len(cb.data)-start) {
			return count, truncatedError(offset, int(rh.OrigLen), len(cb.data)-start)
		}
		if rh.CapLen != rh.OrigLen {
			log.Debugf("record %d: captured length %d differs from original %d", count, rh.CapLen, rh.OrigLen)
		}
		micros := rh.Fractions
		if cb.nanos {
			micros /= 1000
		}
		end := start + int(rh.OrigLen)
		rec := Record{
			Index:          count,
			Offset:         offset,
			Seconds:        rh.Seconds,
			Micros:         micros,
			CapturedLength: rh.CapLen,
			OriginalLength: rh.OrigLen,
			Data:           cb.data[start:end:end],
		}
		count++
		if err := fn(rec); err != nil {
			return count, err
		}
		offset = end
	}
	return count, nil
}

func truncatedError(offset, length, available int) error {
	return exception.NewFatalError(exception.TruncatedRecord, exception.TruncatedRecordMsg,
		map[string]interface{}{"offset": offset, "length": length, "available": available})
}
