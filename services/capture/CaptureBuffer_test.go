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
	"testing"

	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/test_utils"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCapture(t *testing.T) []byte {
	conv := test_utils.NewConversation("10.0.0.2", 40000, "10.0.0.1", 100, 500)
	data, err := test_utils.BuildCapture(
		conv.ClientSends("GET / HTTP/1.1\r\n\r\n"),
		conv.ServerSends("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
		test_utils.PacketSpec{NonIP: true},
	)
	require.NoError(t, err)
	return data
}

func TestReadCaptureCountsRecords(t *testing.T) {
	data := sampleCapture(t)
	cb, err := ReadCapture(bytes.NewReader(data), 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), cb.Size())
	assert.Equal(t, 1, cb.LinkType())
	var lengths []int
	n, err := cb.ForEachRecord(context.Background(), func(r Record) error {
		lengths = append(lengths, len(r.Data))
		assert.Equal(t, r.CapturedLength, r.OriginalLength)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	// consumed = global header + record headers + frames
	total := 24
	for _, l := range lengths {
		total += 16 + l
	}
	assert.Equal(t, len(data), total)
}

func TestReadCaptureTooLarge(t *testing.T) {
	data := sampleCapture(t)
	_, err := ReadCapture(bytes.NewReader(data), int64(len(data)-1))
	require.Error(t, err)
	assert.True(t, exception.HasCode(err, exception.InputTooLarge))
	cb, err := ReadCapture(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, len(data), cb.Size())
}

func TestEmptyCapture(t *testing.T) {
	cb, err := ReadCapture(bytes.NewReader(nil), 100)
	require.NoError(t, err)
	n, err := cb.ForEachRecord(context.Background(), func(Record) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestShortGlobalHeader(t *testing.T) {
	_, err := NewCaptureBuffer(make([]byte, 10))
	assert.True(t, exception.HasCode(err, exception.TruncatedRecord))
}

func TestTruncatedRecord(t *testing.T) {
	data := sampleCapture(t)
	cut := data[:len(data)-5]
	cb, err := NewCaptureBuffer(cut)
	require.NoError(t, err)
	n, err := cb.ForEachRecord(context.Background(), func(r Record) error {
		assert.LessOrEqual(t, r.Offset+16+len(r.Data), len(cut))
		return nil
	})
	assert.Equal(t, 2, n)
	assert.True(t, exception.HasCode(err, exception.TruncatedRecord))
	assert.Equal(t, exception.ExitMalformedCapture, exception.ExitCode(err))
}

func TestTruncatedRecordHeader(t *testing.T) {
	data := sampleCapture(t)
	withTail := append(append([]byte{}, data...), 1, 2, 3)
	cb, err := NewCaptureBuffer(withTail)
	require.NoError(t, err)
	n, err := cb.ForEachRecord(context.Background(), func(Record) error { return nil })
	assert.Equal(t, 3, n)
	assert.True(t, exception.HasCode(err, exception.TruncatedRecord))
}

func TestBigEndianCapture(t *testing.T) {
	frame := []byte{1, 2, 3, 4, 5}
	buf := bytes.Buffer{}
	hdr := pcapFileHeader{Magic: magicMicros, VerMajor: 2, VerMinor: 4, SnapLen: 65535, LinkType: 0, Fcs: 1}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, &hdr))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, &pcapRecordHeader{Seconds: 7, Fractions: 9, CapLen: 5, OrigLen: 5}))
	buf.Write(frame)
	cb, err := NewCaptureBuffer(buf.Bytes())
	require.NoError(t, err)
	var got Record
	n, err := cb.ForEachRecord(context.Background(), func(r Record) error {
		got = r
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(7), got.Seconds)
	assert.Equal(t, uint32(9), got.Micros)
	assert.Equal(t, frame, got.Data)
}

func TestCancelledIteration(t *testing.T) {
	cb, err := NewCaptureBuffer(sampleCapture(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := cb.ForEachRecord(ctx, func(Record) error { return nil })
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCaptureWriterReadable(t *testing.T) {
	buf := bytes.Buffer{}
	cw, err := NewCaptureWriter(&buf, 0)
	require.NoError(t, err)
	require.NoError(t, cw.WriteRecord(10, 100, []byte{0xde, 0xad}))
	require.NoError(t, cw.WriteRecord(10, 200, []byte{0xbe, 0xef, 0x00}))
	assert.Equal(t, 2, cw.Records())
	assert.Equal(t, int64(buf.Len()), cw.Size())

	r, err := pcapgo.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, data)
	assert.Equal(t, int64(10), ci.Timestamp.Unix())

	cb, err := NewCaptureBuffer(buf.Bytes())
	require.NoError(t, err)
	var micros []uint32
	_, err = cb.ForEachRecord(context.Background(), func(r Record) error {
		micros = append(micros, r.Micros)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{100, 200}, micros)
}
