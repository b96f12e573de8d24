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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chunkedBody = "5\r\nAAAAA\r\n3\r\nBBB\r\n0\r\n\r\n"

func TestChunkedDecode(t *testing.T) {
	cd := NewChunkedDecoder(true)
	n, err := cd.Feed([]byte(chunkedBody))
	require.NoError(t, err)
	assert.True(t, cd.Done())
	assert.Equal(t, int64(8), cd.Total())
	assert.Equal(t, []byte("AAAAABBB"), cd.Body())
	// the final CRLF is left to the caller
	assert.Equal(t, len(chunkedBody)-2, n)
}

func TestChunkedDecodeByteByByte(t *testing.T) {
	cd := NewChunkedDecoder(true)
	states := map[ChunkState]bool{}
	for i := 0; i < len(chunkedBody) && !cd.Done(); i++ {
		n, err := cd.Feed([]byte{chunkedBody[i]})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		states[cd.State()] = true
	}
	assert.True(t, cd.Done())
	assert.Equal(t, int64(8), cd.Total())
	assert.Equal(t, "AAAAABBB", string(cd.Body()))
	assert.True(t, states[ConsumingChunkData])
	assert.True(t, states[AwaitingChunkEnd])
	assert.True(t, states[AwaitingChunkSize])
	assert.Equal(t, AwaitingTrailer, cd.State())
}

func TestChunkedWithoutRetention(t *testing.T) {
	cd := NewChunkedDecoder(false)
	_, err := cd.Feed([]byte("a;name=value\r\n0123456789\r\n0\r\n"))
	require.NoError(t, err)
	assert.True(t, cd.Done())
	assert.Equal(t, int64(10), cd.Total())
	assert.Nil(t, cd.Body())
}

func TestChunkedPartial(t *testing.T) {
	cd := NewChunkedDecoder(true)
	_, err := cd.Feed([]byte("10\r\nabc"))
	require.NoError(t, err)
	assert.False(t, cd.Done())
	assert.Equal(t, ConsumingChunkData, cd.State())
	assert.Equal(t, int64(13), cd.Remaining())
}

func TestChunkedInvalidSize(t *testing.T) {
	cd := NewChunkedDecoder(true)
	_, err := cd.Feed([]byte("zz\r\nAAAA\r\n"))
	assert.ErrorContains(t, err, "zz")
	assert.False(t, cd.Done())
}
