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
	"fmt"
	"strconv"
	"strings"
)

type ChunkState int

const (
	AwaitingChunkSize ChunkState = iota
	ConsumingChunkData
	AwaitingChunkEnd // CRLF closing the chunk data
	AwaitingTrailer  // last chunk seen, trailer lines are left to the caller
)

// ChunkedDecoder
// chunked transfer coding state machine fed with arbitrary segments
type ChunkedDecoder interface {
	Feed(data []byte) (int, error)
	Done() bool
	Total() int64
	Body() []byte
	State() ChunkState
	Remaining() int64
}

type chunkedDecoderImpl struct {
	lines      LineAssembler
	state      ChunkState
	remaining  int64
	total      int64
	retainBody bool
	body       []byte
}

// NewChunkedDecoder
// starts in AwaitingChunkSize
func NewChunkedDecoder(retainBody bool) ChunkedDecoder {
	return &chunkedDecoderImpl{retainBody: retainBody}
}

// Feed
// consumes bytes until the terminating chunk or the end of data.
// Returns the number of bytes consumed; bytes after the last chunk are left to the caller.
func (cd *chunkedDecoderImpl) Feed(data []byte) (int, error) {
	consumed := 0
	for consumed < len(data) && cd.state != AwaitingTrailer {
		if cd.state == ConsumingChunkData {
			n := int64(len(data) - consumed)
			if n > cd.remaining {
				n = cd.remaining
			}
			if cd.retainBody {
				cd.body = append(cd.body, data[consumed:consumed+int(n)]...)
			}
			cd.remaining -= n
			consumed += int(n)
			if cd.remaining == 0 {
				cd.state = AwaitingChunkEnd
			}
			continue
		}
		line, c, ok := cd.lines.Next(data[consumed:])
		consumed += c
		if !ok {
			continue
		}
		text := strings.TrimSpace(string(line))
		if text == "" {
			// blank line closes chunk data; stray blank lines before a size are tolerated
			if cd.state == AwaitingChunkEnd {
				cd.state = AwaitingChunkSize
			}
			continue
		}
		if err := cd.onSizeLine(text); err != nil {
			return consumed, err
		}
	}
	return consumed, nil
}

func (cd *chunkedDecoderImpl) onSizeLine(text string) error {
	if i := strings.IndexByte(text, ';'); i >= 0 {
		text = strings.TrimSpace(text[:i]) // chunk extensions
	}
	size, err := strconv.ParseInt(text, 16, 64)
	if err != nil || size < 0 {
		return fmt.Errorf("invalid chunk size '%s'", text)
	}
	if size == 0 {
		cd.state = AwaitingTrailer
		return nil
	}
	cd.total += size
	cd.remaining = size
	cd.state = ConsumingChunkData
	return nil
}

func (cd *chunkedDecoderImpl) Done() bool {
	return cd.state == AwaitingTrailer
}

// Total
// sum of the declared chunk sizes
func (cd *chunkedDecoderImpl) Total() int64 {
	return cd.total
}

func (cd *chunkedDecoderImpl) Body() []byte {
	return cd.body
}

func (cd *chunkedDecoderImpl) State() ChunkState {
	return cd.state
}

func (cd *chunkedDecoderImpl) Remaining() int64 {
	return cd.remaining
}
