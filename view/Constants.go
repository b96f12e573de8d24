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

const (
	EmptyString = ""
	GzipSuffix  = ".gz"
	PcapSuffix  = ".pcap"
	// DefaultMaxCaptureSize the biggest capture accepted from the input, bytes
	DefaultMaxCaptureSize = 30000000
	// PcapGlobalHeaderSize pcap file starting header size
	PcapGlobalHeaderSize = 24
	// PcapRecordHeaderSize per-packet header size
	PcapRecordHeaderSize = 16
	// EthernetHeaderSize untagged Ethernet II header size
	EthernetHeaderSize = 14
	// HttpPort the only port treated as HTTP
	HttpPort = 80
	// DefaultSnapLenBytes The same default as tcpdump.
	DefaultSnapLenBytes = 256 * 1024
	// ArrayJoinSeparator a separator to use with strings.Join
	ArrayJoinSeparator = ","
	// ReportSeparator separates report arguments given in a single string
	ReportSeparator = " "
)

// ImageSuffixes URL endings treated as embedded images (compared case-insensitively)
var ImageSuffixes = []string{".jpeg", ".webp", ".jpg", ".png", ".gif"}
