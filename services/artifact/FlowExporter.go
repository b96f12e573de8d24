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

package artifact

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/cloud_storage"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	log "github.com/sirupsen/logrus"
)

// FlowExporter
// writes every flow into its own pcap file
type FlowExporter struct {
	exportDir string
	storage   cloud_storage.CloudStorage
}

// NewFlowExporter
// storage may be nil
func NewFlowExporter(exportDir string, storage cloud_storage.CloudStorage) (*FlowExporter, error) {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create flow export directory '%s': %w", exportDir, err)
	}
	return &FlowExporter{exportDir: exportDir, storage: storage}, nil
}

// FlowFileName
// "<client address>_<client port>.pcap"
func FlowFileName(flow *entities.TcpFlow) string {
	return fmt.Sprintf("%s_%d%s", flow.Client.Address, flow.Client.Port, view.PcapSuffix)
}

// ExportFlows
// frames of both directions in capture time order
func (fe *FlowExporter) ExportFlows(ctx context.Context, runId string, flows []*entities.TcpFlow) error {
	for _, flow := range flows {
		if err := ctx.Err(); err != nil {
			return err
		}
		filePath := filepath.Join(fe.exportDir, FlowFileName(flow))
		records, err := writeFlow(filePath, flow)
		if err != nil {
			return err
		}
		log.Debugf("run %s: flow %s exported to %s (%d frame(s))", runId, flow.Oriented(), filePath, records)
		if fe.storage != nil {
			fe.storage.StoreFile(filePath)
		}
	}
	return nil
}

func writeFlow(filePath string, flow *entities.TcpFlow) (int, error) {
	packets := make([]entities.CapturedPacket, 0, len(flow.Upstream)+len(flow.Downstream))
	packets = append(packets, flow.Upstream...)
	packets = append(packets, flow.Downstream...)
	sort.SliceStable(packets, func(i, j int) bool {
		return packets[i].Before(packets[j])
	})
	f, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("unable to create '%s': %w", filePath, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	cw, err := capture.NewCaptureWriter(bw, view.DefaultSnapLenBytes)
	if err != nil {
		return 0, err
	}
	for _, p := range packets {
		if err = cw.WriteRecord(p.Seconds, p.Micros, p.Frame); err != nil {
			return cw.Records(), fmt.Errorf("unable to write '%s': %w", filePath, err)
		}
	}
	if err = bw.Flush(); err != nil {
		return cw.Records(), err
	}
	return cw.Records(), nil
}
