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

package report

import (
	"context"
	"errors"
	"io"

	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/utils"
	log "github.com/sirupsen/logrus"
)

// RunReports
// runs the reports in argument order and returns the most severe exit code.
// Unrecognized arguments are reported and skipped, a fatal error stops the run.
func RunReports(ctx context.Context, registry *Registry, cb *capture.CaptureBuffer, args []string, w io.Writer) int {
	if len(args) == 0 {
		log.Error(exception.NewError(exception.RequiredParamsMissing, exception.RequiredParamsMissingMsg,
			map[string]interface{}{"params": "report"}).Error())
		return exception.ExitUsage
	}
	codes := make([]int, 0, len(args))
	for _, arg := range args {
		generator, err := registry.Generator(arg)
		if err != nil {
			log.Error(err.Error())
			codes = append(codes, exception.ExitCode(err))
			continue
		}
		log.Debugf("run %s: generating report %s", registry.RunId, generator.Name())
		err = utils.SafeRunErr(func() error { return generator.Generate(ctx, cb, w) })
		if err != nil {
			log.Errorf("run %s: report %s failed: %v", registry.RunId, generator.Name(), err)
			codes = append(codes, exception.ExitCode(err))
			var fe *exception.ForensicsError
			if errors.As(err, &fe) && fe.Fatal {
				break
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			continue
		}
		codes = append(codes, exception.ExitOk)
	}
	return exception.MostSevereExitCode(codes...)
}
