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

package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher
// a broker connection sending keyed messages
type MessagePublisher interface {
	Name() string
	Publish(key string, value []byte) error
	Close() error
}

// TransactionPublisher
// sends every transaction as a JSON record to all brokers
type TransactionPublisher struct {
	brokers []MessagePublisher
}

func NewTransactionPublisher(brokers ...MessagePublisher) *TransactionPublisher {
	return &TransactionPublisher{brokers: brokers}
}

// StoreTransactions
// keyed by run id so records of a run stay ordered within a partition
func (tp *TransactionPublisher) StoreTransactions(ctx context.Context, runId string, txs []entities.HttpTransaction) error {
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := json.Marshal(entities.MakeTransactionRecord(runId, tx))
		if err != nil {
			return err
		}
		for _, broker := range tp.brokers {
			if err = broker.Publish(runId, value); err != nil {
				return fmt.Errorf("unable to publish transaction to %s: %w", broker.Name(), err)
			}
		}
	}
	log.Debugf("run %s: %d transaction(s) published to %d broker(s)", runId, len(txs), len(tp.brokers))
	return nil
}

// Close
// closes every broker connection
func (tp *TransactionPublisher) Close() error {
	var errs []error
	for _, broker := range tp.brokers {
		if err := broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", broker.Name(), err))
		}
	}
	return errors.Join(errs...)
}
