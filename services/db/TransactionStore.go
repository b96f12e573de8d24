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

package db

import (
	"context"
	"fmt"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	log "github.com/sirupsen/logrus"
)

// TransactionStore
// persists correlated transactions
type TransactionStore struct {
	conn  Connection
	flows FlowsCache
}

// NewTransactionStore
// creates the schema when missing
func NewTransactionStore(conn Connection) (*TransactionStore, error) {
	if err := conn.InitSchema(); err != nil {
		return nil, err
	}
	return &TransactionStore{conn: conn, flows: NewFlowsCache(conn)}, nil
}

// StoreTransactions
// one Transactions row per transaction, flows are shared by id
func (ts *TransactionStore) StoreTransactions(ctx context.Context, runId string, txs []entities.HttpTransaction) error {
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		flowId, err := ts.flows.GetId(runId, tx.Flow)
		if err != nil {
			return fmt.Errorf("unable to acquire flow id for %s: %w", tx.Flow, err)
		}
		if err = ts.conn.InsertTransaction(flowId, runId, tx); err != nil {
			return fmt.Errorf("unable to store transaction %d of run %s: %w", i, runId, err)
		}
	}
	log.Debugf("run %s: %d transaction(s) stored", runId, len(txs))
	return nil
}

func (ts *TransactionStore) Close() error {
	return ts.conn.Close()
}
