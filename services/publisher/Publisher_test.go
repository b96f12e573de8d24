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
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransactions() []entities.HttpTransaction {
	flow := entities.ConnectionKey{
		Source:      entities.Endpoint{Address: entities.IPv4Address{10, 0, 0, 1}, Port: 1234},
		Destination: entities.Endpoint{Address: entities.IPv4Address{10, 0, 0, 9}, Port: 80},
	}
	return []entities.HttpTransaction{
		{Flow: flow, Request: entities.HttpRequest{Method: "GET", Url: "/a.png", Host: "x", Seconds: 3, Micros: 4},
			Response: entities.HttpResponse{StatusCode: 200, BodyLength: 4, Complete: true}},
		{Flow: flow, Request: entities.HttpRequest{Method: "HEAD", Url: "/", Host: "x", Seconds: 5},
			Response: entities.HttpResponse{StatusCode: 304, Complete: true}},
	}
}

func TestKafkaPublishing(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		record := entities.TransactionRecord{}
		if err := json.Unmarshal(value, &record); err != nil {
			return err
		}
		if record.Url != "/a.png" || record.Client != "10.0.0.1 1234" || record.RunId != "run-7" {
			return errors.New("unexpected record")
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	tp := NewTransactionPublisher(NewKafkaPublisherWithProducer(producer, "transactions"))
	require.NoError(t, tp.StoreTransactions(context.Background(), "run-7", sampleTransactions()))
	require.NoError(t, tp.Close())
}

func TestKafkaFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	tp := NewTransactionPublisher(NewKafkaPublisherWithProducer(producer, "transactions"))
	err := tp.StoreTransactions(context.Background(), "run", sampleTransactions())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.ErrorContains(t, err, "kafka/transactions")
	require.NoError(t, tp.Close())
}

func TestKafkaProducerConfig(t *testing.T) {
	config := NewKafkaProducerConfig()
	assert.True(t, config.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, config.Producer.RequiredAcks)
	assert.NoError(t, config.Validate())
}

type memoryPublisher struct {
	keys   []string
	values [][]byte
	closed bool
}

func (m *memoryPublisher) Name() string {
	return "memory"
}

func (m *memoryPublisher) Publish(key string, value []byte) error {
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return nil
}

func (m *memoryPublisher) Close() error {
	m.closed = true
	return nil
}

func TestPublishToAllBrokers(t *testing.T) {
	first, second := &memoryPublisher{}, &memoryPublisher{}
	tp := NewTransactionPublisher(first, second)
	require.NoError(t, tp.StoreTransactions(context.Background(), "run", sampleTransactions()))
	assert.Equal(t, []string{"run", "run"}, first.keys)
	assert.Equal(t, first.values, second.values)

	record := entities.TransactionRecord{}
	require.NoError(t, json.Unmarshal(first.values[1], &record))
	assert.Equal(t, "HEAD", record.Method)
	assert.Equal(t, 304, record.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tp.StoreTransactions(ctx, "run", sampleTransactions()), context.Canceled)

	require.NoError(t, tp.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}
