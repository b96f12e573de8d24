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
	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const kafkaRetryMax = 5

// KafkaPublisher
// synchronous producer for one topic
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducerConfig
// waits for all replicas and reports successes as required by a sync producer
func NewKafkaProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = kafkaRetryMax
	config.Producer.Return.Successes = true
	return config
}

// NewKafkaPublisher
// connects to the brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaProducerConfig())
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to Kafka brokers %v, topic %s", brokers, topic)
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Name() string {
	return "kafka/" + k.topic
}

func (k *KafkaPublisher) Publish(key string, value []byte) error {
	message := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		return err
	}
	log.Tracef("kafka message stored at %s/%d/%d", k.topic, partition, offset)
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
