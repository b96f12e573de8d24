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
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const runIdHeader = "Run-Id"

// NatsPublisher
// publishes to one subject, the key travels in a header
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNatsPublisher
// connects to the server
func NewNatsPublisher(url, subject string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("http-forensics"))
	if err != nil {
		return nil, err
	}
	log.Infof("Connected to NATS server at %s", url)
	return &NatsPublisher{nc: nc, subject: subject}, nil
}

func (p *NatsPublisher) Name() string {
	return "nats/" + p.subject
}

func (p *NatsPublisher) Publish(key string, value []byte) error {
	msg := nats.NewMsg(p.subject)
	msg.Header.Set(runIdHeader, key)
	msg.Data = value
	return p.nc.PublishMsg(msg)
}

// Close
// drains pending messages before closing
func (p *NatsPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
