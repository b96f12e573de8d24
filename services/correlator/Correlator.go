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

package correlator

import (
	"sort"

	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	log "github.com/sirupsen/logrus"
)

// Correlator
// joins requests and responses of flows into time ordered transactions
type Correlator interface {
	AddFlow(flow entities.ConnectionKey, requests []entities.HttpRequest, responses []entities.HttpResponse)
	Transactions() []entities.HttpTransaction
	Unmatched() (requests int, responses int)
}

type correlatorImpl struct {
	completeOnly       bool
	transactions       []entities.HttpTransaction
	unmatchedRequests  int
	unmatchedResponses int
}

// NewCorrelator
// completeOnly skips responses whose body was not fully captured
func NewCorrelator(completeOnly bool) Correlator {
	return &correlatorImpl{completeOnly: completeOnly}
}

// AddFlow
// a request matches a response whose Ack equals the request key.
// Requests sharing a key take the responses with that Ack in stream order,
// each response is used once. Incomplete responses are skipped while more
// responses than requests remain for the key.
func (c *correlatorImpl) AddFlow(flow entities.ConnectionKey, requests []entities.HttpRequest, responses []entities.HttpResponse) {
	byAck := make(map[uint32][]entities.HttpResponse, len(responses))
	for _, r := range responses {
		if c.completeOnly && !r.Complete {
			continue
		}
		byAck[r.Ack] = append(byAck[r.Ack], r)
	}
	pending := make(map[uint32]int, len(requests))
	for _, req := range requests {
		pending[req.Key]++
	}
	for _, req := range requests {
		queue := byAck[req.Key]
		pending[req.Key]--
		for len(queue) > 1 && !queue[0].Complete && len(queue) > pending[req.Key]+1 {
			queue = queue[1:]
			c.unmatchedResponses++
		}
		if len(queue) == 0 {
			c.unmatchedRequests++
			continue
		}
		c.transactions = append(c.transactions, entities.HttpTransaction{Flow: flow, Request: req, Response: queue[0]})
		byAck[req.Key] = queue[1:]
	}
	for _, queue := range byAck {
		c.unmatchedResponses += len(queue)
	}
}

// Transactions
// ordered by request capture time, ties keep the order flows were added
func (c *correlatorImpl) Transactions() []entities.HttpTransaction {
	sort.SliceStable(c.transactions, func(i, j int) bool {
		a, b := c.transactions[i].Request, c.transactions[j].Request
		return entities.TimestampBefore(a.Seconds, a.Micros, b.Seconds, b.Micros)
	})
	if c.unmatchedRequests > 0 || c.unmatchedResponses > 0 {
		log.Debugf("%d request(s) and %d response(s) without a counterpart",
			c.unmatchedRequests, c.unmatchedResponses)
	}
	return c.transactions
}

func (c *correlatorImpl) Unmatched() (int, int) {
	return c.unmatchedRequests, c.unmatchedResponses
}
