/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package chainbus is a small synchronous pub/sub bus for settlement
// events. The synchronizer is the sole publisher, publishing exactly
// one payload type (a settled *rollup.RollupDao) under one topic per
// event; this package is narrowed to that shape rather than a
// general-purpose reflect-dispatched bus with async/once/unsubscribe
// semantics nothing here needs.
package chainbus

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/rollupdb/worldstate/rollup"
)

// RollupSettledHandler is invoked with a settled rollup after
// worldstate.Synchronizer has committed its trees and relational rows.
type RollupSettledHandler func(dao *rollup.RollupDao)

// Bus dispatches settled-rollup events to subscribers, synchronously
// and in subscription order. It has no async, once, or unsubscribe
// modes: the synchronizer publishes from its single writer goroutine
// and nothing in this module needs the rest of a general event bus.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]RollupSettledHandler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]RollupSettledHandler)}
}

// Subscribe registers handler under topic. handler must not be nil.
func (bus *Bus) Subscribe(topic string, handler RollupSettledHandler) error {
	if handler == nil {
		return errors.New("chainbus: nil handler")
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[topic] = append(bus.handlers[topic], handler)
	return nil
}

// HasCallback reports whether any handler is subscribed to topic.
func (bus *Bus) HasCallback(topic string) bool {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return len(bus.handlers[topic]) > 0
}

// Publish invokes every handler subscribed to topic with dao, in
// subscription order. Handlers run synchronously on the caller's
// goroutine; a slow handler delays the next one.
func (bus *Bus) Publish(topic string, dao *rollup.RollupDao) {
	bus.mu.Lock()
	handlers := make([]RollupSettledHandler, len(bus.handlers[topic]))
	copy(handlers, bus.handlers[topic])
	bus.mu.Unlock()

	for _, h := range handlers {
		h(dao)
	}
}
