/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package blockqueue implements the single-producer single-consumer
// FIFO that decouples the chain source's callback context from the
// synchronizer's serialized block-handling loop.
package blockqueue

import (
	"sync"

	"github.com/rollupdb/worldstate/rollup"
	"github.com/rollupdb/worldstate/utils/log"
)

// Queue is an unbounded, cancellable FIFO of blocks.
//
// Put is safe to call from the chain source's callback goroutine.
// Process spawns the single consumer that invokes handler strictly one
// block at a time, in enqueue order. Cancel drains the queue and lets
// the consumer exit once any in-flight handler call returns.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*rollup.Block
	closed bool
	done   chan struct{}
}

// New creates an empty, ready-to-use Queue.
func New() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put enqueues a block. It never blocks.
func (q *Queue) Put(block *rollup.Block) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, block)
	q.cond.Signal()
}

// Process spawns the consumer goroutine. handler is invoked once per
// block, strictly in enqueue order, never concurrently with itself.
// Process returns immediately; call Cancel to stop the consumer.
func (q *Queue) Process(handler func(*rollup.Block)) {
	go q.run(handler)
}

func (q *Queue) run(handler func(*rollup.Block)) {
	defer close(q.done)
	for {
		block, ok := q.next()
		if !ok {
			return
		}
		handler(block)
	}
}

func (q *Queue) next() (*rollup.Block, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	block := q.items[0]
	q.items = q.items[1:]
	return block, true
}

// Cancel drains the queue and signals the consumer to exit once the
// in-flight handler call (if any) returns. Cancel does not block; wait
// on Done() to observe the consumer's exit.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	log.Info("cancelling block queue")
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

// Done returns a channel closed once the consumer goroutine has
// returned after Cancel.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}
