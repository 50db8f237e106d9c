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

package chainbus

import (
	"testing"

	"github.com/rollupdb/worldstate/rollup"
)

func TestNew(t *testing.T) {
	bus := New()
	if bus == nil {
		t.Fatal("New Bus not created")
	}
}

func TestHasCallback(t *testing.T) {
	bus := New()
	bus.Subscribe("rollup.settled", func(*rollup.RollupDao) {})
	if bus.HasCallback("rollup.other") {
		t.Fail()
	}
	if !bus.HasCallback("rollup.settled") {
		t.Fail()
	}
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	bus := New()
	if bus.Subscribe("rollup.settled", nil) == nil {
		t.Fail()
	}
}

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	bus := New()
	var order []int
	bus.Subscribe("rollup.settled", func(*rollup.RollupDao) { order = append(order, 1) })
	bus.Subscribe("rollup.settled", func(*rollup.RollupDao) { order = append(order, 2) })

	bus.Publish("rollup.settled", &rollup.RollupDao{RollupID: 5})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected handler order: %v", order)
	}
}

func TestPublishPassesPayload(t *testing.T) {
	bus := New()
	var got *rollup.RollupDao
	bus.Subscribe("rollup.settled", func(dao *rollup.RollupDao) { got = dao })

	want := &rollup.RollupDao{RollupID: 42}
	bus.Publish("rollup.settled", want)

	if got != want {
		t.Fatalf("handler got %v, want %v", got, want)
	}
}

func TestPublishToUnknownTopicIsNoop(t *testing.T) {
	bus := New()
	bus.Publish("rollup.settled", &rollup.RollupDao{})
}
