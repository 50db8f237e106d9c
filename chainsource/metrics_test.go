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

package chainsource

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rollupdb/worldstate/rollup"
)

func TestPrometheusMetricsSinkCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusMetricsSink(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	stop := sink.ProcessBlockTimer()
	stop()

	sink.TxSettlementDuration(50*time.Millisecond, rollup.TxTypeDeposit)
	sink.RollupReceived(&rollup.RollupDao{RollupID: 1})

	mined := time.Now()
	sink.RollupReceived(&rollup.RollupDao{RollupID: 2, Mined: &mined})

	if got := testutil.CollectAndCount(sink.processBlockDuration); got != 1 {
		t.Fatalf("expected 1 process-block observation, got %d", got)
	}
	if got := testutil.CollectAndCount(sink.txSettlementDuration); got != 1 {
		t.Fatalf("expected 1 settlement duration series, got %d", got)
	}
	if got := testutil.CollectAndCount(sink.rollupsReceived); got != 2 {
		t.Fatalf("expected 2 rollup-received label series, got %d", got)
	}
}
