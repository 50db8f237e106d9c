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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rollupdb/worldstate/rollup"
)

func txTypeLabel(t rollup.TxType) string {
	switch t {
	case rollup.TxTypeDeposit:
		return "deposit"
	case rollup.TxTypeWithdraw:
		return "withdraw"
	case rollup.TxTypeTransfer:
		return "transfer"
	case rollup.TxTypeAccount:
		return "account"
	case rollup.TxTypeDefiDeposit:
		return "defi_deposit"
	case rollup.TxTypeDefiClaim:
		return "defi_claim"
	default:
		return "unknown"
	}
}

// PrometheusMetricsSink is a MetricsSink backed by client_golang
// collectors registered against a caller-supplied registry.
type PrometheusMetricsSink struct {
	processBlockDuration prometheus.Histogram
	txSettlementDuration *prometheus.HistogramVec
	rollupsReceived      *prometheus.CounterVec
}

// NewPrometheusMetricsSink registers its collectors on reg and returns
// the sink. Passing prometheus.DefaultRegisterer is the common case.
func NewPrometheusMetricsSink(reg prometheus.Registerer) (*PrometheusMetricsSink, error) {
	s := &PrometheusMetricsSink{
		processBlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldstate",
			Subsystem: "sync",
			Name:      "process_block_duration_seconds",
			Help:      "Time spent applying one settled block to the trees and relational store.",
			Buckets:   prometheus.DefBuckets,
		}),
		txSettlementDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "worldstate",
			Subsystem: "sync",
			Name:      "tx_settlement_duration_seconds",
			Help:      "Time between tx pool admission and the settling block, by tx type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tx_type"}),
		rollupsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldstate",
			Subsystem: "sync",
			Name:      "rollups_received_total",
			Help:      "Settled rollups observed.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{s.processBlockDuration, s.txSettlementDuration, s.rollupsReceived} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProcessBlockTimer implements MetricsSink.
func (s *PrometheusMetricsSink) ProcessBlockTimer() func() {
	start := time.Now()
	return func() {
		s.processBlockDuration.Observe(time.Since(start).Seconds())
	}
}

// TxSettlementDuration implements MetricsSink.
func (s *PrometheusMetricsSink) TxSettlementDuration(d time.Duration, txType rollup.TxType) {
	s.txSettlementDuration.WithLabelValues(txTypeLabel(txType)).Observe(d.Seconds())
}

// RollupReceived implements MetricsSink.
func (s *PrometheusMetricsSink) RollupReceived(r *rollup.RollupDao) {
	result := "settled"
	if r.Mined == nil {
		result = "unsettled"
	}
	s.rollupsReceived.WithLabelValues(result).Inc()
}
