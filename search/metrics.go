// Copyright 2025 Poiesic Systems
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


package search

import (
	"time"

	"github.com/poiesic/symptomatch/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records ranking activity in Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	queries   *prometheus.CounterVec
	fallbacks prometheus.Counter
	rejected  prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics registers the ranker metrics with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "symptomatch",
				Subsystem: "ranker",
				Name:      "queries_total",
				Help:      "Number of ranked queries by resolved language",
			},
			[]string{"language"},
		),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "symptomatch",
			Subsystem: "ranker",
			Name:      "language_fallbacks_total",
			Help:      "Number of queries ranked in the fallback language",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "symptomatch",
			Subsystem: "ranker",
			Name:      "rejected_queries_total",
			Help:      "Number of queries rejected before ranking",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "symptomatch",
			Subsystem: "ranker",
			Name:      "rank_duration_seconds",
			Help:      "Time spent ranking one query",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

func (m *Metrics) observe(lang core.Language, fallback bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(string(lang)).Inc()
	if fallback {
		m.fallbacks.Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) reject() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}
