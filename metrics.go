// Copyright 2025 Blink Labs Software
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

package routeros

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "routeros"

// Exchange result labels
const (
	ResultOk             = "ok"
	ResultTrap           = "trap"
	ResultFatal          = "fatal"
	ResultTimeout        = "timeout"
	ResultConnectionLost = "connection_lost"
	ResultCommunication  = "communication_error"
	ResultError          = "error"
)

// Metrics holds the Prometheus collectors updated by connections. A nil
// *Metrics is valid and records nothing
type Metrics struct {
	exchanges         *prometheus.CounterVec
	exchangeDuration  prometheus.Histogram
	bytesSentTotal    prometheus.Counter
	bytesRecvTotal    prometheus.Counter
	wordsRecvTotal    prometheus.Counter
	activeConnections prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with the provided registerer
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "exchanges_total",
				Help:      "Command exchanges by result",
			},
			[]string{"result"},
		),
		exchangeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "exchange_duration_seconds",
				Help:      "Time from sending a command to receiving its final reply",
				Buckets:   prometheus.DefBuckets,
			},
		),
		bytesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "sent_bytes_total",
				Help:      "Bytes written to devices",
			},
		),
		bytesRecvTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "received_bytes_total",
				Help:      "Bytes read from devices",
			},
		),
		wordsRecvTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "received_words_total",
				Help:      "Words decoded from device replies, including terminators",
			},
		),
		activeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_connections",
				Help:      "Connections currently open",
			},
		),
	}
	collectors := []prometheus.Collector{
		m.exchanges,
		m.exchangeDuration,
		m.bytesSentTotal,
		m.bytesRecvTotal,
		m.wordsRecvTotal,
		m.activeConnections,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// resultLabel maps an exchange error to its metrics label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOk
	case errors.Is(err, ErrTrap):
		return ResultTrap
	case errors.Is(err, ErrFatal):
		return ResultFatal
	case errors.Is(err, ErrCommunicationTimeout):
		return ResultTimeout
	case errors.Is(err, ErrConnectionLost):
		return ResultConnectionLost
	case errors.Is(err, ErrCommunication):
		return ResultCommunication
	default:
		return ResultError
	}
}

func (m *Metrics) observeExchange(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(resultLabel(err)).Inc()
	m.exchangeDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) bytesSent(n int) {
	if m == nil {
		return
	}
	m.bytesSentTotal.Add(float64(n))
}

func (m *Metrics) bytesReceived(n int) {
	if m == nil {
		return
	}
	m.bytesRecvTotal.Add(float64(n))
}

func (m *Metrics) wordsReceived(n int) {
	if m == nil {
		return
	}
	m.wordsRecvTotal.Add(float64(n))
}

func (m *Metrics) connectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

func (m *Metrics) connectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}
