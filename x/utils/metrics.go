package utils

import (
	"context"
	"strconv"
	"time"

	"github.com/iov-one/barter"
	"github.com/iov-one/barter/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator counting processed transactions and measuring
// the time spent on them, labeled by message path and outcome.
type Metrics struct {
	txs      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ barter.Decorator = Metrics{}

// NewMetrics creates a Metrics decorator and registers its collectors.
// It panics if the collectors are already registered.
func NewMetrics(reg prometheus.Registerer) Metrics {
	m := Metrics{
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barter",
			Subsystem: "tx",
			Name:      "processed_total",
			Help:      "Total transactions processed, labeled by phase, message path and ABCI code.",
		}, []string{"phase", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barter",
			Subsystem: "tx",
			Name:      "duration_seconds",
			Help:      "Time spent processing a transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"phase", "path"}),
	}
	reg.MustRegister(m.txs, m.duration)
	return m
}

// Check records the outcome of the check
func (m Metrics) Check(ctx context.Context, store barter.KVStore, tx barter.Tx, next barter.Checker) (*barter.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	m.observe("check", tx, start, err)
	return res, err
}

// Deliver records the outcome of the delivery
func (m Metrics) Deliver(ctx context.Context, store barter.KVStore, tx barter.Tx, next barter.Deliverer) (*barter.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	m.observe("deliver", tx, start, err)
	return res, err
}

func (m Metrics) observe(phase string, tx barter.Tx, start time.Time, err error) {
	path := barter.GetPath(tx)
	code, _ := errors.ABCIInfo(err, false)
	m.txs.WithLabelValues(phase, path, codeLabel(code)).Inc()
	m.duration.WithLabelValues(phase, path).Observe(time.Since(start).Seconds())
}

func codeLabel(code uint32) string {
	if code == errors.SuccessABCICode {
		return "ok"
	}
	return strconv.FormatUint(uint64(code), 10)
}
