package passvault

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	resultOK                = "ok"
	resultInvalidArgument   = "invalid_argument"
	resultMalformed         = "malformed"
	resultAuthentication    = "authentication"
	resultInvalidPassphrase = "invalid_passphrase"
	resultKDF               = "kdf"
	resultSignature         = "signature"
	resultError             = "error"
)

// metrics holds the collectors registered by WithMetricsRegisterer.
// A nil *metrics records nothing.
type metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	if r == nil {
		return nil, nil
	}

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passvault_operations_total",
			Help: "Total number of passvault operations by result",
		},
		[]string{"operation", "result"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "passvault_operation_duration_seconds",
			Help: "Duration of passvault operations, dominated by Argon2id",
			// Argon2id at default cost takes tens to hundreds of milliseconds
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"operation"},
	)

	var err error
	if operations, err = register(r, operations); err != nil {
		return nil, err
	}
	if duration, err = register(r, duration); err != nil {
		return nil, err
	}
	return &metrics{operations: operations, duration: duration}, nil
}

// register registers c, reusing an identical collector that is already
// registered so several Protectors can share one registry.
func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultOf(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// resultOf classifies err for the result label.
func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrInvalidPassphrase):
		return resultInvalidPassphrase
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrUnsupportedSuite), errors.Is(err, ErrInvalidKeySize):
		return resultInvalidArgument
	case errors.Is(err, ErrMalformedInput):
		return resultMalformed
	case errors.Is(err, ErrAuthentication):
		return resultAuthentication
	case errors.Is(err, ErrKDF):
		return resultKDF
	case errors.Is(err, ErrSignatureInvalid):
		return resultSignature
	default:
		return resultError
	}
}
