package auth

import (
	"github.com/jrsteele09/go-exam-client/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeRejected  = "rejected"
	outcomeDiscarded = "discarded"
	outcomeInvalid   = "invalid_response"
)

type metrics struct {
	logins   *prometheus.CounterVec
	renewals *prometheus.CounterVec
	logouts  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		logins: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_session_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"})),
		renewals: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_session_renewals_total",
			Help: "Access token renewal calls by outcome.",
		}, []string{"outcome"})),
		logouts: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exam_session_logouts_total",
			Help: "Transitions from an authenticated session to anonymous.",
		})),
	}
}

// register adds c to reg, reusing an identical collector registered earlier
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func renewalOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, errors.ErrRefreshRejected):
		return outcomeRejected
	case errors.Is(err, errors.ErrSessionChanged):
		return outcomeDiscarded
	case errors.Is(err, errors.ErrInvalidRefreshResponse):
		return outcomeInvalid
	}
	return outcomeFailure
}
