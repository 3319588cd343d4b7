package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
)

// Provider owns the Prometheus collectors for the revocation engine.
type Provider struct {
	validationsAccepted prometheus.Counter
	validationsRejected *prometheus.CounterVec
	revocationsTotal    prometheus.Counter
	sweepDeletedTotal   prometheus.Counter
	sweepFailuresTotal  prometheus.Counter
	lastSweepTimestamp  prometheus.Gauge
	lastSweepDeleted    prometheus.Gauge
}

// NewProvider registers the engine collectors with the supplied registerer.
func NewProvider(reg prometheus.Registerer) (*Provider, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Provider{
		validationsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessions",
			Name:      "validations_accepted_total",
			Help:      "Total number of token validations that accepted the token.",
		}),
		validationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessions",
			Name:      "validations_rejected_total",
			Help:      "Total number of rejected token validations partitioned by reason.",
		}, []string{"reason"}),
		revocationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessions",
			Name:      "revocations_total",
			Help:      "Total number of recorded token revocations.",
		}),
		sweepDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessions",
			Name:      "sweep_deleted_total",
			Help:      "Total number of revocation entries deleted by maintenance sweeps.",
		}),
		sweepFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessions",
			Name:      "sweep_failures_total",
			Help:      "Total number of maintenance sweeps that failed.",
		}),
		lastSweepTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sessions",
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix timestamp of the most recent maintenance sweep.",
		}),
		lastSweepDeleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sessions",
			Name:      "last_sweep_deleted",
			Help:      "Number of revocation entries deleted by the most recent sweep.",
		}),
	}

	collectors := []prometheus.Collector{
		p.validationsAccepted,
		p.validationsRejected,
		p.revocationsTotal,
		p.sweepDeletedTotal,
		p.sweepFailuresTotal,
		p.lastSweepTimestamp,
		p.lastSweepDeleted,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return p, nil
}

// IncAccepted counts an accepted validation.
func (p *Provider) IncAccepted() {
	p.validationsAccepted.Inc()
}

// IncRejected counts a rejected validation by reason.
func (p *Provider) IncRejected(reason string) {
	p.validationsRejected.WithLabelValues(reason).Inc()
}

// IncRevocation counts a recorded revocation.
func (p *Provider) IncRevocation() {
	p.revocationsTotal.Inc()
}

// RecordSweep publishes the outcome of a maintenance pass.
func (p *Provider) RecordSweep(report domain.SweepReport) {
	p.lastSweepTimestamp.Set(float64(report.RanAt.Unix()))
	if report.Failed {
		p.sweepFailuresTotal.Inc()
		return
	}
	p.lastSweepDeleted.Set(float64(report.Deleted))
	p.sweepDeletedTotal.Add(float64(report.Deleted))
}

var (
	_ port.ValidationMetrics = (*Provider)(nil)
	_ port.RevocationMetrics = (*Provider)(nil)
	_ port.SweepMetrics      = (*Provider)(nil)
)
