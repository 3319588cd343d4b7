package port

import "github.com/lkimdaryl/foodjournal-backend/internal/core/domain"

// ValidationMetrics captures telemetry hooks for token validation outcomes.
type ValidationMetrics interface {
	IncAccepted()
	IncRejected(reason string)
}

// RevocationMetrics captures telemetry hooks for denylist writes.
type RevocationMetrics interface {
	IncRevocation()
}

// SweepMetrics captures telemetry hooks for denylist maintenance passes.
type SweepMetrics interface {
	RecordSweep(report domain.SweepReport)
}
