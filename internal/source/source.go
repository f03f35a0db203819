// Package source contains one adapter per upstream disaster feed. Each
// adapter fetches its upstream page, filters it down to actionable items and
// returns them as candidate events with KST timestamps converted to UTC.
//
// Adapters never retry. A failed fetch surfaces as an error wrapping
// domain.ErrUpstreamUnavailable and the scheduler tries again on the next
// interval. Items that fail to parse are logged and skipped.
package source

import (
	"context"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

// Source is implemented by every upstream adapter.
type Source interface {
	// Name is the job name the adapter is scheduled under.
	Name() string
	// Fetch polls the upstream once.
	Fetch(ctx context.Context) ([]domain.CandidateEvent, error)
}

// Acknowledger is implemented by sources that suppress items already
// stored. Ack is called once the record built from e is stored or found to
// exist; events that were never acknowledged are fetched again.
type Acknowledger interface {
	Ack(e domain.CandidateEvent)
}
