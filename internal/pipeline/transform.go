package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

// Enricher resolves geographic data for records.
type Enricher interface {
	ResolveFirst(ctx context.Context, names ...string) domain.Enrichment
	RegionAt(ctx context.Context, lat, lon float64) *int64
}

// Transformer turns a candidate event into a canonical record and attaches
// whatever enrichment is available.
type Transformer struct {
	enricher Enricher
	logger   *slog.Logger
}

// NewTransformer creates a Transformer. Pass a nil enricher to disable
// geocoding; source-reported coordinates are still kept.
func NewTransformer(enricher Enricher, logger *slog.Logger) *Transformer {
	return &Transformer{enricher: enricher, logger: logger}
}

// Transform assigns the content-derived ID and enriches the record. The ID
// never depends on enrichment.
func (t *Transformer) Transform(ctx context.Context, e domain.CandidateEvent) domain.RtdRecord {
	rec := domain.Canonicalize(e)
	return rec.Apply(t.enrich(ctx, e))
}

// enrich prefers source coordinates and falls back to geocoding the hint,
// the location text, then the parent area.
func (t *Transformer) enrich(ctx context.Context, e domain.CandidateEvent) domain.Enrichment {
	if e.Coordinates != nil {
		lat, lon := e.Coordinates.Lat, e.Coordinates.Lon
		out := domain.Enrichment{Latitude: &lat, Longitude: &lon}
		if t.enricher != nil {
			out.RegionCode = t.enricher.RegionAt(ctx, lat, lon)
		}
		return out
	}
	if t.enricher == nil {
		return domain.Enrichment{}
	}

	out := t.enricher.ResolveFirst(ctx, e.GeocodeHint, e.LocationText, e.ParentArea)
	if !out.Found() {
		t.logger.Debug("enrichment miss", "hazard_code", int(e.HazardCode), "location", e.LocationText)
	}
	return out
}
