package domain

import "time"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CandidateEvent is what a source adapter emits before identity is assigned.
type CandidateEvent struct {
	HazardCode   HazardCode
	OccurredAt   time.Time
	LocationText string
	Details      []string

	// ParentArea is a coarser place name tried when LocationText does not
	// geocode, e.g. the province of an air-quality station.
	ParentArea string
	// GeocodeHint is a finer place name derived from the item text, tried
	// first when geocoding. Not part of the identity.
	GeocodeHint string
	// Coordinates are set when the upstream reports a position itself
	// (earthquake epicentre, typhoon centre). Not part of the identity.
	Coordinates *Coordinates
	// SourceRef is the upstream's own key for the item, used by adapters
	// that track what has been stored. Not part of the identity.
	SourceRef string
}

// RtdRecord is the canonical, persisted representation of one real-world event.
type RtdRecord struct {
	ID           string     `json:"id"`
	HazardCode   HazardCode `json:"rtd_code"`
	OccurredAt   time.Time  `json:"rtd_time"`
	LocationText string     `json:"rtd_loc"`
	Details      []string   `json:"rtd_details"`
	RegionCode   *int64     `json:"regioncode"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Visible      bool       `json:"visible"`
}

// Enrichment is the geographic data attached to a record. Nil fields mean
// the lookup produced no usable value.
type Enrichment struct {
	Latitude   *float64
	Longitude  *float64
	RegionCode *int64
}

// Found reports whether coordinates were resolved.
func (e Enrichment) Found() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Apply copies non-nil enrichment values onto the record.
func (r RtdRecord) Apply(e Enrichment) RtdRecord {
	if e.Latitude != nil && e.Longitude != nil {
		r.Latitude = e.Latitude
		r.Longitude = e.Longitude
	}
	if e.RegionCode != nil {
		r.RegionCode = e.RegionCode
	}
	return r
}
