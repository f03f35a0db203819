package domain

import "context"

// GeocodingResult is the position returned by a geocoding provider.
type GeocodingResult struct {
	Lat     float64
	Lon     float64
	Address string
	Found   bool
}

// Geocoder resolves place names to coordinates and coordinates to
// administrative region codes.
type Geocoder interface {
	// Geocode converts a place name to coordinates. Found is false when the
	// provider has no match.
	Geocode(ctx context.Context, name string) (GeocodingResult, error)

	// RegionCode returns the legal-dong administrative code containing the
	// coordinates, or 0 when none is known.
	RegionCode(ctx context.Context, lat, lon float64) (int64, error)
}

// LocationExtractor pulls place names out of free text.
type LocationExtractor interface {
	ExtractLocations(ctx context.Context, text string) []string
}
