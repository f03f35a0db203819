package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

// RemoteExtractor asks an external NER service for LOC entities and falls
// back to another extractor when the service fails or finds nothing.
type RemoteExtractor struct {
	url      string
	client   *http.Client
	fallback domain.LocationExtractor
	logger   *slog.Logger
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerResponse struct {
	Locations []string `json:"locations"`
}

// NewRemoteExtractor creates a client for the NER endpoint at url.
func NewRemoteExtractor(url string, timeout time.Duration, fallback domain.LocationExtractor, logger *slog.Logger) *RemoteExtractor {
	return &RemoteExtractor{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}
}

// ExtractLocations queries the service and falls back to the local
// extractor when the call fails. A cancelled ctx yields nil.
func (r *RemoteExtractor) ExtractLocations(ctx context.Context, text string) []string {
	locs, err := r.extract(ctx, text)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		r.logger.Warn("ner service failed, using fallback extractor", "error", err)
	}
	if len(locs) > 0 {
		return locs
	}
	if r.fallback == nil {
		return nil
	}
	return r.fallback.ExtractLocations(ctx, text)
}

func (r *RemoteExtractor) extract(ctx context.Context, text string) ([]string, error) {
	payload, err := json.Marshal(nerRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create ner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner service returned status %d", resp.StatusCode)
	}
	var out nerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}
	return out.Locations, nil
}
