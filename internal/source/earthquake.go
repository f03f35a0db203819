package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

const earthquakeURL = "https://apihub.kma.go.kr/api/typ01/url/eqk_now.php"

// domesticQuake is the type column value for earthquakes inside Korea.
const domesticQuake = "3"

// Earthquake reports domestic earthquakes from the KMA API hub bulletin.
type Earthquake struct {
	name    string
	key     string
	baseURL string
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewEarthquake creates the earthquake adapter.
func NewEarthquake(name, key string, fetcher *Fetcher, logger *slog.Logger) *Earthquake {
	return &Earthquake{name: name, key: key, baseURL: earthquakeURL, fetcher: fetcher, logger: logger}
}

func (e *Earthquake) Name() string { return e.name }

func (e *Earthquake) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	body, err := e.fetcher.Get(ctx, e.baseURL, url.Values{
		"tm":      {domain.NowKST().Format("20060102150405")},
		"disp":    {"0"},
		"help":    {"1"},
		"authKey": {e.key},
	})
	if err != nil {
		return nil, err
	}

	text, err := decodeEUCKR(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s charset: %w", domain.ErrParse, e.name, err)
	}

	var events []domain.CandidateEvent
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, ok, err := parseQuakeLine(line)
		if err != nil {
			e.logger.Warn("earthquake row skipped", "source", e.name, "row", line, "error", err)
			continue
		}
		if ok {
			events = append(events, ev)
		}
	}
	if err := sc.Err(); err != nil {
		return events, fmt.Errorf("%w: scan %s body: %w", domain.ErrParse, e.name, err)
	}
	return events, nil
}

// parseQuakeLine reads one bulletin row:
//
//	TP STN_ID TM_FC TM_EQK MT LAT LON LOC...
//
// ok is false for non-domestic rows and short lines.
func parseQuakeLine(line string) (domain.CandidateEvent, bool, error) {
	tokens := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(tokens) < 7 || tokens[0] != domesticQuake {
		return domain.CandidateEvent{}, false, nil
	}

	stamp := tokens[3]
	if len(stamp) < 14 {
		return domain.CandidateEvent{}, false, fmt.Errorf("%w: short timestamp %q", domain.ErrParse, stamp)
	}
	occurred, err := domain.ParseKST("20060102150405", stamp[:14])
	if err != nil {
		return domain.CandidateEvent{}, false, fmt.Errorf("%w: timestamp: %w", domain.ErrParse, err)
	}
	mag, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return domain.CandidateEvent{}, false, fmt.Errorf("%w: magnitude: %w", domain.ErrParse, err)
	}
	lat, err := strconv.ParseFloat(tokens[5], 64)
	if err != nil {
		return domain.CandidateEvent{}, false, fmt.Errorf("%w: latitude: %w", domain.ErrParse, err)
	}
	lon, err := strconv.ParseFloat(tokens[6], 64)
	if err != nil {
		return domain.CandidateEvent{}, false, fmt.Errorf("%w: longitude: %w", domain.ErrParse, err)
	}
	location := strings.Join(tokens[7:], " ")

	return domain.CandidateEvent{
		HazardCode:   domain.HazardEarthquake,
		OccurredAt:   occurred,
		LocationText: location,
		Details: []string{
			"magnitude: " + formatDecimal(mag),
			"location: " + location,
			"latitude: " + formatDecimal(lat),
			"longitude: " + formatDecimal(lon),
		},
		Coordinates: &domain.Coordinates{Lat: lat, Lon: lon},
	}, true, nil
}

// formatDecimal prints the shortest representation that always keeps a
// fractional part ("3.0", "36.12").
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func decodeEUCKR(b []byte) (string, error) {
	out, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF}))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
