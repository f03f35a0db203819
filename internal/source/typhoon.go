package source

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

const typhoonURL = "http://apis.data.go.kr/1360000/TyphoonInfoService/getTyphoonInfo"

// Typhoon reports every typhoon forecast issued on the current KST day.
type Typhoon struct {
	name    string
	key     string
	baseURL string
	fetcher *Fetcher
	logger  *slog.Logger
}

type typhoonItem struct {
	TmFc    string `xml:"tmFc"`
	TypName string `xml:"typName"`
	TypDir  string `xml:"typDir"`
	TypLat  string `xml:"typLat"`
	TypLon  string `xml:"typLon"`
	TypLoc  string `xml:"typLoc"`
	TypInt  string `xml:"typInt"`
	Typ15   string `xml:"typ15"`
}

// NewTyphoon creates the typhoon adapter.
func NewTyphoon(name, key string, fetcher *Fetcher, logger *slog.Logger) *Typhoon {
	return &Typhoon{name: name, key: key, baseURL: typhoonURL, fetcher: fetcher, logger: logger}
}

func (t *Typhoon) Name() string { return t.name }

func (t *Typhoon) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	day := domain.NowKST().Format("20060102")
	body, err := t.fetcher.Get(ctx, t.baseURL, url.Values{
		"serviceKey": {t.key},
		"pageNo":     {"1"},
		"numOfRows":  {"10"},
		"dataType":   {"XML"},
		"fromTmFc":   {day},
		"toTmFc":     {day},
	})
	if err != nil {
		return nil, err
	}
	items, err := decodePortal[typhoonItem](t.name, body)
	if err != nil {
		return nil, err
	}

	events := make([]domain.CandidateEvent, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.TmFc) == "" {
			continue
		}
		occurred, err := domain.ParseKST("200601021504", item.TmFc)
		if err != nil {
			t.logger.Warn("typhoon item skipped", "source", t.name, "tm_fc", item.TmFc, "error", err)
			continue
		}

		radius, _ := strconv.Atoi(strings.TrimSpace(item.Typ15))
		ev := domain.CandidateEvent{
			HazardCode:   domain.HazardTyphoon,
			OccurredAt:   occurred,
			LocationText: strings.TrimSpace(item.TypLoc),
			Details: []string{
				"typ_name: " + strings.TrimSpace(item.TypName),
				"typ_dir: " + strings.TrimSpace(item.TypDir),
				"intensity: " + strings.TrimSpace(item.TypInt),
				"wind_radius: " + strconv.Itoa(radius),
			},
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(item.TypLat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(item.TypLon), 64)
		if errLat == nil && errLon == nil && (lat != 0 || lon != 0) {
			ev.Coordinates = &domain.Coordinates{Lat: lat, Lon: lon}
		}
		events = append(events, ev)
	}
	return events, nil
}
