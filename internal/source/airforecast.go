package source

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

const airForecastURL = "http://apis.data.go.kr/B552584/ArpltnInforInqireSvc/getMinuDustFrcstDspth"

// AirForecast reports PM2.5 forecast bulletins that rate any region "bad".
type AirForecast struct {
	name    string
	key     string
	baseURL string
	fetcher *Fetcher
	logger  *slog.Logger
}

type airForecastItem struct {
	DataTime      string `xml:"dataTime"`
	InformCode    string `xml:"informCode"`
	InformOverall string `xml:"informOverall"`
	InformGrade   string `xml:"informGrade"`
	InformData    string `xml:"informData"`
}

// NewAirForecast creates the air-quality forecast adapter.
func NewAirForecast(name, key string, fetcher *Fetcher, logger *slog.Logger) *AirForecast {
	return &AirForecast{name: name, key: key, baseURL: airForecastURL, fetcher: fetcher, logger: logger}
}

func (a *AirForecast) Name() string { return a.name }

// Fetch queries today's bulletins. Before 09:00 KST the morning bulletin is
// not out yet, so the previous day's issue is searched instead.
func (a *AirForecast) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	now := domain.NowKST()
	today := now.Format("2006-01-02")
	searchDate := today
	if now.Hour() < 9 {
		searchDate = now.AddDate(0, 0, -1).Format("2006-01-02")
	}

	body, err := a.fetcher.Get(ctx, a.baseURL, url.Values{
		"searchDate": {searchDate},
		"returnType": {"xml"},
		"numOfRows":  {"100"},
		"pageNo":     {"1"},
		"serviceKey": {a.key},
	})
	if err != nil {
		return nil, err
	}
	items, err := decodePortal[airForecastItem](a.name, body)
	if err != nil {
		return nil, err
	}

	var events []domain.CandidateEvent
	for _, item := range items {
		if strings.TrimSpace(item.InformData) != today {
			continue
		}
		if item.InformCode != "PM25" || !strings.Contains(item.InformOverall, "나쁨") {
			continue
		}
		bad := badRegions(item.InformGrade)
		if len(bad) == 0 {
			continue
		}

		details := []string{
			"code: " + item.InformCode,
			"grade: " + strings.Join(bad, ","),
		}
		stamp := strings.TrimSpace(strings.Replace(item.DataTime, "시 발표", "", 1))
		occurred, details := domain.ParseKSTOrNow("2006-01-02 15", stamp, details)

		events = append(events, domain.CandidateEvent{
			HazardCode: domain.HazardAirForecast,
			OccurredAt: occurred,
			Details:    details,
		})
	}
	a.logger.Debug("air forecast parsed", "source", a.name, "items", len(items), "events", len(events))
	return events, nil
}

// badRegions picks the regions graded "나쁨" out of a list such as
// "서울 : 보통,경기북부 : 나쁨".
func badRegions(grades string) []string {
	var out []string
	for _, seg := range strings.Split(grades, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" || !strings.Contains(seg, "나쁨") {
			continue
		}
		region, _, _ := strings.Cut(seg, ":")
		out = append(out, strings.TrimSpace(region))
	}
	return out
}
