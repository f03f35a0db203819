package source

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

const airGradeURL = "http://apis.data.go.kr/B552584/ArpltnInforInqireSvc/getCtprvnRltmMesureDnsty"

// AirGradeAlertLevel is the 1-hour PM grade ("bad") from which a station
// reading becomes an event.
const AirGradeAlertLevel = 3

// AirGrade reports real-time station readings with a bad PM10 or PM2.5 grade.
type AirGrade struct {
	name    string
	key     string
	baseURL string
	fetcher *Fetcher
	logger  *slog.Logger
}

type airGradeItem struct {
	StationName string `xml:"stationName"`
	SidoName    string `xml:"sidoName"`
	DataTime    string `xml:"dataTime"`
	PM10Grade1h string `xml:"pm10Grade1h"`
	PM25Grade1h string `xml:"pm25Grade1h"`
}

// NewAirGrade creates the real-time air-quality adapter.
func NewAirGrade(name, key string, fetcher *Fetcher, logger *slog.Logger) *AirGrade {
	return &AirGrade{name: name, key: key, baseURL: airGradeURL, fetcher: fetcher, logger: logger}
}

func (a *AirGrade) Name() string { return a.name }

func (a *AirGrade) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	body, err := a.fetcher.Get(ctx, a.baseURL, url.Values{
		"sidoName":   {"전국"},
		"returnType": {"xml"},
		"serviceKey": {a.key},
		"numOfRows":  {"1000"},
		"pageNo":     {"1"},
		"ver":        {"1.3"},
	})
	if err != nil {
		return nil, err
	}
	items, err := decodePortal[airGradeItem](a.name, body)
	if err != nil {
		return nil, err
	}

	var events []domain.CandidateEvent
	for _, item := range items {
		pm10, ok10 := parseGrade(item.PM10Grade1h)
		pm25, ok25 := parseGrade(item.PM25Grade1h)
		if !ok10 && !ok25 {
			continue
		}
		if pm10 < AirGradeAlertLevel && pm25 < AirGradeAlertLevel {
			continue
		}

		station := strings.TrimSpace(item.StationName)
		sido := strings.TrimSpace(item.SidoName)
		details := []string{
			"pm10_grade: " + strconv.Itoa(pm10),
			"pm25_grade: " + strconv.Itoa(pm25),
			"sido: " + sido,
			"station: " + station,
		}
		occurred, details := domain.ParseKSTOrNow("2006-01-02 15:04", item.DataTime, details)

		events = append(events, domain.CandidateEvent{
			HazardCode:   domain.HazardAirGrade,
			OccurredAt:   occurred,
			LocationText: station,
			Details:      details,
			ParentArea:   sido,
		})
	}
	a.logger.Debug("air grade parsed", "source", a.name, "stations", len(items), "events", len(events))
	return events, nil
}

// parseGrade reads a 1..4 grade; blank or "-" means the station did not report.
func parseGrade(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
