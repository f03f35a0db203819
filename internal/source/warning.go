package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"golang.org/x/time/rate"
)

const warningURL = "http://apis.data.go.kr/1360000/WthrWrnInfoService/getWthrWrnList"

// warningHazards maps the hazard keyword of a special report to its code.
var warningHazards = map[string]domain.HazardCode{
	"호우": domain.HazardHeavyRain,
	"강풍": domain.HazardStrongWind,
	"대설": domain.HazardHeavySnow,
	"폭염": domain.HazardHeatWave,
	"한파": domain.HazardColdWave,
}

var (
	warningPrefix  = regexp.MustCompile(`\[특보\]\s*`)
	warningNumber  = regexp.MustCompile(`제\d+-\d+호\s*:\s*`)
	warningKeyword = regexp.MustCompile(`호우|강풍|대설|폭염|한파`)
	warningLevel   = regexp.MustCompile(`주의보|경보`)
	warningStatus  = regexp.MustCompile(`발표|해제|변경|연장|정정`)
)

// Warning reports heavy rain, strong wind, heavy snow, heat and cold wave
// advisories issued today for each observation station.
type Warning struct {
	name     string
	key      string
	baseURL  string
	stations []Station
	limiter  *rate.Limiter
	fetcher  *Fetcher
	logger   *slog.Logger
}

type warningItem struct {
	Title string `xml:"title"`
}

// NewWarning creates the special weather report adapter. limiter paces the
// per-station requests; nil means unlimited.
func NewWarning(name, key string, stations []Station, limiter *rate.Limiter, fetcher *Fetcher, logger *slog.Logger) *Warning {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Warning{
		name:     name,
		key:      key,
		baseURL:  warningURL,
		stations: stations,
		limiter:  limiter,
		fetcher:  fetcher,
		logger:   logger,
	}
}

func (w *Warning) Name() string { return w.name }

// Fetch queries every station. A failing station is skipped; the fetch
// fails only when no station could be queried.
func (w *Warning) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	day := domain.NowKST().Format("20060102")

	var (
		events   []domain.CandidateEvent
		failures int
		lastErr  error
	)
	for _, st := range w.stations {
		if err := w.limiter.Wait(ctx); err != nil {
			return events, err
		}
		titles, err := w.fetchStation(ctx, st, day)
		if err != nil {
			if ctx.Err() != nil {
				return events, ctx.Err()
			}
			failures++
			lastErr = err
			w.logger.Warn("warning station skipped", "source", w.name, "station", st.ID, "error", err)
			continue
		}
		for _, title := range titles {
			events = append(events, parseWarningTitle(title, st.Name)...)
		}
	}

	if len(w.stations) > 0 && failures == len(w.stations) {
		return nil, fmt.Errorf("all %d stations failed: %w", failures, lastErr)
	}
	return events, nil
}

func (w *Warning) fetchStation(ctx context.Context, st Station, day string) ([]string, error) {
	body, err := w.fetcher.Get(ctx, w.baseURL, url.Values{
		"serviceKey": {w.key},
		"pageNo":     {"1"},
		"numOfRows":  {"10"},
		"dataType":   {"XML"},
		"stnId":      {strconv.Itoa(st.ID)},
		"fromTmFc":   {day},
		"toTmFc":     {day},
	})
	if err != nil {
		return nil, err
	}
	items, err := decodePortal[warningItem](w.name, body)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}

// parseWarningTitle turns a report title such as
//
//	[특보] 제07-12호 : 2025.07.14.15:00 / 호우주의보 발표(*)
//
// into one event per hazard keyword it announces. Titles that do not split
// into a date and an announcement yield nothing.
func parseWarningTitle(title, region string) []domain.CandidateEvent {
	title = warningPrefix.ReplaceAllString(title, "")
	title = warningNumber.ReplaceAllString(title, "")
	stamp, info, ok := strings.Cut(title, " / ")
	if !ok || strings.Contains(info, " / ") {
		return nil
	}
	if !warningLevel.MatchString(info) {
		return nil
	}

	var status string
	if all := warningStatus.FindAllString(info, -1); len(all) > 0 {
		status = all[len(all)-1]
	}

	var events []domain.CandidateEvent
	seen := make(map[string]bool)
	for _, kw := range warningKeyword.FindAllString(info, -1) {
		if seen[kw] {
			continue
		}
		seen[kw] = true

		details := []string{strings.TrimSpace(kw + " " + status)}
		occurred, details := domain.ParseKSTOrNow("2006.01.02.15:04", stamp, details)
		events = append(events, domain.CandidateEvent{
			HazardCode:   warningHazards[kw],
			OccurredAt:   occurred,
			LocationText: region,
			Details:      details,
		})
	}
	return events
}
