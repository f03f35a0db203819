package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"golang.org/x/net/html"
)

const floodURL = "https://www.water.or.kr/kor/flood/floodwarning/index.do?mode=list&types=1&menuId=16_166_170_172"

// Flood reports rows of the national flood-warning table.
type Flood struct {
	name    string
	baseURL string
	fetcher *Fetcher
	logger  *slog.Logger

	// statusChangeOnly suppresses rows whose alert status matches the last
	// one seen for the same gauge.
	statusChangeOnly bool
	mu               sync.Mutex
	lastStatus       map[string]string
}

// NewFlood creates the flood adapter. With statusChangeOnly set, a gauge is
// reported again only after its alert status changes.
func NewFlood(name string, fetcher *Fetcher, statusChangeOnly bool, logger *slog.Logger) *Flood {
	return &Flood{
		name:             name,
		baseURL:          floodURL,
		fetcher:          fetcher,
		logger:           logger,
		statusChangeOnly: statusChangeOnly,
		lastStatus:       make(map[string]string),
	}
}

func (f *Flood) Name() string { return f.name }

func (f *Flood) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	body, err := f.fetcher.Get(ctx, f.baseURL, nil)
	if err != nil {
		return nil, err
	}
	rows, err := parseFloodTable(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, f.name, err)
	}

	events := make([]domain.CandidateEvent, 0, len(rows))
	for _, r := range rows {
		if f.statusChangeOnly && !f.statusChanged(r.region, r.status) {
			continue
		}
		details := []string{
			fmt.Sprintf("현재 수위: %sm", r.level),
			fmt.Sprintf("주의보 수위: %sm", r.advisoryLevel),
			fmt.Sprintf("경보 수위: %sm", r.warningLevel),
			fmt.Sprintf("유량: %s㎥/s", r.flowRate),
			fmt.Sprintf("예경보 현황: %s", r.status),
		}
		occurred, details := domain.ParseKSTOrNow("2006-01-02 15:04", r.issuedAt, details)
		events = append(events, domain.CandidateEvent{
			HazardCode:   domain.HazardFlood,
			OccurredAt:   occurred,
			LocationText: r.region,
			Details:      details,
		})
	}
	return events, nil
}

func (f *Flood) statusChanged(region, status string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.lastStatus[region]; ok && prev == status {
		return false
	}
	f.lastStatus[region] = status
	return true
}

type floodRow struct {
	region        string
	level         string
	advisoryLevel string
	warningLevel  string
	flowRate      string
	status        string
	issuedAt      string
}

// parseFloodTable reads tbody rows of table.basic_table. Rows with fewer
// than seven cells are ignored. A page without the table has no rows.
func parseFloodTable(page []byte) ([]floodRow, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	table := findFirst(doc, func(n *html.Node) bool {
		return n.Data == "table" && hasClass(n, "basic_table")
	})
	if table == nil {
		return nil, nil
	}
	tbody := findFirst(table, isTag("tbody"))
	if tbody == nil {
		return nil, nil
	}

	var rows []floodRow
	for _, tr := range findAll(tbody, isTag("tr")) {
		cells := findAll(tr, isTag("td"))
		if len(cells) < 7 {
			continue
		}
		rows = append(rows, floodRow{
			region:        textContent(cells[0]),
			level:         textContent(cells[1]),
			advisoryLevel: textContent(cells[2]),
			warningLevel:  textContent(cells[3]),
			flowRate:      textContent(cells[4]),
			status:        textContent(cells[5]),
			issuedAt:      textContent(cells[6]),
		})
	}
	return rows, nil
}
