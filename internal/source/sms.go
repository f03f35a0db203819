package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/lru"
	"golang.org/x/net/html"
)

const disasterSMSURL = "https://www.safekorea.go.kr/idsiSFK/neo/sfk/cs/sfc/dis/disasterMsgList.jsp?menuSeq=603"

var smsRowID = regexp.MustCompile(`^disasterSms_tr_(\d+)_apiData1$`)

// DisasterSMS scrapes the public emergency broadcast message board.
type DisasterSMS struct {
	name      string
	pageURL   string
	renderer  PageRenderer
	extractor domain.LocationExtractor
	seen      *lru.Cache[string, struct{}]
	logger    *slog.Logger
}

// NewDisasterSMS creates the SMS adapter. seenSize bounds the in-process set
// of message serials already stored.
func NewDisasterSMS(name string, renderer PageRenderer, extractor domain.LocationExtractor, seenSize int, logger *slog.Logger) *DisasterSMS {
	return &DisasterSMS{
		name:      name,
		pageURL:   disasterSMSURL,
		renderer:  renderer,
		extractor: extractor,
		seen:      lru.New[string, struct{}](seenSize),
		logger:    logger,
	}
}

func (d *DisasterSMS) Name() string { return d.name }

func (d *DisasterSMS) Fetch(ctx context.Context) ([]domain.CandidateEvent, error) {
	page, err := d.renderer.Render(ctx, d.pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, d.name, err)
	}

	var events []domain.CandidateEvent
	for _, row := range findAll(doc, func(n *html.Node) bool {
		return n.Data == "tr" && smsRowID.MatchString(attr(n, "id"))
	}) {
		msg, err := parseSMSRow(row)
		if err != nil {
			d.logger.Warn("sms row skipped", "source", d.name, "row", attr(row, "id"), "error", err)
			continue
		}
		if d.seen.Contains(msg.serial) {
			continue
		}
		events = append(events, d.toEvent(ctx, msg))
	}
	return events, nil
}

// Ack marks the message as stored so later fetches skip it.
func (d *DisasterSMS) Ack(e domain.CandidateEvent) {
	if e.SourceRef != "" {
		d.seen.Put(e.SourceRef, struct{}{})
	}
}

// toEvent keys the record on the issuing region. The place extracted from
// the message body only guides geocoding.
func (d *DisasterSMS) toEvent(ctx context.Context, m smsMessage) domain.CandidateEvent {
	var hint string
	if d.extractor != nil {
		if found := d.extractor.ExtractLocations(ctx, m.content); len(found) > 0 {
			hint = found[0]
		}
	}

	details := []string{
		"emergency_level: " + m.level,
		"DM_ntype: " + m.disasterType,
		"issuing_agency: " + m.region,
		"content: " + m.content,
	}
	occurred, details := domain.ParseKSTOrNow("2006/01/02 15:04:05", m.issuedAt, details)

	return domain.CandidateEvent{
		HazardCode:   domain.HazardDisasterSMS,
		OccurredAt:   occurred,
		LocationText: m.region,
		Details:      details,
		GeocodeHint:  hint,
		SourceRef:    m.serial,
	}
}

type smsMessage struct {
	serial       string
	level        string
	disasterType string
	region       string
	issuedAt     string
	content      string
}

// parseSMSRow reads the cells of one board row. Cell ids share the row
// index: disasterSms_tr_{idx}_{FIELD}.
func parseSMSRow(row *html.Node) (smsMessage, error) {
	m := smsRowID.FindStringSubmatch(attr(row, "id"))
	if m == nil {
		return smsMessage{}, fmt.Errorf("%w: unexpected row id", domain.ErrParse)
	}
	prefix := "disasterSms_tr_" + m[1] + "_"

	cell := func(field string) (*html.Node, error) {
		n := findFirst(row, hasID(prefix+field))
		if n == nil {
			return nil, fmt.Errorf("%w: missing %s cell", domain.ErrParse, field)
		}
		return n, nil
	}

	var msg smsMessage
	serialCell, err := cell("MD101_SN")
	if err != nil {
		return msg, err
	}
	serial, err := strconv.ParseInt(textContent(serialCell), 10, 64)
	if err != nil {
		return msg, fmt.Errorf("%w: serial: %w", domain.ErrParse, err)
	}
	msg.serial = strconv.FormatInt(serial, 10)

	for field, dst := range map[string]*string{
		"EMRGNCY_STEP_NM": &msg.level,
		"DSSTR_SE_NM":     &msg.disasterType,
		"MSG_LOC":         &msg.region,
		"CREATE_DT":       &msg.issuedAt,
	} {
		n, err := cell(field)
		if err != nil {
			return msg, err
		}
		*dst = textContent(n)
	}

	contentCell, err := cell("MSG_CN")
	if err != nil {
		return msg, err
	}
	msg.content = strings.TrimSpace(attr(contentCell, "title"))
	if msg.content == "" {
		msg.content = textContent(contentCell)
	}
	return msg, nil
}
