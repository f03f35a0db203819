// Package notify fans a push notification out to every registered device
// when a new record is stored.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
)

// DefaultBatchSize is the transport's per-request token limit.
const DefaultBatchSize = 500

// airGradeAlertLevel mirrors the station threshold for "bad" air.
const airGradeAlertLevel = 3

// TokenSource lists the devices to notify.
type TokenSource interface {
	DeviceTokens(ctx context.Context) ([]string, error)
}

// Sender delivers one message to a batch of tokens.
type Sender interface {
	SendBatch(ctx context.Context, tokens []string, msg domain.PushMessage) (domain.BatchResult, error)
}

var titles = map[domain.HazardCode]string{
	domain.HazardDisasterSMS: "[긴급재난문자]",
	domain.HazardTyphoon:     "[태풍 정보]",
	domain.HazardHeavyRain:   "[호우 특보]",
	domain.HazardFlood:       "[홍수 정보]",
	domain.HazardStrongWind:  "[강풍 특보]",
	domain.HazardHeavySnow:   "[대설 특보]",
	domain.HazardHeatWave:    "[폭염 특보]",
	domain.HazardColdWave:    "[한파 특보]",
	domain.HazardEarthquake:  "[지진 알림]",
	domain.HazardAirGrade:    "[대기질 경보]",
	domain.HazardAirForecast: "[미세먼지 예보]",
}

// Title returns the notification title for a hazard code.
func Title(code domain.HazardCode) string {
	if t, ok := titles[code]; ok {
		return t
	}
	return fmt.Sprintf("[재난 알림 - 코드 %d]", int(code))
}

// Message renders the push content for a record.
func Message(r domain.RtdRecord) domain.PushMessage {
	return domain.PushMessage{
		Title: Title(r.HazardCode),
		Body:  fmt.Sprintf("지역: %s / 상세: %s", r.LocationText, strings.Join(r.Details, ", ")),
		Data: map[string]string{
			"id":       r.ID,
			"rtd_code": strconv.Itoa(int(r.HazardCode)),
			"rtd_time": r.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"),
			"rtd_loc":  r.LocationText,
		},
	}
}

// ShouldNotify reports whether a record warrants a push. Air-grade records
// need a PM grade at or above the alert level; everything else notifies.
func ShouldNotify(r domain.RtdRecord) bool {
	if r.HazardCode != domain.HazardAirGrade {
		return true
	}
	for _, d := range r.Details {
		key, value, ok := strings.Cut(d, ":")
		if !ok || (key != "pm10_grade" && key != "pm25_grade") {
			continue
		}
		if g, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && g >= airGradeAlertLevel {
			return true
		}
	}
	return false
}

// Notifier sends push messages for newly inserted records.
type Notifier struct {
	tokens    TokenSource
	sender    Sender
	batchSize int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func New(tokens TokenSource, sender Sender, batchSize int, metrics *observability.Metrics, logger *slog.Logger) *Notifier {
	if batchSize <= 0 || batchSize > DefaultBatchSize {
		batchSize = DefaultBatchSize
	}
	return &Notifier{tokens: tokens, sender: sender, batchSize: batchSize, metrics: metrics, logger: logger}
}

// Notify sends r to every device in batches. Delivery failures are logged
// per token and never retried. The error reports only a failure to list
// tokens or a cancelled context.
func (n *Notifier) Notify(ctx context.Context, r domain.RtdRecord) (domain.BatchResult, error) {
	var total domain.BatchResult
	if !ShouldNotify(r) {
		return total, nil
	}

	tokens, err := n.tokens.DeviceTokens(ctx)
	if err != nil {
		return total, fmt.Errorf("list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		n.logger.Warn("no registered devices to notify", "id", r.ID)
		return total, nil
	}

	msg := Message(r)
	for start := 0; start < len(tokens); start += n.batchSize {
		end := min(start+n.batchSize, len(tokens))
		chunk := tokens[start:end]

		res, err := n.sender.SendBatch(ctx, chunk, msg)
		total.SuccessCount += res.SuccessCount
		total.FailureCount += res.FailureCount
		total.FailedTokens = append(total.FailedTokens, res.FailedTokens...)
		n.metrics.PushMessages.WithLabelValues("success").Add(float64(res.SuccessCount))
		n.metrics.PushMessages.WithLabelValues("failure").Add(float64(res.FailureCount))

		n.logger.Info("push batch sent",
			"id", r.ID,
			"hazard_code", int(r.HazardCode),
			"range", fmt.Sprintf("%d-%d", start+1, end),
			"success", res.SuccessCount,
			"failure", res.FailureCount,
		)
		for _, tok := range res.FailedTokens {
			n.logger.Warn("push delivery failed", "id", r.ID, "token", tok)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
