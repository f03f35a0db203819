package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func testRecord() domain.RtdRecord {
	return domain.Canonicalize(domain.CandidateEvent{
		HazardCode:   domain.HazardFlood,
		OccurredAt:   time.Date(2025, time.July, 10, 3, 0, 0, 0, time.UTC),
		LocationText: "한강대교",
		Details:      []string{"현재 수위: 5.2m"},
	})
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, time.July, 10, 3, 5, 0, 0, time.UTC)
	rec := testRecord()

	msg, err := serializeToMessage(rec, now)
	require.NoError(t, err)

	assert.Equal(t, []byte(rec.ID), msg.Key)
	assert.Contains(t, string(msg.Value), `"rtd_code":33`)
	assert.Contains(t, string(msg.Value), `"rtd_loc":"한강대교"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "rtd_code", msg.Headers[0].Key)
	assert.Equal(t, []byte("33"), msg.Headers[0].Value)
	assert.Equal(t, []byte("flood"), msg.Headers[1].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublish(t *testing.T) {
	w := &recordingWriter{}
	now := time.Date(2025, time.July, 10, 3, 5, 0, 0, time.UTC)
	p := &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), now: func() time.Time { return now }}

	rec := testRecord()
	require.NoError(t, p.Publish(context.Background(), []domain.RtdRecord{rec, rec}))
	require.Len(t, w.msgs, 2)

	var decoded domain.RtdRecord
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, rec.ID, decoded.ID)
	assert.True(t, decoded.Visible)
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	w := &recordingWriter{err: errors.New("should not be called")}
	p := &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), now: time.Now}
	assert.NoError(t, p.Publish(context.Background(), nil))
}

func TestPublish_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), now: time.Now}

	err := p.Publish(context.Background(), []domain.RtdRecord{testRecord()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
