//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	kafkaadapter "github.com/couchcryptid/disaster-rtd-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/couchcryptid/disaster-rtd-service/internal/observability"
	"github.com/couchcryptid/disaster-rtd-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-rtd-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("rtd-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type memStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memStore) InsertIfAbsent(_ context.Context, r domain.RtdRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[r.ID] {
		return false, nil
	}
	m.seen[r.ID] = true
	return true, nil
}

type fixedSource struct {
	events []domain.CandidateEvent
}

func (fixedSource) Name() string { return "earthquake" }

func (s fixedSource) Fetch(context.Context) ([]domain.CandidateEvent, error) {
	return s.events, nil
}

// TestPipelinePublishesOnlyNewRecords runs two ingest cycles over the same
// upstream batch and verifies each record reaches the topic exactly once.
func TestPipelinePublishesOnlyNewRecords(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	publisher := kafkaadapter.NewPublisher([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	p := pipeline.New(
		pipeline.NewTransformer(nil, discardLogger()),
		&memStore{seen: map[string]bool{}},
		discardLogger(),
		observability.NewMetricsForTesting(),
		pipeline.WithPublisher(publisher),
	)

	base := time.Date(2025, time.May, 15, 5, 0, 0, 0, time.UTC)
	var events []domain.CandidateEvent
	for i := 0; i < 3; i++ {
		events = append(events, domain.CandidateEvent{
			HazardCode:   domain.HazardEarthquake,
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
			LocationText: "경북 구미시",
			Details:      []string{fmt.Sprintf("magnitude: 2.%d", i)},
			Coordinates:  &domain.Coordinates{Lat: 36.1, Lon: 128.3},
		})
	}
	src := fixedSource{events: events}

	first, err := p.Ingest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	second, err := p.Ingest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Duplicates)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := map[string]domain.RtdRecord{}
	for len(got) < 3 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from topic")

		var rec domain.RtdRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		assert.Equal(t, rec.ID, string(msg.Key))

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "51", headers["rtd_code"])
		assert.Equal(t, "earthquake", headers["hazard"])
		_, err = time.Parse(time.RFC3339, headers["published_at"])
		assert.NoError(t, err, "published_at should be RFC 3339")

		got[rec.ID] = rec
	}

	for _, ev := range events {
		rec, ok := got[domain.GenerateID(ev)]
		require.True(t, ok, "missing record for %v", ev.Details)
		require.NotNil(t, rec.Latitude)
		assert.InDelta(t, 36.1, *rec.Latitude, 1e-9)
	}

	// No fourth message: the second cycle published nothing.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no duplicate messages on topic")
}
