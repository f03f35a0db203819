package ner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressExtractor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"full mountain lot", "[하남시] 하남시 하산곡동 산51-2 일대 산불 발생, 인근 주민 대피", "하남시 하산곡동 산51-2"},
		{"partial mountain lot", "오늘 14시 하산곡동 산51 부근 산사태 위험", "하산곡동 산51"},
		{"district and dong", "강남구 대치동 일대 침수, 우회 바랍니다", "강남구 대치동"},
		{"issuer tag", "[창원시] 호우경보 발효 중, 하천변 산책로 이용 자제", "창원시"},
		{"region name", "부산광역시 전역 강풍 주의", "부산광역시"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddressExtractor{}.ExtractLocations(context.Background(), tt.text)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestAddressExtractor_NoMatch(t *testing.T) {
	assert.Empty(t, AddressExtractor{}.ExtractLocations(context.Background(), ""))
	assert.Empty(t, AddressExtractor{}.ExtractLocations(context.Background(), "외출을 자제하여 주시기 바랍니다"))
}

func TestAddressExtractor_Deduplicates(t *testing.T) {
	got := AddressExtractor{}.ExtractLocations(context.Background(), "[하남시] 하남시 덕풍동 침수. 하남시 덕풍동 통제")
	assert.Equal(t, []string{"하남시 덕풍동", "하남시"}, got)
}

func TestRemoteExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req nerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Text == "empty" {
			_, _ = w.Write([]byte(`{"locations":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(nerResponse{Locations: []string{"수원시 장안구"}})
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRemoteExtractor(srv.URL, time.Second, AddressExtractor{}, logger)

	assert.Equal(t, []string{"수원시 장안구"}, r.ExtractLocations(context.Background(), "장안구 일대 정전"))
	assert.Nil(t, r.ExtractLocations(context.Background(), "empty"))
}

func TestRemoteExtractor_FallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRemoteExtractor(srv.URL, time.Second, AddressExtractor{}, logger)

	assert.Equal(t, []string{"강남구 대치동", "강남구"}, r.ExtractLocations(context.Background(), "강남구 대치동 침수"))
}

func TestRemoteExtractor_HonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRemoteExtractor(srv.URL, time.Minute, AddressExtractor{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	got := r.ExtractLocations(ctx, "강남구 대치동 침수")
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}
