package source

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

const quakeBulletin = `#START7777
# TP STN_ID TM_FC           TM_EQK          MT   LAT    LON     LOC
2 108 20250714152300 20250714150102 4.8 -6.12 151.30 파푸아뉴기니 뉴브리튼 지역
3 108 20250714152300 20250714152115 2.6 36.12 128.45 경북 김천시 남서쪽 10km 지역
3 108 20250714152300 2025071415 2.6 36.12 128.45 잘린 시각
3 108 20250714152300 20250714153000 abc 36.12 128.45 잘못된 규모
3 108
#7777END
`

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	b, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestEarthquake_Fetch(t *testing.T) {
	freezeKST(t, 2025, time.July, 14, 15, 30)
	payload := eucKR(t, quakeBulletin)

	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20250714153000", r.URL.Query().Get("tm"))
		assert.Equal(t, "hub-key", r.URL.Query().Get("authKey"))
		w.Header().Set("Content-Type", "text/plain;charset=euc-kr")
		_, _ = w.Write(payload)
	})

	e := NewEarthquake("earthquake", "hub-key", newTestFetcher("earthquake"), testLogger())
	e.baseURL = srv.URL

	events, err := e.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, domain.HazardEarthquake, ev.HazardCode)
	assert.Equal(t, time.Date(2025, time.July, 14, 6, 21, 15, 0, time.UTC), ev.OccurredAt)
	assert.Equal(t, "경북 김천시 남서쪽 10km 지역", ev.LocationText)
	assert.Equal(t, []string{
		"magnitude: 2.6",
		"location: 경북 김천시 남서쪽 10km 지역",
		"latitude: 36.12",
		"longitude: 128.45",
	}, ev.Details)
	require.NotNil(t, ev.Coordinates)
	assert.InDelta(t, 36.12, ev.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 128.45, ev.Coordinates.Lon, 1e-9)
}

func TestEarthquake_SameRowSameID(t *testing.T) {
	ev1, ok, err := parseQuakeLine("3 108 20250714152300 20250714152115 2.6 36.12 128.45 경북 김천시 남서쪽 10km 지역")
	require.NoError(t, err)
	require.True(t, ok)
	ev2, _, _ := parseQuakeLine("3,108,20250714160000,20250714152115,2.6,36.12,128.45,경북 김천시 남서쪽 10km 지역")

	assert.Equal(t, domain.GenerateID(ev1), domain.GenerateID(ev2), "forecast time is not part of the identity")
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "3.0", formatDecimal(3))
	assert.Equal(t, "2.6", formatDecimal(2.6))
	assert.Equal(t, "128.456", formatDecimal(128.456))
}
