package source

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// freezeKST pins the domain clock to the given KST wall time.
func freezeKST(t *testing.T, year int, month time.Month, day, hour, minute int) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(year, month, day, hour, minute, 0, 0, domain.KST)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestFetcher(name string) *Fetcher {
	return NewFetcherWithClient(name, &http.Client{Timeout: 2 * time.Second}, testLogger())
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func staticXML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml;charset=UTF-8")
		_, _ = io.WriteString(w, body)
	}
}

func portalXML(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<response><header><resultCode>00</resultCode><resultMsg>NORMAL_CODE</resultMsg></header>
<body><items>` + items + `</items><numOfRows>10</numOfRows><pageNo>1</pageNo></body></response>`
}

const portalNoDataXML = `<response><header><resultCode>03</resultCode><resultMsg>NODATA_ERROR</resultMsg></header></response>`
