package source

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/couchcryptid/disaster-rtd-service/internal/domain"
)

// Result codes of the public data portal envelope.
const (
	portalOK     = "00"
	portalNoData = "03"
)

type portalHeader struct {
	ResultCode string `xml:"resultCode"`
	ResultMsg  string `xml:"resultMsg"`
}

type portalResponse[T any] struct {
	XMLName xml.Name     `xml:"response"`
	Header  portalHeader `xml:"header"`
	Items   []T          `xml:"body>items>item"`
}

// decodePortal unwraps the data.go.kr XML envelope. A NODATA result yields
// an empty slice; any other non-OK result is an upstream failure.
func decodePortal[T any](source string, data []byte) ([]T, error) {
	var resp portalResponse[T]
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %w", domain.ErrParse, source, err)
	}
	switch code := strings.TrimSpace(resp.Header.ResultCode); code {
	case portalOK, "":
		return resp.Items, nil
	case portalNoData:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s result %s: %s", domain.ErrUpstreamUnavailable, source, code, resp.Header.ResultMsg)
	}
}
