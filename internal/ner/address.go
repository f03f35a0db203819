// Package ner extracts place names from free-form disaster message text.
package ner

import (
	"context"
	"regexp"
	"strings"
)

// Patterns in priority order: the most specific address form wins.
var addressPatterns = []*regexp.Regexp{
	// 시·군·구 + 읍·면·동 + mountain lot, e.g. 하남시 하산곡동 산51-2
	regexp.MustCompile(`[가-힣]+(?:시|군|구)\s+[가-힣]+(?:읍|면|동)\s*산\d+(?:-\d+)?`),
	// 읍·면·동 + mountain lot, e.g. 하산곡동 산51-2
	regexp.MustCompile(`[가-힣]+(?:읍|면|동)\s*산\d+(?:-\d+)?`),
	// 시·군·구 + 읍·면·동, e.g. 하남시 하산곡동
	regexp.MustCompile(`[가-힣]+(?:시|군|구)\s+[가-힣]+(?:읍|면|동)`),
}

var (
	// Issuer tag that opens most broadcasts, e.g. [하남시].
	issuerTag = regexp.MustCompile(`\[([가-힣]{2,}(?:특별시|광역시|특별자치시|특별자치도|시|군|구|도))\]`)
	// Stand-alone administrative names.
	regionName = regexp.MustCompile(`[가-힣]{2,}(?:특별시|광역시|특별자치시|특별자치도|시|군|구)`)
)

// AddressExtractor finds addresses with fixed patterns. It needs no model
// and is the default extractor.
type AddressExtractor struct{}

// ExtractLocations returns candidate place names, most specific first,
// without duplicates.
func (AddressExtractor) ExtractLocations(_ context.Context, text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, p := range addressPatterns {
		for _, m := range p.FindAllString(text, -1) {
			add(m)
		}
	}
	for _, m := range issuerTag.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range regionName.FindAllString(text, -1) {
		add(m)
	}
	return out
}
