package domain

import (
	"strings"
	"time"
)

// SubstitutedTimeDetail marks an event whose upstream timestamp could not be
// parsed and was replaced by the fetch time.
const SubstitutedTimeDetail = "time: substituted"

// KST is Korea Standard Time. Korea does not observe daylight saving.
var KST = time.FixedZone("KST", 9*60*60)

// ParseKST parses a KST wall-clock string and returns it in UTC.
func ParseKST(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(value), KST)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseKSTOrNow parses a KST timestamp, falling back to the current time.
// The returned details have SubstitutedTimeDetail appended on fallback.
func ParseKSTOrNow(layout, value string, details []string) (time.Time, []string) {
	t, err := ParseKST(layout, value)
	if err != nil {
		return Now(), append(details, SubstitutedTimeDetail)
	}
	return t, details
}

// NowKST returns the current time in KST.
func NowKST() time.Time {
	return clock.Now().In(KST)
}
