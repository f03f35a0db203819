package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// identityTimeLayout truncates occurredAt to the second.
const identityTimeLayout = "20060102150405"

// IdentityKey builds the string hashed into a record ID.
func IdentityKey(e CandidateEvent) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(e.HazardCode)))
	b.WriteByte('_')
	b.WriteString(e.OccurredAt.UTC().Format(identityTimeLayout))
	b.WriteByte('_')
	b.WriteString(e.LocationText)
	b.WriteByte('_')
	b.WriteString(strings.Join(e.Details, "_"))
	return b.String()
}

// GenerateID returns the deterministic record ID for a candidate event.
// Identical content always maps to the same ID so storage can deduplicate
// re-observed upstream items with a conditional insert.
func GenerateID(e CandidateEvent) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(IdentityKey(e))).String()
}

// Canonicalize converts a candidate event into an RTD record with a
// content-derived ID. Enrichment fields are left nil.
func Canonicalize(e CandidateEvent) RtdRecord {
	details := make([]string, len(e.Details))
	copy(details, e.Details)
	return RtdRecord{
		ID:           GenerateID(e),
		HazardCode:   e.HazardCode,
		OccurredAt:   e.OccurredAt.UTC().Truncate(0),
		LocationText: e.LocationText,
		Details:      details,
		Visible:      true,
	}
}
