// Package domain models Korean disaster signals as canonical RTD records.
//
// # Sources
//
// Every upstream is a Korean government service that reports local time
// (KST, UTC+9) in its own layout:
//
//	air forecast   "2025-05-15 05시 발표"   hour-precision bulletin time
//	air grade      "2025-05-15 14:00"       hourly station measurement
//	earthquake     "20250515143012"         whitespace-separated text feed, EUC-KR
//	typhoon        "202505151000"           XML forecast issue time
//	flood          "2025-05-15 14:20"       HTML table cell
//	warning        "2025.05.15.14:00"       embedded in the bulletin title
//	disaster SMS   "2025/05/15 14:20:11"    scraped DOM cell
//
// Adapters convert all of them to UTC with [ParseKST]. When a timestamp
// cannot be parsed the adapter substitutes the current time and appends
// [SubstitutedTimeDetail] to the event details.
//
// # Hazard Codes
//
// The hazard code is a fixed two-digit enumeration (see [HazardCode]). The
// tens digit groups related hazards: 2x citizen broadcasts, 3x weather, 4x
// temperature, 5x seismic, 7x air quality.
//
// # ID Generation
//
// Record IDs are name-based UUIDs (version 5, DNS namespace) over
//
//	{code}_{YYYYMMDDhhmmss UTC}_{location}_{detail1_detail2_...}
//
// so re-fetching the same upstream item yields the same ID and the
// conditional insert in storage turns it into a no-op. See [Canonicalize].
package domain
