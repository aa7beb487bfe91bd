// Package biztime centralizes time handling. All storage and transport use
// UTC; wall-clock reads go through NowUTC so tests can reason about a single
// source of truth.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// MinutesBetween returns the whole minutes elapsed from start to end.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// FormatMetadataTime formats a UTC time using RFC3339 for serialized payloads.
func FormatMetadataTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// ParseMetadataTime parses a timestamp serialized with FormatMetadataTime.
func ParseMetadataTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
