// Package timeutil holds the civil-time conversions the API depends on.
// Stored timestamps are treated as UTC regardless of how the driver scanned
// them, and display times are anchored to a fixed reference zone so the host
// machine's local timezone never leaks into responses.
package timeutil

import "time"

// saoPauloOffsetSeconds is the fixed UTC-3 offset of the reference zone.
const saoPauloOffsetSeconds = -3 * 60 * 60

// SaoPaulo is the fixed reference civil timezone for display times.
var SaoPaulo = time.FixedZone("America/Sao_Paulo", saoPauloOffsetSeconds)

// MillisUTC converts a stored timestamp to epoch milliseconds, reading its
// wall-clock fields as UTC. Drivers that scan timezone-less columns into the
// local zone would otherwise skew the instant by the local offset.
func MillisUTC(t time.Time) int64 {
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return u.UnixMilli()
}

// MillisUTCPtr converts an optional stored timestamp to epoch milliseconds.
func MillisUTCPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := MillisUTC(*t)
	return &ms
}

// TruncateToMinute zeroes seconds and sub-second fields of the instant.
func TruncateToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// FormatHHMM formats the instant in the reference zone as zero-padded 24-hour HH:MM.
func FormatHHMM(t time.Time) string {
	return t.In(SaoPaulo).Format("15:04")
}
