package tinyfat

import (
	"time"
)

// Packed FAT date:
//
//	Bits 0–4:  day of month, 1–31
//	Bits 5–8:  month of year, 1–12
//	Bits 9–15: years since 1980, 0–127 (1980–2107)
//
// Packed FAT time, with a granularity of two seconds:
//
//	Bits 0–4:   2-second count, 0–29
//	Bits 5–10:  minutes, 0–59
//	Bits 11–15: hours, 0–23
const (
	secondsPerDay = 24 * 60 * 60
	lastSecond    = secondsPerDay - 1
)

// unpackDate returns the fields of a packed date. ok is false for day or month 0.
func unpackDate(date uint16) (year int, month time.Month, day int, ok bool) {
	day = int(date & 0x1F)
	month = time.Month(date >> 5 & 0x0F)
	year = 1980 + int(date>>9)
	return year, month, day, day != 0 && month != 0
}

// unpackTime returns the packed time as seconds since midnight, capped at 23:59:59.
func unpackTime(clock uint16) int {
	seconds := int(clock>>11)*3600 + int(clock>>5&0x3F)*60 + int(clock&0x1F)*2
	if seconds > lastSecond {
		return lastSecond
	}
	return seconds
}

// ParseDate decodes a packed FAT date to 00:00:00 UTC of that day.
// Day or month 0 is invalid, in that case the zero time.Time is returned so that IsZero() reports it.
// A month above 12 rolls over into the next year, as time.Date normalizes it.
func ParseDate(date uint16) time.Time {
	return parseTimestamp(date, 0)
}

// ParseTime decodes a packed FAT time on January 1, year 1.
// Values beyond the end of the day are capped at 23:59:59.
func ParseTime(clock uint16) time.Time {
	return time.Date(1, 1, 1, 0, 0, unpackTime(clock), 0, time.UTC)
}

// parseTimestamp combines a packed date and time field of a directory entry.
// An invalid date yields the zero time.Time, a zero time field is midnight.
func parseTimestamp(date, clock uint16) time.Time {
	year, month, day, ok := unpackDate(date)
	if !ok {
		return time.Time{}
	}
	return time.Date(year, month, day, 0, 0, unpackTime(clock), 0, time.UTC)
}
