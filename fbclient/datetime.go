package fbclient

import "time"

// TimeSecondsPrecision is the number of time units per second Firebird
// encodes a TIME/TIMESTAMP's time-of-day component in (ten-thousandths of
// a second).
const TimeSecondsPrecision = 10000

const fractionToNanos = 1e9 / TimeSecondsPrecision

// EncodeDate converts a calendar date to Firebird's day-number
// representation, ported from the server's own gregorian conversion
// routine (the constants' provenance is lost even in the reference
// implementation this was taken from).
func EncodeDate(t time.Time) int32 {
	day := int64(t.Day())
	month := int64(t.Month())
	year := int64(t.Year())

	if month > 2 {
		month -= 3
	} else {
		month += 9
		year--
	}

	c := year / 100
	ya := year - 100*c

	return int32(146097*c/4 + 1461*ya/4 + (153*month+2)/5 + day + 1721119 - 2400001)
}

// DecodeDate converts a Firebird day number back to a calendar date.
func DecodeDate(date int32) (year int, month time.Month, day int) {
	nday := int64(date)
	nday += 2400001 - 1721119

	century := (4*nday - 1) / 146097
	nday = 4*nday - 1 - 146097*century

	d := nday / 4
	nday = (4*d + 3) / 1461
	d = 4*d + 3 - 1461*nday
	d = (d + 4) / 4

	m := (5*d - 3) / 153
	d = 5*d - 3 - 153*m
	d = (d + 5) / 5

	y := 100*century + nday

	if m < 10 {
		m += 3
	} else {
		m -= 9
		y++
	}

	return int(y), time.Month(m), int(d)
}

// EncodeTime converts a time-of-day to Firebird's ten-thousandths-of-a-
// second-since-midnight representation.
func EncodeTime(t time.Time) uint32 {
	hours := uint32(t.Hour())
	minutes := uint32(t.Minute())
	seconds := uint32(t.Second())
	fraction := uint32(t.Nanosecond()) / fractionToNanos

	return ((hours*60+minutes)*60+seconds)*TimeSecondsPrecision + fraction
}

// DecodeTime converts Firebird's time-of-day encoding to hour/minute/
// second/nanosecond components.
func DecodeTime(v uint32) (hour, min, sec, nsec int) {
	ntime := v
	hour = int(ntime / (3600 * TimeSecondsPrecision))
	ntime %= 3600 * TimeSecondsPrecision

	min = int(ntime / (60 * TimeSecondsPrecision))
	ntime %= 60 * TimeSecondsPrecision

	sec = int(ntime / TimeSecondsPrecision)
	fraction := ntime % TimeSecondsPrecision
	nsec = int(fraction * fractionToNanos)
	return
}

// EncodeTimestamp splits t (interpreted in UTC) into Firebird's two-field
// TIMESTAMP wire representation.
func EncodeTimestamp(t time.Time) (date int32, timeOfDay uint32) {
	u := t.UTC()
	return EncodeDate(u), EncodeTime(u)
}

// DecodeTimestamp reassembles a Firebird TIMESTAMP's date/time halves into
// a time.Time in UTC.
func DecodeTimestamp(date int32, timeOfDay uint32) time.Time {
	year, month, day := DecodeDate(date)
	hour, min, sec, nsec := DecodeTime(timeOfDay)
	return time.Date(year, month, day, hour, min, sec, nsec, time.UTC)
}
