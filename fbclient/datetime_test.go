package fbclient

import (
	"testing"
	"time"
)

func TestDateRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1900, time.December, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
	}

	for _, want := range cases {
		encoded := EncodeDate(want)
		year, month, day := DecodeDate(encoded)
		got := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("round trip %v -> %d -> %v", want, encoded, got)
		}
	}
}

func TestTimeRoundTrip(t *testing.T) {
	want := time.Date(2000, 1, 1, 13, 45, 30, 500000000, time.UTC)
	encoded := EncodeTime(want)
	hour, min, sec, nsec := DecodeTime(encoded)
	if hour != 13 || min != 45 || sec != 30 {
		t.Fatalf("DecodeTime() = %d:%d:%d, want 13:45:30", hour, min, sec)
	}
	if nsec != 500000000 {
		t.Fatalf("nsec = %d, want 500000000", nsec)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	want := time.Date(2024, time.July, 4, 9, 30, 0, 0, time.UTC)
	d, tm := EncodeTimestamp(want)
	got := DecodeTimestamp(d, tm)
	if !got.Equal(want) {
		t.Fatalf("DecodeTimestamp() = %v, want %v", got, want)
	}
}

func TestEpochDateEncodesKnownValue(t *testing.T) {
	// Firebird's epoch (17 Nov 1858, the base of the Gregorian day-number
	// scheme) encodes to day 0.
	base := time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)
	if got := EncodeDate(base); got != 0 {
		t.Fatalf("EncodeDate(epoch) = %d, want 0", got)
	}
}
