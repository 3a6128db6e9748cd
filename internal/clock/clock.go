// Package clock centralizes time handling: storage is always UTC, business
// time is IST (UTC+5:30). Round identifiers are derived from IST wall-clock.
package clock

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// IST is the business timezone. A fixed offset, no DST.
var IST = time.FixedZone("IST", 5*3600+1800)

// RoundInterval is the fixed length of every betting round.
const RoundInterval = 5 * time.Minute

// gameIDLayout renders an IST start time as a 12-digit round id.
const gameIDLayout = "200601021504"

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Clock allows deterministic time behavior in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the current wall-clock time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// ToIST converts a timestamp to IST wall-clock.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// ToUTC converts a timestamp to UTC for storage.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatIST renders t in IST using the given layout.
func FormatIST(t time.Time, layout string) string {
	return t.In(IST).Format(layout)
}

// GameID derives the 12-digit YYYYMMDDHHMM round id from a start time.
func GameID(start time.Time) string {
	return start.In(IST).Format(gameIDLayout)
}

// ParseGameID recovers the UTC start time from a round id.
func ParseGameID(id string) (time.Time, error) {
	t, err := time.ParseInLocation(gameIDLayout, id, IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse game id %q: %w", id, err)
	}
	return t.UTC(), nil
}

// NextBoundary returns the next 5-minute grid point strictly after t.
// Grid points sit on IST wall-clock minutes divisible by 5; since the IST
// offset is itself a multiple of 30 minutes, truncating in UTC is equivalent.
func NextBoundary(t time.Time) time.Time {
	return t.UTC().Truncate(RoundInterval).Add(RoundInterval)
}

// ParseHHMM validates and splits a "HH:MM" time-of-day string.
func ParseHHMM(s string) (hour, minute int, err error) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid HH:MM time %q", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// WithinDailyWindow reports whether t falls inside the [open, close) IST
// daily window given as "HH:MM" strings.
func WithinDailyWindow(t time.Time, open, close string) (bool, error) {
	oh, om, err := ParseHHMM(open)
	if err != nil {
		return false, err
	}
	ch, cm, err := ParseHHMM(close)
	if err != nil {
		return false, err
	}
	ist := t.In(IST)
	minutes := ist.Hour()*60 + ist.Minute()
	return minutes >= oh*60+om && minutes < ch*60+cm, nil
}

// ISTDayBounds returns the UTC instants bounding the IST calendar day that
// contains the given YYYY-MM-DD date string.
func ISTDayBounds(date string) (start, end time.Time, err error) {
	d, err := time.ParseInLocation("2006-01-02", date, IST)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return d.UTC(), d.Add(24 * time.Hour).UTC(), nil
}
