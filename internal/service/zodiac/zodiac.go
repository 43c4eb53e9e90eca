// Package zodiac maps calendar dates to western zodiac signs, used to
// suggest temples for a user's birth sign.
package zodiac

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Sign is a zodiac sign with its inclusive month/day range. Capricorn's range
// wraps the new year.
type Sign struct {
	Name       string     `json:"name"`
	Thai       string     `json:"thai"`
	StartMonth time.Month `json:"-"`
	StartDay   int        `json:"-"`
	EndMonth   time.Month `json:"-"`
	EndDay     int        `json:"-"`
}

var signs = []Sign{
	{"Capricorn", "มังกร", time.December, 22, time.January, 19},
	{"Aquarius", "กุมภ์", time.January, 20, time.February, 18},
	{"Pisces", "มีน", time.February, 19, time.March, 20},
	{"Aries", "เมษ", time.March, 21, time.April, 19},
	{"Taurus", "พฤษภ", time.April, 20, time.May, 20},
	{"Gemini", "เมถุน", time.May, 21, time.June, 20},
	{"Cancer", "กรกฎ", time.June, 21, time.July, 22},
	{"Leo", "สิงห์", time.July, 23, time.August, 22},
	{"Virgo", "กันย์", time.August, 23, time.September, 22},
	{"Libra", "ตุลย์", time.September, 23, time.October, 22},
	{"Scorpio", "พิจิก", time.October, 23, time.November, 21},
	{"Sagittarius", "ธนู", time.November, 22, time.December, 21},
}

// Signs returns all twelve signs starting with Capricorn.
func Signs() []Sign {
	out := make([]Sign, len(signs))
	copy(out, signs)
	return out
}

func (s Sign) wraps() bool {
	return s.EndMonth < s.StartMonth
}

func (s Sign) contains(m time.Month, d int) bool {
	afterStart := m > s.StartMonth || (m == s.StartMonth && d >= s.StartDay)
	beforeEnd := m < s.EndMonth || (m == s.EndMonth && d <= s.EndDay)
	if s.wraps() {
		return afterStart || beforeEnd
	}
	return afterStart && beforeEnd
}

// Range is a concrete date range of a sign.
type Range struct {
	Sign  Sign      `json:"sign"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ForDate returns the sign containing date and that sign's range around it.
// For Capricorn the range spans two calendar years.
func ForDate(date time.Time) (Range, error) {
	if date.IsZero() {
		return Range{}, ErrInvalidDate
	}
	m, d, y := date.Month(), date.Day(), date.Year()
	loc := date.Location()

	for _, s := range signs {
		if !s.contains(m, d) {
			continue
		}
		startYear, endYear := y, y
		if s.wraps() {
			if m == s.EndMonth {
				startYear = y - 1
			} else {
				endYear = y + 1
			}
		}
		return Range{
			Sign:  s,
			Start: time.Date(startYear, s.StartMonth, s.StartDay, 0, 0, 0, 0, loc),
			End:   time.Date(endYear, s.EndMonth, s.EndDay, 23, 59, 59, 0, loc),
		}, nil
	}
	return Range{}, ErrInvalidDate
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
