// Package calendar holds the filing-period and statutory deadline arithmetic
// used by filing sessions.
package calendar

import (
	"fmt"
	"time"

	"github.com/jedlsf/buwis-friend/internal/domain"
)

const (
	MinYear = 1800
	MaxYear = 3000

	dateLayout = "2006-01-02"
)

// Manila is Philippine Standard Time. The Philippines observes no DST, so a
// fixed zone avoids depending on the host tz database.
var Manila = time.FixedZone("PST", 8*60*60)

// Period is a {year, quarter} filing period.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Validate checks the year and quarter ranges.
func (p Period) Validate() error {
	if err := validateYear(p.Year); err != nil {
		return err
	}
	return validateQuarter(p.Quarter)
}

// Range returns the inclusive bounds of the period.
func (p Period) Range() (time.Time, time.Time, error) {
	return QuarterRange(p.Quarter, p.Year)
}

// Contains reports whether t falls inside the period. An invalid period
// contains nothing.
func (p Period) Contains(t time.Time) bool {
	start, end, err := p.Range()
	if err != nil {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

func (p Period) String() string {
	return fmt.Sprintf("%dQ%d", p.Year, p.Quarter)
}

func validateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return domain.NewFieldError("year", fmt.Sprintf("must be between %d and %d, got %d", MinYear, MaxYear, year))
	}
	return nil
}

func validateQuarter(quarter int) error {
	if quarter < 1 || quarter > 4 {
		return domain.NewFieldError("quarter", fmt.Sprintf("must be between 1 and 4, got %d", quarter))
	}
	return nil
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return domain.NewFieldError("month", fmt.Sprintf("must be between 1 and 12, got %d", month))
	}
	return nil
}

// QuarterRange returns the first and last instant of the quarter in Manila
// time. Both bounds are inclusive.
func QuarterRange(quarter, year int) (time.Time, time.Time, error) {
	if err := validateYear(year); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := validateQuarter(quarter); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, Manila)
	end := start.AddDate(0, 3, 0).Add(-time.Nanosecond)
	return start, end, nil
}

// QuarterOf returns the period t falls in, in Manila time.
func QuarterOf(t time.Time) Period {
	local := t.In(Manila)
	return Period{Year: local.Year(), Quarter: (int(local.Month())-1)/3 + 1}
}
