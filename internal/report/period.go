package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPeriod is returned for month or year values out of range.
var ErrInvalidPeriod = errors.New("report: invalid period")

// Period is a calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ParsePeriod validates path parameters of the form {month}/{year}.
func ParsePeriod(month, year string) (Period, error) {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, month)
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return Period{}, fmt.Errorf("%w: year %q", ErrInvalidPeriod, year)
	}
	p := Period{Month: m, Year: y}
	return p, p.Validate()
}

// Validate checks month 1..12 and a four digit year.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Label is the subtitle printed under every page title.
func (p Period) Label() string {
	return fmt.Sprintf("Mês %02d/%d", p.Month, p.Year)
}

