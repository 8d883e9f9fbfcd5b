package chemistry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidTimePoint is returned for keys that are not YYYY-MM.
var ErrInvalidTimePoint = errors.New("invalid time point")

// TimePoint is a calendar year-month, the unit of one animation frame.
type TimePoint struct {
	Year  int
	Month int
}

// NewTimePoint returns the time point containing t.
func NewTimePoint(t time.Time) TimePoint {
	return TimePoint{Year: t.Year(), Month: int(t.Month())}
}

// String returns the canonical YYYY-MM key.
func (tp TimePoint) String() string {
	return fmt.Sprintf("%04d-%02d", tp.Year, tp.Month)
}

// Before reports whether tp is earlier than other.
func (tp TimePoint) Before(other TimePoint) bool {
	if tp.Year != other.Year {
		return tp.Year < other.Year
	}
	return tp.Month < other.Month
}

// Next returns the following month.
func (tp TimePoint) Next() TimePoint {
	if tp.Month == 12 {
		return TimePoint{Year: tp.Year + 1, Month: 1}
	}
	return TimePoint{Year: tp.Year, Month: tp.Month + 1}
}

// MarshalText implements encoding.TextMarshaler so time points work as JSON map keys.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseTimePoint(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// ParseTimePoint parses a canonical YYYY-MM key.
func ParseTimePoint(s string) (TimePoint, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidTimePoint, s)
	}
	return NewTimePoint(t), nil
}

// sampleDateLayouts are the date encodings seen across feed vintages.
var sampleDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

// ParseSampleDate parses a feed date into its time point.
func ParseSampleDate(s string) (TimePoint, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, false
	}
	for _, layout := range sampleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimePoint(t), true
		}
	}
	return TimePoint{}, false
}

// MonthRange returns every month from first to last inclusive.
func MonthRange(first, last TimePoint) []TimePoint {
	var out []TimePoint
	for tp := first; !last.Before(tp); tp = tp.Next() {
		out = append(out, tp)
	}
	return out
}

// sortTimePoints deduplicates, filters to minYear and sorts ascending.
func sortTimePoints(set map[TimePoint]struct{}, minYear int) []TimePoint {
	out := make([]TimePoint, 0, len(set))
	for tp := range set {
		if tp.Year < minYear {
			continue
		}
		out = append(out, tp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Before(out[b]) })
	return out
}
