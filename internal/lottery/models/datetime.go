package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalDateTime is a timezone-naive date-time. The wall clock is kept in a
// time.Time pinned to UTC; the location carries no meaning.
type LocalDateTime struct {
	time.Time
}

const (
	localLayout     = "2006-01-02T15:04:05"
	localLayoutFrac = "2006-01-02T15:04:05.000000"
)

// accepted input layouts, tried in order. Offsets are parsed only to be dropped.
var inputLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Naive returns t's wall clock with the zone discarded, not converted, and
// truncated to the microsecond precision of a postgres timestamp.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).Truncate(time.Microsecond)
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: Naive(t)}
}

// ParseLocalDateTime parses an ISO-8601 date-time. A zone designator is
// allowed and stripped: "2026-03-01T09:00:00+05:00" yields 09:00:00.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return NewLocalDateTime(t), nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("invalid date-time %q", s)
}

func (d LocalDateTime) String() string {
	if d.Nanosecond() != 0 {
		return d.Format(localLayoutFrac)
	}
	return d.Format(localLayout)
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *LocalDateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date-time must be a string")
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
