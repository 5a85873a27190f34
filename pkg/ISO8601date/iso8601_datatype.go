package iso8601date

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"
)

var (
	iso8601DateTimeRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})([+-])(\d{2}):(\d{2})$`)
	iso8601DateRegex     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

const dateLayout = "2006-01-02"

// ISO8601date is a calendar date or offset date-time kept in its wire form
type ISO8601date struct {
	datetime string
}

func (c ISO8601date) String() string {
	return c.datetime
}

// Time returns the parsed instant. Plain dates are midnight UTC.
func (c ISO8601date) Time() time.Time {
	if t, err := time.Parse(dateLayout, c.datetime); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, c.datetime)
	return t
}

// Date returns the YYYY-MM-DD part
func (c ISO8601date) Date() string {
	if len(c.datetime) < len(dateLayout) {
		return c.datetime
	}
	return c.datetime[:len(dateLayout)]
}

// Parse accepts an offset date-time such as 2025-03-01T09:00:00+09:00
func Parse(s string) (ISO8601date, error) {
	if iso8601DateTimeRegex.MatchString(s) {
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return ISO8601date{s}, nil
		}
	}
	return ISO8601date{}, errors.New("invalid iso8601 date format")
}

// ParseDate accepts a calendar date in YYYY-MM-DD form
func ParseDate(s string) (ISO8601date, error) {
	if iso8601DateRegex.MatchString(s) {
		if _, err := time.Parse(dateLayout, s); err == nil {
			return ISO8601date{s}, nil
		}
	}
	return ISO8601date{}, errors.New("invalid iso8601 date format, expected YYYY-MM-DD")
}

// FromTime formats t as a calendar date
func FromTime(t time.Time) ISO8601date {
	return ISO8601date{t.Format(dateLayout)}
}

func (c ISO8601date) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.datetime)
}

func (c *ISO8601date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ISO8601date{
		datetime: s,
	}
	return nil
}
