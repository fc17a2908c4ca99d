package syncservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseDate resolves a calendar day in loc. It accepts YYYY-MM-DD, an empty
// string or "today", and English expressions such as "yesterday" or "last
// friday" relative to now. The result is noon of that day so conversions
// between nearby zones stay on the same date.
func ParseDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimSpace(raw)
	base := now.In(loc)

	var day time.Time
	switch {
	case raw == "" || strings.EqualFold(raw, "today"):
		day = base
	default:
		if d, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
			day = d
			break
		}
		r, err := dateParser.Parse(raw, base)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
		}
		if r == nil {
			return time.Time{}, fmt.Errorf("parse date %q: not a date", raw)
		}
		day = r.Time.In(loc)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc), nil
}
