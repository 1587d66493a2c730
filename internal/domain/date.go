package domain

import (
	"fmt"
	"time"
)

// dateLayouts are tried in order by ParseDate
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}

// ParseDate reads an RFC 3339 timestamp or a plain YYYY-MM-DD date, in UTC
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, want YYYY-MM-DD or RFC 3339", raw)
}
