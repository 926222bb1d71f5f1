package content

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"January 2, 2006",
}

// ParseDate accepts the date shapes found in front matter: time.Time values
// decoded by YAML/TOML, RFC3339 and common date strings, and unix seconds.
func ParseDate(v any) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, !vv.IsZero()
	case *time.Time:
		if vv == nil {
			return time.Time{}, false
		}
		return *vv, !vv.IsZero()
	case int:
		return time.Unix(int64(vv), 0).UTC(), true
	case int64:
		return time.Unix(vv, 0).UTC(), true
	case uint64:
		return time.Unix(int64(vv), 0).UTC(), true
	case float64:
		return time.Unix(int64(vv), 0).UTC(), true
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// Front matter keys consulted for each date, in precedence order.
var (
	CreatedKeys   = []string{"created", "date"}
	ModifiedKeys  = []string{"modified", "lastmod", "updated", "last-modified"}
	PublishedKeys = []string{"published", "publishDate", "date"}
)

// FirstDate returns the first key in keys holding a parsable date.
func FirstDate(fields map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			if t, ok := ParseDate(v); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
