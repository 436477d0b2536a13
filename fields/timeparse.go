package fields

import "time"

// timestampFormats is the fixed, ordered list of layouts tried by
// ParseTimestamp. First successful parse wins.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a timestamp string against the supported
// layouts, returning false when none match.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
