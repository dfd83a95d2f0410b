package parse

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const timestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses AVAILABILITY_UPDATED_TIMESTAMP. Anything from the first
// '.' on (fractional seconds, offsets written after them) is dropped and the rest
// is read as a zone-less wall-clock time.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "unable to parse timestamp %q", raw)
	}
	return t, nil
}

// DateID encodes the calendar day of t as year*10000 + month*100 + day.
func DateID(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
