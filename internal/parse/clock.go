package parse

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// clockLayout is the 12-hour clock SFpark uses for BEG/END, e.g. "7:00 AM".
const clockLayout = "3:04 PM"

// ParseClock converts a 12-hour clock string with meridiem into a time of day.
// The meridiem is matched case-insensitively, so "7:00 pm" is accepted.
// The returned time carries only hour, minute and second.
func ParseClock(raw string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "unable to parse clock time %q", raw)
	}
	return t, nil
}
