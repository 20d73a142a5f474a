package cloudevents

import (
	"fmt"
	"time"
)

// EventTimeFormat is the timestamp layout used on the wire: microsecond
// precision with a numeric UTC offset.
const EventTimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// eventTimeFormatNoColon accepts offsets written without the colon
// ("+0000"), which some producers emit.
const eventTimeFormatNoColon = "2006-01-02T15:04:05.000000Z0700"

// ParseEventTime parses a wire timestamp. The fractional seconds and offset
// are mandatory; anything else is an adaptation error.
func ParseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(EventTimeFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(eventTimeFormatNoColon, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("functions: cannot parse event time %q: expected format %s", s, EventTimeFormat)
}

// FormatEventTime renders a timestamp in the wire layout.
func FormatEventTime(t time.Time) string {
	return t.Format(EventTimeFormat)
}
