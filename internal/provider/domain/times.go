package domain

import "time"

// Source feeds disagree on timestamp formats, sometimes within a single
// payload. ParseTime tries the layouts seen in the wild and returns nil for
// anything unparseable so a bad timestamp degrades to a missing one.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime keeps the source offset: CivilDate needs the local calendar
// date, and a late-evening departure west of Greenwich crosses midnight
// once converted to UTC. The value still compares as the same instant.
func ParseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
