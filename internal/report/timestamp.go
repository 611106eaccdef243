package report

import (
	"fmt"
	"strings"
	"time"
)

// Filename timestamp layouts written by different server builds, e.g.
// "Skirmish Report - 14-Apr-2025 22-30-01.xml" and
// "Skirmish Report - 2025-03-27 16:04:52.263218.xml".
var timestampLayouts = []string{
	"02-Jan-2006 15-04-05",
	"2006-01-02 15:04:05.000000",
}

// ParseReportTime extracts the match timestamp embedded in a report
// filename. An unrecognized name is an error; the timestamp must never
// silently default.
func ParseReportTime(filename string) (time.Time, error) {
	s := filename
	if i := strings.LastIndex(s, " - "); i != -1 {
		s = s[i+3:]
	}
	s = strings.TrimSuffix(s, ".xml")

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized report timestamp %q", s)
}
