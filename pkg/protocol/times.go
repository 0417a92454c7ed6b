package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseWhen parses a feed timestamp tolerantly. The schedule feed and
// stored checklists carry a mix of RFC 3339 and spreadsheet-style
// formats, so parsing is format-sniffing rather than fixed-layout.
func ParseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("protocol: empty timestamp")
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("protocol: parse %q: %w", s, err)
	}
	return t, nil
}
