// Package pilot handles pilot-service notices from the harbour
// coordination centre. These emails are diverted from normal
// classification and distilled into an operational status that
// persists across runs.
package pilot

import (
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// serviceEmail is the harbour coordination centre sender address.
const serviceEmail = "hcc@portofrotterdam.com"

var serviceKeywords = []string{
	"pilot service", "pilot services", "pilotage",
	"pin rotterdam", "port information notice",
}

// IsServiceEmail reports whether a message is a pilot-service notice.
func IsServiceEmail(sender, subject, body string) bool {
	if strings.Contains(strings.ToLower(sender), serviceEmail) {
		return true
	}
	combined := strings.ToLower(subject + " " + body)
	for _, kw := range serviceKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// ParseStatus distills a pilot-service notice into an operational status.
// The subject is the displayed text; a "PIN ROTTERDAM -" prefix is
// stripped when present.
func ParseStatus(subject, body string, now time.Time) *protocol.PilotStatus {
	combined := strings.ToLower(subject + " " + body)

	text := subject
	if strings.Contains(strings.ToLower(subject), "pin rotterdam") {
		if _, rest, ok := strings.Cut(subject, "-"); ok {
			text = strings.TrimSpace(rest)
		}
	}

	status := &protocol.PilotStatus{
		Text:      text,
		Timestamp: now.Format("2006-01-02 15:04:05"),
	}

	switch {
	case containsAny(combined, "normal", "resumed", "lifted"):
		status.Status = "NORMAL"
		status.Color = "Good"
		status.Operational = true
	case containsAny(combined, "suspended", "restricted", "closed"):
		status.Status = "SUSPENDED"
		status.Color = "Attention"
		status.Operational = false
	default:
		status.Status = "UPDATE"
		status.Color = "Default"
		status.Operational = true
	}
	return status
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
