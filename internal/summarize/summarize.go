// Package summarize extracts a short synopsis from free-form email
// bodies: the most relevant one or two lines, found by a fixed priority
// of heuristics.
package summarize

import "strings"

const (
	// NoContent is returned for empty or too-short bodies.
	NoContent = "(No content)"
	// NoMeaningfulContent is returned when every line is filtered out.
	NoMeaningfulContent = "(No meaningful content)"
)

// signaturePhrases end the useful part of a body; everything from the
// first matching line onward is dropped.
var signaturePhrases = []string{
	"best regards", "kind regards", "yours sincerely",
	"thanks,", "regards,", "sent from my",
	"this email and any attachments",
}

var actionKeywords = []string{
	"please", "need", "require", "confirm", "advise", "update",
	"inform", "request", "check", "arrange", "book", "schedule",
}

var domainKeywords = []string{
	"vessel", "cargo", "eta", "etd", "laycan", "berth", "jetty",
	"loading", "discharge",
}

// Extract returns a 1-2 line synopsis of body.
func Extract(body string) string {
	if len(body) < 10 {
		return NoContent
	}

	var clean []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isSignature(line) {
			break
		}
		if len(line) < 5 || !hasAlnum(line) {
			continue
		}
		clean = append(clean, line)
	}
	if len(clean) == 0 {
		return NoMeaningfulContent
	}

	if picked := pick(clean, func(ln string) bool { return strings.Contains(ln, "?") }); picked != "" {
		return picked
	}
	if picked := pick(clean, containsAny(actionKeywords)); picked != "" {
		return picked
	}
	if picked := pick(clean, containsAny(domainKeywords)); picked != "" {
		return picked
	}
	if picked := pick(clean, func(ln string) bool { return len(ln) > 20 }); picked != "" {
		return picked
	}
	return join2(clean)
}

// pick joins up to the first two lines matching keep, or "".
func pick(lines []string, keep func(string) bool) string {
	var matched []string
	for _, ln := range lines {
		if keep(ln) {
			matched = append(matched, ln)
		}
	}
	if len(matched) == 0 {
		return ""
	}
	return join2(matched)
}

func join2(lines []string) string {
	if len(lines) > 2 {
		lines = lines[:2]
	}
	return strings.Join(lines, " ")
}

func containsAny(keywords []string) func(string) bool {
	return func(ln string) bool {
		lower := strings.ToLower(ln)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
}

func isSignature(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range signaturePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
