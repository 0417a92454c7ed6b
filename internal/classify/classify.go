// Package classify contains the pure keyword classifiers: email
// category, delay risk, urgency scoring and checklist signal detection.
// Everything here is deterministic case-insensitive substring matching
// over the fixed tables in keywords.go; no external state.
package classify

import (
	"fmt"
	"strings"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Category classifies an email from its subject and sender. Priority:
// agent sender domain, urgency keyword in subject, best-scoring keyword
// category (ties broken by table order), vessel-mention fallback, GENERAL.
func Category(subject, senderAddr string, mentionsVessel bool) protocol.Category {
	subj := strings.ToLower(subject)
	sender := strings.ToLower(senderAddr)

	for _, domain := range agentDomains {
		if strings.Contains(sender, domain) {
			return protocol.CategoryAgent
		}
	}

	for _, kw := range subjectUrgencyKeywords {
		if strings.Contains(subj, kw) {
			return protocol.CategoryHighPriority
		}
	}

	best := protocol.Category("")
	bestScore := 0
	for _, entry := range categoryKeywords {
		score := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(subj, kw) {
				score++
			}
		}
		if score > bestScore {
			best = entry.Category
			bestScore = score
		}
	}
	if bestScore > 0 {
		return best
	}

	if mentionsVessel {
		for _, kw := range voyageKeywords {
			if strings.Contains(subj, kw) {
				return protocol.CategoryAgent
			}
		}
		return protocol.CategoryOperations
	}

	return protocol.CategoryGeneral
}

// DelayRisk counts distinct delay keywords in text.
func DelayRisk(text string) protocol.DelayRisk {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range delayKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	switch {
	case score >= 5:
		return protocol.RiskHigh
	case score >= 3:
		return protocol.RiskMedium
	case score >= 1:
		return protocol.RiskLow
	default:
		return protocol.RiskNone
	}
}

// UrgencyScore computes a 0-100 urgency value from the message text and
// its delay risk.
func UrgencyScore(subject, body string, risk protocol.DelayRisk) int {
	text := strings.ToLower(subject + " " + body)
	score := 0
	for _, kw := range scoreUrgencyKeywords {
		if strings.Contains(text, kw) {
			score += 30
			break
		}
	}
	switch risk {
	case protocol.RiskHigh:
		score += 25
	case protocol.RiskMedium:
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Update is a candidate task completion extracted from an email.
type Update struct {
	Task       string
	Confidence int // min(30*matches+40, 95)
	Reason     string
}

// Signals is the result of scanning one email for checklist activity.
// Delays holds the matched indicator phrases, duplicates included.
// Conflicts are informational: a negative phrase was present, so the
// task is never proposed for completion from this message.
type Signals struct {
	Updates   []Update
	Delays    []string
	Conflicts []string
}

// DetectSignals scans the combined lowercased subject and body against
// every task's positive and negative phrase lists, and against the
// delay-indicator list.
func DetectSignals(subject, body string) Signals {
	combined := strings.ToLower(subject + " " + body)
	var out Signals

	for _, phrase := range delayIndicators {
		if strings.Contains(combined, phrase) {
			out.Delays = append(out.Delays, phrase)
		}
	}

	for _, sig := range taskSignals {
		var positive, negative []string
		for _, kw := range sig.Positive {
			if strings.Contains(combined, kw) {
				positive = append(positive, kw)
			}
		}
		for _, kw := range sig.Negative {
			if strings.Contains(combined, kw) {
				negative = append(negative, kw)
			}
		}

		switch {
		case len(negative) > 0:
			out.Conflicts = append(out.Conflicts,
				fmt.Sprintf("%s: negative indicator found (%q)", sig.Task, negative[0]))
		case len(positive) > 0:
			confidence := len(positive)*30 + 40
			if confidence > 95 {
				confidence = 95
			}
			reason := positive
			if len(reason) > 2 {
				reason = reason[:2]
			}
			out.Updates = append(out.Updates, Update{
				Task:       sig.Task,
				Confidence: confidence,
				Reason:     "Found: " + strings.Join(reason, ", "),
			})
		}
	}

	return out
}
