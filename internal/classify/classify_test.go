package classify

import (
	"strings"
	"testing"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

func TestCategoryAgentDomain(t *testing.T) {
	got := Category("random subject", "ops@wilhelmsen.com", false)
	if got != protocol.CategoryAgent {
		t.Errorf("Category = %q, want AGENT", got)
	}
}

func TestCategoryUrgentSubject(t *testing.T) {
	got := Category("URGENT: berth blocked", "someone@example.com", false)
	if got != protocol.CategoryHighPriority {
		t.Errorf("Category = %q, want HIGH PRIORITY", got)
	}
}

func TestCategoryKeywordScore(t *testing.T) {
	// Two terminal keywords beat one agent keyword.
	got := Category("mooring at jetty st18", "someone@example.com", false)
	if got != protocol.CategoryTerminal {
		t.Errorf("Category = %q, want TERMINAL", got)
	}
}

func TestCategoryTieBreakByTableOrder(t *testing.T) {
	// "berth" (TERminal) and "survey" (SURVEYOR) score one each;
	// TERMINAL comes first in the table.
	got := Category("berth survey", "someone@example.com", false)
	if got != protocol.CategoryTerminal {
		t.Errorf("Category = %q, want TERMINAL on tie", got)
	}
}

func TestCategoryVesselFallback(t *testing.T) {
	if got := Category("voy 12 details", "x@example.com", true); got != protocol.CategoryAgent {
		t.Errorf("voyage fallback = %q, want AGENT", got)
	}
	if got := Category("general topic", "x@example.com", true); got != protocol.CategoryOperations {
		t.Errorf("vessel fallback = %q, want OPERATIONS", got)
	}
}

func TestCategoryGeneral(t *testing.T) {
	if got := Category("lunch next week", "x@example.com", false); got != protocol.CategoryGeneral {
		t.Errorf("Category = %q, want GENERAL", got)
	}
}

func TestDelayRiskThresholds(t *testing.T) {
	cases := []struct {
		text string
		want protocol.DelayRisk
	}{
		{"awaiting delay delayed maintenance hold", protocol.RiskHigh},    // 5 distinct
		{"awaiting delay maintenance", protocol.RiskMedium},               // 3 distinct
		{"weather looks rough", protocol.RiskLow},                         // 1
		{"all well on board", protocol.RiskNone},                          // 0
		{"delay delay delay", protocol.RiskLow},                           // repeats count once
		{"awaiting delayed maintenance hold weather", protocol.RiskHigh}, // "delayed" also hits "delay"
	}
	for _, c := range cases {
		if got := DelayRisk(c.text); got != c.want {
			t.Errorf("DelayRisk(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestUrgencyScore(t *testing.T) {
	if got := UrgencyScore("urgent issue", "", protocol.RiskHigh); got != 55 {
		t.Errorf("urgent+high = %d, want 55", got)
	}
	if got := UrgencyScore("note", "ops update", protocol.RiskMedium); got != 15 {
		t.Errorf("medium = %d, want 15", got)
	}
	if got := UrgencyScore("quiet day", "", protocol.RiskNone); got != 0 {
		t.Errorf("none = %d, want 0", got)
	}
}

func TestDetectSignalsPositive(t *testing.T) {
	sig := DetectSignals("TEMPEST update", "Notice of Readiness tendered, pilot confirmed for TEMPEST")

	var tasks []string
	for _, u := range sig.Updates {
		tasks = append(tasks, u.Task)
		if u.Confidence < 40 {
			t.Errorf("%s confidence = %d, want >= 40", u.Task, u.Confidence)
		}
	}
	want := []string{protocol.TaskPilotBooking, protocol.TaskAgentNotified}
	for _, w := range want {
		found := false
		for _, task := range tasks {
			if task == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing update for %q (got %v)", w, tasks)
		}
	}
}

func TestDetectSignalsNegativeBlocksUpdate(t *testing.T) {
	sig := DetectSignals("", "pilot confirmed but awaiting pilot boarding time")

	for _, u := range sig.Updates {
		if u.Task == protocol.TaskPilotBooking {
			t.Fatal("pilot task proposed despite negative keyword")
		}
	}
	if len(sig.Conflicts) == 0 {
		t.Fatal("expected a conflict entry")
	}
	if !strings.Contains(sig.Conflicts[0], protocol.TaskPilotBooking) {
		t.Errorf("conflict = %q, want task name", sig.Conflicts[0])
	}
	if !strings.Contains(sig.Conflicts[0], "awaiting pilot") {
		t.Errorf("conflict = %q, want first negative match", sig.Conflicts[0])
	}
}

func TestDetectSignalsConfidenceCap(t *testing.T) {
	// Three positive phrases: 3*30+40 = 130, capped at 95.
	sig := DetectSignals("", "all fast, vessel moored, gangway down")
	found := false
	for _, u := range sig.Updates {
		if u.Task == protocol.TaskMooringCrew {
			found = true
			if u.Confidence != 95 {
				t.Errorf("confidence = %d, want 95", u.Confidence)
			}
		}
	}
	if !found {
		t.Fatal("no mooring update")
	}
}

func TestDetectSignalsDelaysNotDeduped(t *testing.T) {
	sig := DetectSignals("", "operations suspended; awaiting berth; waiting for surveyor")
	// "operations suspended", "awaiting berth", "waiting for" all match.
	if len(sig.Delays) != 3 {
		t.Errorf("delays = %v, want 3 entries", sig.Delays)
	}
}

func TestDetectSignalsEmpty(t *testing.T) {
	sig := DetectSignals("hello", "nothing of note here")
	if len(sig.Updates) != 0 || len(sig.Delays) != 0 || len(sig.Conflicts) != 0 {
		t.Errorf("expected empty signals, got %+v", sig)
	}
}
