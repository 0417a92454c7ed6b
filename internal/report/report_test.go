package report

import (
	"strings"
	"testing"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/timeline"
	"github.com/berthwatch-io/berthwatch/internal/vessel"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newAssembler() *Assembler {
	return &Assembler{
		Registry: vessel.NewRegistry(vessel.DefaultFleet),
		Jetties:  timeline.DefaultJetties,
	}
}

func ts(offset time.Duration) string {
	return testNow.Add(offset).Format(time.RFC3339)
}

func TestAssembleCountsAndUrgency(t *testing.T) {
	emails := []protocol.EmailMessage{
		{ID: "m1", SenderName: "Agent", SenderEmail: "ops@wilhelmsen.com",
			Subject: "URGENT: TEMPEST berth", Category: protocol.CategoryHighPriority,
			Urgency: 85, Vessels: []string{"TEMPEST"}},
		{ID: "m2", SenderName: "Planner", Subject: "weekly schedule",
			Category: protocol.CategoryOperations, Urgency: 10},
		{ID: "m3", SenderName: "Planner", Subject: "berth meeting",
			Category: protocol.CategoryOperations, Urgency: 70},
	}

	rep := newAssembler().Assemble(Inputs{Now: testNow, Emails: emails})

	if rep.CategoryCounts[protocol.CategoryOperations] != 2 {
		t.Errorf("operations count = %d, want 2", rep.CategoryCounts[protocol.CategoryOperations])
	}
	if rep.CategoryCounts[protocol.CategoryHighPriority] != 1 {
		t.Errorf("high priority count = %d, want 1", rep.CategoryCounts[protocol.CategoryHighPriority])
	}
	// 70 is inclusive
	if rep.UrgentCount != 2 {
		t.Errorf("urgent count = %d, want 2", rep.UrgentCount)
	}
	if len(rep.ReplyDrafts) != 2 {
		t.Fatalf("reply drafts = %d, want 2", len(rep.ReplyDrafts))
	}
	draft := rep.ReplyDrafts[0]
	if draft.EmailID != "m1" || draft.To != "ops@wilhelmsen.com" {
		t.Errorf("draft addressed wrong: %+v", draft)
	}
	if draft.Subject != "RE: URGENT: TEMPEST berth" {
		t.Errorf("draft subject = %q", draft.Subject)
	}
	if !strings.Contains(draft.Body, "TEMPEST") {
		t.Error("draft body does not reference the vessel")
	}
}

func TestAssembleTimelineAndConflicts(t *testing.T) {
	snap := &protocol.Snapshot{Vessels: []protocol.ScheduleEntry{
		{Name: "TEMPEST", ETA: ts(5 * time.Hour), ETD: ts(20 * time.Hour), Jetty: "ST17"},
		{Name: "SEFARINA", ETA: ts(19 * time.Hour), Jetty: "ST17"},
	}}

	rep := newAssembler().Assemble(Inputs{Now: testNow, Snapshot: snap})

	if rep.ScheduleCount != 2 {
		t.Errorf("schedule count = %d, want 2", rep.ScheduleCount)
	}
	if len(rep.Timeline) != 2 {
		t.Fatalf("timeline rows = %d, want 2", len(rep.Timeline))
	}
	if len(rep.Conflicts) != 1 || rep.Conflicts[0].Severity != protocol.SeverityCritical {
		t.Fatalf("conflicts = %+v, want one CRITICAL overlap", rep.Conflicts)
	}
}

func TestAssembleVesselMentions(t *testing.T) {
	emails := []protocol.EmailMessage{
		{ID: "m1", Subject: "TEMPEST ops", Vessels: []string{"TEMPEST"},
			Category: protocol.CategoryAgent},
		{ID: "m2", Subject: "TEMPEST nomination", Vessels: []string{"TEMPEST"},
			Category: protocol.CategoryNomination},
	}

	rep := newAssembler().Assemble(Inputs{Now: testNow, Emails: emails})

	m := rep.Vessels["TEMPEST"]
	if m == nil {
		t.Fatal("TEMPEST missing from vessel mentions")
	}
	if len(m.EmailIDs) != 2 {
		t.Errorf("email ids = %v, want 2", m.EmailIDs)
	}
	if m.IdentifierType != "IMO" {
		t.Errorf("identifier type = %q, want IMO", m.IdentifierType)
	}
}

func TestAssembleEmptyRun(t *testing.T) {
	rep := newAssembler().Assemble(Inputs{Now: testNow})

	if rep.UrgentCount != 0 || len(rep.ReplyDrafts) != 0 {
		t.Error("empty run produced urgency artifacts")
	}
	if rep.Delays == nil {
		t.Error("delays map should be non-nil")
	}
	if rep.Checklists.Total != 0 {
		t.Errorf("checklist total = %d, want 0", rep.Checklists.Total)
	}
	if rep.ScheduleCount != 0 || len(rep.Timeline) != 0 {
		t.Error("empty run produced schedule artifacts")
	}
}
