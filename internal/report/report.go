// Package report assembles the per-run summary handed to the notifiers.
// Assembly is pure: it reads the collected inputs and derives counts,
// the jetty timeline, conflicts and reply drafts without touching any
// persisted state.
package report

import (
	"fmt"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/checklist"
	"github.com/berthwatch-io/berthwatch/internal/timeline"
	"github.com/berthwatch-io/berthwatch/internal/vessel"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// UrgentThreshold is the urgency score at which an email counts as
// urgent and earns a reply draft.
const UrgentThreshold = 70

// Inputs carries everything one run collected before assembly.
type Inputs struct {
	Now        time.Time
	Emails     []protocol.EmailMessage
	Snapshot   *protocol.Snapshot
	Checklists map[string]*protocol.Checklist
	Delays     map[string][]protocol.DelayNotice
	Weather    *protocol.WeatherConditions
	Pilot      *protocol.PilotStatus
	Calendar   []protocol.CalendarEvent
}

// Assembler owns the static lookup data reports are built against.
type Assembler struct {
	Registry    *vessel.Registry
	Jetties     map[string]timeline.Jetty
	VisibleDays int
}

// Assemble builds the full report for one run.
func (a *Assembler) Assemble(in Inputs) *protocol.Report {
	days := a.VisibleDays
	if days <= 0 {
		days = timeline.DefaultVisibleDays
	}

	rep := &protocol.Report{
		GeneratedAt:    in.Now,
		Weather:        in.Weather,
		Pilot:          in.Pilot,
		Emails:         in.Emails,
		CategoryCounts: make(map[protocol.Category]int),
		Vessels:        a.Registry.CollectMentions(in.Emails),
		Timeline:       timeline.Build(in.Snapshot, a.Registry, a.Jetties, days, in.Now),
		Conflicts:      timeline.DetectConflicts(in.Snapshot),
		Delays:         in.Delays,
		Checklists:     checklist.Summary(in.Checklists, in.Now),
		ChecklistByVes: in.Checklists,
		Calendar:       in.Calendar,
	}
	if in.Snapshot != nil {
		rep.ScheduleCount = len(in.Snapshot.Vessels)
	}
	if rep.Delays == nil {
		rep.Delays = map[string][]protocol.DelayNotice{}
	}

	for i := range in.Emails {
		email := &in.Emails[i]
		rep.CategoryCounts[email.Category]++
		if email.Urgency >= UrgentThreshold {
			rep.UrgentCount++
			rep.ReplyDrafts = append(rep.ReplyDrafts, draftReply(email))
		}
	}

	return rep
}

// draftReply produces a holding reply for an urgent email.
func draftReply(email *protocol.EmailMessage) protocol.ReplyDraft {
	subject := "RE: " + email.Subject
	vesselRef := "your vessel"
	if len(email.Vessels) > 0 {
		vesselRef = email.Vessels[0]
	}
	body := fmt.Sprintf("Dear %s,\n\n"+
		"Thank you for your message regarding %s. It has been flagged as "+
		"urgent and the duty officer is reviewing it now; you will receive "+
		"a substantive reply shortly.\n\n"+
		"Kind regards,\nTerminal Operations",
		email.SenderName, vesselRef)
	return protocol.ReplyDraft{
		EmailID: email.ID,
		To:      email.SenderEmail,
		Subject: subject,
		Body:    body,
	}
}
