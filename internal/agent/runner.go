// Package agent runs the collection pipeline: fetch schedule and mail,
// reconcile checklists, assemble the report and hand it to the
// notifiers. One run at a time; overlapping triggers are dropped.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/checklist"
	"github.com/berthwatch-io/berthwatch/internal/classify"
	"github.com/berthwatch-io/berthwatch/internal/pilot"
	"github.com/berthwatch-io/berthwatch/internal/report"
	"github.com/berthwatch-io/berthwatch/internal/summarize"
	"github.com/berthwatch-io/berthwatch/internal/vessel"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// MailSource is the inbound mail surface the runner needs.
type MailSource interface {
	FetchUnread(ctx context.Context, seen map[string]bool) ([]protocol.EmailMessage, error)
	Acknowledge(ctx context.Context, id string)
	MarkUrgent(ctx context.Context, id string)
	CalendarToday(ctx context.Context) []protocol.CalendarEvent
}

// ScheduleSource yields the current vessel schedule snapshot.
type ScheduleSource interface {
	Fetch(ctx context.Context) (snap *protocol.Snapshot, stale bool, err error)
}

// WeatherSource yields current conditions, or nil.
type WeatherSource interface {
	Current(ctx context.Context) *protocol.WeatherConditions
}

// Store is the persistence surface the runner needs. Satisfied by
// *store.Store.
type Store interface {
	LoadChecklists() map[string]*protocol.Checklist
	SaveChecklists(map[string]*protocol.Checklist) error
	LoadProcessedIDs() map[string]bool
	SaveProcessedIDs(map[string]bool) error
	LoadPilotStatus() *protocol.PilotStatus
	SavePilotStatus(*protocol.PilotStatus) error
}

// Notifier delivers the assembled report.
type Notifier interface {
	Send(ctx context.Context, rep *protocol.Report) error
}

// Runner wires the sources, the reconcilers and the notifier into one
// idempotent pipeline.
type Runner struct {
	Mail       MailSource
	Schedule   ScheduleSource
	Weather    WeatherSource
	Store      Store
	Reconciler *checklist.Reconciler
	Assembler  *report.Assembler
	Notifier   Notifier
	Registry   *vessel.Registry
	Logger     *slog.Logger

	mu       sync.Mutex
	lastRun  time.Time
	lastRep  *protocol.Report
	runGuard sync.Mutex
}

// ErrRunInProgress is returned when a trigger lands while a run is active.
var ErrRunInProgress = fmt.Errorf("agent: run already in progress")

// Run executes one full collection cycle. A second concurrent call
// returns ErrRunInProgress instead of queueing.
func (r *Runner) Run(ctx context.Context) error {
	if !r.runGuard.TryLock() {
		r.Logger.Warn("run trigger dropped, previous run still active")
		return ErrRunInProgress
	}
	defer r.runGuard.Unlock()

	now := time.Now()
	r.Logger.Info("run started")

	snap, stale, err := r.Schedule.Fetch(ctx)
	if err != nil {
		r.Logger.Error("schedule unavailable", "error", err)
		snap = nil
	} else if stale {
		r.Logger.Warn("running on cached schedule snapshot")
	}

	checklists := r.Store.LoadChecklists()
	r.Reconciler.SyncSchedule(checklists, snap, now)
	r.Reconciler.Cleanup(checklists, snap, now)

	seen := r.Store.LoadProcessedIDs()
	emails, err := r.Mail.FetchUnread(ctx, seen)
	if err != nil {
		r.Logger.Error("mailbox unavailable, continuing without mail", "error", err)
		emails = nil
	}
	kept, diverted, pilotStatus := r.enrich(ctx, emails, now)
	if pilotStatus == nil {
		pilotStatus = r.Store.LoadPilotStatus()
	}

	_, delays, _ := r.Reconciler.ApplyEmails(checklists, kept, now)

	rep := r.Assembler.Assemble(report.Inputs{
		Now:        now,
		Emails:     kept,
		Snapshot:   snap,
		Checklists: checklists,
		Delays:     delays,
		Weather:    r.currentWeather(ctx),
		Pilot:      pilotStatus,
		Calendar:   r.Mail.CalendarToday(ctx),
	})

	if err := r.Notifier.Send(ctx, rep); err != nil {
		r.Logger.Error("report delivery incomplete", "error", err)
	}

	r.settle(ctx, kept, diverted, seen)

	r.mu.Lock()
	r.lastRun = now
	r.lastRep = rep
	r.mu.Unlock()

	r.Logger.Info("run complete",
		"emails", len(kept), "urgent", rep.UrgentCount,
		"checklists", rep.Checklists.Total, "conflicts", len(rep.Conflicts),
		"duration", time.Since(now).Round(time.Millisecond).String())
	return nil
}

// enrich classifies each fetched email and returns the ones that flow
// into the report plus the IDs of diverted messages. Pilot-service
// notices are consumed for their status and diverted, they never count
// as coordination mail.
func (r *Runner) enrich(ctx context.Context, emails []protocol.EmailMessage, now time.Time) ([]protocol.EmailMessage, []string, *protocol.PilotStatus) {
	var (
		latestPilot *protocol.PilotStatus
		diverted    []string
	)

	kept := make([]protocol.EmailMessage, 0, len(emails))
	for _, e := range emails {
		if pilot.IsServiceEmail(e.SenderEmail, e.Subject, e.Body) {
			r.Logger.Info("pilot service notice", "subject", e.Subject)
			if st := pilot.ParseStatus(e.Subject, e.Body, now); st != nil {
				latestPilot = st
				if err := r.Store.SavePilotStatus(st); err != nil {
					r.Logger.Warn("pilot status save failed", "error", err)
				}
				r.Logger.Info("pilot service status updated", "status", st.Status)
			}
			diverted = append(diverted, e.ID)
			continue
		}

		e.Vessels = r.Registry.Extract(e.Subject + " " + e.Body)
		e.Category = classify.Category(e.Subject, e.SenderEmail, len(e.Vessels) > 0)
		e.DelayRisk = classify.DelayRisk(e.Subject + " " + e.Body)
		e.Urgency = classify.UrgencyScore(e.Subject, e.Body, e.DelayRisk)
		e.Summary = summarize.Extract(e.Body)
		kept = append(kept, e)
	}
	return kept, diverted, latestPilot
}

// settle acknowledges each processed email at the gateway, flags the
// urgent ones and persists the processed-ID set once.
func (r *Runner) settle(ctx context.Context, emails []protocol.EmailMessage, diverted []string, seen map[string]bool) {
	if len(emails) == 0 && len(diverted) == 0 {
		return
	}
	for i := range emails {
		e := &emails[i]
		r.Mail.Acknowledge(ctx, e.ID)
		if e.Urgency >= report.UrgentThreshold {
			r.Mail.MarkUrgent(ctx, e.ID)
		}
		seen[e.ID] = true
	}
	for _, id := range diverted {
		r.Mail.Acknowledge(ctx, id)
		seen[id] = true
	}
	if err := r.Store.SaveProcessedIDs(seen); err != nil {
		r.Logger.Error("processed id save failed", "error", err)
	}
}

func (r *Runner) currentWeather(ctx context.Context) *protocol.WeatherConditions {
	if r.Weather == nil {
		return nil
	}
	return r.Weather.Current(ctx)
}

// LastReport returns the most recent report and its time, or nil.
func (r *Runner) LastReport() (*protocol.Report, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRep, r.lastRun
}
