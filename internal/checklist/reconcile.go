package checklist

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/classify"
	"github.com/berthwatch-io/berthwatch/internal/vessel"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Persister saves the full checklist map. Satisfied by *store.Store.
type Persister interface {
	SaveChecklists(map[string]*protocol.Checklist) error
}

// Reconciler drives checklist state from the two evidence sources: the
// schedule feed and classified inbox mail.
type Reconciler struct {
	Store    Persister
	Registry *vessel.Registry
	Logger   *slog.Logger
}

// releasedMarker in a schedule status line means the terminal has signed
// the vessel off to operations.
const releasedMarker = "released to operations"

// scheduleSource is the provenance recorded on schedule-derived completions.
const scheduleSource = "schedule feed"

// SyncSchedule creates checklists for vessels entering the active window
// and auto-completes tasks the feed itself can vouch for. Returns the
// number of state changes; the store is persisted once when nonzero.
func (r *Reconciler) SyncSchedule(checklists map[string]*protocol.Checklist, snap *protocol.Snapshot, now time.Time) int {
	if snap == nil {
		return 0
	}
	changed := 0

	for i := range snap.Vessels {
		entry := &snap.Vessels[i]
		if entry.Name == "" {
			continue
		}
		eta, err := protocol.ParseWhen(entry.ETA)
		if err != nil {
			continue
		}
		hours := eta.Sub(now).Hours()
		if !InWindow(hours) {
			continue
		}

		ck, ok := checklists[entry.Name]
		if !ok {
			barge := r.Registry != nil && r.Registry.IsBarge(entry.Name)
			ck = New(entry.Name, entry.ETA, entry.Jetty, barge, now)
			checklists[entry.Name] = ck
			changed++
			r.Logger.Info("checklist created",
				"vessel", entry.Name, "jetty", ck.Jetty, "hours_until_eta", int(hours))
		}

		if strings.Contains(strings.ToLower(entry.StatusDesc), releasedMarker) {
			for _, name := range []string{protocol.TaskAgentNotified, protocol.TaskBerth, protocol.TaskLoadingPlan} {
				task := ck.Task(name)
				if task == nil {
					continue
				}
				if complete(task, scheduleSource, now, 0, "status: "+releasedMarker) {
					changed++
					r.Logger.Info("task completed from schedule",
						"vessel", entry.Name, "task", name)
				}
			}
		}

		if entry.InspectorAssigned() {
			if task := ck.Task(protocol.TaskSurveyor); task != nil {
				by := scheduleSource + ": " + strings.TrimSpace(entry.ShipInspector)
				if complete(task, by, now, 0, "inspector assigned in feed") {
					changed++
					r.Logger.Info("surveyor confirmed from schedule",
						"vessel", entry.Name, "inspector", strings.TrimSpace(entry.ShipInspector))
				}
			}
		}
	}

	if changed > 0 {
		if err := r.Store.SaveChecklists(checklists); err != nil {
			r.Logger.Error("checklist save failed", "error", err)
		}
	}
	return changed
}

// Cleanup removes checklists for vessels no longer in the snapshot or
// whose ETA has left the active window. Returns the removed vessel names;
// the store is persisted only when something was removed.
func (r *Reconciler) Cleanup(checklists map[string]*protocol.Checklist, snap *protocol.Snapshot, now time.Time) []string {
	known := map[string]bool{}
	if snap != nil {
		known = snap.Names()
	}

	var removed []string
	for name, ck := range checklists {
		drop := !known[name]
		if !drop {
			if hours, ok := ck.HoursUntilETA(now); ok && !InWindow(hours) {
				drop = true
			}
		}
		if drop {
			delete(checklists, name)
			removed = append(removed, name)
			r.Logger.Info("checklist removed", "vessel", name)
		}
	}

	if len(removed) > 0 {
		if err := r.Store.SaveChecklists(checklists); err != nil {
			r.Logger.Error("checklist save failed", "error", err)
		}
	}
	return removed
}

// ApplyEmails scans classified mail for completion signals against the
// checklists of each mentioned vessel. It returns the number of tasks
// completed, delay notices keyed by vessel, and any textual conflicts
// (a negative indicator seen alongside a positive one). Conflicts are
// informational only; they never change task state.
func (r *Reconciler) ApplyEmails(checklists map[string]*protocol.Checklist, emails []protocol.EmailMessage, now time.Time) (int, map[string][]protocol.DelayNotice, []string) {
	updates := 0
	delays := make(map[string][]protocol.DelayNotice)
	var conflicts []string

	for i := range emails {
		email := &emails[i]
		if len(email.Vessels) == 0 {
			continue
		}
		signals := classify.DetectSignals(email.Subject, email.Body)
		if len(signals.Updates) == 0 && len(signals.Delays) == 0 && len(signals.Conflicts) == 0 {
			continue
		}
		source := "Email from " + email.SenderName

		for _, name := range email.Vessels {
			ck, ok := checklists[name]
			if !ok {
				continue
			}

			for _, upd := range signals.Updates {
				task := ck.Task(upd.Task)
				if task == nil {
					continue
				}
				if complete(task, source, now, upd.Confidence, upd.Reason) {
					updates++
					r.Logger.Info("task completed from email",
						"vessel", name, "task", upd.Task,
						"confidence", upd.Confidence, "sender", email.SenderName)
				}
			}

			for _, phrase := range signals.Delays {
				delays[name] = append(delays[name], protocol.DelayNotice{
					Vessel:  name,
					Message: fmt.Sprintf("Delay indicator: %q", phrase),
					Source:  source,
				})
			}
		}

		for _, c := range signals.Conflicts {
			conflicts = append(conflicts, c+" ("+source+")")
			r.Logger.Warn("conflicting task signal", "detail", c, "sender", email.SenderName)
		}
	}

	if updates > 0 {
		if err := r.Store.SaveChecklists(checklists); err != nil {
			r.Logger.Error("checklist save failed", "error", err)
		}
	}
	return updates, delays, conflicts
}
