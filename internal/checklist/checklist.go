// Package checklist maintains per-vessel arrival checklists: creation
// from the schedule window, automatic completion from schedule status,
// completion from email signals, cleanup and summary roll-up. Task
// status is monotonic; nothing here ever reverts COMPLETED to PENDING.
package checklist

import (
	"sort"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// The active window: a checklist exists only while the vessel's ETA is
// between 24 hours ago and 72 hours ahead, exclusive on both ends.
const (
	windowPastHours   = -24.0
	windowFutureHours = 72.0
)

// InWindow reports whether an hours-until-ETA value is inside the
// active checklist window.
func InWindow(hours float64) bool {
	return hours > windowPastHours && hours < windowFutureHours
}

// taskDef is one entry of the fixed arrival-task table.
type taskDef struct {
	Name     string
	Deadline string
	Critical bool
	SeaOnly  bool // omitted for ENI-registered barges
}

var taskTable = []taskDef{
	{Name: protocol.TaskPilotBooking, Deadline: "24h", Critical: true},
	{Name: protocol.TaskBerth, Deadline: "24h", Critical: true},
	{Name: protocol.TaskAgentNotified, Deadline: "24h", Critical: true},
	{Name: protocol.TaskSurveyor, Deadline: "24h", Critical: true, SeaOnly: true},
	{Name: protocol.TaskLoadingPlan, Deadline: "12h", Critical: true},
	{Name: protocol.TaskMooringCrew, Deadline: "Arrival", Critical: true},
}

// New builds a fresh all-PENDING checklist for a vessel. Barges skip the
// surveyor task.
func New(vesselName, eta, jetty string, barge bool, now time.Time) *protocol.Checklist {
	if jetty == "" {
		jetty = "TBD"
	}
	items := make([]protocol.ChecklistTask, 0, len(taskTable))
	for _, def := range taskTable {
		if def.SeaOnly && barge {
			continue
		}
		items = append(items, protocol.ChecklistTask{
			Name:     def.Name,
			Deadline: def.Deadline,
			Status:   protocol.TaskPending,
			Critical: def.Critical,
		})
	}
	return &protocol.Checklist{
		Vessel:  vesselName,
		ETA:     eta,
		Jetty:   jetty,
		Created: now,
		Items:   items,
	}
}

// complete marks a pending task COMPLETED. Returns false when the task
// was already completed; completed tasks are never touched again.
func complete(task *protocol.ChecklistTask, by string, at time.Time, confidence int, reason string) bool {
	if task.Status == protocol.TaskCompleted {
		return false
	}
	task.Status = protocol.TaskCompleted
	task.CompletedBy = by
	t := at
	task.CompletedAt = &t
	task.Confidence = confidence
	task.Reason = reason
	return true
}

// Summary rolls up the checklists inside the active window into a
// display summary, sorted ascending by hours until ETA.
func Summary(checklists map[string]*protocol.Checklist, now time.Time) protocol.ChecklistSummary {
	var summary protocol.ChecklistSummary

	for _, ck := range checklists {
		hours, ok := ck.HoursUntilETA(now)
		if !ok || !InWindow(hours) {
			continue
		}
		summary.Total++

		status := protocol.ChecklistStatus{
			Vessel:     ck.Vessel,
			ETA:        ck.ETA,
			HoursUntil: round1(hours),
			Jetty:      ck.Jetty,
			Total:      len(ck.Items),
		}
		for _, item := range ck.Items {
			if item.Status == protocol.TaskPending {
				if item.Critical {
					status.PendingCritical = append(status.PendingCritical, item.Name)
				}
			} else {
				status.Completed++
			}
		}
		if status.Total > 0 {
			status.CompletionPct = status.Completed * 100 / status.Total
		}
		summary.AtRisk = append(summary.AtRisk, status)
	}

	sort.Slice(summary.AtRisk, func(i, j int) bool {
		return summary.AtRisk[i].HoursUntil < summary.AtRisk[j].HoursUntil
	})
	return summary
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}
