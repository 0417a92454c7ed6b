package protocol

import "time"

// TaskStatus represents the lifecycle state of a checklist task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
)

// The closed set of required arrival tasks. Checklists are built from
// these names and both reconcilers match tasks by them.
const (
	TaskPilotBooking  = "Pilot booking confirmed"
	TaskBerth         = "Berth availability confirmed"
	TaskAgentNotified = "Agent notified"
	TaskSurveyor      = "Surveyor booked"
	TaskLoadingPlan   = "Loading plan approved"
	TaskMooringCrew   = "Mooring crew ready"
)

// ChecklistTask is a single required arrival task for a vessel.
// Status is monotonic: once COMPLETED it is never reverted to PENDING.
type ChecklistTask struct {
	Name        string     `json:"task"`
	Deadline    string     `json:"deadline"` // display-only hint, not enforced
	Status      TaskStatus `json:"status"`
	Critical    bool       `json:"critical"`
	CompletedBy string     `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Confidence  int        `json:"confidence,omitempty"` // 0-100, email-derived completions only
	Reason      string     `json:"reason,omitempty"`     // email-derived completions only
}

// Checklist is the arrival checklist for one vessel. Keyed by the exact
// vessel name used in the schedule feed.
type Checklist struct {
	Vessel  string          `json:"vessel"`
	ETA     string          `json:"eta,omitempty"` // raw feed timestamp, parsed on demand
	Jetty   string          `json:"jetty"`
	Created time.Time       `json:"created"`
	Items   []ChecklistTask `json:"items"`
}

// Task returns a pointer to the task with the given name, or nil.
// Tasks are matched by name within the ordered list, never re-created.
func (c *Checklist) Task(name string) *ChecklistTask {
	for i := range c.Items {
		if c.Items[i].Name == name {
			return &c.Items[i]
		}
	}
	return nil
}

// HoursUntilETA returns the signed hours between now and the checklist's
// ETA. The second return is false when the ETA is absent or unparseable.
func (c *Checklist) HoursUntilETA(now time.Time) (float64, bool) {
	eta, err := ParseWhen(c.ETA)
	if err != nil {
		return 0, false
	}
	return eta.Sub(now).Hours(), true
}

// ChecklistSummary is the per-run roll-up of active checklists,
// sorted ascending by hours until ETA.
type ChecklistSummary struct {
	Total  int               `json:"total"`
	AtRisk []ChecklistStatus `json:"at_risk"`
}

// ChecklistStatus is one vessel's completion state inside a summary.
type ChecklistStatus struct {
	Vessel          string   `json:"vessel"`
	ETA             string   `json:"eta"`
	HoursUntil      float64  `json:"hours_until"`
	Jetty           string   `json:"jetty"`
	PendingCritical []string `json:"pending_critical"`
	Completed       int      `json:"completed"`
	Total           int      `json:"total"`
	CompletionPct   int      `json:"completion_pct"`
}
