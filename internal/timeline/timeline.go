// Package timeline derives display state from the schedule snapshot:
// jetty double-booking conflicts, per-vessel arrival status and the
// visible multi-day jetty timeline. It reads the snapshot only and never
// touches the checklist store.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/internal/vessel"
	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// tightGapHours is the minimum comfortable turnaround between a
// departure and the next arrival at the same jetty.
const tightGapHours = 2.0

// DefaultVisibleDays is the timeline display window.
const DefaultVisibleDays = 7

// Jetty describes one berth of the terminal.
type Jetty struct {
	Name      string `json:"name"`
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
}

// DefaultJetties is the terminal's berth table. Config may replace it.
var DefaultJetties = map[string]Jetty{
	"ST2":   {Name: "Single Jetty 2", MinLength: 99, MaxLength: 190},
	"ST3":   {Name: "Single Jetty 3", MinLength: 99, MaxLength: 155},
	"ST4":   {Name: "Single Jetty 4", MinLength: 85, MaxLength: 185},
	"ST5":   {Name: "Single Jetty 5", MinLength: 85, MaxLength: 111},
	"ST15":  {Name: "Single Jetty 15", MinLength: 60, MaxLength: 90},
	"ST16":  {Name: "Single Jetty 16", MinLength: 60, MaxLength: 90},
	"ST17":  {Name: "Single Jetty 17", MinLength: 85, MaxLength: 190},
	"ST18":  {Name: "Single Jetty 18", MinLength: 85, MaxLength: 185},
	"ST35":  {Name: "Single Jetty 35", MinLength: 85, MaxLength: 185},
	"ST35A": {Name: "Single Jetty 35A", MinLength: 85, MaxLength: 185},
}

// DetectConflicts scans each jetty's ETA-ordered vessels for overlapping
// or tight berth windows between adjacent pairs. One record per
// offending pair; jetties are not deduplicated against each other.
func DetectConflicts(snap *protocol.Snapshot) []protocol.Conflict {
	if snap == nil {
		return nil
	}
	type timed struct {
		entry protocol.ScheduleEntry
		eta   time.Time
	}

	byJetty := make(map[string][]timed)
	var jetties []string
	for _, e := range snap.Vessels {
		eta, err := protocol.ParseWhen(e.ETA)
		if err != nil {
			continue // unknown ETA, cannot order
		}
		jetty := e.Jetty
		if jetty == "" {
			jetty = "TBD"
		}
		if _, seen := byJetty[jetty]; !seen {
			jetties = append(jetties, jetty)
		}
		byJetty[jetty] = append(byJetty[jetty], timed{entry: e, eta: eta})
	}
	sort.Strings(jetties)

	var conflicts []protocol.Conflict
	for _, jetty := range jetties {
		vessels := byJetty[jetty]
		sort.Slice(vessels, func(i, j int) bool { return vessels[i].eta.Before(vessels[j].eta) })

		for i := 0; i < len(vessels)-1; i++ {
			v1, v2 := vessels[i], vessels[i+1]
			etd, err := protocol.ParseWhen(v1.entry.ETD)
			if err != nil {
				continue
			}
			gap := v2.eta.Sub(etd).Hours()
			switch {
			case gap < 0:
				conflicts = append(conflicts, protocol.Conflict{
					Severity: protocol.SeverityCritical,
					Message:  fmt.Sprintf("OVERLAP at %s: %s & %s", jetty, v1.entry.Name, v2.entry.Name),
				})
			case gap < tightGapHours:
				conflicts = append(conflicts, protocol.Conflict{
					Severity: protocol.SeverityWarning,
					Message:  fmt.Sprintf("TIGHT: %.1fh gap at %s (%s -> %s)", gap, jetty, v1.entry.Name, v2.entry.Name),
				})
			}
		}
	}
	return conflicts
}

// HasArrived reports whether the anchored date marks an actual arrival:
// present, parseable and not after now. Arrival takes precedence over any
// ETA countdown.
func HasArrived(anchoredDate string, now time.Time) bool {
	anchored, err := protocol.ParseWhen(anchoredDate)
	if err != nil {
		return false
	}
	return !anchored.After(now)
}

// Countdown computes the display status for a vessel: "ARRIVED" when the
// anchored date says so, otherwise a bucket label derived from hours
// until ETA. The color is a card tone (Good/Warning/Attention/Default).
func Countdown(eta, anchoredDate string, now time.Time) (label, color string, arrived bool) {
	if HasArrived(anchoredDate, now) {
		return "ARRIVED", "Good", true
	}

	etaTime, err := protocol.ParseWhen(eta)
	if err != nil {
		return "Scheduled", "Default", false
	}
	hours := etaTime.Sub(now).Hours()

	switch {
	case hours < 0:
		return "Overdue", "Warning", false
	case hours < 6:
		return fmt.Sprintf("ARRIVING IN %dh", int(hours)), "Attention", false
	case hours < 24:
		return fmt.Sprintf("Arriving in %dh", int(hours)), "Warning", false
	case hours < 48:
		return fmt.Sprintf("Tomorrow (%dh)", int(hours)), "Good", false
	default:
		return fmt.Sprintf("In %d days", int(math.Floor(hours/24))), "Default", false
	}
}

// Build produces the visible timeline rows: vessels that have arrived or
// whose ETA day falls within [today, today+days], sorted by jetty then
// ETA. Entries without an ETA are skipped.
func Build(snap *protocol.Snapshot, reg *vessel.Registry, jetties map[string]Jetty, days int, now time.Time) []protocol.TimelineRow {
	if snap == nil {
		return nil
	}
	if days <= 0 {
		days = DefaultVisibleDays
	}
	today := now.Truncate(24 * time.Hour)
	endDay := today.AddDate(0, 0, days)

	type sortable struct {
		row protocol.TimelineRow
		eta time.Time
	}

	var visible []sortable
	for _, e := range snap.Vessels {
		if strings.TrimSpace(e.ETA) == "" {
			continue
		}
		etaTime, err := protocol.ParseWhen(e.ETA)
		if err != nil {
			continue
		}
		etaDay := etaTime.Truncate(24 * time.Hour)

		arrived := HasArrived(e.AnchoredDate, now)
		if !arrived && (etaDay.Before(today) || etaDay.After(endDay)) {
			continue
		}

		label, color, _ := Countdown(e.ETA, e.AnchoredDate, now)

		id := reg.Identifier(e.Name)
		jetty := e.Jetty
		if jetty == "" {
			jetty = "TBD"
		}

		row := protocol.TimelineRow{
			Vessel:     e.Name,
			Jetty:      jetty,
			Cargo:      truncate(e.Cargo, 35),
			Agent:      e.Agent,
			StatusDesc: e.StatusDesc,
			Arrived:    arrived,
			Countdown:  label,
			Color:      color,
			ETADisplay: displayDay(e.ETA),
			ETDDisplay: displayDay(e.ETD),
			TrackURL:   vessel.TrackURL(e.Name, id),
			Barge:      vessel.IdentifierType(id) == vessel.ENI,
		}
		if j, ok := jetties[jetty]; ok {
			row.JettyName = j.Name
		}
		if e.InspectorAssigned() {
			row.Surveyor = e.ShipInspector
		}
		visible = append(visible, sortable{row: row, eta: etaTime})
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].row.Jetty != visible[j].row.Jetty {
			return visible[i].row.Jetty < visible[j].row.Jetty
		}
		return visible[i].eta.Before(visible[j].eta)
	})

	rows := make([]protocol.TimelineRow, len(visible))
	for i, v := range visible {
		rows[i] = v.row
	}
	return rows
}

// displayDay renders a feed timestamp as "Mar 02", or "TBC".
func displayDay(raw string) string {
	t, err := protocol.ParseWhen(raw)
	if err != nil {
		return "TBC"
	}
	return t.Format("Jan 02")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
