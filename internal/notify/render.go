package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// categoryOrder fixes the display order of the email breakdown.
var categoryOrder = []protocol.Category{
	protocol.CategoryHighPriority,
	protocol.CategoryAgent,
	protocol.CategoryTerminal,
	protocol.CategorySurveyor,
	protocol.CategoryLoadingMaster,
	protocol.CategoryNomination,
	protocol.CategoryOperations,
	protocol.CategoryGeneral,
}

// RenderText flattens a report into the plain-text summary used by the
// chat notifiers. Sections with nothing to say are omitted.
func RenderText(rep *protocol.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Berth watch — %s\n", rep.GeneratedAt.Format("Mon 02 Jan 15:04"))

	if w := rep.Weather; w != nil {
		fmt.Fprintf(&b, "\nWeather: %.1f°C, wind %.0f kt %s (%s), %s\n",
			w.Temperature, w.WindSpeedKt, w.WindDirection, w.WindStatus, w.Conditions)
		if !w.SafeForOperations {
			fmt.Fprintf(&b, "⚠ %s\n", w.OperationalStatus)
		}
	}
	if p := rep.Pilot; p != nil {
		fmt.Fprintf(&b, "Pilot service: %s — %s\n", p.Status, p.Text)
	}

	fmt.Fprintf(&b, "\nMail: %d new", len(rep.Emails))
	if rep.UrgentCount > 0 {
		fmt.Fprintf(&b, ", %d URGENT", rep.UrgentCount)
	}
	b.WriteString("\n")
	for _, cat := range categoryOrder {
		if n := rep.CategoryCounts[cat]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", cat, n)
		}
	}

	if len(rep.Conflicts) > 0 {
		b.WriteString("\nJetty conflicts:\n")
		for _, c := range rep.Conflicts {
			fmt.Fprintf(&b, "  [%s] %s\n", c.Severity, c.Message)
		}
	}

	if len(rep.Delays) > 0 {
		b.WriteString("\nDelay signals:\n")
		vessels := make([]string, 0, len(rep.Delays))
		for v := range rep.Delays {
			vessels = append(vessels, v)
		}
		sort.Strings(vessels)
		for _, v := range vessels {
			for _, d := range rep.Delays[v] {
				fmt.Fprintf(&b, "  %s: %s (%s)\n", v, d.Message, d.Source)
			}
		}
	}

	if len(rep.Timeline) > 0 {
		b.WriteString("\nTimeline:\n")
		for _, row := range rep.Timeline {
			line := fmt.Sprintf("  %s @ %s — %s (ETA %s)", row.Vessel, row.Jetty, row.Countdown, row.ETADisplay)
			if row.Cargo != "" {
				line += ", " + row.Cargo
			}
			b.WriteString(line + "\n")
		}
	}

	if rep.Checklists.Total > 0 {
		b.WriteString("\nArrival checklists:\n")
		for _, st := range rep.Checklists.AtRisk {
			fmt.Fprintf(&b, "  %s (%s, %.0fh): %d/%d done", st.Vessel, st.Jetty, st.HoursUntil, st.Completed, st.Total)
			if len(st.PendingCritical) > 0 {
				fmt.Fprintf(&b, " — open: %s", strings.Join(st.PendingCritical, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(rep.Calendar) > 0 {
		b.WriteString("\nToday's meetings:\n")
		for _, ev := range rep.Calendar {
			when := ev.StartTime
			if ev.AllDay {
				when = "all day"
			}
			fmt.Fprintf(&b, "  %s — %s\n", when, ev.Subject)
		}
	}

	return b.String()
}
