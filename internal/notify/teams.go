package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// teamsSizeWarn is the webhook payload size at which Teams starts
// truncating cards. We still send, but loudly.
const teamsSizeWarn = 28 * 1024

// Teams posts the report as an adaptive card to an incoming webhook.
type Teams struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewTeams builds a Teams notifier.
func NewTeams(webhookURL string, logger *slog.Logger) *Teams {
	if logger == nil {
		logger = slog.Default()
	}
	return &Teams{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (t *Teams) Name() string { return "teams" }

// Send renders and posts the adaptive card.
func (t *Teams) Send(ctx context.Context, rep *protocol.Report) error {
	payload := map[string]any{
		"type": "message",
		"attachments": []any{map[string]any{
			"contentType": "application/vnd.microsoft.card.adaptive",
			"content": map[string]any{
				"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
				"type":    "AdaptiveCard",
				"version": "1.4",
				"body":    t.cardBody(rep),
			},
		}},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: teams: marshal card: %w", err)
	}
	if len(buf) > teamsSizeWarn {
		t.logger.Warn("teams card exceeds safe size, may be truncated",
			"bytes", len(buf), "limit", teamsSizeWarn)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("notify: teams: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: teams: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: teams: webhook returned %s", resp.Status)
	}
	return nil
}

func (t *Teams) cardBody(rep *protocol.Report) []any {
	var body []any

	body = append(body, textBlock(
		"🚢 Berth Watch — "+rep.GeneratedAt.Format("Monday 02 January, 15:04"),
		"Large", "Bolder", ""))

	if w := rep.Weather; w != nil {
		color := "Good"
		if !w.SafeForOperations {
			color = "Attention"
		} else if w.WindStatus == "WARNING" {
			color = "Warning"
		}
		body = append(body, textBlock(fmt.Sprintf(
			"🌤 %.1f°C (feels %.1f°C) · wind %.0f kt %s · vis %.0f km · %s — %s",
			w.Temperature, w.FeelsLike, w.WindSpeedKt, w.WindDirection,
			w.VisibilityKm, w.Conditions, w.OperationalStatus), "", "", color))
	}

	if p := rep.Pilot; p != nil {
		body = append(body, textBlock("⚓ Pilot service "+p.Status+": "+p.Text, "", "", p.Color))
	}

	mail := fmt.Sprintf("📧 %d new messages", len(rep.Emails))
	if rep.UrgentCount > 0 {
		mail += fmt.Sprintf(" · **%d urgent**", rep.UrgentCount)
	}
	body = append(body, textBlock(mail, "", "Bolder", ""))
	if facts := categoryFacts(rep.CategoryCounts); len(facts) > 0 {
		body = append(body, map[string]any{"type": "FactSet", "facts": facts})
	}

	if len(rep.Conflicts) > 0 {
		body = append(body, textBlock("⚠ Jetty conflicts", "Medium", "Bolder", "Attention"))
		for _, c := range rep.Conflicts {
			color := "Warning"
			if c.Severity == protocol.SeverityCritical {
				color = "Attention"
			}
			body = append(body, textBlock(string(c.Severity)+": "+c.Message, "", "", color))
		}
	}

	for _, notices := range rep.Delays {
		for _, d := range notices {
			body = append(body, textBlock(
				"⏳ "+d.Vessel+" — "+d.Message+" ("+d.Source+")", "", "", "Warning"))
		}
	}

	if len(rep.Timeline) > 0 {
		body = append(body, textBlock("🗓 Jetty timeline", "Medium", "Bolder", ""))
		for _, row := range rep.Timeline {
			label := fmt.Sprintf("**%s** @ %s · %s · ETA %s", row.Vessel, row.Jetty, row.Countdown, row.ETADisplay)
			if row.Cargo != "" {
				label += " · " + row.Cargo
			}
			if row.Surveyor != "" {
				label += " · surveyor " + row.Surveyor
			}
			body = append(body, textBlock(label, "", "", row.Color))
		}
	}

	if rep.Checklists.Total > 0 {
		body = append(body, textBlock("✅ Arrival checklists", "Medium", "Bolder", ""))
		for _, st := range rep.Checklists.AtRisk {
			line := fmt.Sprintf("%s (%s, %.0fh out): %d%% complete", st.Vessel, st.Jetty, st.HoursUntil, st.CompletionPct)
			color := "Good"
			if len(st.PendingCritical) > 0 {
				line += " — open: " + strings.Join(st.PendingCritical, ", ")
				color = "Warning"
			}
			body = append(body, textBlock(line, "", "", color))
		}
	}

	if len(rep.Calendar) > 0 {
		body = append(body, textBlock("📅 Today's meetings", "Medium", "Bolder", ""))
		for _, ev := range rep.Calendar {
			when := ev.StartTime
			if ev.AllDay {
				when = "all day"
			}
			body = append(body, textBlock(when+" — "+ev.Subject, "", "", ""))
		}
	}

	return body
}

func textBlock(text, size, weight, color string) map[string]any {
	block := map[string]any{"type": "TextBlock", "text": text, "wrap": true}
	if size != "" {
		block["size"] = size
	}
	if weight != "" {
		block["weight"] = weight
	}
	if color != "" && color != "Default" {
		block["color"] = color
	}
	return block
}

func categoryFacts(counts map[protocol.Category]int) []any {
	var facts []any
	for _, cat := range categoryOrder {
		if n, ok := counts[cat]; ok && n > 0 {
			facts = append(facts, map[string]any{
				"title": string(cat), "value": fmt.Sprintf("%d", n),
			})
		}
	}
	return facts
}
