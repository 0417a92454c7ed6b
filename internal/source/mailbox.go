package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// gatewayMessage is the mailbox gateway's wire shape for one message.
type gatewayMessage struct {
	ID       string `json:"id"`
	From     struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"from"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	BodyType string `json:"body_type"` // "text" or "html"
	Received string `json:"received"`
}

// gatewayEvent is the gateway's wire shape for one calendar event.
type gatewayEvent struct {
	Subject   string `json:"subject"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Location  string `json:"location"`
	Organizer string `json:"organizer"`
	AllDay    bool   `json:"all_day"`
}

// Mailbox talks to the mail gateway's REST API with Bearer auth.
type Mailbox struct {
	baseURL string
	token   string
	client  *http.Client
	retry   Retry
	logger  *slog.Logger
}

// NewMailbox builds a mailbox client. The base URL is used as-is, minus
// any trailing slash.
func NewMailbox(baseURL, token string, retry Retry, logger *slog.Logger) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   retry,
		logger:  logger,
	}
}

// FetchUnread returns the unread inbox messages, oldest first, skipping
// any ID present in seen. HTML bodies are reduced to readable text;
// extraction failures fall back to the raw body.
func (m *Mailbox) FetchUnread(ctx context.Context, seen map[string]bool) ([]protocol.EmailMessage, error) {
	var raw []gatewayMessage
	err := m.retry.Do(ctx, func() error {
		return m.getJSON(ctx, "/api/messages?folder=inbox&unread=true", &raw)
	})
	if err != nil {
		return nil, fmt.Errorf("source: mailbox: fetch unread: %w", err)
	}

	emails := make([]protocol.EmailMessage, 0, len(raw))
	for _, msg := range raw {
		if seen[msg.ID] {
			continue
		}
		body := msg.Body
		if msg.BodyType == "html" {
			body = m.extractText(msg.Body)
		}
		received, err := protocol.ParseWhen(msg.Received)
		if err != nil {
			received = time.Time{} // unknown, sorts first
		}
		emails = append(emails, protocol.EmailMessage{
			ID:          msg.ID,
			SenderName:  msg.From.Name,
			SenderEmail: msg.From.Address,
			Subject:     msg.Subject,
			Body:        body,
			Received:    received,
		})
	}
	return emails, nil
}

// Acknowledge marks a message read at the gateway. Failures are logged
// and swallowed: a message acknowledged twice is harmless, a run aborted
// over it is not.
func (m *Mailbox) Acknowledge(ctx context.Context, id string) {
	err := m.retry.Do(ctx, func() error {
		return m.post(ctx, "/api/messages/"+url.PathEscape(id)+"/read", nil)
	})
	if err != nil {
		m.logger.Warn("mailbox acknowledge failed", "id", id, "error", err)
	}
}

// MarkUrgent flags a message at the gateway so it stands out in the
// shared mailbox. Failures are logged and swallowed.
func (m *Mailbox) MarkUrgent(ctx context.Context, id string) {
	err := m.retry.Do(ctx, func() error {
		return m.post(ctx, "/api/messages/"+url.PathEscape(id)+"/flag", nil)
	})
	if err != nil {
		m.logger.Warn("mailbox flag failed", "id", id, "error", err)
	}
}

// CalendarToday returns today's calendar events. A gateway error yields
// an empty slice; the summary simply shows no meetings.
func (m *Mailbox) CalendarToday(ctx context.Context) []protocol.CalendarEvent {
	var raw []gatewayEvent
	err := m.retry.Do(ctx, func() error {
		return m.getJSON(ctx, "/api/calendar/today", &raw)
	})
	if err != nil {
		m.logger.Warn("calendar fetch failed", "error", err)
		return nil
	}

	events := make([]protocol.CalendarEvent, 0, len(raw))
	for _, ev := range raw {
		events = append(events, protocol.CalendarEvent{
			Subject:   ev.Subject,
			StartTime: ev.Start,
			EndTime:   ev.End,
			Location:  ev.Location,
			Organizer: ev.Organizer,
			AllDay:    ev.AllDay,
		})
	}
	return events
}

func (m *Mailbox) extractText(html string) string {
	base, _ := url.Parse(m.baseURL)
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		m.logger.Warn("html extraction failed, using raw body", "error", err)
		return html
	}
	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return html
	}
	return buf.String()
}

func (m *Mailbox) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (m *Mailbox) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	return nil
}
