// Package notify delivers the assembled report to the configured chat
// channels: a Teams incoming webhook carrying an adaptive card, a Slack
// incoming webhook and a Telegram chat. Delivery is best effort per
// channel; one failing sink never blocks the others.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Notifier is one outbound report channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, rep *protocol.Report) error
}

// Multi fans a report out to every configured notifier. Errors are
// logged per sink and joined into the return value.
type Multi struct {
	Sinks  []Notifier
	Logger *slog.Logger
}

// Send delivers to all sinks. Every sink is attempted even when earlier
// ones fail.
func (m *Multi) Send(ctx context.Context, rep *protocol.Report) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.Send(ctx, rep); err != nil {
			m.Logger.Error("notify failed", "sink", sink.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		m.Logger.Info("report delivered", "sink", sink.Name())
	}
	return errors.Join(errs...)
}
