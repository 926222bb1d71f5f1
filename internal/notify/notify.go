// Package notify publishes build-completed events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/gardenbuild/internal/config"
	"git.home.luguber.info/inful/gardenbuild/internal/logfields"
	"git.home.luguber.info/inful/gardenbuild/internal/retry"
)

// BuildEvent is the payload published after every build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"`
	Published  int       `json:"published"`
	Emitted    int       `json:"emitted"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher sends build events.
type Publisher interface {
	Publish(ctx context.Context, ev BuildEvent) error
	Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close()                                    {}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// publishRetry covers a broker that is briefly unavailable at build end.
var publishRetry = retry.NewPolicy(retry.BackoffExponential, 200*time.Millisecond, 2*time.Second, 2)

// New returns a NoopPublisher when no NATS URL is configured, otherwise a
// connected NATSPublisher.
func New(cfg config.NotifyConfig) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NoopPublisher{}, nil
	}
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("gardenbuild"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifications enabled", logfields.Addr(cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: nc, subject: cfg.Subject, retry: publishRetry}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush,
// retrying per the publisher's policy.
func (p *NATSPublisher) Publish(ctx context.Context, ev BuildEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.retry.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			slog.Debug("Retrying build event", logfields.BuildID(ev.BuildID), slog.Int("attempt", attempt))
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.conn.FlushWithContext(flushCtx); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), logfields.Outcome(ev.Outcome))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// PublishBestEffort publishes ev and logs a warning on failure.
func PublishBestEffort(ctx context.Context, p Publisher, ev BuildEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("Build event not published", logfields.BuildID(ev.BuildID), logfields.Error(err))
	}
}
