package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
)

const (
	SubjectNicknameFound = "nickfinder.nickname.found"
	SubjectRunCompleted  = "nickfinder.run.completed"
)

// NicknameEvent is published once per record.
type NicknameEvent struct {
	RunID       string `json:"run_id"`
	TimestampMs int64  `json:"timestamp_ms"`
	Nickname    string `json:"nickname"`
	SourceFile  string `json:"source_file"`
}

// RunEvent is published when a run has finished.
type RunEvent struct {
	RunID      string       `json:"run_id"`
	Mode       string       `json:"mode"` // "files" or "directory"
	Records    int          `json:"records"`
	Distinct   int          `json:"distinct"`
	Stats      finder.Stats `json:"stats"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Client publishes run events to NATS. A run is one pass, so the
// connection is never retried.
type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("nickfinder"),
		nats.Timeout(5 * time.Second),
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// RecordFound implements finder.Observer. Failures are logged, the run goes on.
func (c *Client) RecordFound(_ context.Context, runID uuid.UUID, source string, rec finder.Record) {
	evt := NicknameEvent{
		RunID:       runID.String(),
		TimestampMs: rec.TimestampMs,
		Nickname:    rec.Nickname,
		SourceFile:  source,
	}
	if err := c.Publish(SubjectNicknameFound, evt); err != nil {
		c.logger.Warn("failed to publish nickname event", "nickname", rec.Nickname, "error", err)
	}
}

// RunCompleted announces the end of a run.
func (c *Client) RunCompleted(res *finder.Result, mode string, distinct int) error {
	return c.Publish(SubjectRunCompleted, RunEvent{
		RunID:      res.RunID.String(),
		Mode:       mode,
		Records:    len(res.Records),
		Distinct:   distinct,
		Stats:      res.Stats,
		FinishedAt: time.Now().UTC(),
	})
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Debug("subscribed", "subject", subject)
	return nil
}

// Close flushes pending events before closing the connection.
func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if err := c.conn.FlushTimeout(5 * time.Second); err != nil {
		c.logger.Warn("nats flush failed", "error", err)
	}
	c.conn.Close()
}
