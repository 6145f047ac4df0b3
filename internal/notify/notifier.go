package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/purrlabs/purr-server/internal/config"
	"github.com/purrlabs/purr-server/internal/protocol"
)

// Notifier publishes synthesis lifecycle events over NATS so other
// systems can react to finished jobs. A nil Notifier is a no-op, which is
// what a disabled config produces.
type Notifier struct {
	conn *nats.Conn
	log  *slog.Logger
}

func Connect(ctx context.Context, cfg config.NotifyConfig, log *slog.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name("purrd"),
		nats.Timeout(time.Duration(cfg.ConnectTimeout) * time.Millisecond),
	}
	if cfg.Username != "" || cfg.Password != "" {
		options = append(options, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}
	if cfg.TLSInsecure {
		options = append(options, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	log.Info("connected to NATS", slog.String("servers", url))
	return &Notifier{conn: conn, log: log.With(slog.String("component", "notify"))}, nil
}

func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.log.Info("closing NATS connection")
	n.conn.Drain()
	n.conn.Close()
}

func (n *Notifier) Healthy() bool {
	return n == nil || (n.conn != nil && n.conn.Status() == nats.CONNECTED)
}

// Completed publishes a completion event. Publish failures are logged,
// not propagated; notification is best effort and never fails a request.
func (n *Notifier) Completed(evt protocol.SynthesisCompleted) {
	if n == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	n.publish(protocol.SubjectSynthesisCompleted, evt)
}

// Failed publishes a failure event.
func (n *Notifier) Failed(evt protocol.SynthesisFailed) {
	if n == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	n.publish(protocol.SubjectSynthesisFailed, evt)
}

func (n *Notifier) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn("failed to marshal event", slog.String("error", err.Error()))
		return
	}
	if err := n.conn.Publish(subject, data); err != nil {
		n.log.Warn("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}
