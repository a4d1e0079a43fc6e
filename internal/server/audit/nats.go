package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/nats-io/nats.go"
)

// jetStream is the subset of nats.JetStreamContext used by NATSSink.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// NATSSink publishes each event as JSON to "<prefix>.<operation>" on
// JetStream.
type NATSSink struct {
	conn   *nats.Conn
	js     jetStream
	prefix string
}

// NewNATSSink connects to url and makes sure a stream named stream captures
// "<prefix>.>".
func NewNATSSink(url, stream, prefix string, opts ...nats.Option) (*NATSSink, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	s := &NATSSink{conn: nc, js: js, prefix: prefix}
	if err := s.ensureStream(stream); err != nil {
		nc.Close()
		return nil, err
	}
	return s, nil
}

func (s *NATSSink) ensureStream(name string) error {
	_, err := s.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", name, err)
	}
	_, err = s.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{s.prefix + ".>"},
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", name, err)
	}
	return nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) subject(e models.AuditEvent) string {
	return s.prefix + "." + e.Operation
}

func (s *NATSSink) Publish(ctx context.Context, e models.AuditEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.js.Publish(s.subject(e), data, nats.Context(ctx), nats.MsgId(e.ID))
	return err
}

// Close drains the connection, falling back to a hard close.
func (s *NATSSink) Close() {
	if s == nil || s.conn == nil {
		return
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}

// Ready reports whether the connection to the server is up.
func (s *NATSSink) Ready(context.Context) error {
	if s == nil || s.conn == nil || !s.conn.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}
