package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSource requests the current navigation state from whoever answers on subject.
type NATSSource struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

func NewNATSSource(nc *nats.Conn, subject string, timeout time.Duration) *NATSSource {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &NATSSource{nc: nc, subject: subject, timeout: timeout}
}

func (s *NATSSource) Fetch(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msg, err := s.nc.RequestWithContext(ctx, s.subject, nil)
	if err != nil {
		return nil, fmt.Errorf("request snapshot on %s: %w", s.subject, err)
	}
	return Decode(msg.Data)
}
