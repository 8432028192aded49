package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"trackprogress/internal/progress"
)

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// Connect opens the shared NATS connection and keeps the connected gauge in sync.
func Connect(url string, m PublisherMetrics) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("trackprogress"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return nc, nil
}

// flushTimeout bounds how long Close waits for buffered messages to reach the server.
const flushTimeout = 2 * time.Second

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

type NATSPublisher struct {
	nc          conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

func NewNATSPublisher(nc *nats.Conn, prefix string, logSubjects bool, m PublisherMetrics) *NATSPublisher {
	p := &NATSPublisher{prefix: prefix, logSubjects: logSubjects, metrics: m}
	if nc != nil {
		p.nc = nc
	}
	return p
}

// Close flushes pending progress messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.FlushTimeout(flushTimeout); err != nil {
		log.Printf("nats flush error: %v", err)
	}
	p.nc.Close()
}

type ProgressMessage struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Result    progress.Result   `json:"result"`
	Fields    map[string]string `json:"fields"`
}

// PublishProgress sends the cycle result to <prefix>.<routeId>, or
// <prefix>.none when no route was matched.
func (p *NATSPublisher) PublishProgress(res progress.Result, at time.Time) error {
	subject := progressSubject(p.prefix, res)
	b, err := json.Marshal(newProgressMessage(res, at))
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func newProgressMessage(res progress.Result, at time.Time) ProgressMessage {
	return ProgressMessage{ID: uuid.NewString(), Timestamp: at.UTC(), Result: res, Fields: res.Values()}
}

func progressSubject(prefix string, res progress.Result) string {
	route := "none"
	if res.OK() {
		route = strconv.FormatInt(res.RouteID, 10)
	}
	return fmt.Sprintf("%s.%s", subjectToken(prefix), subjectToken(route))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = strings.Trim(repl.Replace(s), ".")
	if s == "" {
		s = "_"
	}
	return s
}
