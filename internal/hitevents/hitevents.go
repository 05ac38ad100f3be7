// Package hitevents publishes codec events to Kafka.
package hitevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
)

type Event struct {
	Op      string    `json:"op"`
	Geohash string    `json:"geohash,omitempty"`
	Scheme  string    `json:"scheme,omitempty"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Length  int       `json:"length"`
	Cache   string    `json:"cache,omitempty"`
	TS      time.Time `json:"ts"`
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Publish(ev Event)
}

type Discard struct{}

func (Discard) Publish(Event) {}

type Publisher struct {
	// mu guards closed and the send on events against Close
	mu     sync.RWMutex
	closed bool

	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	logger  *slog.Logger
	stopped chan struct{}
	errDone chan struct{}
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("hitevents: create async producer: %w", err)
	}
	return newPublisher(prod, topic, queueSize, logger), nil
}

func newPublisher(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}

	p := &Publisher{
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		logger:  logger,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("hitevents: marshal error", "err", err)
				continue
			}
			msg := &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Op),
				Value: sarama.ByteEncoder(b),
			}
			p.prod.Input() <- msg
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("hitevents: producer error", "err", err)
			}
		}
	}()

	return p
}

func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		observability.IncEventsDropped()
		return
	}
	select {
	case p.events <- ev:
	default:
		// queue full, drop rather than block the request path
		observability.IncEventsDropped()
	}
}

// Close drains queued events into the producer and closes it. Events
// published afterwards are dropped; a second Close is a no-op.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.stopped

	err := p.prod.Close()
	<-p.errDone
	if err != nil {
		return fmt.Errorf("hitevents: close producer: %w", err)
	}
	return nil
}
