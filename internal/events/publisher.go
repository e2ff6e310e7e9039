// Package events publishes domain events to a RabbitMQ topic exchange.
// Publishing is best effort and asynchronous: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"classbook/internal/logger"
	"classbook/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc returns the channel and the connection that owns it. It must give up
// once ctx is done.
type dialFunc func(ctx context.Context, url string) (channel, closer, error)

type closer interface {
	Close() error
}

const (
	DefaultBuffer = 256

	defaultPublishTimeout = 5 * time.Second
	minBackoff            = time.Second
	maxBackoff            = 30 * time.Second
)

var (
	ErrBufferFull      = errors.New("event buffer full")
	ErrPublisherClosed = errors.New("event publisher closed")
)

type message struct {
	key  string
	body []byte
	at   time.Time
}

// AMQPPublisher hands events to a background sender through a bounded buffer,
// so Publish never waits on the broker. Events raised while the broker is
// unreachable are dropped until the redial backoff expires.
type AMQPPublisher struct {
	url  string
	dial dialFunc
	now  func() time.Time

	// publishTimeout bounds one dial plus publish.
	publishTimeout time.Duration

	queue     chan message
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the sender goroutine.
	ch      channel
	conn    closer
	backoff time.Duration
	retryAt time.Time
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	p := newPublisher(url, dialAMQP, DefaultBuffer)
	p.start()
	return p
}

func newPublisher(url string, dial dialFunc, buffer int) *AMQPPublisher {
	return &AMQPPublisher{
		url:            url,
		dial:           dial,
		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
		queue:          make(chan message, buffer),
		done:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
}

func (p *AMQPPublisher) start() {
	go p.run()
}

func dialAMQP(ctx context.Context, url string) (channel, closer, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Locale: "en_US",
		Dial:   contextDialer(ctx),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return ch, conn, nil
}

// contextDialer connects within ctx and carries its deadline over to the TLS
// and AMQP handshake. amqp clears the deadline once the connection is open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}

// Publish queues payload as a persistent JSON message and returns at once.
// ctx does not cancel delivery: the event describes a change that already
// happened.
func (p *AMQPPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordEvent(routingKey, "error")
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.queue <- message{key: routingKey, body: body, at: p.now().UTC()}:
		return nil
	default:
		metrics.RecordEvent(routingKey, "dropped")
		return fmt.Errorf("%s: %w", routingKey, ErrBufferFull)
	}
}

func (p *AMQPPublisher) run() {
	defer close(p.stopped)
	defer p.reset()

	for {
		select {
		case m := <-p.queue:
			p.deliver(context.Background(), m)
		case <-p.done:
			p.drain()
			return
		}
	}
}

// drain sends whatever is still buffered, within one publish timeout overall.
func (p *AMQPPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
	defer cancel()

	for {
		select {
		case m := <-p.queue:
			p.deliver(ctx, m)
		default:
			return
		}
	}
}

func (p *AMQPPublisher) deliver(parent context.Context, m message) {
	ctx, cancel := context.WithTimeout(parent, p.publishTimeout)
	defer cancel()

	if p.ch == nil {
		if p.now().Before(p.retryAt) {
			metrics.RecordEvent(m.key, "dropped")
			return
		}

		ch, conn, err := p.dial(ctx, p.url)
		if err != nil {
			p.backoff = min(max(2*p.backoff, minBackoff), maxBackoff)
			p.retryAt = p.now().Add(p.backoff)
			metrics.RecordEvent(m.key, "error")
			logger.WithError(err).Warn("event broker unreachable", "routing_key", m.key, "retry_in", p.backoff.String())
			return
		}
		p.ch, p.conn = ch, conn
		p.backoff, p.retryAt = 0, time.Time{}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    m.at,
		Type:         m.key,
		Body:         m.body,
	}

	if err := p.ch.PublishWithContext(ctx, Exchange, m.key, false, false, msg); err != nil {
		p.reset()
		metrics.RecordEvent(m.key, "error")
		logger.WithError(err).Warn("event publish failed", "routing_key", m.key)
		return
	}

	metrics.RecordEvent(m.key, "ok")
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close stops accepting events, flushes the buffer and closes the connection.
// It gives up waiting on a sender stuck on the broker after three publish timeouts.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })

	select {
	case <-p.stopped:
		return nil
	case <-time.After(3 * p.publishTimeout):
		return errors.New("event publisher did not stop in time")
	}
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	logger.Debug("event", "routing_key", routingKey, "payload", payload)
	metrics.RecordEvent(routingKey, "skipped")
	return nil
}

func (LogPublisher) Close() error { return nil }
