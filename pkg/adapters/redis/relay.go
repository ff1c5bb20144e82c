package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/weave/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "weave:notifications"

// ErrRelayClosed is returned by Start once the relay has been closed.
var ErrRelayClosed = errors.New("relay closed")

// Source is anything that delivers domain notifications, such as a *weave.Workspace.
type Source interface {
	Subscribe(fn func(domain.Notification)) (unsubscribe func())
}

// Relay publishes every notification of a Source as JSON.
// Notifications are queued without blocking and published from a background goroutine.
type Relay struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
	size    int

	mu          sync.Mutex
	queue       chan domain.Notification
	unsubscribe func()
	done        chan struct{}
	closed      bool
}

// Option configures a Relay.
type Option func(*Relay)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(r *Relay) {
		r.channel = channel
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithBufferSize sets how many notifications may wait for publication
// before new ones are dropped.
func WithBufferSize(n int) Option {
	return func(r *Relay) {
		r.size = n
	}
}

// NewRelay creates a relay publishing through client.
func NewRelay(client *backend.Client, opts ...Option) *Relay {
	r := &Relay{
		client:  client,
		channel: DefaultChannel,
		size:    256,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.queue = make(chan domain.Notification, r.size)
	return r
}

// Channel returns the pub/sub channel the relay publishes to.
func (r *Relay) Channel() string {
	return r.channel
}

// Start subscribes to src and publishes its notifications until Close is called
// or ctx is done.
func (r *Relay) Start(ctx context.Context, src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRelayClosed
	}
	if r.done != nil {
		return fmt.Errorf("relay on %q already started", r.channel)
	}

	r.done = make(chan struct{})
	r.unsubscribe = src.Subscribe(r.enqueue)
	go r.run(ctx)
	return nil
}

// Close stops listening and waits until queued notifications are published.
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	close(r.queue)
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Relay) enqueue(n domain.Notification) {
	select {
	case r.queue <- n:
	default:
		r.logger.Warn("redis relay: queue full, dropping notification", "type", n.Type)
	}
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-r.queue:
			if !ok {
				return
			}
			if err := r.publish(ctx, n); err != nil {
				r.logger.Error("redis relay: publish failed", "type", n.Type, "err", err)
			}
		}
	}
}

func (r *Relay) publish(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Listen subscribes to channel and decodes the notifications published on it.
// The returned channel is closed when ctx is done or the subscription fails.
func Listen(ctx context.Context, client *backend.Client, channel string) (<-chan domain.Notification, error) {
	ps := client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %q: %w", channel, err)
	}

	out := make(chan domain.Notification)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n domain.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
