package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// TransactionalPublisher buffers events during a transaction and forwards
// them to the underlying publisher only after commit. Rolled-back work is
// discarded so the feed never announces rows that do not exist.
type TransactionalPublisher struct {
	mu      sync.Mutex
	inner   Publisher
	pending []Event
}

// NewTransactionalPublisher wraps inner with flush-on-commit buffering.
func NewTransactionalPublisher(inner Publisher) *TransactionalPublisher {
	return &TransactionalPublisher{inner: inner}
}

// Publish queues the event until Flush is called.
func (p *TransactionalPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

// Flush forwards all pending events. Publish failures are logged and
// skipped: the committed row is authoritative and the poll fallback will
// repair any consumer that missed the notification.
func (p *TransactionalPublisher) Flush(ctx context.Context) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, event := range pending {
		if err := p.inner.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("table", string(event.Table)).
				Msg("failed to publish buffered feed event")
		}
	}
}

// Discard drops all pending events.
func (p *TransactionalPublisher) Discard() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}

// Pending returns the number of buffered events.
func (p *TransactionalPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
