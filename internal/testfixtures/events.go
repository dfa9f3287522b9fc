package testfixtures

import (
	"context"
	"sync"

	"docket/internal/events"
)

// Publisher records published events. It satisfies events.Publisher.
type Publisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *Publisher) Close() error { return nil }

// Events returns the recorded events in publish order.
func (p *Publisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the type of every recorded event.
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
