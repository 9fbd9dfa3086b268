package events

import (
	"context"
	"sync"
)

// ChannelPublisher is an in-process Publisher. Subscribers receive events
// over a channel; slow subscribers drop events rather than block the
// submission path.
type ChannelPublisher struct {
	mu     sync.Mutex
	subs   []chan *SubmissionEvent
	closed bool
}

// NewChannelPublisher creates an in-process publisher.
func NewChannelPublisher() *ChannelPublisher {
	return &ChannelPublisher{}
}

// Subscribe returns a channel that receives future submission events.
// The channel is closed when the publisher is closed.
func (p *ChannelPublisher) Subscribe() <-chan *SubmissionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan *SubmissionEvent, 16)
	if p.closed {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, ch)
	return ch
}

// PublishSubmission delivers the event to all subscribers without
// blocking.
func (p *ChannelPublisher) PublishSubmission(ctx context.Context, event *SubmissionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full: drop rather than stall a submission.
		}
	}
	return nil
}

// Close closes all subscriber channels.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	return nil
}
