package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Sender delivers one message over a single channel. RecipientTag
// identifies the addressee to the transport (an email address, a device
// token alias); resolving it is the transport's concern.
type Sender interface {
	Send(ctx context.Context, subject, body, recipientTag string) error
}

// Registry maps channel names to senders. Channels are added by
// registration; dispatch iterates whatever is registered, so a new
// channel never touches the dispatch code.
type Registry struct {
	mu      sync.RWMutex
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

// Register adds or replaces the sender for a channel name.
func (r *Registry) Register(name string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[name] = s
}

// Channels lists registered channel names, sorted for stable dispatch order.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.senders))
	for name := range r.senders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Send dispatches through every registered channel and reports the
// failures together. Delivery is best effort: one failing channel does
// not stop the others.
func (r *Registry) Send(ctx context.Context, subject, body, recipientTag string) error {
	var errs []error
	for _, name := range r.Channels() {
		r.mu.RLock()
		s := r.senders[name]
		r.mu.RUnlock()
		if err := s.Send(ctx, subject, body, recipientTag); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification dispatch: %v", errs)
	}
	return nil
}
