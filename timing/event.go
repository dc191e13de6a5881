package timing

import "context"

// Event is a counting completion signal. Every Trigger deposits one token and
// every Wait consumes one, so a trigger that happens before the matching wait
// is never lost.
type Event struct {
	tokens *Mailbox[struct{}]
}

// NewEvent creates an event bound to a kernel.
func NewEvent(k *Kernel, name string) *Event {
	return &Event{tokens: NewMailbox[struct{}](k, name)}
}

// Name returns the name of the event.
func (e *Event) Name() string {
	return e.tokens.Name()
}

// Trigger deposits one token.
func (e *Event) Trigger() {
	e.tokens.Put(struct{}{})
}

// Wait parks the calling process until a token is available and consumes it.
func (e *Event) Wait(ctx context.Context) error {
	_, err := e.tokens.Get(ctx)
	return err
}

// Pending returns the number of tokens not yet consumed.
func (e *Event) Pending() int {
	return e.tokens.Len()
}
