package chat

import (
	"context"
	"sync"
)

// FakeSender records sent messages for test assertions.
type FakeSender struct {
	mu sync.Mutex

	// Messages contains every text passed to Send.
	Messages []string

	// SendError, if set, will be returned by Send (after recording).
	SendError error
}

// Send records text.
func (f *FakeSender) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, text)
	return f.SendError
}

// Count returns how many messages were sent.
func (f *FakeSender) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Messages)
}
