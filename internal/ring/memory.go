package ring

import (
	"fmt"
	"sync"
)

// Memory is a Ring held in memory. It backs tests and headless runs.
type Memory struct {
	mu      sync.Mutex
	pending []Color
	shown   []Color
	flushes int

	// SetError, if set, is returned by SetSlot.
	SetError error
	// FlushError, if set, is returned by Flush.
	FlushError error
}

// NewMemory creates a Memory ring of n slots, all off.
func NewMemory(n int) *Memory {
	return &Memory{
		pending: make([]Color, n),
		shown:   make([]Color, n),
	}
}

// Len returns the slot count.
func (m *Memory) Len() int {
	return len(m.shown)
}

// SetSlot buffers c for slot i.
func (m *Memory) SetSlot(i int, c Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetError != nil {
		return hardwareErr("set slot", m.SetError)
	}
	if i < 0 || i >= len(m.pending) {
		return fmt.Errorf("ring: slot %d out of range [0, %d)", i, len(m.pending))
	}
	m.pending[i] = c
	return nil
}

// Flush makes buffered colors visible.
func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FlushError != nil {
		return hardwareErr("flush", m.FlushError)
	}
	copy(m.shown, m.pending)
	m.flushes++
	return nil
}

// Slots returns a copy of the visible colors.
func (m *Memory) Slots() []Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Color, len(m.shown))
	copy(out, m.shown)
	return out
}

// Lit returns how many visible slots are not off.
func (m *Memory) Lit() int {
	n := 0
	for _, c := range m.Slots() {
		if c != Off {
			n++
		}
	}
	return n
}

// Flushes returns how many times Flush succeeded.
func (m *Memory) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Close turns the ring off.
func (m *Memory) Close() error {
	return Fill(m, Off)
}
