package actor

import (
	"fmt"
	"sync"
)

// CallBudget caps the model calls one game may make. The gateway shares a
// single budget across every actor of the game; once it is exhausted, every
// further decision fails and resolves through the deterministic fallbacks,
// so a runaway game degrades instead of burning tokens.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a budget of max calls. A max of 0 means unlimited.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Increment consumes one call, failing once the cap is passed.
func (b *CallBudget) Increment() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return fmt.Errorf("model call budget exhausted (%d calls allowed)", b.max)
	}

	return nil
}

// Count returns the number of calls consumed so far.
func (b *CallBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}
