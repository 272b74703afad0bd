package chat

import (
	"log/slog"
	"sync"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// NegotiationStarter receives the arming payload when the backend directs the
// client to open a negotiation. The negotiation machine has no polling path;
// this dispatch is the only way it ever starts.
type NegotiationStarter interface {
	Arm(start domain.StartNegotiation)
}

// ActionDispatcher holds at most one pending UI directive. A new directive
// overwrites an unconsumed one.
type ActionDispatcher struct {
	mu      sync.Mutex
	pending domain.UIAction
	starter NegotiationStarter
	logger  *slog.Logger
}

// NewActionDispatcher creates a dispatcher wired to the given starter.
func NewActionDispatcher(starter NegotiationStarter, logger *slog.Logger) *ActionDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionDispatcher{starter: starter, logger: logger}
}

// Dispatch stores the directive as pending and, for StartNegotiation, arms
// the negotiation machine with the fields carried on the directive.
func (d *ActionDispatcher) Dispatch(action domain.UIAction) {
	if action == nil {
		return
	}
	d.mu.Lock()
	if d.pending != nil {
		d.logger.Warn("overwriting unconsumed ui action")
	}
	d.pending = action
	d.mu.Unlock()

	if start, ok := action.(domain.StartNegotiation); ok && d.starter != nil {
		d.starter.Arm(start)
	}
}

// Pending returns the pending directive without consuming it, or nil.
func (d *ActionDispatcher) Pending() domain.UIAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Consume returns the pending directive and clears it.
func (d *ActionDispatcher) Consume() domain.UIAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	action := d.pending
	d.pending = nil
	return action
}

// Clear dismisses the pending directive.
func (d *ActionDispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
}
