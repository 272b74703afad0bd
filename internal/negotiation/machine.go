// Package negotiation drives the bounded multi-round price negotiation
// against the OMEGA negotiation service.
package negotiation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

var (
	// ErrNotActive is returned when an action is attempted with no active
	// negotiation tracked.
	ErrNotActive = errors.New("no active negotiation")
	// ErrCounterPriceRequired is returned when a counter move carries no
	// usable desired price.
	ErrCounterPriceRequired = errors.New("counter offer requires a price")
	// ErrRoundLimit is returned when a counter is attempted at the round
	// ceiling. The server is not asked.
	ErrRoundLimit = errors.New("round ceiling reached")
	// ErrActionInFlight is returned when a second action is attempted while
	// one is still outstanding.
	ErrActionInFlight = errors.New("negotiation action already in flight")
	// ErrStaleNegotiation is returned when a response arrives for a
	// negotiation session that is no longer the tracked one.
	ErrStaleNegotiation = errors.New("negotiation response discarded: session changed")
)

// ValidationVisibility is how long a validation verdict stays visible before
// it auto-expires from view. The data itself is retained.
const ValidationVisibility = 12500 * time.Millisecond

// Backend is the negotiation service contract consumed by the machine.
type Backend interface {
	Act(ctx context.Context, sessionID string, action domain.NegotiationAction, message string, counterOffer domain.Offer) (*domain.NegotiationOutcome, error)
	History(ctx context.Context, sessionID string) ([]domain.NegotiationTurn, error)
	Reset(ctx context.Context, sessionID string) error
}

// Transcript receives the agent's negotiation messages so they appear inline
// in the conversation, through the same channel as ordinary chat replies.
type Transcript interface {
	AppendAssistant(content string) domain.Message
}

// State is an immutable snapshot of the machine for the presentation layer.
type State struct {
	SessionID string
	Status    domain.NegotiationStatus
	Round     int
	MaxRounds int
	Offer     domain.Offer
}

// Absent reports whether no negotiation is tracked.
func (s State) Absent() bool { return s.SessionID == "" }

// Machine owns round counting, the current offer and the terminal status of
// at most one negotiation per chat session. It is only ever started through
// Arm, driven by a StartNegotiation directive.
type Machine struct {
	backend    Backend
	transcript Transcript
	logger     *slog.Logger
	now        func() time.Time

	mu           sync.Mutex
	inFlight     bool
	sessionID    string
	status       domain.NegotiationStatus
	round        int
	maxRounds    int
	offer        domain.Offer
	validation   *domain.ValidationInfo
	validationAt time.Time
}

// NewMachine creates a machine in the absent state.
func NewMachine(backend Backend, transcript Transcript, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		backend:    backend,
		transcript: transcript,
		logger:     logger,
		now:        time.Now,
	}
}

// Arm starts tracking the negotiation described by the directive. A round or
// ceiling the directive did not carry falls back to the protocol defaults.
func (m *Machine) Arm(start domain.StartNegotiation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionID = start.SessionID
	m.offer = start.InitialOffer
	m.round = start.CurrentRound
	if m.round < 1 {
		m.round = 1
	}
	m.maxRounds = start.MaxRounds
	if m.maxRounds < 1 {
		m.maxRounds = 5
	}
	m.status = domain.NegotiationActive
	m.validation = nil

	m.logger.Info("negotiation armed",
		"negotiation_session", start.SessionID,
		"round", m.round,
		"max_rounds", m.maxRounds,
	)
}

// Disarm clears local negotiation state without touching the server. Used
// when the chat session is switched or cleared.
func (m *Machine) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Machine) clearLocked() {
	m.sessionID = ""
	m.status = ""
	m.round = 0
	m.maxRounds = 0
	m.offer = nil
	m.validation = nil
	m.validationAt = time.Time{}
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		SessionID: m.sessionID,
		Status:    m.status,
		Round:     m.round,
		MaxRounds: m.maxRounds,
		Offer:     m.offer,
	}
}

// CanCounter reports whether a counter move would be sent at all: the
// negotiation must be active and below the round ceiling. Presentation layers
// use this to disable the counter control without a network call.
func (m *Machine) CanCounter() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID != "" && m.status == domain.NegotiationActive && m.round < m.maxRounds
}

// Accept accepts the current offer.
func (m *Machine) Accept(ctx context.Context) (*domain.NegotiationOutcome, error) {
	return m.act(ctx, domain.ActionAccept, "J'accepte votre offre.", nil)
}

// Reject refuses the current offer.
func (m *Machine) Reject(ctx context.Context) (*domain.NegotiationOutcome, error) {
	return m.act(ctx, domain.ActionReject, "Je refuse l'offre.", nil)
}

// Counter proposes a new price. It is refused locally once the round ceiling
// has been reached.
func (m *Machine) Counter(ctx context.Context, priceMAD float64) (*domain.NegotiationOutcome, error) {
	if priceMAD <= 0 {
		return nil, ErrCounterPriceRequired
	}
	message := fmt.Sprintf("Je propose %.0f MAD.", priceMAD)
	return m.act(ctx, domain.ActionCounter, message, domain.Offer{"offer_price_mad": priceMAD})
}

func (m *Machine) act(ctx context.Context, action domain.NegotiationAction, message string, counterOffer domain.Offer) (*domain.NegotiationOutcome, error) {
	m.mu.Lock()
	if m.sessionID == "" || m.status != domain.NegotiationActive {
		m.mu.Unlock()
		return nil, ErrNotActive
	}
	if m.inFlight {
		m.mu.Unlock()
		return nil, ErrActionInFlight
	}
	if action == domain.ActionCounter && m.round >= m.maxRounds {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: round %d of %d", ErrRoundLimit, m.round, m.maxRounds)
	}
	sessionID := m.sessionID
	m.inFlight = true
	m.mu.Unlock()

	outcome, err := m.backend.Act(ctx, sessionID, action, message, counterOffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if err != nil {
		// State stays untouched; protocol violations and transport failures
		// both surface to the caller.
		return nil, err
	}
	if m.sessionID != sessionID {
		m.logger.Warn("discarding negotiation response for replaced session",
			"negotiation_session", sessionID)
		return nil, ErrStaleNegotiation
	}

	// The server is authoritative on round counting; never increment locally.
	m.round = outcome.Round
	m.status = outcome.Status
	if outcome.RevisedOffer != nil {
		m.offer = outcome.RevisedOffer
	}
	if outcome.Validation != nil {
		m.validation = outcome.Validation
		m.validationAt = m.now()
	}

	if m.transcript != nil && outcome.AgentResponse != "" {
		m.transcript.AppendAssistant(outcome.AgentResponse)
	}

	m.logger.Info("negotiation action applied",
		"action", action,
		"round", m.round,
		"status", m.status,
	)
	return outcome, nil
}

// Reset tears down the negotiation server-side, then clears local state.
// On backend failure nothing is cleared: the negotiation stays visibly
// active instead of silently vanishing.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	if err := m.backend.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("reset negotiation: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == sessionID {
		m.clearLocked()
	}
	return nil
}

// History lazily fetches the ordered negotiation transcript. Safe to call on
// every open of a history view; callers replace their rendered entries.
func (m *Machine) History(ctx context.Context) ([]domain.NegotiationTurn, error) {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return nil, ErrNotActive
	}
	return m.backend.History(ctx, sessionID)
}

// Validation returns the retained validation verdict, or nil if none was
// ever received.
func (m *Machine) Validation() *domain.ValidationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validation
}

// VisibleValidation returns the validation verdict only while it should be
// shown. Visibility expires after ValidationVisibility; the data itself is
// never discarded.
func (m *Machine) VisibleValidation() *domain.ValidationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validation == nil {
		return nil
	}
	if m.now().Sub(m.validationAt) >= ValidationVisibility {
		return nil
	}
	return m.validation
}
