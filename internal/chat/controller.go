package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/negotiation"
	"github.com/H-LAPRIME/N-gociation-Autonome/internal/store"
)

var (
	// ErrEmptyMessage is returned when the user text is empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTurnInFlight is returned when a send is attempted while a prior turn
	// for the session is still outstanding.
	ErrTurnInFlight = errors.New("a turn is already in flight")
	// ErrStaleTurn is returned when a turn completed after the active session
	// changed; its response was discarded, nothing was applied.
	ErrStaleTurn = errors.New("turn response discarded: active session changed")
)

// turnFailureText is the apologetic assistant message synthesized when the
// backend fails mid-conversation, so the chat flow survives the outage.
const turnFailureText = "Désolé, je rencontre un problème technique. Pouvez-vous réessayer dans un instant ?"

// emptyReplyText stands in for an orchestrate response with no reply text.
const emptyReplyText = "Je n'ai pas pu générer de réponse précise, mais je suis là pour vous aider !"

// DefaultHistoryWindow is how many trailing messages ride on each turn.
const DefaultHistoryWindow = 10

// SessionBackend is the chat session service contract.
type SessionBackend interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Orchestrator is the reasoning backend contract.
type Orchestrator interface {
	Orchestrate(ctx context.Context, query string, history []domain.Message, profile domain.ProfileSnapshot, sessionID string) (*domain.TurnResult, error)
}

// Options configures a Controller.
type Options struct {
	Sessions      SessionBackend
	Orchestrator  Orchestrator
	Negotiation   negotiation.Backend
	Cache         store.Repository // optional
	HistoryWindow int
	Logger        *slog.Logger
}

// Controller coordinates the session store, message log, profile accumulator,
// UI action dispatcher and negotiation machine across orchestration turns.
type Controller struct {
	sessions      SessionBackend
	orchestrator  Orchestrator
	cache         store.Repository
	logger        *slog.Logger
	historyWindow int

	log     *MessageLog
	actions *ActionDispatcher
	machine *negotiation.Machine

	mu         sync.Mutex
	profile    domain.ProfileSnapshot
	completion int
	activeID   string
	generation uint64
	inFlight   bool
}

// NewController wires the orchestration core together: the message log feeds
// the negotiation machine's transcript, and the dispatcher arms the machine
// on a StartNegotiation directive.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	log := NewMessageLog()
	machine := negotiation.NewMachine(opts.Negotiation, log, logger)

	return &Controller{
		sessions:      opts.Sessions,
		orchestrator:  opts.Orchestrator,
		cache:         opts.Cache,
		logger:        logger,
		historyWindow: window,
		log:           log,
		actions:       NewActionDispatcher(machine, logger),
		machine:       machine,
		profile:       domain.ProfileSnapshot{},
	}
}

// Log returns the message log of the active session.
func (c *Controller) Log() *MessageLog { return c.log }

// Actions returns the UI action dispatcher.
func (c *Controller) Actions() *ActionDispatcher { return c.actions }

// Negotiation returns the negotiation state machine.
func (c *Controller) Negotiation() *negotiation.Machine { return c.machine }

// ActiveSessionID returns the currently selected session id, or "".
func (c *Controller) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Profile returns a copy of the accumulated profile snapshot.
func (c *Controller) Profile() domain.ProfileSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Clone()
}

// ProfileCompletion returns the backend's latest profile completion estimate
// as a percentage, 0 until the first successful turn.
func (c *Controller) ProfileCompletion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completion
}

// Send submits one user turn. On backend failure the conversation survives:
// an apologetic assistant message is appended and the call resolves normally.
// Protocol violations always surface.
func (c *Controller) Send(ctx context.Context, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return c.send(ctx, text, text)
}

// SubmitTradeIn routes a structured trade-in record through the same
// orchestration contract as free text: the human-readable summary becomes the
// visible user turn, and a machine-tagged marker query carries the profile
// snapshot plus the trade-in payload.
func (c *Controller) SubmitTradeIn(ctx context.Context, trade domain.TradeIn) (*domain.Message, error) {
	query, err := c.tradeInQuery(trade)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, trade.Summary(), query)
}

func (c *Controller) tradeInQuery(trade domain.TradeIn) (string, error) {
	profileJSON, err := json.Marshal(c.Profile())
	if err != nil {
		return "", fmt.Errorf("encode profile snapshot: %w", err)
	}
	tradeJSON, err := json.Marshal(struct {
		Brand     string `json:"brand"`
		Model     string `json:"model"`
		Year      int    `json:"year"`
		Mileage   int    `json:"mileage"`
		Condition string `json:"condition"`
	}{trade.Brand, trade.Model, trade.Year, trade.Mileage, trade.Condition})
	if err != nil {
		return "", fmt.Errorf("encode trade-in payload: %w", err)
	}
	return fmt.Sprintf("[AUTO_NEGOTIATE] Profil: %s | Reprise: %s", profileJSON, tradeJSON), nil
}

// send runs one orchestration turn. userMessage is what the log shows; query
// is what the backend receives (identical for ordinary turns).
func (c *Controller) send(ctx context.Context, userMessage, query string) (*domain.Message, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	// An active session is part of the turn contract: create one on demand,
	// within the same logical request. Creation failures propagate and leave
	// local state untouched.
	c.mu.Lock()
	if c.activeID == "" {
		beforeCreate := c.generation
		c.mu.Unlock()
		created, err := c.sessions.CreateSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("create session for first turn: %w", err)
		}
		c.mu.Lock()
		// The view may have been replaced while the create was in flight.
		// Adopting the created id now would append this turn into the
		// newly-selected session's log.
		if c.generation != beforeCreate || c.activeID != "" {
			c.mu.Unlock()
			c.logger.Warn("discarding implicitly created session: active session changed",
				"session_id", created.ID)
			return nil, ErrStaleTurn
		}
		c.activeID = created.ID
		c.persistSelection(ctx, created.ID)
	}

	issuedFor := c.activeID
	generation := c.generation
	c.log.AppendUser(userMessage)
	history := c.log.Tail(c.historyWindow)
	profile := c.profile
	c.mu.Unlock()

	result, err := c.orchestrator.Orchestrate(ctx, query, history, profile, issuedFor)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Liveness check: the session may have been switched, recreated or
	// deleted while the request was in flight. A stale response must never
	// mutate the now-active session's view.
	if c.generation != generation || c.activeID != issuedFor {
		c.logger.Warn("discarding stale orchestrate response", "issued_for", issuedFor)
		return nil, ErrStaleTurn
	}

	if err != nil {
		if errors.Is(err, domain.ErrProtocol) {
			return nil, err
		}
		c.logger.Error("orchestrate turn failed", "session_id", issuedFor, "error", err)
		reply := c.log.AppendAssistant(turnFailureText)
		return &reply, nil
	}

	text := result.Reply
	if text == "" {
		text = emptyReplyText
	}
	reply := c.log.AppendAssistant(text)
	c.profile = domain.MergeProfileFragment(c.profile, result.ProfileFragment)
	c.completion = result.ProfileCompletion
	if result.Action != nil {
		c.actions.Dispatch(result.Action)
	}
	return &reply, nil
}

// ListSessions returns the user's sessions, most recently updated first, and
// mirrors the listing into the local cache.
func (c *Controller) ListSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := c.sessions.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	if c.cache != nil {
		if err := c.cache.UpsertSessions(ctx, sessions); err != nil {
			c.logger.Warn("failed to mirror sessions into cache", "error", err)
		}
	}
	return sessions, nil
}

// NewSession creates a session and makes it active with a fresh local view.
func (c *Controller) NewSession(ctx context.Context) (*domain.Session, error) {
	created, err := c.sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.adoptLocked(created)
	c.persistSelection(ctx, created.ID)
	c.mu.Unlock()
	return created, nil
}

// SelectSession fetches the full session and atomically replaces the local
// view. On failure the previous session's view is left untouched.
func (c *Controller) SelectSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.adoptLocked(session)
	c.persistSelection(ctx, session.ID)
	c.mu.Unlock()
	return session, nil
}

// DeleteSession removes a session. Deleting the active one resets the local
// view to the welcome state.
func (c *Controller) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.sessions.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	c.mu.Lock()
	if c.activeID == sessionID {
		c.resetLocked()
		c.persistSelection(ctx, "")
	}
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.DeleteSession(ctx, sessionID); err != nil {
			c.logger.Warn("failed to evict session from cache", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

// RestoreLastSession re-selects the session recorded in the local cache, if
// any. A missing or no-longer-fetchable session is not an error; the client
// simply starts fresh.
func (c *Controller) RestoreLastSession(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	sessionID, err := c.cache.SelectedSession(ctx)
	if err != nil {
		return fmt.Errorf("read selected session: %w", err)
	}
	if sessionID == "" {
		return nil
	}
	if _, err := c.SelectSession(ctx, sessionID); err != nil {
		c.logger.Warn("could not restore previous session", "session_id", sessionID, "error", err)
		c.persistSelection(ctx, "")
	}
	return nil
}

// adoptLocked replaces the whole local view with the given session. Bumping
// the generation makes any in-flight turn for the previous view stale.
func (c *Controller) adoptLocked(session *domain.Session) {
	c.activeID = session.ID
	c.generation++
	c.profile = session.ProfileState.Clone()
	if c.profile == nil {
		c.profile = domain.ProfileSnapshot{}
	}
	c.completion = 0
	c.log.Reset(session.Messages)
	c.actions.Clear()
	c.machine.Disarm()
}

// resetLocked returns the local view to the initial welcome state.
func (c *Controller) resetLocked() {
	c.activeID = ""
	c.generation++
	c.profile = domain.ProfileSnapshot{}
	c.completion = 0
	c.log.Reset(nil)
	c.actions.Clear()
	c.machine.Disarm()
}

func (c *Controller) persistSelection(ctx context.Context, sessionID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetSelectedSession(ctx, sessionID); err != nil {
		c.logger.Warn("failed to persist selected session", "session_id", sessionID, "error", err)
	}
}
