package backend

import (
	"time"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// Wire shapes of the OMEGA API. These mirror the server's JSON exactly and
// stay private to this package; everything crossing into the core is
// converted to domain types.

type wireMessage struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type wireSession struct {
	SessionID    string                 `json:"session_id"`
	Title        string                 `json:"title"`
	Messages     []wireMessage          `json:"messages"`
	ProfileState domain.ProfileSnapshot `json:"profile_state"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func (w wireSession) toDomain() domain.Session {
	messages := make([]domain.Message, 0, len(w.Messages))
	for _, m := range w.Messages {
		messages = append(messages, domain.Message{
			ID:        m.ID,
			Role:      domain.Role(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return domain.Session{
		ID:           w.SessionID,
		Title:        w.Title,
		Messages:     messages,
		ProfileState: w.ProfileState,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

type wireHistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orchestrateRequest struct {
	Query            string                 `json:"query"`
	History          []wireHistoryMessage   `json:"history"`
	UserProfileState domain.ProfileSnapshot `json:"user_profile_state"`
	SessionID        string                 `json:"session_id,omitempty"`
}

// UI action type tags emitted by the orchestrator.
const (
	actionShowTradeInForm  = "SHOW_TRADE_IN_FORM"
	actionStartNegotiation = "START_NEGOTIATION"
)

type wireUIAction struct {
	Type         string       `json:"type"`
	SessionID    string       `json:"session_id"`
	InitialOffer domain.Offer `json:"initial_offer"`
	CurrentRound int          `json:"current_round"`
	MaxRounds    int          `json:"max_rounds"`
}

type orchestrateResponse struct {
	ChatResponse         string                 `json:"chat_response"`
	UIAction             *wireUIAction          `json:"ui_action"`
	ProfileDataExtracted domain.ProfileSnapshot `json:"profile_data_extracted"`
	ProfileCompletion    int                    `json:"profile_completion"`
}

type negotiationMessageRequest struct {
	Message      string         `json:"message"`
	CounterOffer map[string]any `json:"counter_offer,omitempty"`
	Action       string         `json:"action"`
}

type wireValidation struct {
	IsApproved      bool     `json:"is_approved"`
	Violations      []string `json:"violations"`
	AuditTrail      []string `json:"audit_trail"`
	ConfidenceScore float64  `json:"confidence_score"`
}

func (w *wireValidation) toDomain() *domain.ValidationInfo {
	if w == nil {
		return nil
	}
	return &domain.ValidationInfo{
		Approved:   w.IsApproved,
		Violations: w.Violations,
		AuditTrail: w.AuditTrail,
		Confidence: w.ConfidenceScore,
	}
}

type negotiationMessageResponse struct {
	AgentResponse   string          `json:"agent_response"`
	RevisedOffer    domain.Offer    `json:"revised_offer"`
	Round           int             `json:"round"`
	RemainingRounds int             `json:"remaining_rounds"`
	Status          string          `json:"status"`
	SessionID       string          `json:"session_id"`
	Validation      *wireValidation `json:"validation"`
}

type wireNegotiationTurn struct {
	RoundNumber int          `json:"round_number"`
	Speaker     string       `json:"speaker"`
	Message     string       `json:"message"`
	OfferData   domain.Offer `json:"offer_data"`
	Action      string       `json:"action"`
	Timestamp   time.Time    `json:"timestamp"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
