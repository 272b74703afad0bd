package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// Act sends one accept/reject/counter move in an active negotiation session.
// The returned outcome carries the server-authoritative round and status; an
// unknown status or an invalid round is reported as a protocol violation and
// nothing usable is returned.
func (c *Client) Act(ctx context.Context, sessionID string, action domain.NegotiationAction, message string, counterOffer domain.Offer) (*domain.NegotiationOutcome, error) {
	req := negotiationMessageRequest{
		Message:      message,
		CounterOffer: counterOffer,
		Action:       string(action),
	}

	var resp negotiationMessageResponse
	path := "/negotiation/" + url.PathEscape(sessionID) + "/message"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("negotiation %s: %w", action, err)
	}

	status, err := domain.ParseNegotiationStatus(resp.Status)
	if err != nil {
		return nil, err
	}
	if resp.Round < 1 {
		return nil, fmt.Errorf("%w: negotiation response reported round %d", domain.ErrProtocol, resp.Round)
	}
	if resp.AgentResponse == "" {
		return nil, fmt.Errorf("%w: negotiation response missing agent_response", domain.ErrProtocol)
	}

	return &domain.NegotiationOutcome{
		AgentResponse:   resp.AgentResponse,
		RevisedOffer:    resp.RevisedOffer,
		Round:           resp.Round,
		RemainingRounds: resp.RemainingRounds,
		Status:          status,
		Validation:      resp.Validation.toDomain(),
	}, nil
}

// History fetches the ordered negotiation transcript. The read is idempotent;
// callers replace their view on every fetch.
func (c *Client) History(ctx context.Context, sessionID string) ([]domain.NegotiationTurn, error) {
	var wire []wireNegotiationTurn
	path := "/negotiation/" + url.PathEscape(sessionID) + "/history"
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, fmt.Errorf("negotiation history %s: %w", sessionID, err)
	}
	turns := make([]domain.NegotiationTurn, 0, len(wire))
	for _, w := range wire {
		turns = append(turns, domain.NegotiationTurn{
			Round:     w.RoundNumber,
			Speaker:   w.Speaker,
			Message:   w.Message,
			Offer:     w.OfferData,
			Timestamp: w.Timestamp,
		})
	}
	return turns, nil
}

// Reset tears down the server-side negotiation session. Callers must not
// clear local state until this returns nil.
func (c *Client) Reset(ctx context.Context, sessionID string) error {
	var resp successResponse
	path := "/negotiation/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return fmt.Errorf("reset negotiation %s: %w", sessionID, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: reset negotiation %s reported success=false", domain.ErrProtocol, sessionID)
	}
	return nil
}
