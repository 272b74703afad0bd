package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// Orchestrate submits one conversational turn to the reasoning backend: the
// raw user text, the trimmed history window (role and content only, oldest
// first), the accumulated profile snapshot and the chat session id.
func (c *Client) Orchestrate(ctx context.Context, query string, history []domain.Message, profile domain.ProfileSnapshot, sessionID string) (*domain.TurnResult, error) {
	req := orchestrateRequest{
		Query:            query,
		History:          make([]wireHistoryMessage, 0, len(history)),
		UserProfileState: profile,
		SessionID:        sessionID,
	}
	if req.UserProfileState == nil {
		req.UserProfileState = domain.ProfileSnapshot{}
	}
	for _, m := range history {
		req.History = append(req.History, wireHistoryMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var resp orchestrateResponse
	if err := c.do(ctx, http.MethodPost, "/orchestrate", req, &resp); err != nil {
		return nil, fmt.Errorf("orchestrate turn: %w", err)
	}

	action, err := c.decodeUIAction(resp.UIAction)
	if err != nil {
		return nil, err
	}

	return &domain.TurnResult{
		Reply:             resp.ChatResponse,
		ProfileFragment:   resp.ProfileDataExtracted,
		Action:            action,
		ProfileCompletion: resp.ProfileCompletion,
	}, nil
}

// decodeUIAction maps the wire directive to the closed UIAction set. A
// directive type this client does not know is ignored with a warning so a
// newer server cannot break the conversation flow.
func (c *Client) decodeUIAction(wire *wireUIAction) (domain.UIAction, error) {
	if wire == nil || wire.Type == "" {
		return nil, nil
	}
	switch wire.Type {
	case actionShowTradeInForm:
		return domain.ShowTradeInForm{}, nil
	case actionStartNegotiation:
		if wire.SessionID == "" {
			return nil, fmt.Errorf("%w: START_NEGOTIATION directive missing session_id", domain.ErrProtocol)
		}
		return domain.StartNegotiation{
			SessionID:    wire.SessionID,
			InitialOffer: wire.InitialOffer,
			CurrentRound: wire.CurrentRound,
			MaxRounds:    wire.MaxRounds,
		}, nil
	default:
		c.logger.Warn("ignoring unknown ui action", "type", wire.Type)
		return nil, nil
	}
}
