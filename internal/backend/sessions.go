package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// CreateSession creates a new chat session for the authenticated user.
func (c *Client) CreateSession(ctx context.Context) (*domain.Session, error) {
	var wire wireSession
	if err := c.do(ctx, http.MethodPost, "/chat/sessions", nil, &wire); err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	if wire.SessionID == "" {
		return nil, fmt.Errorf("%w: create session response missing session_id", domain.ErrProtocol)
	}
	session := wire.toDomain()
	return &session, nil
}

// ListSessions returns all chat sessions of the authenticated user.
func (c *Client) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var wire []wireSession
	if err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &wire); err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	sessions := make([]domain.Session, 0, len(wire))
	for _, w := range wire {
		sessions = append(sessions, w.toDomain())
	}
	return sessions, nil
}

// GetSession fetches one session with its full message history and persisted
// profile snapshot.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var wire wireSession
	path := "/chat/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, fmt.Errorf("get chat session %s: %w", sessionID, err)
	}
	if wire.SessionID == "" {
		return nil, fmt.Errorf("%w: session response missing session_id", domain.ErrProtocol)
	}
	session := wire.toDomain()
	return &session, nil
}

// DeleteSession removes a session server-side.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	var resp successResponse
	path := "/chat/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return fmt.Errorf("delete chat session %s: %w", sessionID, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: delete session %s reported success=false", domain.ErrProtocol, sessionID)
	}
	return nil
}
