// Package store provides the local cache kept next to the remote session
// service: a mirror of the session listing plus the last selected session id,
// so the client can restore its view across restarts. The server stays the
// source of truth; cache failures are never fatal to a conversation.
package store

import (
	"context"

	"github.com/H-LAPRIME/N-gociation-Autonome/internal/domain"
)

// Repository defines the local cache interface.
type Repository interface {
	// UpsertSessions mirrors session metadata (no messages) into the cache.
	UpsertSessions(ctx context.Context, sessions []domain.Session) error

	// ListSessions returns cached session metadata, most recently updated
	// first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// DeleteSession removes a cached session.
	DeleteSession(ctx context.Context, sessionID string) error

	// SelectedSession returns the persisted selected session id, or "" when
	// none is recorded.
	SelectedSession(ctx context.Context) (string, error)

	// SetSelectedSession persists the selected session id. An empty id
	// clears the selection.
	SetSelectedSession(ctx context.Context, sessionID string) error

	// Ping verifies the cache is usable.
	Ping(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}
