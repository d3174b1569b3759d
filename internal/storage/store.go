// Package storage provides abstractions for persisting session snapshots.
package storage

import (
	"context"

	"github.com/dhruvm/splitchat/internal/models"
)

// Session is a persisted snapshot of one splitting session: the immutable
// receipt, the current bill, the tip percentage, and the chat history.
type Session struct {
	ID        string
	CreatedAt int64
	UpdatedAt int64

	Receipt models.Receipt
	Bill    models.Bill
	Tip     float64
	History []models.ChatTurn
}

// SessionSummary is the listing row for a persisted session.
type SessionSummary struct {
	ID        string
	CreatedAt int64
	UpdatedAt int64
	Total     float64
	People    int
}

// Store defines the interface for session persistence. This abstraction
// allows swapping storage backends without changing the session layer.
type Store interface {
	// SaveSession persists a full snapshot, replacing any prior snapshot
	// with the same ID.
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves a snapshot by ID.
	// Returns nil and an error if the session is not found.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// ListSessions returns summaries of all persisted sessions, newest first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	// Close releases any resources held by the store.
	Close() error
}
