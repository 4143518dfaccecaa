// Package identity defines the identity-collaborator contract the session
// layer depends on, and an HTTP implementation talking to the stocklive
// server. The session state machine never inspects transport details; it
// only consumes the Provider interface.
package identity

import (
	"context"

	"github.com/msavelyev/stocklive/internal/client/models"
)

// PersistenceMode selects how a login survives a client restart.
type PersistenceMode int

const (
	// ModeEphemeral keeps credentials in memory only.
	ModeEphemeral PersistenceMode = iota
	// ModeDurable persists the refresh token locally so the next run can
	// resume the session.
	ModeDurable
)

func (m PersistenceMode) String() string {
	if m == ModeDurable {
		return "durable"
	}
	return "ephemeral"
}

// Change is one session-change notification. A nil Actor means the session
// became (or stayed) unauthenticated.
type Change struct {
	Actor *models.Actor
}

// Provider is the identity collaborator.
//
// Contract:
//   - SessionChanges delivers at least one Change after Start, covering
//     resolution of any persisted credentials, and then one per
//     login/logout. It is the only authoritative source of session state.
//   - SetPersistenceMode must be called before the credential exchange it
//     is meant to govern.
//   - CreateAccount and VerifyCredentials return the actor on success, but
//     callers must not treat the return value as a session transition; the
//     transition arrives via SessionChanges.
type Provider interface {
	Start(ctx context.Context) error
	SessionChanges() <-chan Change
	CreateAccount(ctx context.Context, email, password, displayName string) (*models.Actor, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.Actor, error)
	SignOut(ctx context.Context) error
	SendReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, name string) error
	SetPersistenceMode(ctx context.Context, mode PersistenceMode) error
	Close() error
}
