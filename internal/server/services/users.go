// Package services holds the server's application services: account
// lifecycle and record mutations. Services own the business rules;
// repositories only persist.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/msavelyev/stocklive/internal/common"
	"github.com/msavelyev/stocklive/internal/dbx"
	"github.com/msavelyev/stocklive/internal/server/auth"
	"github.com/msavelyev/stocklive/internal/server/config"
	"github.com/msavelyev/stocklive/internal/server/repositories/passwordresets"
	"github.com/msavelyev/stocklive/internal/server/repositories/refreshtokens"
	"github.com/msavelyev/stocklive/internal/server/repositories/users"
)

// minPasswordLen mirrors the weak-password cutoff of the identity
// providers this API is modeled on.
const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Users implements account registration, login, token rotation, password
// reset requests and profile updates.
type Users struct {
	db     *sql.DB
	users  users.Repository
	tokens refreshtokens.Repository
	resets passwordresets.Repository
	cfg    *config.Config
	now    func() time.Time
}

// NewUsers builds the users service.
func NewUsers(db *sql.DB, ur users.Repository, tr refreshtokens.Repository, pr passwordresets.Repository, cfg *config.Config) *Users {
	return &Users{db: db, users: ur, tokens: tr, resets: pr, cfg: cfg, now: time.Now}
}

// Register creates an account and logs it in. Validation failures surface
// as common.ErrInvalidEmail / common.ErrWeakPassword; a duplicate email as
// common.ErrEmailInUse.
func (s *Users) Register(ctx context.Context, email, password, displayName string) (*users.User, TokenPair, error) {
	if !emailPattern.MatchString(email) {
		return nil, TokenPair{}, common.ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, TokenPair{}, common.ErrWeakPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hashing password: %w", err)
	}

	u := &users.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials. Unknown email yields common.ErrNotFound, a
// disabled account common.ErrUserDisabled, a bad password
// common.ErrWrongPassword.
func (s *Users) Login(ctx context.Context, email, password string) (*users.User, TokenPair, error) {
	if !emailPattern.MatchString(email) {
		return nil, TokenPair{}, common.ErrInvalidEmail
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u.Disabled {
		return nil, TokenPair{}, common.ErrUserDisabled
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, common.ErrWrongPassword
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the old token is spent whether or not
// the exchange succeeds beyond it.
func (s *Users) Refresh(ctx context.Context, refreshToken string) (*users.User, TokenPair, error) {
	t, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, TokenPair{}, common.ErrUnauthorized
		}
		return nil, TokenPair{}, err
	}

	if s.now().After(t.ExpiresAt) {
		_ = s.tokens.Delete(ctx, t.ID)
		return nil, TokenPair{}, common.ErrRefreshTokenExpired
	}

	u, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if u.Disabled {
		return nil, TokenPair{}, common.ErrUserDisabled
	}

	var pair TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tr := refreshtokens.NewSQLiteRepository(tx)
		if err := tr.Delete(ctx, t.ID); err != nil {
			return err
		}
		var err error
		pair, err = s.issueTokensWith(ctx, tr, u.ID)
		return err
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout revokes one refresh token. Revoking an unknown token is a no-op.
func (s *Users) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

// RequestReset records a password reset request for the account. Actual
// message delivery is outside this service.
func (s *Users) RequestReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	req := &passwordresets.Request{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		RequestedAt: s.now().UTC(),
	}
	if err := s.resets.Create(ctx, req); err != nil {
		return fmt.Errorf("recording reset request: %w", err)
	}
	return nil
}

// UpdateDisplayName renames the user's profile and returns the updated
// user.
func (s *Users) UpdateDisplayName(ctx context.Context, userID, name string) (*users.User, error) {
	if err := s.users.UpdateDisplayName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// GetByID returns one user.
func (s *Users) GetByID(ctx context.Context, userID string) (*users.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Users) issueTokens(ctx context.Context, userID string) (TokenPair, error) {
	return s.issueTokensWith(ctx, s.tokens, userID)
}

func (s *Users) issueTokensWith(ctx context.Context, tr refreshtokens.Repository, userID string) (TokenPair, error) {
	access, err := auth.GenerateToken(userID, []byte(s.cfg.SecretKey), s.cfg.AccessTokenValidityDuration)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issuing access token: %w", err)
	}

	refresh := &refreshtokens.Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(s.cfg.RefreshTokenValidityDuration),
	}
	if err := tr.Create(ctx, refresh); err != nil {
		return TokenPair{}, fmt.Errorf("issuing refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh.ID}, nil
}
