// Package services contains server-side business logic. SessionService
// implements registration, login, token refresh, logout and resolution of the
// current identity on top of the identity and refresh-token stores.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/dbx"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultSessionsLimit = 20
	maxSessionsLimit     = 100
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PasswordHasher is the subset of cryptox.PasswordHasher used here.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
	DecoyHash() string
}

// TokenCodec is the subset of auth.TokenCodec used here.
type TokenCodec interface {
	IssueAccess(userID string) (string, error)
	IssueRefresh(userID, jti string) (string, time.Time, error)
	Decode(token, expectedKind string) (*auth.Claims, error)
}

// SessionService owns the refresh-token lifecycle. A stored refresh token is
// Active until revoked; expiry is derived from ExpiresAt at read time and never
// written back. Refresh does not rotate the refresh token.
type SessionService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	codec       TokenCodec
	logger      logging.Logger
	now         func() time.Time
}

// NewSessionService wires a SessionService.
func NewSessionService(db dbx.DBTX, m repomanager.RepositoryManager, hasher PasswordHasher, codec TokenCodec, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		logger:      logger.With("module", "session_service"),
		now:         time.Now,
	}
}

// Register creates an identity and signs it in. A taken email yields
// common.ErrDuplicateIdentity.
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*TokenPair, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	case strings.TrimSpace(email) == "":
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateIdentity
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return pair, nil
}

// Login checks credentials and issues a fresh pair. Unknown email and wrong
// password both yield common.ErrInvalidCredentials, and an unknown email still
// pays for one password verification.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.hasher.DecoyHash())
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh issues a new access token for a valid refresh token and returns the
// same refresh token. Checks run in order: record not found, revoked, expired.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	jti, err := s.refreshJTI(refreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.repomanager.RefreshTokens(s.db).FindByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshNotFound
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if record.Revoked {
		return nil, common.ErrRefreshRevoked
	}
	if record.Expired(s.now()) {
		return nil, common.ErrRefreshExpired
	}

	access, err := s.codec.IssueAccess(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout revokes the record behind refreshToken. A missing or already revoked
// record is not an error.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	jti, err := s.refreshJTI(refreshToken)
	if err != nil {
		return err
	}
	if err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, jti); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// CurrentUser resolves the identity behind accessToken. A bad token and an
// identity that no longer exists both yield common.ErrInvalidCredentials.
func (s *SessionService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.Decode(accessToken, common.TokenKindAccess)
	if err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// LogoutAll revokes every active refresh token of the caller and returns how
// many were revoked.
func (s *SessionService) LogoutAll(ctx context.Context, accessToken string) (int64, error) {
	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return 0, err
	}
	n, err := s.repomanager.RefreshTokens(s.db).RevokeAllForUser(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	s.logger.Info(ctx, "all sessions revoked", "user_id", user.ID, "count", n)
	return n, nil
}

// ListSessions returns the caller's refresh-token records, newest first.
// A non-positive limit means the default page size; limits are capped.
func (s *SessionService) ListSessions(ctx context.Context, accessToken string, offset, limit int) ([]*models.RefreshToken, error) {
	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", common.ErrorValidation)
	}
	if limit <= 0 {
		limit = defaultSessionsLimit
	}
	if limit > maxSessionsLimit {
		limit = maxSessionsLimit
	}

	list, err := s.repomanager.RefreshTokens(s.db).ListByUser(ctx, user.ID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing refresh tokens: %w", err)
	}
	return list, nil
}

// PurgeExpired deletes refresh-token records past their expiry. It is meant
// for an external maintenance job, not for request paths.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired refresh tokens: %w", err)
	}
	s.logger.Info(ctx, "expired refresh tokens purged", "count", n)
	return n, nil
}

// --- helpers below ---

func (s *SessionService) refreshJTI(refreshToken string) (string, error) {
	claims, err := s.codec.Decode(refreshToken, common.TokenKindRefresh)
	if err != nil || claims.ID == "" {
		return "", common.ErrInvalidRefreshToken
	}
	return claims.ID, nil
}

func (s *SessionService) issuePair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}

	jti := uuid.NewString()
	refresh, expiresAt, err := s.codec.IssueRefresh(userID, jti)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	record := &models.RefreshToken{UserID: userID, JTI: jti, ExpiresAt: expiresAt}
	if _, err := s.repomanager.RefreshTokens(s.db).Create(ctx, record); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
