// Package services holds the credential lifecycle engine: registration,
// login, refresh-token rotation, logout and the password reset flow.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/sethvargo/go-retry"
)

const (
	msgRegistered      = "Registration successful! Welcome to our platform."
	msgLoggedIn        = "Login successful!"
	msgRefreshed       = "Token refreshed successfully"
	msgLoggedOut       = "Logout successful"
	msgEmailTaken      = "User with this email already exists"
	msgBadCredentials  = "Invalid credentials"
	msgBadRefreshToken = "Invalid or expired refresh token"
	msgUserNotFound    = "User not found"
)

// Notifier delivers account email. The raw reset secret is only ever handed
// to SendPasswordReset.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendPasswordReset(ctx context.Context, email, secret string) error
}

// PasswordHasher is the one-way hash primitive used for passwords and reset
// secrets. Verify returns (false, nil) on mismatch.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, secret string) (bool, error)
}

// Deps are the collaborators of AuthService. Now defaults to time.Now.
type Deps struct {
	Repos    repomanager.RepositoryManager
	Tokens   *auth.Codec
	Hasher   PasswordHasher
	Notifier Notifier
	Logger   logging.Logger
	Now      func() time.Time
}

type UserSummary struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// AuthResult is returned by Register, Login and Refresh. User is omitted on
// refresh.
type AuthResult struct {
	Message      string       `json:"message"`
	User         *UserSummary `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type MessageResult struct {
	Message string `json:"message"`
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// AuthService is stateless between calls; all state lives in the repositories.
type AuthService struct {
	repos    repomanager.RepositoryManager
	tokens   *auth.Codec
	hasher   PasswordHasher
	notifier Notifier
	log      logging.Logger
	now      func() time.Time

	refreshRecordLifetime time.Duration
	resetTokenLifetime    time.Duration

	// dummyHash is compared against when the account does not exist so both
	// login branches cost one bcrypt verification.
	dummyHash string

	revokeBackoff func() retry.Backoff
}

func NewAuthService(deps Deps, cfg *config.Config) (*AuthService, error) {
	if deps.Repos == nil || deps.Tokens == nil || deps.Hasher == nil || deps.Notifier == nil {
		return nil, errors.New("auth service: missing dependency")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewDiscardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	dummy, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummyHash, err := deps.Hasher.Hash(dummy)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &AuthService{
		repos:                 deps.Repos,
		tokens:                deps.Tokens,
		hasher:                deps.Hasher,
		notifier:              deps.Notifier,
		log:                   deps.Logger.With("module", "auth"),
		now:                   deps.Now,
		refreshRecordLifetime: cfg.RefreshRecordLifetime,
		resetTokenLifetime:    cfg.ResetTokenLifetime,
		dummyHash:             dummyHash,
		revokeBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
		},
	}, nil
}

func summary(u *models.User) *UserSummary {
	return &UserSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}

// issueSession signs a new token pair for userID and stores its refresh
// record through repos.
func (s *AuthService) issueSession(ctx context.Context, repos repomanager.Repositories, userID string) (*auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	record := &models.RefreshToken{
		JTI:       pair.RefreshJTI,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.refreshRecordLifetime),
	}
	if err := repos.RefreshTokens().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	_, err := s.repos.Users().GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, common.Conflict(msgEmailTaken)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.log.Error(ctx, "register: user lookup failed", "error", err)
		return nil, common.Internal()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error(ctx, "register: hash password", "error", err)
		return nil, common.Internal()
	}

	var (
		user *models.User
		pair *auth.TokenPair
	)
	err = s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		user, err = repos.Users().Create(ctx, &models.User{Email: in.Email, Name: in.Name, PasswordHash: hash})
		if err != nil {
			return err
		}
		pair, err = s.issueSession(ctx, repos, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(msgEmailTaken)
		}
		s.log.Error(ctx, "register: create account", "error", err)
		return nil, common.Internal()
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	if err := s.notifier.SendWelcome(ctx, user.Email, user.DisplayName()); err != nil {
		s.log.Warn(ctx, "welcome email not sent", "user_id", user.ID, "error", err)
	}

	return &AuthResult{
		Message:      msgRegistered,
		User:         summary(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repos.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(s.dummyHash, password)
			return nil, common.Unauthorized(msgBadCredentials)
		}
		s.log.Error(ctx, "login: user lookup failed", "error", err)
		return nil, common.Internal()
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "login: verify password", "user_id", user.ID, "error", err)
		return nil, common.Internal()
	}
	if !ok {
		return nil, common.Unauthorized(msgBadCredentials)
	}

	var pair *auth.TokenPair
	err = s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		pair, err = s.issueSession(ctx, repos, user.ID)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "login: issue session", "user_id", user.ID, "error", err)
		return nil, common.Internal()
	}

	return &AuthResult{
		Message:      msgLoggedIn,
		User:         summary(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. Every failure, expected or not, is reported as the same
// Unauthorized error.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	invalid := common.Unauthorized(msgBadRefreshToken)

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, invalid
	}

	var pair *auth.TokenPair
	err = s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		record, err := repos.RefreshTokens().FindByJTI(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return invalid
			}
			return err
		}

		if record.Revoked {
			s.log.Warn(ctx, "revoked refresh token presented", "user_id", record.UserID, "jti", record.JTI)
			return invalid
		}
		if record.Expired(s.now()) || record.UserID != claims.UserID() {
			return invalid
		}

		won, err := repos.RefreshTokens().Revoke(ctx, record.ID)
		if err != nil {
			return err
		}
		if !won {
			return invalid
		}

		pair, err = s.issueSession(ctx, repos, record.UserID)
		return err
	})
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthorized) {
			s.log.Error(ctx, "refresh failed", "error", err)
		}
		return nil, invalid
	}

	return &AuthResult{
		Message:      msgRefreshed,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the presented refresh token if it verifies. It always
// succeeds from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) *MessageResult {
	res := &MessageResult{Message: msgLoggedOut}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.log.Debug(ctx, "logout with unverifiable token", "error", err)
		return res
	}

	if _, err := s.repos.RefreshTokens().RevokeByJTI(ctx, claims.ID); err != nil {
		s.log.Error(ctx, "logout: revoke refresh token", "user_id", claims.UserID(), "error", err)
	}

	return res
}

func (s *AuthService) Me(ctx context.Context, userID string) (*UserSummary, error) {
	user, err := s.repos.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(msgUserNotFound)
		}
		s.log.Error(ctx, "me: user lookup failed", "user_id", userID, "error", err)
		return nil, common.Internal()
	}
	return summary(user), nil
}
