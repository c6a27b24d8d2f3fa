package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/sethvargo/go-retry"
)

const (
	msgResetRequested = "If an account with that email exists, a password reset link has been sent."
	msgResetDone      = "Password reset successful. Please login with your new password."
	msgBadResetToken  = "Invalid or expired reset token"
	resetSecretBytes  = 32
)

// RequestPasswordReset answers identically whether or not the account
// exists. For a known account a fresh single-use secret is stored (hashed)
// and mailed; earlier outstanding secrets stay valid until they expire.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	res := &MessageResult{Message: msgResetRequested}

	user, err := s.repos.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Hash(s.dummyHash)
			return res, nil
		}
		s.log.Error(ctx, "reset request: user lookup failed", "error", err)
		return nil, common.Internal()
	}

	secret, err := common.MakeRandHexString(resetSecretBytes)
	if err != nil {
		s.log.Error(ctx, "reset request: generate secret", "error", err)
		return nil, common.Internal()
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		s.log.Error(ctx, "reset request: hash secret", "error", err)
		return nil, common.Internal()
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.resetTokenLifetime),
	}
	if err := s.repos.PasswordResets().Create(ctx, token); err != nil {
		s.log.Error(ctx, "reset request: store token", "user_id", user.ID, "error", err)
		return nil, common.Internal()
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, secret); err != nil {
		s.log.Error(ctx, "reset request: send email", "user_id", user.ID, "error", err)
		return nil, common.Internal()
	}

	s.log.Info(ctx, "password reset requested", "user_id", user.ID)
	return res, nil
}

// ResetPassword consumes a reset secret and replaces the account password.
// Afterwards every refresh token of the user is revoked.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) (*MessageResult, error) {
	invalid := common.BadRequest(msgBadResetToken)

	active, err := s.repos.PasswordResets().FindActive(ctx, s.now())
	if err != nil {
		s.log.Error(ctx, "reset: load active tokens", "error", err)
		return nil, common.Internal()
	}

	// secrets are only stored hashed, so each candidate has to be verified
	var match *models.PasswordResetToken
	for _, t := range active {
		ok, err := s.hasher.Verify(t.TokenHash, secret)
		if err != nil {
			s.log.Warn(ctx, "reset: unreadable token hash", "token_id", t.ID, "error", err)
			continue
		}
		if ok {
			match = t
			break
		}
	}
	if match == nil {
		return nil, invalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.log.Error(ctx, "reset: hash password", "error", err)
		return nil, common.Internal()
	}

	err = s.repos.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		won, err := repos.PasswordResets().MarkUsed(ctx, match.ID)
		if err != nil {
			return err
		}
		if !won {
			return invalid
		}
		return repos.Users().UpdatePassword(ctx, match.UserID, hash)
	})
	if err != nil {
		if errors.Is(err, common.ErrorBadRequest) {
			return nil, invalid
		}
		s.log.Error(ctx, "reset: update password", "user_id", match.UserID, "error", err)
		return nil, common.Internal()
	}

	s.revokeAllSessions(ctx, match.UserID)

	s.log.Info(ctx, "password reset completed", "user_id", match.UserID)
	return &MessageResult{Message: msgResetDone}, nil
}

// revokeAllSessions retries the bulk revoke with exponential backoff. The
// password is already changed at this point, so a final failure is logged
// rather than returned.
func (s *AuthService) revokeAllSessions(ctx context.Context, userID string) {
	var revoked int64
	err := retry.Do(ctx, s.revokeBackoff(), func(ctx context.Context) error {
		n, err := s.repos.RefreshTokens().RevokeAllForUser(ctx, userID)
		if err != nil {
			return retry.RetryableError(err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "reset: revoke refresh tokens", "user_id", userID, "error", err)
		return
	}
	s.log.Debug(ctx, "refresh tokens revoked", "user_id", userID, "count", revoked)
}
