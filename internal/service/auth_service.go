package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/config"
	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidCode        = errors.New("invalid code, try again")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyMFA(ctx context.Context, req dto.MFARequest) (*dto.LoginResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error
	RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) ([]string, error)
	ConfirmPasswordReset(ctx context.Context, req dto.PasswordResetConfirm) error
}

type authService struct {
	users      repository.UserRepository
	tokens     repository.ResetTokenRepository
	challenges ChallengeStore
	totp       TOTPProvider
	mailer     Mailer
	cfg        *config.Config
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.ResetTokenRepository,
	challenges ChallengeStore,
	totp TOTPProvider,
	mailer Mailer,
	cfg *config.Config,
) AuthService {
	return &authService{
		users: users, tokens: tokens, challenges: challenges,
		totp: totp, mailer: mailer, cfg: cfg,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Every account gets a TOTP secret on its first login, so the
	// provisioning QR is ready on the profile page before MFA is enabled.
	if user.MFASecret == "" {
		secret, err := s.totp.GenerateSecret(totpAccount(user))
		if err != nil {
			return nil, err
		}
		if err := s.users.SetMFA(ctx, user.ID, secret, false); err != nil {
			return nil, err
		}
		user.MFASecret = secret
	}

	var warnings []string
	if req.Password == s.cfg.DefaultUserPassword {
		warnings = append(warnings, "you are using the default password, change it")
	}

	if user.MFAEnabled {
		challengeID, err := s.challenges.Create(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{
			MFARequired: true,
			ChallengeID: challengeID,
			Warnings:    warnings,
		}, nil
	}

	return s.tokenResponse(user, warnings)
}

func (s *authService) VerifyMFA(ctx context.Context, req dto.MFARequest) (*dto.LoginResponse, error) {
	userID, err := s.challenges.Get(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, ErrInvalidCredentials
	}

	if !s.totp.Verify(req.Code, user.MFASecret) {
		// Challenge stays alive until its TTL so the code can be retyped.
		return nil, ErrInvalidCode
	}

	if err := s.challenges.Delete(ctx, req.ChallengeID); err != nil {
		log.Warn().Err(err).Msg("failed to delete consumed mfa challenge")
	}

	// First successful verification activates MFA for the account.
	if !user.MFAEnabled {
		if err := s.users.SetMFA(ctx, user.ID, user.MFASecret, true); err != nil {
			return nil, err
		}
		user.MFAEnabled = true
	}

	return s.tokenResponse(user, nil)
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return &FieldError{Field: "old_password", Message: "incorrect password"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, string(hash))
}

func (s *authService) RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) ([]string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same outward behavior whether or not the address exists.
			return nil, nil
		}
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(raw)

	if err := s.tokens.Create(ctx, &model.PasswordResetToken{
		UserID: user.ID,
		Token:  token,
	}); err != nil {
		return nil, err
	}

	if !s.mailer.Enabled() || user.Email == nil {
		return nil, nil
	}

	url := fmt.Sprintf("%s/password-reset/%s", s.cfg.BaseURL, token)
	body := fmt.Sprintf(`<html><body>
		<p>Hello, %s. A password reset was requested for your account.</p>
		<p>Reset it here (link valid for %d minutes): <a href="%s" target="_blank" rel="noopener noreferrer">Reset password</a></p>
		<p>If you did not request this, ignore this email.</p>
	</body></html>`, user.DisplayName(), s.cfg.ResetTokenTTLMin, url)

	if err := s.mailer.Send(*user.Email, "Password Reset", body); err != nil {
		log.Error().Err(err).Str("to", *user.Email).Msg("failed to send password reset email")
		return []string{fmt.Sprintf("failed to send email to %s", *user.Email)}, nil
	}
	return []string{fmt.Sprintf("email sent to %s", *user.Email)}, nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, req dto.PasswordResetConfirm) error {
	t, err := s.tokens.FindByToken(ctx, req.Token)
	if err != nil {
		return ErrInvalidResetToken
	}
	ttl := time.Duration(s.cfg.ResetTokenTTLMin) * time.Minute
	if !t.Valid(ttl, time.Now()) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, t.UserID, string(hash)); err != nil {
		return err
	}
	return s.tokens.DeleteByUser(ctx, t.UserID)
}

func (s *authService) tokenResponse(user *model.User, warnings []string) (*dto.LoginResponse, error) {
	token, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	resp := dto.MapUser(user)
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User:        &resp,
		Warnings:    warnings,
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// totpAccount is the name shown in authenticator apps: the email when
// present, otherwise the username.
func totpAccount(u *model.User) string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	return u.Username
}
