package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

// MFARequest carries the second authentication factor. The challenge id was
// issued by the password step and expires after a few minutes.
type MFARequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code"         validate:"required,len=6,numeric"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// LoginResponse is returned by both the password and the TOTP step. When
// MFARequired is set only ChallengeID is populated; the client must follow
// up with the TOTP code to obtain a token.
type LoginResponse struct {
	MFARequired bool   `json:"mfa_required"`
	ChallengeID string `json:"challenge_id,omitempty"`

	AccessToken string        `json:"access_token,omitempty"`
	TokenType   string        `json:"token_type,omitempty"`
	ExpiresIn   int           `json:"expires_in,omitempty"` // seconds
	User        *UserResponse `json:"user,omitempty"`

	// Warnings are non-fatal notices (default password still in use, etc.).
	Warnings []string `json:"warnings,omitempty"`
}

// ProfileResponse adds the TOTP provisioning data shown on the profile page.
type ProfileResponse struct {
	User       UserResponse `json:"user"`
	OTPAuthURI string       `json:"otpauth_uri"`
	QRCode     string       `json:"qr_code"` // base64 PNG data URI
	Warnings   []string     `json:"warnings,omitempty"`
}
