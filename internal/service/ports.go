package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lbc354/sgp/internal/model"
)

// Mailer is the outbound notification sink. Delivery is best-effort:
// services log failures and surface them as warnings, never as errors.
type Mailer interface {
	Enabled() bool
	Send(to, subject, htmlBody string) error
}

// ChallengeStore holds half-authenticated login state between the password
// step and the TOTP step.
type ChallengeStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Get(ctx context.Context, id string) (uuid.UUID, error)
	Delete(ctx context.Context, id string) error
}

// TOTPProvider generates and verifies time-based one-time passwords.
type TOTPProvider interface {
	GenerateSecret(account string) (string, error)
	Verify(code, secret string) bool
	ProvisioningURI(secret, account string) string
	QRDataURI(uri string) (string, error)
}

// Viewer identifies the authenticated user driving a request, for
// visibility decisions (staff see only their own records).
type Viewer struct {
	ID   uuid.UUID
	Role model.Role
}

// FieldError is a validation failure tied to a single input field. The
// handler layer renders it as a 422 with a per-field message instead of a
// generic error envelope.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
