package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/lbc354/sgp/internal/config"
	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
	"github.com/lbc354/sgp/internal/repository"
)

type UserService interface {
	Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserResponse, error)
	List(ctx context.Context, active bool, page int) (*dto.UserListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	DisableMFA(ctx context.Context, id uuid.UUID) error
	ResetUserPassword(ctx context.Context, id uuid.UUID) error
	Profile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error)
}

type userService struct {
	users repository.UserRepository
	totp  TOTPProvider
	cfg   *config.Config
}

func NewUserService(users repository.UserRepository, totp TOTPProvider, cfg *config.Config) UserService {
	return &userService{users: users, totp: totp, cfg: cfg}
}

func (s *userService) Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultUserPassword), 12)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         model.Role(req.Role),
		Available:    true,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("username", user.Username).Str("role", req.Role).Msg("user registered")
	resp := dto.MapUser(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, active bool, page int) (*dto.UserListResponse, error) {
	var (
		users []model.User
		err   error
	)
	if active {
		users, err = s.users.ListActive(ctx)
	} else {
		users, err = s.users.ListDeactivated(ctx)
	}
	if err != nil {
		return nil, err
	}

	pageItems := pagination.Slice(users, page, s.cfg.PerPage)
	items := make([]dto.UserResponse, 0, len(pageItems))
	for i := range pageItems {
		items = append(items, dto.MapUser(&pageItems[i]))
	}
	return &dto.UserListResponse{
		Items:      items,
		Pagination: pagination.Make(int64(len(users)), page, s.cfg.PerPage, pagination.DefaultWindow),
	}, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.MapUser(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, viewer Viewer, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(req.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		user.FirstName = v
	}
	if req.LastName != "" {
		user.LastName = strings.TrimSpace(req.LastName)
	}
	if req.Email != nil {
		user.Email = normalizeEmail(req.Email)
	}

	// Role changes require a manager editing somebody else's account.
	if req.Role != "" && model.Role(req.Role) != user.Role {
		if !viewer.Role.CanManageUsers() || viewer.ID == user.ID {
			return nil, &FieldError{Field: "role", Message: "you cannot change this role"}
		}
		user.Role = model.Role(req.Role)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := dto.MapUser(user)
	return &resp, nil
}

func (s *userService) Activate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetActive(ctx, id, true)
}

func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetActive(ctx, id, false)
}

// DisableMFA clears the secret so a new one is issued on next login.
func (s *userService) DisableMFA(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.SetMFA(ctx, id, "", false)
}

func (s *userService) ResetUserPassword(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultUserPassword), 12)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, id, string(hash))
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

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

	uri := s.totp.ProvisioningURI(user.MFASecret, totpAccount(user))
	qr, err := s.totp.QRDataURI(uri)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if !user.MFAEnabled {
		warnings = append(warnings, "enable two-factor authentication: scan the QR code and confirm a code on your next login")
	}

	return &dto.ProfileResponse{
		User:       dto.MapUser(user),
		OTPAuthURI: uri,
		QRCode:     qr,
		Warnings:   warnings,
	}, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*email))
	if v == "" {
		return nil
	}
	return &v
}
