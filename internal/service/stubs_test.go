package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
)

// ── In-memory UserRepository stub ────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User

	setAvailableCalls int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) add(u model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = &u
	return &u
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *u
	return &cloned, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Active && (u.Username == username ||
			(u.Email != nil && strings.EqualFold(*u.Email, username))) {
			cloned := *u
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			cloned := *u
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) ListActive(_ context.Context) ([]model.User, error) {
	return r.list(true), nil
}

func (r *stubUserRepo) ListDeactivated(_ context.Context) ([]model.User, error) {
	return r.list(false), nil
}

func (r *stubUserRepo) list(active bool) []model.User {
	var out []model.User
	for _, u := range r.users {
		if u.Active == active {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = active
	return nil
}

func (r *stubUserRepo) SetAvailable(_ context.Context, id uuid.UUID, available bool) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// Mirrors the guarded UPDATE: identical values touch no rows.
	if u.Available != available {
		u.Available = available
		r.setAvailableCalls++
	}
	return nil
}

func (r *stubUserRepo) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) SetMFA(_ context.Context, id uuid.UUID, secret string, enabled bool) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.MFASecret = secret
	u.MFAEnabled = enabled
	return nil
}

// ── In-memory LeaveRepository stub ───────────────────────────────────────────

type stubLeaveRepo struct {
	leaves map[uuid.UUID]*model.Leave

	writes int // rows actually changed by SetActive/DeactivateAllExcept
}

func newStubLeaveRepo() *stubLeaveRepo {
	return &stubLeaveRepo{leaves: make(map[uuid.UUID]*model.Leave)}
}

func (r *stubLeaveRepo) add(l model.Leave) *model.Leave {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	r.leaves[l.ID] = &l
	return &l
}

func (r *stubLeaveRepo) Create(_ context.Context, l *model.Leave) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	cloned := *l
	r.leaves[l.ID] = &cloned
	return nil
}

func (r *stubLeaveRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Leave, error) {
	l, ok := r.leaves[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *l
	return &cloned, nil
}

func (r *stubLeaveRepo) Update(_ context.Context, l *model.Leave) error {
	cloned := *l
	r.leaves[l.ID] = &cloned
	return nil
}

func (r *stubLeaveRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Leave, error) {
	var out []model.Leave
	for _, l := range r.leaves {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *stubLeaveRepo) History(_ context.Context, userID uuid.UUID, interrupted bool) ([]model.Leave, error) {
	var out []model.Leave
	for _, l := range r.leaves {
		if l.UserID == userID && l.Interrupted == interrupted {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func (r *stubLeaveRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	l, ok := r.leaves[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if l.Active != active {
		l.Active = active
		r.writes++
	}
	return nil
}

func (r *stubLeaveRepo) DeactivateAllExcept(_ context.Context, userID uuid.UUID, except *uuid.UUID) error {
	for _, l := range r.leaves {
		if l.UserID != userID || !l.Active {
			continue
		}
		if except != nil && l.ID == *except {
			continue
		}
		l.Active = false
		r.writes++
	}
	return nil
}

func (r *stubLeaveRepo) SetInterrupted(_ context.Context, id uuid.UUID, interrupted bool) error {
	l, ok := r.leaves[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.Interrupted = interrupted
	return nil
}

// ── In-memory DemandRepository stub ──────────────────────────────────────────

type stubDemandRepo struct {
	demands   map[uuid.UUID]*model.Demand
	histories []model.DemandHistory
	pending   bool // canned PendingInPeriod answer
}

func newStubDemandRepo() *stubDemandRepo {
	return &stubDemandRepo{demands: make(map[uuid.UUID]*model.Demand)}
}

func (r *stubDemandRepo) Create(_ context.Context, _ *gorm.DB, d *model.Demand) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cloned := *d
	r.demands[d.ID] = &cloned
	return nil
}

func (r *stubDemandRepo) Update(_ context.Context, _ *gorm.DB, d *model.Demand) error {
	d.UpdatedAt = time.Now()
	cloned := *d
	r.demands[d.ID] = &cloned
	return nil
}

func (r *stubDemandRepo) CreateHistory(_ context.Context, _ *gorm.DB, h *model.DemandHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	r.histories = append(r.histories, *h)
	return nil
}

func (r *stubDemandRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Demand, error) {
	d, ok := r.demands[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *d
	return &cloned, nil
}

func (r *stubDemandRepo) List(_ context.Context, filter dto.DemandFilter) ([]model.Demand, int64, error) {
	var out []model.Demand
	for _, d := range r.demands {
		if d.Completed != filter.Completed {
			continue
		}
		if filter.AssignedTo != nil && d.AssignedToID != *filter.AssignedTo {
			continue
		}
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r *stubDemandRepo) ListOpenDue(_ context.Context) ([]model.Demand, error) {
	var out []model.Demand
	for _, d := range r.demands {
		if !d.Completed && d.DueDate != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDemandRepo) PendingInPeriod(_ context.Context, _ uuid.UUID, _, _ string) (bool, error) {
	return r.pending, nil
}

func (r *stubDemandRepo) HistoryByDemand(_ context.Context, demandID uuid.UUID) ([]model.DemandHistory, error) {
	var out []model.DemandHistory
	for _, h := range r.histories {
		if h.DemandID == demandID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *stubDemandRepo) Transact(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// ── In-memory ResetTokenRepository stub ──────────────────────────────────────

type stubResetTokenRepo struct {
	tokens map[string]*model.PasswordResetToken
}

func newStubResetTokenRepo() *stubResetTokenRepo {
	return &stubResetTokenRepo{tokens: make(map[string]*model.PasswordResetToken)}
}

func (r *stubResetTokenRepo) Create(_ context.Context, t *model.PasswordResetToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cloned := *t
	r.tokens[t.Token] = &cloned
	return nil
}

func (r *stubResetTokenRepo) FindByToken(_ context.Context, token string) (*model.PasswordResetToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *t
	return &cloned, nil
}

func (r *stubResetTokenRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

// ── Port stubs ───────────────────────────────────────────────────────────────

type stubMailer struct {
	enabled bool
	sent    []string // recipients
	fail    bool
}

func (m *stubMailer) Enabled() bool { return m.enabled }

func (m *stubMailer) Send(to, _, _ string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to)
	return nil
}

type stubChallenges struct {
	byID map[string]uuid.UUID
}

func newStubChallenges() *stubChallenges {
	return &stubChallenges{byID: make(map[string]uuid.UUID)}
}

func (s *stubChallenges) Create(_ context.Context, userID uuid.UUID) (string, error) {
	id := uuid.NewString()
	s.byID[id] = userID
	return id, nil
}

func (s *stubChallenges) Get(_ context.Context, id string) (uuid.UUID, error) {
	userID, ok := s.byID[id]
	if !ok {
		return uuid.Nil, errors.New("challenge not found or expired")
	}
	return userID, nil
}

func (s *stubChallenges) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

// stubTOTP accepts a single hard-coded code.
type stubTOTP struct{ code string }

func (t *stubTOTP) GenerateSecret(string) (string, error) { return "SECRET", nil }

func (t *stubTOTP) Verify(code, _ string) bool { return code == t.code }

func (t *stubTOTP) ProvisioningURI(secret, account string) string {
	return "otpauth://totp/test:" + account + "?secret=" + secret
}

func (t *stubTOTP) QRDataURI(string) (string, error) {
	return "data:image/png;base64,stub", nil
}
