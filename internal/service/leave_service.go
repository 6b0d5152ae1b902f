package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lbc354/sgp/internal/availability"
	"github.com/lbc354/sgp/internal/config"
	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
	"github.com/lbc354/sgp/internal/repository"
)

// maxLeaveMonths bounds a single leave period.
const maxLeaveMonths = 2

// dateHorizonYears bounds how far from today leave dates may fall.
const dateHorizonYears = 2

type LeaveService interface {
	Board(ctx context.Context, viewer Viewer, query string, page int) (*dto.LeaveBoardResponse, error)
	Create(ctx context.Context, viewer Viewer, req dto.CreateLeaveRequest) (*dto.LeaveResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateLeaveRequest) (*dto.LeaveResponse, error)
	Interrupt(ctx context.Context, id uuid.UUID) (*dto.LeaveResponse, error)
	Resume(ctx context.Context, id uuid.UUID) (*dto.LeaveResponse, error)
	History(ctx context.Context, userID uuid.UUID, interrupted bool, page int) (*dto.LeaveHistoryResponse, error)
}

type leaveService struct {
	leaves  repository.LeaveRepository
	users   repository.UserRepository
	demands repository.DemandRepository
	mailer  Mailer
	cfg     *config.Config
	now     func() time.Time
}

func NewLeaveService(
	leaves repository.LeaveRepository,
	users repository.UserRepository,
	demands repository.DemandRepository,
	mailer Mailer,
	cfg *config.Config,
) LeaveService {
	return &leaveService{
		leaves: leaves, users: users, demands: demands,
		mailer: mailer, cfg: cfg, now: time.Now,
	}
}

func (s *leaveService) Board(ctx context.Context, viewer Viewer, query string, page int) (*dto.LeaveBoardResponse, error) {
	var (
		users []model.User
		err   error
	)
	if viewer.Role.CanManageUsers() {
		users, err = s.users.ListActive(ctx)
	} else {
		var self *model.User
		self, err = s.users.FindByID(ctx, viewer.ID)
		if self != nil {
			users = []model.User{*self}
		}
	}
	if err != nil {
		return nil, err
	}

	today := availability.Date(s.now())
	snapshots := make([]availability.Snapshot, 0, len(users))
	for i := range users {
		records, err := s.leaves.ListByUser(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		snap := availability.Build(users[i], records, today)
		if err := s.syncStatus(ctx, &snap); err != nil {
			return nil, err
		}
		if snap.Matches(query) {
			snapshots = append(snapshots, snap)
		}
	}
	availability.Order(snapshots)

	pageItems := pagination.Slice(snapshots, page, s.cfg.PerPage)
	items := make([]dto.UserAvailability, 0, len(pageItems))
	for i := range pageItems {
		snap := &pageItems[i]
		items = append(items, dto.UserAvailability{
			User:         dto.MapUser(&snap.User),
			Available:    snap.Available,
			Availability: snap.Label,
			NextLeave:    dto.MapLeaveSummary(snap.Next),
			LastLeave:    dto.MapLeaveSummary(snap.Last),
		})
	}
	return &dto.LeaveBoardResponse{
		Items:      items,
		Pagination: pagination.Make(int64(len(snapshots)), page, s.cfg.PerPage, pagination.DefaultWindow),
	}, nil
}

// syncStatus reconciles the stored availability flags with the computed
// snapshot. All writes are guarded on the repository side, so re-running
// it against an already consistent state issues no updates.
func (s *leaveService) syncStatus(ctx context.Context, snap *availability.Snapshot) error {
	var except *uuid.UUID
	if snap.Current != nil {
		if !snap.Current.Active {
			if err := s.leaves.SetActive(ctx, snap.Current.ID, true); err != nil {
				return err
			}
			snap.Current.Active = true
		}
		except = &snap.Current.ID
	}
	if err := s.leaves.DeactivateAllExcept(ctx, snap.User.ID, except); err != nil {
		return err
	}
	if err := s.users.SetAvailable(ctx, snap.User.ID, snap.Available); err != nil {
		return err
	}
	snap.User.Available = snap.Available
	return nil
}

func (s *leaveService) Create(ctx context.Context, viewer Viewer, req dto.CreateLeaveRequest) (*dto.LeaveResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, &FieldError{Field: "user_id", Message: "invalid user id"}
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end, err := s.validatePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkPendingDemands(ctx, userID, start, end); err != nil {
		return nil, err
	}

	leave := &model.Leave{
		UserID:        userID,
		ResponsibleID: &viewer.ID,
		Description:   model.LeaveKind(req.Description),
		Observation:   req.Observation,
		StartDate:     start,
		EndDate:       end,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, err
	}
	if err := s.resync(ctx, user); err != nil {
		return nil, err
	}

	resp := dto.MapLeave(leave)
	resp.Warnings = s.notify(user, leave, "A new absence period was registered for you")
	return &resp, nil
}

func (s *leaveService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateLeaveRequest) (*dto.LeaveResponse, error) {
	leave, err := s.leaves.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	today := availability.Date(s.now())
	if availability.Date(leave.EndDate).Before(today) {
		return nil, &FieldError{Field: "end_date", Message: "finished periods cannot be edited"}
	}

	start, end, err := s.validatePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkPendingDemands(ctx, leave.UserID, start, end); err != nil {
		return nil, err
	}

	leave.Description = model.LeaveKind(req.Description)
	leave.Observation = req.Observation
	leave.StartDate = start
	leave.EndDate = end
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, leave.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.resync(ctx, user); err != nil {
		return nil, err
	}

	resp := dto.MapLeave(leave)
	resp.Warnings = s.notify(user, leave, "One of your absence periods was updated")
	return &resp, nil
}

func (s *leaveService) Interrupt(ctx context.Context, id uuid.UUID) (*dto.LeaveResponse, error) {
	return s.setInterrupted(ctx, id, true, "One of your absence periods was interrupted")
}

func (s *leaveService) Resume(ctx context.Context, id uuid.UUID) (*dto.LeaveResponse, error) {
	return s.setInterrupted(ctx, id, false, "One of your absence periods was resumed")
}

func (s *leaveService) setInterrupted(ctx context.Context, id uuid.UUID, interrupted bool, subject string) (*dto.LeaveResponse, error) {
	leave, err := s.leaves.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Interrupted != interrupted {
		if err := s.leaves.SetInterrupted(ctx, id, interrupted); err != nil {
			return nil, err
		}
		leave.Interrupted = interrupted
	}

	user, err := s.users.FindByID(ctx, leave.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.resync(ctx, user); err != nil {
		return nil, err
	}

	resp := dto.MapLeave(leave)
	resp.Warnings = s.notify(user, leave, subject)
	return &resp, nil
}

func (s *leaveService) History(ctx context.Context, userID uuid.UUID, interrupted bool, page int) (*dto.LeaveHistoryResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The active history doubles as the availability page for one user,
	// so make sure the flags are current before rendering it.
	if !interrupted {
		if err := s.resync(ctx, user); err != nil {
			return nil, err
		}
	}

	records, err := s.leaves.History(ctx, userID, interrupted)
	if err != nil {
		return nil, err
	}

	today := availability.Date(s.now())
	pageItems := pagination.Slice(records, page, s.cfg.PerPage)
	items := make([]dto.LeaveHistoryEntry, 0, len(pageItems))
	for i := range pageItems {
		l := &pageItems[i]
		items = append(items, dto.LeaveHistoryEntry{
			Leave:       dto.MapLeave(l),
			Observation: l.Observation,
			ShowActions: !availability.Date(l.EndDate).Before(today),
		})
	}
	return &dto.LeaveHistoryResponse{
		User:       dto.MapUser(user),
		Items:      items,
		Pagination: pagination.Make(int64(len(records)), page, s.cfg.PerPage, pagination.DefaultWindow),
	}, nil
}

// resync recomputes and persists one user's availability state.
func (s *leaveService) resync(ctx context.Context, user *model.User) error {
	records, err := s.leaves.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	snap := availability.Build(*user, records, availability.Date(s.now()))
	if err := s.syncStatus(ctx, &snap); err != nil {
		return err
	}
	user.Available = snap.User.Available
	return nil
}

func (s *leaveService) validatePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &FieldError{Field: "start_date", Message: "invalid date"}
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &FieldError{Field: "end_date", Message: "invalid date"}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, &FieldError{Field: "end_date", Message: "end date must not come before the start date"}
	}

	today := availability.Date(s.now())
	lo := today.AddDate(-dateHorizonYears, 0, 0)
	hi := today.AddDate(dateHorizonYears, 0, 0)
	if start.Before(lo) || start.After(hi) {
		return time.Time{}, time.Time{}, &FieldError{Field: "start_date", Message: "date is too far from today"}
	}
	if end.Before(lo) || end.After(hi) {
		return time.Time{}, time.Time{}, &FieldError{Field: "end_date", Message: "date is too far from today"}
	}
	if end.After(start.AddDate(0, maxLeaveMonths, 0)) {
		return time.Time{}, time.Time{}, &FieldError{Field: "end_date", Message: "period must not exceed two months"}
	}
	return start, end, nil
}

// checkPendingDemands blocks a leave that overlaps open demands due inside
// the requested period.
func (s *leaveService) checkPendingDemands(ctx context.Context, userID uuid.UUID, start, end time.Time) error {
	pending, err := s.demands.PendingInPeriod(ctx, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return err
	}
	if pending {
		return &FieldError{Field: "start_date", Message: "user has pending demands due within this period"}
	}
	return nil
}

// notify emails the affected user about a change to their leave records.
// Failures are logged and surfaced as warnings, never as errors.
func (s *leaveService) notify(user *model.User, leave *model.Leave, subject string) []string {
	if !s.mailer.Enabled() {
		return nil
	}
	if user.Email == nil || *user.Email == "" {
		return []string{fmt.Sprintf("%s has no email address, no notification sent", user.Username)}
	}

	link := fmt.Sprintf("%s/leaves/%s/history", s.cfg.BaseURL, user.ID)
	body := fmt.Sprintf(`<html><body>
		<p>Hello, %s.</p>
		<p>%s:</p>
		<p><strong>%s</strong> from <strong>%s</strong> to <strong>%s</strong></p>
		<p>See the details <a href="%s" target="_blank" rel="noopener noreferrer">here</a>.</p>
	</body></html>`,
		user.DisplayName(), subject,
		leave.Description.Display(),
		leave.StartDate.Format(availability.DateFormat),
		leave.EndDate.Format(availability.DateFormat),
		link)

	if err := s.mailer.Send(*user.Email, subject, body); err != nil {
		log.Error().Err(err).Str("to", *user.Email).Msg("failed to send leave notification")
		return []string{fmt.Sprintf("failed to send email to %s", *user.Email)}
	}
	return []string{fmt.Sprintf("email sent to %s", *user.Email)}
}
