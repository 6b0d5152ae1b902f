package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/config"
	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/pagination"
	"github.com/lbc354/sgp/internal/repository"
)

// ErrDemandCompleted rejects edits to a demand that has been completed;
// it must be reopened first.
var ErrDemandCompleted = errors.New("completed demands cannot be edited")

type DemandService interface {
	List(ctx context.Context, viewer Viewer, filter dto.DemandFilter) (*dto.DemandListResponse, error)
	Create(ctx context.Context, viewer Viewer, req dto.CreateDemandRequest) (*dto.DemandResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateDemandRequest) (*dto.DemandResponse, error)
	Complete(ctx context.Context, id uuid.UUID) (*dto.DemandResponse, error)
	Reopen(ctx context.Context, id uuid.UUID) (*dto.DemandResponse, error)
	History(ctx context.Context, id uuid.UUID, page int) (*dto.DemandHistoryResponse, error)
	Workload(ctx context.Context) (*dto.WorkloadResponse, error)
}

type demandService struct {
	demands repository.DemandRepository
	users   repository.UserRepository
	mailer  Mailer
	cfg     *config.Config
	now     func() time.Time
}

func NewDemandService(
	demands repository.DemandRepository,
	users repository.UserRepository,
	mailer Mailer,
	cfg *config.Config,
) DemandService {
	return &demandService{demands: demands, users: users, mailer: mailer, cfg: cfg, now: time.Now}
}

func (s *demandService) List(ctx context.Context, viewer Viewer, filter dto.DemandFilter) (*dto.DemandListResponse, error) {
	// An unparsable month filter is dropped rather than rejected.
	if filter.Month != "" {
		if _, err := time.Parse("2006-01", filter.Month); err != nil {
			filter.Month = ""
		}
	}
	// Staff only ever see their own demands.
	if !viewer.Role.CanManageUsers() {
		id := viewer.ID
		filter.AssignedTo = &id
	}
	if filter.PerPage < 1 {
		filter.PerPage = s.cfg.PerPage
	}

	demands, total, err := s.demands.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DemandResponse, 0, len(demands))
	for i := range demands {
		items = append(items, dto.MapDemand(&demands[i]))
	}
	return &dto.DemandListResponse{
		Items:      items,
		Pagination: pagination.Make(total, filter.Page, filter.PerPage, pagination.DefaultWindow),
	}, nil
}

func (s *demandService) Create(ctx context.Context, viewer Viewer, req dto.CreateDemandRequest) (*dto.DemandResponse, error) {
	assigneeID, err := uuid.Parse(req.AssignedToID)
	if err != nil {
		return nil, &FieldError{Field: "assigned_to_id", Message: "invalid user id"}
	}
	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, &FieldError{Field: "assigned_to_id", Message: "user is deactivated"}
	}

	due, err := s.parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	demand := &model.Demand{
		Category:     model.DemandCategory(req.Category),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		DueDate:      due,
		AssignedToID: assigneeID,
		AssignedByID: &viewer.ID,
	}
	err = s.demands.Transact(ctx, func(tx *gorm.DB) error {
		if err := s.demands.Create(ctx, tx, demand); err != nil {
			return err
		}
		return s.demands.CreateHistory(ctx, tx, demand.Snapshot())
	})
	if err != nil {
		return nil, err
	}
	demand.AssignedTo = assignee

	resp := dto.MapDemand(demand)
	resp.Warnings = s.notifyAssignee(assignee, demand)
	return &resp, nil
}

func (s *demandService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateDemandRequest) (*dto.DemandResponse, error) {
	demand, err := s.demands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand.Completed {
		return nil, ErrDemandCompleted
	}

	assigneeID, err := uuid.Parse(req.AssignedToID)
	if err != nil {
		return nil, &FieldError{Field: "assigned_to_id", Message: "invalid user id"}
	}
	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !assignee.Active {
		return nil, &FieldError{Field: "assigned_to_id", Message: "user is deactivated"}
	}

	due, err := s.parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	demand.Category = model.DemandCategory(req.Category)
	demand.Title = strings.TrimSpace(req.Title)
	demand.Description = req.Description
	demand.DueDate = due
	demand.AssignedToID = assigneeID
	demand.AssignedTo = assignee

	if err := s.saveWithSnapshot(ctx, demand); err != nil {
		return nil, err
	}
	resp := dto.MapDemand(demand)
	return &resp, nil
}

func (s *demandService) Complete(ctx context.Context, id uuid.UUID) (*dto.DemandResponse, error) {
	return s.setCompleted(ctx, id, true)
}

func (s *demandService) Reopen(ctx context.Context, id uuid.UUID) (*dto.DemandResponse, error) {
	return s.setCompleted(ctx, id, false)
}

func (s *demandService) setCompleted(ctx context.Context, id uuid.UUID, completed bool) (*dto.DemandResponse, error) {
	demand, err := s.demands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand.Completed != completed {
		demand.Completed = completed
		if err := s.saveWithSnapshot(ctx, demand); err != nil {
			return nil, err
		}
	}
	resp := dto.MapDemand(demand)
	return &resp, nil
}

// saveWithSnapshot persists an edit and its history entry atomically, so
// every surviving state of a demand has a matching snapshot.
func (s *demandService) saveWithSnapshot(ctx context.Context, demand *model.Demand) error {
	return s.demands.Transact(ctx, func(tx *gorm.DB) error {
		if err := s.demands.Update(ctx, tx, demand); err != nil {
			return err
		}
		return s.demands.CreateHistory(ctx, tx, demand.Snapshot())
	})
}

func (s *demandService) History(ctx context.Context, id uuid.UUID, page int) (*dto.DemandHistoryResponse, error) {
	if _, err := s.demands.FindByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.demands.HistoryByDemand(ctx, id)
	if err != nil {
		return nil, err
	}

	pageItems := pagination.Slice(entries, page, s.cfg.PerPage)
	items := make([]dto.DemandResponse, 0, len(pageItems))
	for i := range pageItems {
		items = append(items, dto.MapDemandHistory(&pageItems[i]))
	}
	return &dto.DemandHistoryResponse{
		DemandID:   id.String(),
		Items:      items,
		Pagination: pagination.Make(int64(len(entries)), page, s.cfg.PerPage, pagination.DefaultWindow),
	}, nil
}

// Workload tallies each active user's open demands by the ISO week their
// due date falls in, relative to today.
func (s *demandService) Workload(ctx context.Context) (*dto.WorkloadResponse, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.demands.ListOpenDue(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	prevYear, prevWeek := now.AddDate(0, 0, -7).ISOWeek()
	curYear, curWeek := now.ISOWeek()
	nextYear, nextWeek := now.AddDate(0, 0, 7).ISOWeek()

	rows := make(map[uuid.UUID]*dto.WorkloadRow, len(users))
	order := make([]uuid.UUID, 0, len(users))
	for i := range users {
		rows[users[i].ID] = &dto.WorkloadRow{User: users[i].DisplayName()}
		order = append(order, users[i].ID)
	}

	for i := range open {
		d := &open[i]
		row, ok := rows[d.AssignedToID]
		if !ok || d.DueDate == nil {
			continue
		}
		y, w := d.DueDate.ISOWeek()
		switch {
		case y == prevYear && w == prevWeek:
			row.PreviousWeek++
		case y == curYear && w == curWeek:
			row.CurrentWeek++
		case y == nextYear && w == nextWeek:
			row.NextWeek++
		}
	}

	out := make([]dto.WorkloadRow, 0, len(order))
	for _, id := range order {
		row := *rows[id]
		// Only the three displayed weeks count toward the total.
		row.Total = row.PreviousWeek + row.CurrentWeek + row.NextWeek
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total < out[j].Total
		}
		return strings.ToLower(out[i].User) < strings.ToLower(out[j].User)
	})
	return &dto.WorkloadResponse{Rows: out}, nil
}

func (s *demandService) parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, &FieldError{Field: "due_date", Message: "invalid date"}
	}
	today := time.Date(s.now().Year(), s.now().Month(), s.now().Day(), 0, 0, 0, 0, time.UTC)
	if due.Before(today) {
		return nil, &FieldError{Field: "due_date", Message: "due date must not be in the past"}
	}
	return &due, nil
}

// notifyAssignee emails the user a new demand was assigned to. Delivery
// failures become response warnings.
func (s *demandService) notifyAssignee(assignee *model.User, demand *model.Demand) []string {
	if !s.mailer.Enabled() {
		return nil
	}
	if assignee.Email == nil || *assignee.Email == "" {
		return []string{fmt.Sprintf("%s has no email address, no notification sent", assignee.Username)}
	}

	due := "no due date"
	if demand.DueDate != nil {
		due = demand.DueDate.Format("02/01/2006")
	}
	link := fmt.Sprintf("%s/demands/%s", s.cfg.BaseURL, demand.ID)
	body := fmt.Sprintf(`<html><body>
		<p>Hello, %s. A new demand was assigned to you:</p>
		<p><strong>%s</strong> (due: %s)</p>
		<p>See the details <a href="%s" target="_blank" rel="noopener noreferrer">here</a>.</p>
	</body></html>`, assignee.DisplayName(), demand.Title, due, link)

	if err := s.mailer.Send(*assignee.Email, "New demand assigned", body); err != nil {
		log.Error().Err(err).Str("to", *assignee.Email).Msg("failed to send demand notification")
		return []string{fmt.Sprintf("failed to send email to %s", *assignee.Email)}
	}
	return []string{fmt.Sprintf("email sent to %s", *assignee.Email)}
}
