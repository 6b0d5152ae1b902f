//go:build integration

package repository_test

// Integration tests for the repository SQL against real Postgres via
// testcontainers. Run with: go test -tags integration ./internal/repository/... -v
//
// Covered here, not by the in-memory stubs:
//   - login lookup by username OR case-insensitive email
//   - guarded UPDATEs (SetAvailable, SetActive, DeactivateAllExcept)
//   - demand list filters (ILIKE across joined usernames, YYYY-MM month)
//   - PendingInPeriod BETWEEN boundaries
//   - AutoMigrate + schema patches, including re-running them

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/lbc354/sgp/internal/dto"
	"github.com/lbc354/sgp/internal/infra"
	"github.com/lbc354/sgp/internal/model"
	"github.com/lbc354/sgp/internal/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("sgp_test"),
		tcPostgres.WithUsername("sgp"),
		tcPostgres.WithPassword("sgp"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// NewDatabase migrates on connect; migrating again must be a no-op.
	db, err := infra.NewDatabase(url)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, email *string, active bool) *model.User {
	t.Helper()
	repo := repository.NewUserRepository(db)
	u := &model.User{
		Username:     username,
		FirstName:    username,
		Email:        email,
		PasswordHash: "x",
		Role:         model.RoleStaff,
		Available:    true,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	if !active {
		require.NoError(t, repo.SetActive(context.Background(), u.ID, false))
	}
	return u
}

func date(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSchemaPatchesApplied(t *testing.T) {
	db := setupDB(t)

	for _, idx := range []string{"idx_leaves_user_active", "idx_demands_open_due"} {
		var count int64
		require.NoError(t, db.Raw(
			"SELECT count(*) FROM pg_indexes WHERE indexname = ?", idx).Scan(&count).Error)
		assert.Equal(t, int64(1), count, idx)
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	email := "alice@example.com"
	alice := seedUser(t, db, "alice", &email, true)
	seedUser(t, db, "ghost", nil, false)
	seedUser(t, db, "Zoe", nil, true)

	// Login accepts the username or the email in any casing.
	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = repo.FindByUsername(ctx, "Alice@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	// Deactivated accounts cannot log in.
	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Listing orders case-insensitively.
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alice", active[0].Username)
	assert.Equal(t, "Zoe", active[1].Username)

	// Guarded update: same value is a no-op, new value sticks.
	require.NoError(t, repo.SetAvailable(ctx, alice.ID, true))
	require.NoError(t, repo.SetAvailable(ctx, alice.ID, false))
	got, err = repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestLeaveRepositoryDeactivateAllExcept(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewLeaveRepository(db)
	alice := seedUser(t, db, "alice", nil, true)

	mk := func(start, end string) *model.Leave {
		l := &model.Leave{
			UserID:      alice.ID,
			Description: model.LeaveVacation,
			StartDate:   date(start),
			EndDate:     date(end),
			Active:      true,
		}
		require.NoError(t, repo.Create(ctx, l))
		return l
	}
	keep := mk("2024-03-01", "2024-03-10")
	mk("2024-04-01", "2024-04-10")
	mk("2024-05-01", "2024-05-10")

	require.NoError(t, repo.DeactivateAllExcept(ctx, alice.ID, &keep.ID))

	records, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, l := range records {
		assert.Equal(t, l.ID == keep.ID, l.Active)
	}

	// A nil except clears everything.
	require.NoError(t, repo.DeactivateAllExcept(ctx, alice.ID, nil))
	records, _ = repo.ListByUser(ctx, alice.ID)
	for _, l := range records {
		assert.False(t, l.Active)
	}
}

func TestLeaveRepositoryHistory(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewLeaveRepository(db)
	alice := seedUser(t, db, "alice", nil, true)

	for _, period := range []struct {
		start, end  string
		interrupted bool
	}{
		{"2024-01-01", "2024-01-10", false},
		{"2024-04-01", "2024-04-10", false},
		{"2024-02-01", "2024-02-10", true},
	} {
		require.NoError(t, repo.Create(ctx, &model.Leave{
			UserID:      alice.ID,
			Description: model.LeaveRecess,
			StartDate:   date(period.start),
			EndDate:     date(period.end),
			Interrupted: period.interrupted,
		}))
	}

	active, err := repo.History(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "2024-04-01", active[0].StartDate.Format("2006-01-02"), "newest start first")

	interrupted, err := repo.History(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, interrupted, 1)
}

func TestDemandRepositoryListFilters(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewDemandRepository(db)
	alice := seedUser(t, db, "alice", nil, true)
	boss := seedUser(t, db, "boss", nil, true)

	mk := func(title string, due *time.Time, completed bool) *model.Demand {
		d := &model.Demand{
			Category:     model.CategoryAdministrative,
			Title:        title,
			Description:  "desc",
			DueDate:      due,
			AssignedToID: alice.ID,
			AssignedByID: &boss.ID,
			Completed:    completed,
		}
		require.NoError(t, repo.Create(ctx, db, d))
		return d
	}
	march := date("2024-03-20")
	april := date("2024-04-02")
	mk("fix printer", &march, false)
	mk("annual report", &april, false)
	mk("archived thing", nil, true)

	// Free text matches the title case-insensitively.
	items, total, err := repo.List(ctx, dto.DemandFilter{Query: "PRINTER", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "fix printer", items[0].Title)

	// Free text also matches the joined assignee/assigner usernames.
	_, total, err = repo.List(ctx, dto.DemandFilter{Query: "boss", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Month filter matches the due date.
	items, total, err = repo.List(ctx, dto.DemandFilter{Month: "2024-04", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "annual report", items[0].Title)

	// Completed toggles the set.
	_, total, err = repo.List(ctx, dto.DemandFilter{Completed: true, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Count covers the whole filtered set even when the page is smaller.
	items, total, err = repo.List(ctx, dto.DemandFilter{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)
}

func TestDemandRepositoryPendingInPeriod(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewDemandRepository(db)
	alice := seedUser(t, db, "alice", nil, true)

	due := date("2024-03-20")
	require.NoError(t, repo.Create(ctx, db, &model.Demand{
		Category:     model.CategoryTechnicalSupport,
		Title:        "fix printer",
		Description:  "desc",
		DueDate:      &due,
		AssignedToID: alice.ID,
	}))

	// BETWEEN is inclusive on both ends.
	pending, err := repo.PendingInPeriod(ctx, alice.ID, "2024-03-20", "2024-03-25")
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = repo.PendingInPeriod(ctx, alice.ID, "2024-03-10", "2024-03-20")
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = repo.PendingInPeriod(ctx, alice.ID, "2024-03-21", "2024-03-25")
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestDemandRepositoryTransactRollsBack(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := repository.NewDemandRepository(db)
	alice := seedUser(t, db, "alice", nil, true)

	demand := &model.Demand{
		Category:     model.CategoryAdministrative,
		Title:        "doomed",
		Description:  "desc",
		AssignedToID: alice.ID,
	}
	err := repo.Transact(ctx, func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, demand); err != nil {
			return err
		}
		// A history row violating the FK aborts the whole transaction.
		bad := demand.Snapshot()
		bad.DemandID = uuid.New()
		return repo.CreateHistory(ctx, tx, bad)
	})
	require.Error(t, err)

	_, err = repo.FindByID(ctx, demand.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "demand rolled back with its snapshot")
}
