package repo

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/core/database"
	"go-gin-gorm-crm/internal/core/session"
	"go-gin-gorm-crm/internal/domain"
)

// 需要 Docker：INTEGRATION_TEST=1 go test ./internal/repo/...
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("set INTEGRATION_TEST=1 to run against a real postgres")
	}

	pg, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("crm_test"),
		tcpostgres.WithUsername("crm"),
		tcpostgres.WithPassword("crm"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mg, err := database.NewMigrator("postgres", dsn, "", "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
	require.NoError(t, mg.Close())

	db, err := database.NewGorm(database.Opts{Driver: "postgres", DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 2, ConnMaxLifetimeMin: 5})
	require.NoError(t, err)
	return db
}

func TestIntegration_SoftDeleteLifecycle(t *testing.T) {
	db := setupPostgres(t)
	users, companies := NewUserRepo(db), NewCompanyRepo(db)
	contacts, assigns, acts := NewContactRepo(db), NewAssignmentRepo(db), NewActivityRepo(db)

	u := &domain.User{Username: "u1", PasswordHash: "x", Name: "U1", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, users.Create(ctx, u))

	c := &domain.Company{Name: "Acme", Address: domain.Str("Tokyo")}
	require.NoError(t, companies.CreateWithOwner(ctx, c, &domain.CompanyAssignment{UserID: u.ID, IsPrimary: true, AssignedAt: time.Now()}))

	active, err := assigns.FindActive(ctx, c.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.IsPrimary)

	require.NoError(t, contacts.Create(ctx, &domain.Contact{CompanyID: c.ID, Name: "Sato"}))
	next := time.Now().Add(72 * time.Hour)
	require.NoError(t, acts.Create(ctx, &domain.ActivityLog{
		CompanyID: c.ID, UserID: u.ID, ActivityDate: time.Now(), ActivityType: domain.ActivityVisit,
		Content: "first visit", NextActionDate: &next,
	}))

	rows, total, err := companies.List(ctx, domain.CompanyFilter{Search: "tok"}, domain.NewPage(1, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"U1"}, rows[0].AssignedUsers)

	// 解除后可再次分配
	require.NoError(t, assigns.SoftDelete(ctx, active.ID))
	again, err := assigns.FindActive(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
	require.NoError(t, assigns.Create(ctx, &domain.CompanyAssignment{CompanyID: c.ID, UserID: u.ID, AssignedAt: time.Now()}))

	require.NoError(t, companies.SoftDeleteCascade(ctx, c.ID, time.Now()))
	gone, err := companies.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	cs, n, err := contacts.ListByCompany(ctx, c.ID, domain.NewPage(1, 20, 20))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, cs)

	as, err := assigns.ListByCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, as)

	require.NoError(t, users.SoftDelete(ctx, u.ID))
	taken, err := users.UsernameExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestIntegration_Sessions(t *testing.T) {
	db := setupPostgres(t)
	r := NewSessionRepo(db)
	now := time.Now().UTC().Truncate(time.Millisecond)

	rec := &session.Record{ID: "sid-1", UserID: 1, Username: "a", Name: "A", Role: domain.RoleAdmin, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, r.Save(ctx, rec))
	require.NoError(t, r.Save(ctx, rec))

	got, err := r.Load(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	n, err := r.PurgeExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
