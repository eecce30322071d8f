package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfoods/restaurant-backend/pkg/db/dbtest"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

func seedUser(t *testing.T, r *Repository, username string, role enums.UserRole) *models.User {
	t.Helper()
	user, err := r.Create(context.Background(), CreateUserDTO{
		Username:     username,
		Email:        username + "@Example.com ",
		PasswordHash: "hash",
		Name:         "User " + username,
		Role:         role,
		Salary:       decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	return user
}

func TestRepositoryCreateDefaults(t *testing.T) {
	r := NewRepository(dbtest.Open(t))
	user := seedUser(t, r, "ana", "")

	assert.Equal(t, enums.UserRoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, "ana@example.com", user.Email)

	byLogin, err := r.FindByLogin(context.Background(), "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byLogin.ID)

	byName, err := r.FindByLogin(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	taken, err := r.UsernameOrEmailTaken(context.Background(), "someone", "ana@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestRepositoryIncrementWarningsReturnsFreshRow(t *testing.T) {
	r := NewRepository(dbtest.Open(t))
	user := seedUser(t, r, "ben", enums.UserRoleCustomer)

	updated, err := r.IncrementWarnings(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Warnings)

	updated, err = r.IncrementWarnings(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Warnings)

	_, err = r.IncrementWarnings(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestRepositoryFindActiveByRoleSkipsInactive(t *testing.T) {
	r := NewRepository(dbtest.Open(t))
	first := seedUser(t, r, "chef1", enums.UserRoleChef)
	second := seedUser(t, r, "chef2", enums.UserRoleChef)
	require.NoError(t, r.UpdateFields(context.Background(), first.ID, map[string]any{"is_active": false}))

	chef, err := r.FindActiveByRole(context.Background(), enums.UserRoleChef)
	require.NoError(t, err)
	assert.Equal(t, second.ID, chef.ID)

	assert.ErrorIs(t, r.UpdateFields(context.Background(), uuid.New(), map[string]any{"is_active": false}), ErrNoRowsUpdated)

	count, err := r.CountByRoles(context.Background(), []enums.UserRole{enums.UserRoleChef}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestServiceDriverProfile(t *testing.T) {
	conn := dbtest.Open(t)
	r := NewRepository(conn)
	driver := seedUser(t, r, "dan", enums.UserRoleDriver)
	customer := seedUser(t, r, "cat", enums.UserRoleCustomer)

	require.NoError(t, conn.Create(&models.Order{
		CustomerID: customer.ID, DeliveredBy: &driver.ID, DeliveryAddress: "1 Main St",
		Subtotal: decimal.NewFromInt(10), Discount: decimal.Zero, TotalPrice: decimal.NewFromInt(10),
		Status: enums.OrderStatusDelivered, DeliveryTime: "12:00",
	}).Error)
	require.NoError(t, conn.Create(&models.Feedback{
		FromUserID: customer.ID, TargetUserID: driver.ID, TargetKind: enums.FeedbackTargetDelivery,
		Type: enums.FeedbackTypeCompliment, Status: enums.FeedbackStatusNA, Message: "fast",
	}).Error)

	svc, err := NewService(r)
	require.NoError(t, err)

	profile, err := svc.DriverProfile(context.Background(), driver.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.TotalDeliveries)
	assert.Equal(t, int64(1), profile.Compliments)
	assert.Zero(t, profile.Complaints)

	_, err = svc.DriverProfile(context.Background(), customer.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dto, err := svc.Profile(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", dto.Username)
}
