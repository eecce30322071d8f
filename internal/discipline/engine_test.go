package discipline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/users"
	"github.com/sdfoods/restaurant-backend/pkg/db/dbtest"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

func newEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	engine, err := NewEngine(users.NewRepository(conn), notifier, nil)
	require.NoError(t, err)
	return engine, conn
}

func seed(t *testing.T, conn *gorm.DB, role enums.UserRole, vip bool, warnings int) *models.User {
	t.Helper()
	user := &models.User{
		Username: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", Name: "n",
		Role: role, IsVIP: vip, IsActive: true, Warnings: warnings,
		Balance: decimal.Zero, Salary: decimal.Zero,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func reload(t *testing.T, conn *gorm.DB, id uuid.UUID) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", id).Error)
	return user
}

func TestThirdCustomerWarningDeactivates(t *testing.T) {
	engine, conn := newEngine(t)
	customer := seed(t, conn, enums.UserRoleCustomer, false, 0)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		outcome, err := engine.Warn(ctx, conn, customer.ID, "late cancellation")
		require.NoError(t, err)
		assert.Equal(t, i, outcome.Warnings)
		assert.False(t, outcome.Deactivated)
	}

	outcome, err := engine.Warn(ctx, conn, customer.ID, "late cancellation")
	require.NoError(t, err)
	assert.True(t, outcome.Deactivated)
	assert.False(t, reload(t, conn, customer.ID).IsActive)

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Where("user_id = ?", customer.ID).Count(&count).Error)
	assert.Equal(t, int64(4), count, "three warnings plus the deactivation notice")
}

func TestVIPLosesStatusAtSecondWarning(t *testing.T) {
	engine, conn := newEngine(t)
	vip := seed(t, conn, enums.UserRoleCustomer, true, 1)

	outcome, err := engine.Warn(context.Background(), conn, vip.ID, "complaint upheld")
	require.NoError(t, err)
	assert.True(t, outcome.LostVIP)
	assert.False(t, outcome.Deactivated)

	after := reload(t, conn, vip.ID)
	assert.False(t, after.IsVIP)
	assert.True(t, after.IsActive)
}

func TestVIPAndDeactivationCanTriggerTogether(t *testing.T) {
	engine, conn := newEngine(t)
	vip := seed(t, conn, enums.UserRoleCustomer, true, 2)

	outcome, err := engine.Warn(context.Background(), conn, vip.ID, "insufficient funds")
	require.NoError(t, err)
	assert.True(t, outcome.LostVIP)
	assert.True(t, outcome.Deactivated)
}

func TestEmployeesDemotedAtThree(t *testing.T) {
	engine, conn := newEngine(t)
	for _, role := range []enums.UserRole{enums.UserRoleChef, enums.UserRoleDriver} {
		employee := seed(t, conn, role, false, 2)
		outcome, err := engine.Warn(context.Background(), conn, employee.ID, "complaint upheld")
		require.NoError(t, err)
		assert.True(t, outcome.Demoted)
		assert.Equal(t, enums.UserRoleDemoted, reload(t, conn, employee.ID).Role)
	}
}

func TestManagersOnlyAccrueCounter(t *testing.T) {
	engine, conn := newEngine(t)
	manager := seed(t, conn, enums.UserRoleManager, false, 5)

	outcome, err := engine.Warn(context.Background(), conn, manager.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 6, outcome.Warnings)
	assert.False(t, outcome.Demoted)

	after := reload(t, conn, manager.ID)
	assert.Equal(t, enums.UserRoleManager, after.Role)
	assert.True(t, after.IsActive)
}

func TestWarnUnknownUser(t *testing.T) {
	engine, conn := newEngine(t)
	_, err := engine.Warn(context.Background(), conn, uuid.New(), "x")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
