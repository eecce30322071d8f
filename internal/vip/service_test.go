package vip

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
	"github.com/sdfoods/restaurant-backend/pkg/db"
	"github.com/sdfoods/restaurant-backend/pkg/db/dbtest"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

type fixture struct {
	conn *gorm.DB
	svc  Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), users.NewRepository(conn), db.Wrap(conn), notifier)
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc}
}

func (f fixture) user(t *testing.T, role enums.UserRole) uuid.UUID {
	t.Helper()
	user := &models.User{
		Username: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", Name: "Vera",
		Role: role, IsActive: true, Balance: decimal.NewFromInt(80), Salary: decimal.Zero,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user.ID
}

func (f fixture) isVIP(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var user models.User
	require.NoError(t, f.conn.First(&user, "id = ?", id).Error)
	return user.IsVIP
}

func TestRequestApproveDemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, enums.UserRoleCustomer)
	manager := f.user(t, enums.UserRoleManager)

	req, err := f.svc.Request(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, enums.VIPRequestPending, req.Status)

	_, err = f.svc.Request(ctx, customer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Vera", pending[0].CustomerName)
	assert.True(t, decimal.NewFromInt(80).Equal(pending[0].Balance))

	approved, err := f.svc.Approve(ctx, req.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, enums.VIPRequestApproved, approved.Status)
	assert.True(t, f.isVIP(t, customer))

	_, err = f.svc.Reject(ctx, req.ID, manager)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Request(ctx, customer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, f.svc.Demote(ctx, customer, manager))
	assert.False(t, f.isVIP(t, customer))
	assert.True(t, pkgerrors.IsCode(f.svc.Demote(ctx, customer, manager), pkgerrors.CodeForbidden))
}

func TestRejectLeavesCustomerRegular(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, enums.UserRoleCustomer)
	manager := f.user(t, enums.UserRoleManager)

	req, err := f.svc.Request(ctx, customer)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(ctx, req.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, enums.VIPRequestRejected, rejected.Status)
	assert.False(t, f.isVIP(t, customer))

	_, err = f.svc.Request(ctx, customer)
	require.NoError(t, err, "a rejected customer may apply again")

	_, err = f.svc.Request(ctx, manager)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = f.svc.Approve(ctx, uuid.New(), manager)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
