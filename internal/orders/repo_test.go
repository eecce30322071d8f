package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/pkg/db/dbtest"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
)

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, deliveredBy *uuid.UUID) uuid.UUID {
	t.Helper()
	order := &models.Order{
		CustomerID:      uuid.New(),
		DeliveredBy:     deliveredBy,
		DeliveryAddress: "addr",
		Subtotal:        decimal.NewFromInt(10),
		Discount:        decimal.Zero,
		TotalPrice:      decimal.NewFromInt(10),
		Status:          status,
		DeliveryDate:    time.Now().UTC(),
		DeliveryTime:    "10:00",
		Items: []models.OrderItem{
			{MenuItemID: uuid.New(), Name: "Soup", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		},
	}
	require.NoError(t, NewRepository(conn).Create(context.Background(), order))
	return order.ID
}

func TestClaimForPickupKeepsApprovedDriver(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	approved := uuid.New()
	id := seedOrder(t, conn, enums.OrderStatusReadyForDelivery, &approved)

	ok, err := repo.ClaimForPickup(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok, "a different driver cannot take an assigned order")

	ok, err = repo.ClaimForPickup(ctx, id, approved)
	require.NoError(t, err)
	assert.True(t, ok)

	order, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, order.Status)
	require.NotNil(t, order.DeliveredBy)
	assert.Equal(t, approved, *order.DeliveredBy)
	assert.Len(t, order.Items, 1)
}

func TestClaimForPickupUnassigned(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	id := seedOrder(t, conn, enums.OrderStatusReadyForDelivery, nil)
	driver := uuid.New()

	ok, err := repo.ClaimForPickup(ctx, id, driver)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ClaimForPickup(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	order, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, driver, *order.DeliveredBy)
}

func TestAssignIfUnset(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	id := seedOrder(t, conn, enums.OrderStatusReadyForDelivery, nil)

	ok, err := repo.AssignDriverIfUnset(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AssignDriverIfUnset(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.AssignChefIfUnset(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AssignChefIfUnset(ctx, id, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ready, err := repo.ListReadyUnassigned(ctx)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestTransitionGuards(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	chef := uuid.New()
	id := seedOrder(t, conn, enums.OrderStatusPending, nil)

	ok, err := repo.Transition(ctx, id, []enums.OrderStatus{enums.OrderStatusPreparing}, enums.OrderStatusReadyForDelivery, Guard{}, nil)
	require.NoError(t, err)
	assert.False(t, ok, "status does not match")

	ok, err = repo.Transition(ctx, id, []enums.OrderStatus{enums.OrderStatusPending}, enums.OrderStatusPreparing, Guard{}, map[string]any{"prepared_by": chef})
	require.NoError(t, err)
	require.True(t, ok)

	other := uuid.New()
	ok, err = repo.Transition(ctx, id, []enums.OrderStatus{enums.OrderStatusPreparing}, enums.OrderStatusReadyForDelivery, Guard{PreparedBy: &other}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Transition(ctx, id, []enums.OrderStatus{enums.OrderStatusPreparing}, enums.OrderStatusReadyForDelivery, Guard{PreparedBy: &chef}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
