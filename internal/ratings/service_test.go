package ratings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/discipline"
	"github.com/sdfoods/restaurant-backend/internal/feedback"
	"github.com/sdfoods/restaurant-backend/internal/notifications"
	"github.com/sdfoods/restaurant-backend/internal/orders"
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
	runner := db.Wrap(conn)
	usersRepo := users.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	notifier, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	engine, err := discipline.NewEngine(usersRepo, notifier, nil)
	require.NoError(t, err)
	feedbackSvc, err := feedback.NewService(feedback.NewRepository(conn), ordersRepo, usersRepo, runner, engine, notifier, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), ordersRepo, feedbackSvc, runner)
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc}
}

func (f fixture) user(t *testing.T, role enums.UserRole) uuid.UUID {
	t.Helper()
	user := &models.User{
		Username: uuid.NewString(), Email: uuid.NewString() + "@example.com", PasswordHash: "x", Name: "n",
		Role: role, IsActive: true, Balance: decimal.Zero, Salary: decimal.Zero,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user.ID
}

func (f fixture) order(t *testing.T, customer uuid.UUID, status enums.OrderStatus, chef, driver *uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerID: customer, PreparedBy: chef, DeliveredBy: driver,
		DeliveryAddress: "addr", Subtotal: decimal.NewFromInt(20), Discount: decimal.Zero, TotalPrice: decimal.NewFromInt(20),
		Status: status, DeliveryDate: time.Now().UTC(), DeliveryTime: "12:00",
		Items: []models.OrderItem{
			{MenuItemID: uuid.New(), Name: "Soup", Quantity: 1, UnitPrice: decimal.NewFromInt(8)},
			{MenuItemID: uuid.New(), Name: "Bread", Quantity: 2, UnitPrice: decimal.NewFromInt(6)},
		},
	}
	require.NoError(t, f.conn.Create(order).Error)
	return order
}

func intPtr(v int) *int { return &v }

func TestLowFoodRatingFilesComplaintAgainstChef(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, enums.UserRoleCustomer)
	chef := f.user(t, enums.UserRoleChef)
	order := f.order(t, customer, enums.OrderStatusDelivered, &chef, nil)

	result, err := f.svc.Rate(context.Background(), RateInput{OrderID: order.ID, CustomerID: customer, FoodRating: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, result.Feedback, 1)
	assert.Equal(t, enums.FeedbackTypeComplaint, result.Feedback[0].Type)
	assert.Equal(t, enums.FeedbackStatusOpen, result.Feedback[0].Status)
	assert.Equal(t, chef, result.Feedback[0].TargetUserID)
	assert.Equal(t, 2, result.Reviews)

	score, err := f.svc.DishScore(context.Background(), order.Items[0].MenuItemID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, score.Count)
	assert.InDelta(t, 2.0, score.Average, 0.001)
}

func TestHighRatingsFileCompliments(t *testing.T) {
	f := newFixture(t)
	customer := f.user(t, enums.UserRoleCustomer)
	chef := f.user(t, enums.UserRoleChef)
	driver := f.user(t, enums.UserRoleDriver)
	order := f.order(t, customer, enums.OrderStatusDelivered, &chef, &driver)

	result, err := f.svc.Rate(context.Background(), RateInput{OrderID: order.ID, CustomerID: customer, FoodRating: intPtr(5), DeliveryRating: intPtr(4)})
	require.NoError(t, err)
	require.Len(t, result.Feedback, 2)
	for _, row := range result.Feedback {
		assert.Equal(t, enums.FeedbackTypeCompliment, row.Type)
		assert.Equal(t, enums.FeedbackStatusNA, row.Status)
	}
	assert.Equal(t, driver, result.Feedback[1].TargetUserID)
}

func TestRateRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, enums.UserRoleCustomer)
	chef := f.user(t, enums.UserRoleChef)
	pending := f.order(t, customer, enums.OrderStatusPreparing, &chef, nil)
	delivered := f.order(t, customer, enums.OrderStatusDelivered, &chef, nil)

	_, err := f.svc.Rate(ctx, RateInput{OrderID: delivered.ID, CustomerID: customer, FoodRating: intPtr(6)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Rate(ctx, RateInput{OrderID: delivered.ID, CustomerID: customer, FoodRating: intPtr(0)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Rate(ctx, RateInput{OrderID: pending.ID, CustomerID: customer, FoodRating: intPtr(3)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Rate(ctx, RateInput{OrderID: delivered.ID, CustomerID: uuid.New(), FoodRating: intPtr(3)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Rate(ctx, RateInput{OrderID: delivered.ID, CustomerID: customer, DeliveryRating: intPtr(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNoDriverAssigned))

	var count int64
	require.NoError(t, f.conn.Model(&models.Feedback{}).Count(&count).Error)
	assert.Zero(t, count, "failed ratings leave nothing behind")
}
