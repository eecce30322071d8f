package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdfoods/restaurant-backend/pkg/db/dbtest"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
)

func newService(t *testing.T) (Service, *Repository) {
	t.Helper()
	r := NewRepository(dbtest.Open(t))
	svc, err := NewService(r)
	require.NoError(t, err)
	return svc, r
}

func TestCreateUpdateDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	chef := uuid.New()

	item, err := svc.Create(ctx, chef, CreateItemInput{Name: " Pad Thai ", Price: decimal.RequireFromString("12.499")})
	require.NoError(t, err)
	assert.Equal(t, "Pad Thai", item.Name)
	assert.True(t, decimal.RequireFromString("12.50").Equal(item.Price))
	assert.True(t, item.InStock)
	require.NotNil(t, item.CreatedBy)
	assert.Equal(t, chef, *item.CreatedBy)

	newName := "Pad See Ew"
	updated, err := svc.Update(ctx, chef, item.ID, UpdateItemInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)

	require.NoError(t, svc.Delete(ctx, chef, item.ID))
	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock, "delete only takes the dish out of stock")

	inStock, err := svc.List(ctx, ListFilters{InStockOnly: true})
	require.NoError(t, err)
	assert.Empty(t, inStock)

	all, err := svc.List(ctx, ListFilters{Search: "see"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), CreateItemInput{Name: "", Price: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, uuid.New(), CreateItemInput{Name: "Soup", Price: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, uuid.New(), CreateItemInput{Name: "Soup", Price: decimal.RequireFromString("0.004")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "rounds to a free dish")

	missing := uuid.New()
	_, err = svc.Create(ctx, uuid.New(), CreateItemInput{Name: "Soup", Price: decimal.NewFromInt(4), CategoryID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndDeleteUnknown(t *testing.T) {
	svc, _ := newService(t)
	name := "x"

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateItemInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateItemInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.True(t, pkgerrors.IsCode(svc.Delete(context.Background(), uuid.New(), uuid.New()), pkgerrors.CodeNotFound))
}

func TestCategoriesAndFilter(t *testing.T) {
	svc, r := newService(t)
	ctx := context.Background()
	category := &models.Category{Name: "Noodles", Kind: "main"}
	require.NoError(t, r.DB(ctx).Create(category).Error)

	_, err := svc.Create(ctx, uuid.Nil, CreateItemInput{Name: "Ramen", Price: decimal.NewFromInt(11), CategoryID: &category.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.Nil, CreateItemInput{Name: "Salad", Price: decimal.NewFromInt(7)})
	require.NoError(t, err)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	filtered, err := svc.List(ctx, ListFilters{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Ramen", filtered[0].Name)

	byIDs, err := r.FindByIDs(ctx, []uuid.UUID{filtered[0].ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}
