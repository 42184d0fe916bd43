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

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

func seedOrder(t *testing.T, db *gorm.DB, clientID, merchantID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		ClientID:        clientID,
		MerchantID:      merchantID,
		Status:          status,
		Subtotal:        decimal.NewFromInt(50),
		Discount:        decimal.Zero,
		Total:           decimal.NewFromInt(50),
		DeliveryAddress: "7 avenue Hassan II, Rabat",
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Omit("Items", "Payment").Create(order).Error)
	return order
}

func TestOrdersRepoFindByIDPreloadsItemsAndPayment(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	clientID := uuid.New()
	merchantID := uuid.New()

	order := seedOrder(t, db, clientID, merchantID, enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.CreateLineItems(ctx, []models.OrderLineItem{
		{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: uuid.New(),
			Name:      "Argan oil 250ml",
			UnitPrice: decimal.NewFromInt(25),
			Qty:       2,
			LineTotal: decimal.NewFromInt(50),
		},
	}))
	_, err := repo.CreatePayment(ctx, &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  decimal.NewFromInt(50),
		Status:  enums.PaymentStatusPending,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Argan oil 250ml", found.Items[0].Name)
	require.NotNil(t, found.Payment)
	assert.True(t, found.Payment.Amount.Equal(decimal.NewFromInt(50)))
}

func TestOrdersRepoListForClientPaginatesByCursor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	clientID := uuid.New()
	merchantID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedOrder(t, db, clientID, merchantID, enums.OrderStatusPending, base)
	middle := seedOrder(t, db, clientID, merchantID, enums.OrderStatusPending, base.Add(time.Minute))
	newest := seedOrder(t, db, clientID, merchantID, enums.OrderStatusPending, base.Add(2*time.Minute))
	seedOrder(t, db, uuid.New(), merchantID, enums.OrderStatusPending, base.Add(3*time.Minute))

	page, err := repo.ListForClient(ctx, clientID, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, newest.ID, page.Orders[0].ID)
	assert.Equal(t, middle.ID, page.Orders[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := repo.ListForClient(ctx, clientID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, next.Orders, 1)
	assert.Equal(t, oldest.ID, next.Orders[0].ID)
	assert.Empty(t, next.NextCursor)
}

func TestOrdersRepoListForMerchantFiltersByStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	merchantID := uuid.New()

	now := time.Now().UTC()
	seedOrder(t, db, uuid.New(), merchantID, enums.OrderStatusPending, now)
	accepted := seedOrder(t, db, uuid.New(), merchantID, enums.OrderStatusAccepted, now.Add(time.Second))

	status := enums.OrderStatusAccepted
	page, err := repo.ListForMerchant(ctx, merchantID, pagination.Params{}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, accepted.ID, page.Orders[0].ID)
}

func TestOrdersRepoUpdateTouchesOnlyGivenColumns(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	require.NoError(t, repo.Update(ctx, order.ID, map[string]any{"status": enums.OrderStatusAccepted}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, found.Status)
	assert.Equal(t, order.DeliveryAddress, found.DeliveryAddress)
}
