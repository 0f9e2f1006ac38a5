package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalogue(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	seedProducts(t, pool, []model.Product{
		{ID: "P001", VendorID: "V1", Name: "Lamp", Price: dec("25.00"), Category: "Home"},
		{ID: "P002", VendorID: "V2", Name: "Kettle", Price: dec("40.00"), Category: "Kitchen"},
	})
}

func newTestOrder(status model.OrderStatus, vendors ...string) *model.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	order := &model.Order{
		ID:             id,
		IsGuest:        true,
		Status:         status,
		PaymentMethod:  model.PaymentCashOnDelivery,
		Subtotal:       dec("65.00"),
		DiscountAmount: dec("0"),
		DiscountKind:   model.DiscountNone,
		Total:          dec("65.00"),
		Shipping: model.ShippingAddress{
			FullName: "Ada Lovelace",
			Email:    "ada@example.com",
			Street:   "1 Analytical Way",
			City:     "London",
			Country:  "UK",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	products := map[string]string{"V1": "P001", "V2": "P002"}
	for _, v := range vendors {
		order.Lines = append(order.Lines, model.OrderLine{
			ID:          uuid.New(),
			OrderID:     id,
			ProductID:   products[v],
			VendorID:    v,
			ProductName: "Item " + v,
			Quantity:    1,
			UnitPrice:   dec("32.50"),
		})
	}
	return order
}

func insertOrder(t *testing.T, repo OrderRepository, order *model.Order) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, order.Lines))
	require.NoError(t, tx.Commit(ctx))
}

func TestOrderRepository_BeginTx(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.NoError(t, tx.Rollback(ctx))
}

func TestOrderRepository_CreateAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())

	order := newTestOrder(model.StatusPending, "V1", "V2")
	notes := "leave at the door"
	order.Notes = &notes
	insertOrder(t, repo, order)

	got, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.PaymentCashOnDelivery, got.PaymentMethod)
	assert.True(t, order.Total.Equal(got.Total))
	assert.Equal(t, order.Shipping, got.Shipping)
	assert.Nil(t, got.PromoCode)
	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.HasVendor("V1"))
	assert.True(t, got.HasVendor("V2"))
	assert.True(t, dec("32.50").Equal(got.Lines[0].UnitPrice))
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_RollbackLeavesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(model.StatusPending, "V1")
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderLines(ctx, tx, order.Lines))
	require.NoError(t, tx.Rollback(ctx))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderRepository_CreateOrderLines_UnknownProduct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(model.StatusPending, "V1")
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	err = repo.CreateOrderLines(ctx, tx, order.Lines)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order line")
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(model.StatusPending, "V1")
	insertOrder(t, repo, order)

	tests := []struct {
		name    string
		from    model.OrderStatus
		to      model.OrderStatus
		wantErr error
	}{
		{name: "Matching status moves forward", from: model.StatusPending, to: model.StatusProcessing},
		{name: "Stale expected status conflicts", from: model.StatusPending, to: model.StatusShipped, wantErr: model.ErrStatusConflict},
		{name: "Current status moves forward again", from: model.StatusProcessing, to: model.StatusShipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := repo.BeginTx(ctx)
			require.NoError(t, err)

			err = repo.UpdateStatus(ctx, tx, order.ID, tt.from, tt.to, time.Now())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				require.NoError(t, tx.Rollback(ctx))
				return
			}
			require.NoError(t, err)
			require.NoError(t, tx.Commit(ctx))
		})
	}

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, got.Status)
}

func TestOrderRepository_TrackingNumber(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	first := newTestOrder(model.StatusProcessing, "V1")
	second := newTestOrder(model.StatusProcessing, "V2")
	insertOrder(t, repo, first)
	insertOrder(t, repo, second)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SetTrackingNumber(ctx, tx, first.ID, "1Z999", time.Now()))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByTrackingNumber(ctx, "1Z999")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	require.Len(t, got.Lines, 1)

	t.Run("Duplicate number is rejected", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.SetTrackingNumber(ctx, tx, second.ID, "1Z999", time.Now())
		assert.ErrorIs(t, err, model.ErrTrackingNumberInUse)
	})

	t.Run("Unknown order", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.SetTrackingNumber(ctx, tx, uuid.New(), "1Z000", time.Now())
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Cancelled order keeps no number", func(t *testing.T) {
		cancelled := newTestOrder(model.StatusCancelled, "V1")
		insertOrder(t, repo, cancelled)

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.SetTrackingNumber(ctx, tx, cancelled.ID, "1Z111", time.Now())
		assert.ErrorIs(t, err, model.ErrIllegalTransition)

		got, err := repo.GetByID(ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Nil(t, got.TrackingNumber)
	})

	t.Run("Unknown number", func(t *testing.T) {
		got, err := repo.GetByTrackingNumber(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestOrderRepository_TrackingEvents_Ordered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(model.StatusPending, "V1")
	insertOrder(t, repo, order)

	base := time.Now().UTC().Truncate(time.Microsecond)
	statuses := []model.OrderStatus{model.StatusShipped, model.StatusPending, model.StatusProcessing}
	offsets := []time.Duration{2 * time.Hour, 0, time.Hour}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	for i, s := range statuses {
		require.NoError(t, repo.AppendTrackingEvent(ctx, tx, &model.TrackingEvent{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Status:      s,
			Description: s.Description(),
			Location:    "Warehouse",
			CreatedAt:   base.Add(offsets[i]),
		}))
	}
	require.NoError(t, tx.Commit(ctx))

	events, err := repo.ListTrackingEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.StatusPending, events[0].Status)
	assert.Equal(t, model.StatusProcessing, events[1].Status)
	assert.Equal(t, model.StatusShipped, events[2].Status)

	empty, err := repo.ListTrackingEvents(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrderRepository_ListOrders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedCatalogue(t, pool)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	onlyV1 := newTestOrder(model.StatusPending, "V1")
	onlyV2 := newTestOrder(model.StatusShipped, "V2")
	both := newTestOrder(model.StatusShipped, "V1", "V2")
	onlyV2.CreatedAt = onlyV1.CreatedAt.Add(time.Minute)
	both.CreatedAt = onlyV1.CreatedAt.Add(2 * time.Minute)
	for _, o := range []*model.Order{onlyV1, onlyV2, both} {
		insertOrder(t, repo, o)
	}

	shipped := model.StatusShipped

	tests := []struct {
		name     string
		filter   model.OrderFilter
		expected []uuid.UUID
	}{
		{
			name:     "All orders newest first",
			filter:   model.OrderFilter{},
			expected: []uuid.UUID{both.ID, onlyV2.ID, onlyV1.ID},
		},
		{
			name:     "Vendor scope",
			filter:   model.OrderFilter{VendorID: "V1"},
			expected: []uuid.UUID{both.ID, onlyV1.ID},
		},
		{
			name:     "Vendor and status",
			filter:   model.OrderFilter{VendorID: "V2", Status: &shipped},
			expected: []uuid.UUID{both.ID, onlyV2.ID},
		},
		{
			name:     "Pagination",
			filter:   model.OrderFilter{Limit: 1, Offset: 1},
			expected: []uuid.UUID{onlyV2.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := repo.ListOrders(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]uuid.UUID, len(orders))
			for i, o := range orders {
				ids[i] = o.ID
				assert.NotEmpty(t, o.Lines)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}
