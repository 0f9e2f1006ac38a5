package integration

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the service schema
// applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts two vendors' catalogue rows.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	products := []model.Product{
		{ID: "P001", VendorID: "V1", Name: "Notebook", Price: decimal.RequireFromString("10.00"), Category: "Stationery"},
		{ID: "P002", VendorID: "V1", Name: "Fountain Pen", Price: decimal.RequireFromString("25.50"), Category: "Stationery"},
		{ID: "P003", VendorID: "V2", Name: "Desk Lamp", Price: decimal.RequireFromString("40.00"), Category: "Home"},
	}

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	if err := repo.Upsert(context.Background(), products); err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
}

// SeedPromos inserts promo codes valid for the next day.
func SeedPromos(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	now := time.Now()
	once := 1
	promos := []model.PromoCode{
		{Code: "TENOFF", Kind: model.DiscountPercentage, Value: decimal.NewFromInt(10), StartsAt: now.Add(-time.Hour), EndsAt: now.Add(24 * time.Hour)},
		{Code: "ONCE", Kind: model.DiscountFixed, Value: decimal.NewFromInt(5), UsageLimit: &once, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(24 * time.Hour)},
	}

	repo := repository.NewPromoRepository(pool, zerolog.Nop())
	if err := repo.Upsert(context.Background(), promos); err != nil {
		t.Fatalf("failed to seed promos: %v", err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE tracking_events, order_items, orders, promo_codes, products CASCADE")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
