package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Writes sample promo catalogs for local testing.
// spring.jsonl.gz: SPRING10 (10% capped at 15), WELCOME5 (5 off), BOGO (buy 1 get 1)
// summer.jsonl.gz: SUMMER20 (20% over 50), WELCOME5 (7.50 off, overrides spring), ONCE (single use)
// expired.jsonl.gz: WINTER (ended last year)
func main() {
	dataDir := flag.String("dir", "data/promos", "output directory")
	flag.Parse()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	yearAgo := now.AddDate(-1, 0, 0)
	nextYear := now.AddDate(1, 0, 0)

	catalogs := map[string][]model.PromoCode{
		"spring.jsonl.gz": {
			{Code: "SPRING10", Kind: model.DiscountPercentage, Value: decimal.NewFromInt(10), MaxDiscount: decPtr("15"), StartsAt: yearAgo, EndsAt: nextYear},
			{Code: "WELCOME5", Kind: model.DiscountFixed, Value: decimal.NewFromInt(5), StartsAt: yearAgo, EndsAt: nextYear},
			{Code: "BOGO", Kind: model.DiscountBuyXGetY, BuyQuantity: 1, GetQuantity: 1, StartsAt: yearAgo, EndsAt: nextYear},
		},
		"summer.jsonl.gz": {
			{Code: "SUMMER20", Kind: model.DiscountPercentage, Value: decimal.NewFromInt(20), MinOrderAmount: decPtr("50"), StartsAt: yearAgo, EndsAt: nextYear},
			{Code: "WELCOME5", Kind: model.DiscountFixed, Value: decimal.RequireFromString("7.50"), StartsAt: yearAgo, EndsAt: nextYear},
			{Code: "ONCE", Kind: model.DiscountFixed, Value: decimal.NewFromInt(3), UsageLimit: intPtr(1), StartsAt: yearAgo, EndsAt: nextYear},
		},
		"expired.jsonl.gz": {
			{Code: "WINTER", Kind: model.DiscountPercentage, Value: decimal.NewFromInt(25), StartsAt: yearAgo.AddDate(-1, 0, 0), EndsAt: yearAgo},
		},
	}

	for filename, promos := range catalogs {
		filePath := filepath.Join(*dataDir, filename)

		if err := writeCatalog(filePath, promos); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(promos))
	}

	fmt.Println("\nSample promo catalogs created successfully!")
	fmt.Printf("\nImport them with:\n  PROMO_CATALOG_FILES=%s,%s,%s\n",
		filepath.Join(*dataDir, "spring.jsonl.gz"),
		filepath.Join(*dataDir, "summer.jsonl.gz"),
		filepath.Join(*dataDir, "expired.jsonl.gz"))
	fmt.Println("WELCOME5 resolves to the summer definition when summer is listed last.")
}

func writeCatalog(filePath string, promos []model.PromoCode) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)
	for _, p := range promos {
		if err := encoder.Encode(p); err != nil {
			return fmt.Errorf("failed to write promo %s: %w", p.Code, err)
		}
	}

	return nil
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(n int) *int {
	return &n
}
