package promo

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Upserter persists promo definitions.
type Upserter interface {
	Upsert(ctx context.Context, promos []model.PromoCode) error
}

// Importer loads catalog files and writes them to the promo store.
type Importer struct {
	loader Loader
	store  Upserter
	logger zerolog.Logger
}

// NewImporter creates a new catalog importer.
func NewImporter(loader Loader, store Upserter, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "promo-importer").Logger(),
	}
}

// Import loads every file concurrently and upserts the merged catalog.
// When a code appears in several files the last file listed wins. Any
// load failure aborts the import before anything is written.
func (i *Importer) Import(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	type loadResult struct {
		promos []model.PromoCode
		err    error
	}

	results := make([]loadResult, len(paths))
	var wg sync.WaitGroup

	for idx, path := range paths {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			promos, err := i.loader.Load(ctx, path)
			results[idx] = loadResult{promos: promos, err: err}
		}(idx, path)
	}
	wg.Wait()

	merged := make(map[string]model.PromoCode)
	var order []string
	for idx, result := range results {
		if result.err != nil {
			return 0, fmt.Errorf("failed to load promo catalog %s: %w", paths[idx], result.err)
		}
		for _, p := range result.promos {
			if _, seen := merged[p.Code]; !seen {
				order = append(order, p.Code)
			}
			merged[p.Code] = p
		}
	}

	promos := make([]model.PromoCode, 0, len(order))
	for _, code := range order {
		promos = append(promos, merged[code])
	}

	if err := i.store.Upsert(ctx, promos); err != nil {
		return 0, fmt.Errorf("failed to store promo catalog: %w", err)
	}

	i.logger.Info().
		Int("files", len(paths)).
		Int("promos", len(promos)).
		Msg("promo catalog imported")

	return len(promos), nil
}
