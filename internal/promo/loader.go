package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped catalog files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalog loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped catalog file from the local file system.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.PromoCode, error) {
	l.logger.Info().Str("file", path).Msg("loading promo catalog")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open promo catalog")
		return nil, fmt.Errorf("failed to open promo catalog %s: %w", path, err)
	}
	defer file.Close()

	promos, err := decodeCatalog(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read promo catalog")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("promos_loaded", len(promos)).
		Msg("promo catalog loaded successfully")

	return promos, nil
}

// decodeCatalog reads gzipped JSON lines from r. Blank lines are skipped;
// a malformed or invalid entry fails the whole catalog.
func decodeCatalog(ctx context.Context, r io.Reader, source string) ([]model.PromoCode, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var promos []model.PromoCode
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var p model.PromoCode
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("%s line %d: invalid JSON: %w", source, lineNo, err)
		}

		if err := normaliseEntry(&p); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, lineNo, err)
		}

		promos = append(promos, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading promo catalog %s: %w", source, err)
	}

	return promos, nil
}

// normaliseEntry canonicalises the code and rejects definitions that
// could never be redeemed correctly.
func normaliseEntry(p *model.PromoCode) error {
	p.Code = Normalize(p.Code)
	p.UsageCount = 0

	if p.Code == "" {
		return fmt.Errorf("code is required")
	}

	switch p.Kind {
	case model.DiscountPercentage, model.DiscountFixed:
		if p.Value.IsNegative() {
			return fmt.Errorf("code %s: value cannot be negative", p.Code)
		}
	case model.DiscountBuyXGetY:
		if p.BuyQuantity < 1 || p.GetQuantity < 1 {
			return fmt.Errorf("code %s: buy and get quantities must be at least 1", p.Code)
		}
	default:
		return fmt.Errorf("code %s: unsupported type %q", p.Code, p.Kind)
	}

	if p.EndsAt.Before(p.StartsAt) {
		return fmt.Errorf("code %s: end date precedes start date", p.Code)
	}

	if p.UsageLimit != nil && *p.UsageLimit < 0 {
		return fmt.Errorf("code %s: usage limit cannot be negative", p.Code)
	}

	return nil
}
