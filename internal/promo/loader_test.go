package promo

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gzipLines returns the gzip encoding of lines joined by newlines.
func gzipLines(t *testing.T, lines []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	for _, line := range lines {
		_, err := gzipWriter.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gzipWriter.Close())
	return buf.Bytes()
}

// createTestCatalogFile creates a gzipped JSON-lines catalog file.
func createTestCatalogFile(t *testing.T, filename string, lines []string) string {
	t.Helper()

	filePath := filepath.Join(t.TempDir(), filename)
	require.NoError(t, os.WriteFile(filePath, gzipLines(t, lines), 0o644))
	return filePath
}

const (
	fixedLine   = `{"code":"save10","type":"fixed","value":10,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-12-31T23:59:59Z"}`
	percentLine = `{"code":"HALF","type":"percentage","value":"50","maxDiscount":"30","minOrderAmount":20,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-12-31T23:59:59Z","usageLimit":100}`
	bogoLine    = `{"code":"bogo","type":"buy_x_get_y","buyQuantity":2,"getQuantity":1,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`
)

func TestFileLoader_Load_Success(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCatalogFile(t, "promos.jsonl.gz", []string{fixedLine, "", percentLine, "   ", bogoLine})

	promos, err := loader.Load(context.Background(), filePath)
	require.NoError(t, err)
	require.Len(t, promos, 3)

	assert.Equal(t, "SAVE10", promos[0].Code)
	assert.Equal(t, model.DiscountFixed, promos[0].Kind)
	assert.True(t, dec("10").Equal(promos[0].Value))

	assert.Equal(t, "HALF", promos[1].Code)
	require.NotNil(t, promos[1].MaxDiscount)
	assert.True(t, dec("30").Equal(*promos[1].MaxDiscount))
	require.NotNil(t, promos[1].MinOrderAmount)
	assert.True(t, dec("20").Equal(*promos[1].MinOrderAmount))
	require.NotNil(t, promos[1].UsageLimit)
	assert.Equal(t, 100, *promos[1].UsageLimit)

	assert.Equal(t, "BOGO", promos[2].Code)
	assert.Equal(t, model.BuyXGetY{Buy: 2, Get: 1}, promos[2].Discount())
}

func TestFileLoader_Load_IgnoresUsageCount(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	line := strings.Replace(fixedLine, `"value":10`, `"value":10,"usageCount":42`, 1)
	filePath := createTestCatalogFile(t, "promos.jsonl.gz", []string{line})

	promos, err := loader.Load(context.Background(), filePath)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, 0, promos[0].UsageCount)
}

func TestFileLoader_Load_InvalidEntries(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		errMatch string
	}{
		{
			name:     "Malformed JSON",
			line:     `{"code":`,
			errMatch: "line 1: invalid JSON",
		},
		{
			name:     "Missing code",
			line:     `{"type":"fixed","value":1,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`,
			errMatch: "code is required",
		},
		{
			name:     "Unknown type",
			line:     `{"code":"X","type":"mystery","startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`,
			errMatch: "unsupported type",
		},
		{
			name:     "Negative value",
			line:     `{"code":"X","type":"fixed","value":-1,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`,
			errMatch: "value cannot be negative",
		},
		{
			name:     "Buy x get y without quantities",
			line:     `{"code":"X","type":"buy_x_get_y","startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`,
			errMatch: "buy and get quantities",
		},
		{
			name:     "Inverted window",
			line:     `{"code":"X","type":"fixed","value":1,"startDate":"2026-02-01T00:00:00Z","endDate":"2026-01-01T00:00:00Z"}`,
			errMatch: "end date precedes start date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewFileLoader(zerolog.Nop())
			filePath := createTestCatalogFile(t, "bad.jsonl.gz", []string{tt.line})

			promos, err := loader.Load(context.Background(), filePath)
			require.Error(t, err)
			assert.Nil(t, promos)
			assert.Contains(t, err.Error(), tt.errMatch)
		})
	}
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	promos, err := loader.Load(context.Background(), "/nonexistent/path/to/promos.jsonl.gz")

	require.Error(t, err)
	assert.Nil(t, promos)
	assert.Contains(t, err.Error(), "failed to open promo catalog")
}

func TestFileLoader_Load_InvalidGzip(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := filepath.Join(t.TempDir(), "invalid.gz")
	require.NoError(t, os.WriteFile(filePath, []byte("not a gzip file"), 0o644))

	promos, err := loader.Load(context.Background(), filePath)

	require.Error(t, err)
	assert.Nil(t, promos)
	assert.Contains(t, err.Error(), "failed to create gzip reader")
}

func TestFileLoader_Load_EmptyFile(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCatalogFile(t, "empty.jsonl.gz", []string{})

	promos, err := loader.Load(context.Background(), filePath)
	require.NoError(t, err)
	assert.Empty(t, promos)
}
