package promo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"storefront/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects map[string][]byte
	gotKeys []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.gotKeys = append(f.gotKeys, aws.ToString(params.Bucket)+"/"+key)

	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) ([]model.PromoCode, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]model.PromoCode, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, path)
	}
	return nil, errors.New("not implemented")
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"promos/spring.jsonl.gz": gzipLines(t, []string{fixedLine, bogoLine}),
		"promos/broken.jsonl.gz": []byte("plain text"),
	}}
	loader := newS3Loader(client, "storefront-config", zerolog.Nop())

	t.Run("Reads the object", func(t *testing.T) {
		promos, err := loader.Load(context.Background(), "promos/spring.jsonl.gz")
		require.NoError(t, err)
		require.Len(t, promos, 2)
		assert.Equal(t, "SAVE10", promos[0].Code)
		assert.Contains(t, client.gotKeys, "storefront-config/promos/spring.jsonl.gz")
	})

	t.Run("Missing object", func(t *testing.T) {
		promos, err := loader.Load(context.Background(), "promos/missing.jsonl.gz")
		require.Error(t, err)
		assert.Nil(t, promos)
		assert.Contains(t, err.Error(), "failed to get object from S3")
	})

	t.Run("Not gzipped", func(t *testing.T) {
		promos, err := loader.Load(context.Background(), "promos/broken.jsonl.gz")
		require.Error(t, err)
		assert.Nil(t, promos)
		assert.Contains(t, err.Error(), "s3://storefront-config/promos/broken.jsonl.gz")
	})
}

func TestFallbackLoader_S3Success(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			assert.Equal(t, "promos/test.jsonl.gz", path, "S3 key should have prefix")
			return []model.PromoCode{{Code: "S3CODE"}}, nil
		},
	}

	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", true, zerolog.Nop())

	promos, err := fallback.Load(context.Background(), "test.jsonl.gz")
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "S3CODE", promos[0].Code)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			return nil, errors.New("S3 connection failed")
		},
	}

	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			assert.Equal(t, "test.jsonl.gz", path, "local path should not have prefix")
			return []model.PromoCode{{Code: "LOCAL"}}, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", true, zerolog.Nop())

	promos, err := fallback.Load(context.Background(), "test.jsonl.gz")
	require.NoError(t, err)
	assert.Equal(t, "LOCAL", promos[0].Code)
}

func TestFallbackLoader_S3DisabledOrNil(t *testing.T) {
	tests := []struct {
		name      string
		s3Loader  Loader
		s3Enabled bool
	}{
		{
			name: "Disabled",
			s3Loader: &mockLoader{loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
				t.Error("S3 loader should not be called when S3 is disabled")
				return nil, nil
			}},
			s3Enabled: false,
		},
		{
			name:      "Nil S3 loader",
			s3Loader:  nil,
			s3Enabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileLoader := &mockLoader{
				loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
					return []model.PromoCode{{Code: "LOCAL"}}, nil
				},
			}

			fallback := NewFallbackLoader(tt.s3Loader, fileLoader, "promos/", tt.s3Enabled, zerolog.Nop())

			promos, err := fallback.Load(context.Background(), "test.jsonl.gz")
			require.NoError(t, err)
			assert.Equal(t, "LOCAL", promos[0].Code)
		})
	}
}

func TestFallbackLoader_BothFail(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			return nil, errors.New("S3 error")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.PromoCode, error) {
			return nil, errors.New("file not found")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", true, zerolog.Nop())

	promos, err := fallback.Load(context.Background(), "test.jsonl.gz")
	require.Error(t, err)
	assert.Nil(t, promos)
	assert.Contains(t, err.Error(), "file not found")
}
