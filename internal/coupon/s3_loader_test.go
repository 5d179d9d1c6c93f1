package coupon

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"

	"travel-checkout/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, filePath string) (GrantSet, error)
}

func (m *mockLoader) Load(ctx context.Context, filePath string) (GrantSet, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, filePath)
	}
	return nil, errors.New("not implemented")
}

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects map[string][]byte
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func gzipLines(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func setOf(grants ...model.CouponGrant) GrantSet {
	s := newGrantSet(len(grants))
	for _, g := range grants {
		s.Add(g)
	}
	return s
}

func TestS3Loader_Load(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{
		"coupon-grants/june.gz": gzipLines(t, "1,10\n2,10\n"),
		"coupon-grants/bad.gz":  []byte("not gzip"),
	}}
	loader := NewS3LoaderWithClient(client, "grants-bucket", zerolog.Nop())

	set, err := loader.Load(ctx, "coupon-grants/june.gz")
	require.NoError(t, err)
	assert.Equal(t, 2, set.Size())

	_, err = loader.Load(ctx, "coupon-grants/missing.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grants-bucket")

	_, err = loader.Load(ctx, "coupon-grants/bad.gz")
	assert.Error(t, err)
}

func TestFallbackLoader_S3Success(t *testing.T) {
	ctx := context.Background()

	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			assert.Equal(t, "coupon-grants/june.gz", filePath, "S3 key should have prefix")
			return setOf(model.CouponGrant{UserID: 1, CouponID: 10}), nil
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupon-grants/", true, zerolog.Nop())

	set, err := fallback.Load(ctx, "june.gz")
	require.NoError(t, err)
	assert.Equal(t, 1, set.Size())
}

func TestFallbackLoader_LocalPaths(t *testing.T) {
	ctx := context.Background()

	failingS3 := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	forbiddenS3 := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			t.Error("S3 loader should not be called")
			return nil, errors.New("should not be called")
		},
	}

	tests := []struct {
		name      string
		s3Loader  Loader
		s3Enabled bool
	}{
		{name: "S3 fails", s3Loader: failingS3, s3Enabled: true},
		{name: "S3 disabled", s3Loader: forbiddenS3, s3Enabled: false},
		{name: "S3 loader nil", s3Loader: nil, s3Enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileLoader := &mockLoader{
				loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
					assert.Equal(t, "june.gz", filePath, "local file path should not have prefix")
					return setOf(model.CouponGrant{UserID: 2, CouponID: 20}), nil
				},
			}

			fallback := NewFallbackLoader(tt.s3Loader, fileLoader, "coupon-grants/", tt.s3Enabled, zerolog.Nop())

			set, err := fallback.Load(ctx, "june.gz")
			require.NoError(t, err)
			assert.Equal(t, []model.CouponGrant{{UserID: 2, CouponID: 20}}, set.Grants())
		})
	}
}

func TestFallbackLoader_BothFail(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			return nil, errors.New("S3 error")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, filePath string) (GrantSet, error) {
			return nil, errors.New("file not found")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "coupon-grants/", true, zerolog.Nop())

	set, err := fallback.Load(context.Background(), "june.gz")
	assert.Error(t, err)
	assert.Nil(t, set)
	assert.Contains(t, err.Error(), "file not found")
}
