package storage

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "voicescribe/internal/app/errors"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	key := ObjectKey(42, "Team Meeting.MP3", now)
	assert.Regexp(t, regexp.MustCompile(`^audio/42/1772625600-[0-9a-f]{8}\.mp3$`), key)

	assert.NotEqual(t, key, ObjectKey(42, "Team Meeting.MP3", now), "keys are unique per upload")
	assert.Regexp(t, regexp.MustCompile(`^audio/1/1772625600-[0-9a-f]{8}$`), ObjectKey(1, "noext", now))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8081/files/")

	obj, err := s.Put(ctx, 7, "call.wav", "", bytes.NewReader([]byte("RIFF....")), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), obj.Size)
	assert.Equal(t, "application/octet-stream", obj.ContentType)
	assert.True(t, strings.HasPrefix(obj.Key, "audio/7/"))

	location, err := s.Locate(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/files/"+obj.Key, location)

	require.NoError(t, s.Remove(ctx, obj.Key))
	_, err = s.Locate(ctx, obj.Key)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMinioStore_LocatePresignsWithExpiry(t *testing.T) {
	client, err := minio.New("storage.test:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	s := &MinioStore{client: client, bucket: "voicescribe", expiry: 15 * time.Minute, logger: zap.NewNop()}

	raw, err := s.Locate(context.Background(), "audio/7/1700000000-abcd1234.mp3")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/voicescribe/audio/7/1700000000-abcd1234.mp3", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestMinioStore(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}
	ctx := context.Background()
	s, err := NewMinioStore(ctx, MinioConfig{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "voicescribe-test",
	}, zap.NewNop())
	require.NoError(t, err)

	payload := []byte("ID3 fake mp3 payload")
	obj, err := s.Put(ctx, 1, "clip.mp3", "audio/mpeg", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	location, err := s.Locate(ctx, obj.Key)
	require.NoError(t, err)
	assert.Contains(t, location, obj.Key)
	assert.NoError(t, s.Remove(ctx, obj.Key))
}
