package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforce/taskmanager/internal/db/dbtest"
	"github.com/taskforce/taskmanager/internal/model"
	"github.com/taskforce/taskmanager/internal/repository"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func exerciseStore(t *testing.T, store AvatarStore, userID string) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, userID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, userID, []byte("png-bytes")))
	data, err := store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, store.Delete(ctx, userID))
	_, err = store.Load(ctx, userID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, userID), "deleting twice is a no-op")
}

func TestS3Storage(t *testing.T) {
	bucket := newFakeBucket()
	store := &S3Storage{client: bucket, bucket: "avatars"}

	exerciseStore(t, store, "u1")

	require.NoError(t, store.Save(context.Background(), "u2", []byte("x")))
	assert.Equal(t, "image/png", bucket.types["avatars/u2.png"])
}

func TestDatabaseStore(t *testing.T) {
	users := repository.NewUserRepository(dbtest.New(t))
	now := time.Now().UTC()
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
	}))

	exerciseStore(t, NewDatabaseStore(users), "u1")
}

func TestDatabaseStore_MissingUser(t *testing.T) {
	store := NewDatabaseStore(repository.NewUserRepository(dbtest.New(t)))

	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
	assert.Error(t, store.Save(context.Background(), "ghost", []byte("x")))
}
