package storage

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "recipe-images"

func newFakeS3(t *testing.T) *s3.Client {
	t.Helper()
	backend := s3mem.New()
	require.NoError(t, backend.CreateBucket(testBucket))

	ts := httptest.NewServer(gofakes3.New(backend).Server())
	t.Cleanup(ts.Close)

	return s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(ts.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	})
}

func TestS3StoreRoundTrip(t *testing.T) {
	client := newFakeS3(t)
	store := NewS3Store(client, testBucket, "recipes/")
	ctx := context.Background()

	name, err := store.Save(ctx, "soup.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_soup.jpg"))

	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(testBucket),
		Key:    aws.String("recipes/" + name),
	})
	require.NoError(t, err)

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(ctx, name))
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreRejectsDisallowedType(t *testing.T) {
	store := NewS3Store(newFakeS3(t), testBucket, "")

	_, err := store.Save(context.Background(), "doc.pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, ErrDisallowedType)
}
