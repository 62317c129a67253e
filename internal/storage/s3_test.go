package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3Store_Put(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, "review-images", "https://cdn.example.com/")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "review-images" &&
			aws.ToString(in.Key) == "reviews/r1/a.jpg" &&
			aws.ToString(in.ContentType) == "image/jpeg" &&
			string(body) == "jpeg-bytes"
	})).Return(&s3.PutObjectOutput{}, nil)

	ref, err := store.Put(context.Background(), "reviews/r1/a.jpg", []byte("jpeg-bytes"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "reviews/r1/a.jpg", ref)
	assert.Equal(t, "https://cdn.example.com/reviews/r1/a.jpg", store.PublicURL(ref))
	client.AssertExpectations(t)
}

func TestS3Store_PutError(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, "b", "https://cdn")

	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := store.Put(context.Background(), "k", []byte("x"), "image/png")
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Store_Delete(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, "b", "https://cdn")

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "reviews/r1/a.jpg"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	assert.NoError(t, store.Delete(context.Background(), "reviews/r1/a.jpg"))
	client.AssertExpectations(t)
}
