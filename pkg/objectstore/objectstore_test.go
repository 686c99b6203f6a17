package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPutJSON(t *testing.T) {
	putter := &fakePutter{}
	client := NewWithPutter(putter, "achievements", "https://storage.example.com/achievements")

	url, err := client.PutJSON(context.Background(), "registry/1.json", map[string]any{"name": "Session"})

	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/achievements/registry/1.json", url)
	assert.Equal(t, "achievements", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "registry/1.json", aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	assert.JSONEq(t, `{"name":"Session"}`, string(putter.body))
}

func TestPutJSON_UploadError(t *testing.T) {
	client := NewWithPutter(&fakePutter{err: errors.New("access denied")}, "b", "https://x")

	_, err := client.PutJSON(context.Background(), "k", struct{}{})
	assert.ErrorContains(t, err, "access denied")
}

func TestPutJSON_EncodeError(t *testing.T) {
	putter := &fakePutter{}
	client := NewWithPutter(putter, "b", "https://x")

	_, err := client.PutJSON(context.Background(), "k", make(chan int))
	assert.Error(t, err)
	assert.Nil(t, putter.input)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	client, err := New(Config{BucketName: "b", Endpoint: "https://minio.local/", AccessKeyID: "a", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/b/k.json", client.URL("k.json"))

	client, err = New(Config{BucketName: "b", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.json", client.URL("k.json"))
}
