package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageName(t *testing.T) {
	name := ImageName("posts", ".PNG")
	assert.True(t, strings.HasPrefix(name, "posts/"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotEqual(t, name, ImageName("posts", ".png"))

	assert.True(t, strings.HasSuffix(ImageName("posts", "gif"), ".gif"))
	assert.Equal(t, -1, strings.IndexByte(strings.TrimPrefix(ImageName("posts", ""), "posts/"), '.'))
}

func TestLocalStorage(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	s, err := NewLocalStorage(root, "/media/")
	require.NoError(t, err)

	name, err := s.Save("posts/a.gif", "image/gif", []byte("GIF89a"))
	require.NoError(t, err)
	assert.Equal(t, "posts/a.gif", name)

	data, err := os.ReadFile(filepath.Join(root, "posts", "a.gif"))
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
	assert.Equal(t, "/media/posts/a.gif", s.URL(name))

	require.NoError(t, s.Delete(name))
	_, err = os.Stat(filepath.Join(root, "posts", "a.gif"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(name))
}

func TestLocalStorageStaysInRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "media")
	s, err := NewLocalStorage(root, "/media")
	require.NoError(t, err)

	_, err = s.Save("../../escape.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)

	_, err = s.Save("", "text/plain", []byte("x"))
	assert.Error(t, err)
}

type fakeS3 struct {
	s3iface.S3API
	put     *s3.PutObjectInput
	deleted string
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	f.deleted = aws.StringValue(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{}
	s := &S3Storage{s3: fake, bucket: "media"}

	name, err := s.Save("posts/a.png", "image/png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "posts/a.png", name)
	assert.Equal(t, "media", aws.StringValue(fake.put.Bucket))
	assert.Equal(t, "image/png", aws.StringValue(fake.put.ContentType))
	assert.Equal(t, int64(3), aws.Int64Value(fake.put.ContentLength))

	assert.Equal(t, "https://media.s3.amazonaws.com/posts/a.png", s.URL(name))

	require.NoError(t, s.Delete(name))
	assert.Equal(t, "posts/a.png", fake.deleted)
}
