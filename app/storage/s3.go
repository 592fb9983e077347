package storage

import (
	"bytes"
	"fmt"

	"yatube/app/logging"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// S3Storage keeps files in a bucket and links to them directly.
type S3Storage struct {
	s3     s3iface.S3API
	bucket string
}

func NewS3Storage(region, bucket string) (*S3Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	return &S3Storage{s3: s3.New(sess), bucket: bucket}, nil
}

func (c *S3Storage) Save(name, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", name)
	}
	logging.Logger.Info("media uploaded", zap.String("bucket", c.bucket), zap.String("key", name))
	return name, nil
}

func (c *S3Storage) Delete(name string) error {
	_, err := c.s3.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(name),
	})
	return errors.Wrapf(err, "deleting %s", name)
}

func (c *S3Storage) URL(name string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", c.bucket, name)
}
