package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Uploader stores backups in an S3 bucket under an optional key prefix.
type S3Uploader struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Uploader builds an uploader using the default AWS credential chain.
func NewS3Uploader(region, bucket, prefix string) (*S3Uploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("backup: create aws session: %w", err)
	}
	return &S3Uploader{client: s3.New(sess), bucket: bucket, prefix: prefix}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("backup: stat %s: %w", filePath, err)
	}

	objectKey := path.Join(u.prefix, key)
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(objectKey),
		Body:          f,
		ContentType:   aws.String("application/vnd.sqlite3"),
		ContentLength: aws.Int64(info.Size()),
		Metadata: map[string]*string{
			"uploaded-at": aws.String(time.Now().Format(time.RFC3339)),
		},
	})
	if err != nil {
		return fmt.Errorf("backup: put s3://%s/%s: %w", u.bucket, objectKey, err)
	}
	return nil
}
