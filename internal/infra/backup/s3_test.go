package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 captures PutObject calls; other S3API methods are not implemented.
type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Uploader_Upload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "birthday_bot_yearly_2024.db")
	if err := os.WriteFile(path, []byte("snapshot"), 0o600); err != nil {
		t.Fatal(err)
	}

	fake := &fakeS3{}
	u := &S3Uploader{client: fake, bucket: "bot-backups", prefix: "prod"}
	if err := u.Upload(context.Background(), "yearly/birthday_bot_yearly_2024.db", path); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if got := aws.StringValue(fake.input.Bucket); got != "bot-backups" {
		t.Errorf("bucket = %q", got)
	}
	if got := aws.StringValue(fake.input.Key); got != "prod/yearly/birthday_bot_yearly_2024.db" {
		t.Errorf("key = %q", got)
	}
	if aws.Int64Value(fake.input.ContentLength) != int64(len("snapshot")) || string(fake.body) != "snapshot" {
		t.Errorf("body = %q, length %d", fake.body, aws.Int64Value(fake.input.ContentLength))
	}
}

func TestS3Uploader_Errors(t *testing.T) {
	t.Parallel()

	u := &S3Uploader{client: &fakeS3{err: errors.New("AccessDenied")}, bucket: "b"}
	if err := u.Upload(context.Background(), "k", filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "x.db")
	_ = os.WriteFile(path, []byte("x"), 0o600)
	if err := u.Upload(context.Background(), "k", path); err == nil {
		t.Error("S3 error should be returned")
	}
}
