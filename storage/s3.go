package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/parqedit/parqedit/utils"
	"github.com/rs/zerolog"
)

// S3Store reads and writes s3://bucket/key paths. Reads are retried with
// exponential backoff; writes are not, the caller still holds the bytes.
type S3Store struct{}

func splitS3Path(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 path %q", path)
	}
	if utils.S3_BUCKET_NAME != "" && parts[0] != utils.S3_BUCKET_NAME {
		logger.Debug().Str("bucket", parts[0]).Msg("path addresses a non-default bucket")
	}
	return parts[0], parts[1], nil
}

func newSession() (*session.Session, error) {
	s3Config := &aws.Config{
		Region:      aws.String(utils.AWS_DEFAULT_REGION),
		Credentials: credentials.NewEnvCredentials(),
	}
	if utils.S3_ENDPOINT != "" {
		s3Config.Endpoint = aws.String(utils.S3_ENDPOINT)
	}
	return session.NewSession(s3Config)
}

func (s *S3Store) Read(ctx context.Context, path string) ([]byte, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	bucket, key, err := splitS3Path(path)
	if err != nil {
		return nil, err
	}

	s3Session, err := newSession()
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}

	downloader := s3manager.NewDownloader(s3Session)

	var buf *aws.WriteAtBuffer
	st := time.Now()
	err = backoff.Retry(func() error {
		buf = &aws.WriteAtBuffer{}
		_, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
	if err != nil {
		return nil, fmt.Errorf("error downloading from s3: %w", err)
	}

	d := time.Since(st)
	logger.Debug().Str("path", path).Int("bytes", len(buf.Bytes())).Str("durationHuman", d.String()).Msg("downloaded file from s3")
	return buf.Bytes(), nil
}

func (s *S3Store) Write(ctx context.Context, path string, b []byte) error {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	bucket, key, err := splitS3Path(path)
	if err != nil {
		return err
	}

	s3Session, err := newSession()
	if err != nil {
		return fmt.Errorf("error making new session: %w", err)
	}

	uploader := s3manager.NewUploader(s3Session)

	st := time.Now()
	_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return fmt.Errorf("error uploading to s3: %w", err)
	}

	d := time.Since(st)
	logger.Debug().Str("path", path).Int("bytes", len(b)).Str("durationHuman", d.String()).Msg("uploaded file to s3")
	return nil
}
