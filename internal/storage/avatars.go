package storage

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type AvatarConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// AvatarStore uploads avatar images to S3-compatible object storage
// (MinIO in dev) and hands back a public URL for the users table.
type AvatarStore struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

func NewAvatarStore(ctx context.Context, cfg AvatarConfig) (*AvatarStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))

	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// MinIO serves buckets by path, not virtual host.
		o.UsePathStyle = true
	})

	return &AvatarStore{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// Upload stores one avatar object under a fresh key and returns its URL.
func (s *AvatarStore) Upload(ctx context.Context, userID int64, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}

// GravatarURL builds the default avatar for a fresh signup from the
// account email, per the gravatar addressing scheme.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", sum)
}
