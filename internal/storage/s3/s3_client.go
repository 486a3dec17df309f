// Package s3 publishes dataset exports to Amazon S3 or an S3-compatible
// endpoint.
package s3

import (
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"refinener/internal/config"
	"refinener/internal/port"
)

type s3Client struct {
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewS3Client creates a new S3-backed ObjectStorage implementation.
func NewS3Client(ctx context.Context, cfg *config.S3Config) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		// MinIO and other S3-compatible stores need path-style addressing.
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &s3Client{
		presigner: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = 8 << 20
		}),
	}, nil
}

// ExportKey is the object key an export of projectID published at the
// given time is stored under. Each publish gets its own key so same-day
// exports do not overwrite each other.
func ExportKey(projectID string, publishedAt time.Time, filename string) string {
	return path.Join("exports", projectID, publishedAt.UTC().Format("20060102T150405Z"), filename)
}

// attachment builds a Content-Disposition that saves the object as filename.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func (c *s3Client) PublishExport(ctx context.Context, obj port.ExportObject) (*port.PublishedExport, error) {
	key := ExportKey(obj.ProjectID, obj.PublishedAt, obj.Filename)
	result, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(obj.Bucket),
		Key:                aws.String(key),
		Body:               obj.Body,
		ContentType:        aws.String(obj.ContentType),
		ContentDisposition: aws.String(attachment(obj.Filename)),
		Metadata:           map[string]string{"project-id": obj.ProjectID},
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload %s: %w", key, err)
	}

	etag := ""
	if result.ETag != nil {
		etag = *result.ETag
	}

	return &port.PublishedExport{
		Key:      key,
		Location: result.Location,
		ETag:     etag,
	}, nil
}

func (c *s3Client) PresignDownload(ctx context.Context, bucket, key, filename string, expirySeconds int64) (string, error) {
	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(attachment(filename)),
	}, s3.WithPresignExpires(time.Duration(expirySeconds)*time.Second))
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return result.URL, nil
}
