package port

import (
	"context"
	"io"
	"time"
)

// ExportObject is a rendered dataset export ready to be published.
type ExportObject struct {
	Bucket      string
	ProjectID   string
	Filename    string
	Body        io.Reader
	ContentType string
	PublishedAt time.Time
}

// PublishedExport describes where an export landed.
type PublishedExport struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStorage abstracts the cloud object storage that dataset exports are
// published to.
type ObjectStorage interface {
	PublishExport(ctx context.Context, obj ExportObject) (*PublishedExport, error)
	// PresignDownload returns a GET URL that downloads key as filename.
	PresignDownload(ctx context.Context, bucket, key, filename string, expirySeconds int64) (string, error)
}
