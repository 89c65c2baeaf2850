package ports

import (
	"context"
	"time"
)

// ImageArchive keeps generated images in object storage.
type ImageArchive interface {
	ObjectKey(at time.Time) string
	SaveImage(ctx context.Context, data []byte) (publicURL string, err error)
}
