package domain

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/ports"
	"github.com/rs/xid"
)

const imageContentType = "image/png"

type imageArchive struct {
	client ports.S3Client
	now    func() time.Time
}

func NewImageArchive(client ports.S3Client) ports.ImageArchive {
	return &imageArchive{client: client, now: time.Now}
}

// ObjectKey returns images/<yyyy-mm-dd>/<xid>.png
func (s *imageArchive) ObjectKey(at time.Time) string {
	return fmt.Sprintf("images/%s/%s.png", at.UTC().Format("2006-01-02"), xid.NewWithTime(at))
}

func (s *imageArchive) SaveImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	key := s.ObjectKey(s.now())
	url, err := s.client.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), imageContentType)
	if err != nil {
		return "", fmt.Errorf("archive image %s: %w", key, err)
	}
	return url, nil
}
