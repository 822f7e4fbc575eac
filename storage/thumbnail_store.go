package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"

	"github.com/minio/minio-go/v7"
)

// ThumbnailStore is a MinIO-backed read-through cache for re-encoded track
// thumbnails, keyed by source and a hash of the original URL so repeated
// requests for the same artwork never re-fetch or re-encode it.
type ThumbnailStore struct {
	client *MinioClient
}

// NewThumbnailStore wraps an already-connected MinioClient.
func NewThumbnailStore(client *MinioClient) *ThumbnailStore {
	return &ThumbnailStore{client: client}
}

func thumbnailKey(source, url string) string {
	sum := sha1.Sum([]byte(url))
	return fmt.Sprintf("thumbnails/%s/%s.png", source, hex.EncodeToString(sum[:]))
}

// Get fetches a previously cached PNG, reporting a cache miss rather than an
// error when the object simply doesn't exist yet.
func (s *ThumbnailStore) Get(ctx context.Context, source, url string) (image.Image, bool, error) {
	obj, err := s.client.client.GetObject(ctx, s.client.bucketName, thumbnailKey(source, url), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, nil
	}
	defer obj.Close()

	if _, statErr := obj.Stat(); statErr != nil {
		return nil, false, nil
	}

	img, err := png.Decode(obj)
	if err != nil {
		return nil, false, err
	}
	return img, true, nil
}

// Put re-encodes img as PNG and stores it under source/url's cache key.
func (s *ThumbnailStore) Put(ctx context.Context, source, url string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	_, err := s.client.client.PutObject(ctx, s.client.bucketName, thumbnailKey(source, url),
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "image/png"},
	)
	return err
}
