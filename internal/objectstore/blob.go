package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
	"github.com/patrickmn/go-cache"
)

var (
	// ErrKeyPartEmpty indicates that a uid, vid or file name was empty.
	ErrKeyPartEmpty = errors.New("object key part cannot be empty")
)

// BlobClient stores voice audio under {uid}/{vid}/{filename} keys and
// resolves playback URLs for them.
type BlobClient struct {
	store core.ObjectStore
	urls  *cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewBlobClient wraps store. Resolved URLs are reused for urlTTL; a zero
// urlTTL disables reuse.
func NewBlobClient(store core.ObjectStore, urlTTL time.Duration, log *logger.Logger) *BlobClient {
	cleanup := urlTTL * 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	return &BlobClient{
		store: store,
		urls:  cache.New(urlTTL, cleanup),
		ttl:   urlTTL,
		log:   log,
	}
}

// ObjectKey builds the storage key of a file belonging to a voice.
func ObjectKey(uid, vid, filename string) (string, error) {
	if uid == "" || vid == "" || filename == "" {
		return "", fmt.Errorf("%w: uid=%q vid=%q file=%q", ErrKeyPartEmpty, uid, vid, filename)
	}

	return path.Join(uid, vid, filename), nil
}

// UploadFile stores data under {uid}/{vid}/{filename}.
func (b *BlobClient) UploadFile(ctx context.Context, uid, vid, filename string, data []byte) error {
	key, err := ObjectKey(uid, vid, filename)
	if err != nil {
		return err
	}

	err = b.store.Upload(ctx, key, data)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	b.log.Info("Uploaded %s (%d bytes)", key, len(data))

	return nil
}

// GetDownloadURL resolves the playback URL of the object at objectPath.
func (b *BlobClient) GetDownloadURL(ctx context.Context, objectPath string) (string, error) {
	if b.ttl > 0 {
		if cached, ok := b.urls.Get(objectPath); ok {
			if u, isString := cached.(string); isString {
				return u, nil
			}
		}
	}

	u, err := b.store.URL(ctx, objectPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve download url for %s: %w", objectPath, err)
	}

	if b.ttl > 0 {
		b.urls.Set(objectPath, u, b.ttl)
	}

	return u, nil
}

// Fetch downloads the object at objectPath.
func (b *BlobClient) Fetch(ctx context.Context, objectPath string) ([]byte, error) {
	data, err := b.store.Download(ctx, objectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", objectPath, err)
	}

	return data, nil
}
