// Package objectstore provides the blob storage backends used for voice
// segments and synthesized audio, and the client that lays out their keys.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const natsURLScheme = "nats://"

// NatsObjectStore implements the core.ObjectStore interface using NATS JetStream.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	publicBaseURL    string
	store            nats.ObjectStore
}

// NewNats creates and initializes a new NatsObjectStore. When publicBaseURL
// is set, URL resolves objects below it; otherwise it returns nats:// URLs
// that only Download can serve.
func NewNats(jetstreamContext nats.JetStreamContext, bucketName, publicBaseURL string) (*NatsObjectStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Voice audio for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) || errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		publicBaseURL:    strings.TrimRight(publicBaseURL, "/"),
		store:            store,
	}, nil
}

// Download retrieves an object from the NATS object store.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the NATS object store.
func (n *NatsObjectStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    map[string]string{"content-type": contentTypeFor(key)},
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// URL returns the public location of key, or a nats:// URL when no public
// base is configured. The object is not required to exist yet.
func (n *NatsObjectStore) URL(_ context.Context, key string) (string, error) {
	if n.publicBaseURL != "" {
		return n.publicBaseURL + "/" + n.bucket + "/" + key, nil
	}

	return natsURLScheme + n.bucket + "/" + key, nil
}

// KeyFromURL extracts the object key from a nats:// URL produced by URL.
// The second result is false for any other URL.
func KeyFromURL(rawURL string) (string, bool) {
	rest, ok := strings.CutPrefix(rawURL, natsURLScheme)
	if !ok {
		return "", false
	}

	_, key, found := strings.Cut(rest, "/")
	if !found || key == "" {
		return "", false
	}

	return key, true
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(key, ".wav"):
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
