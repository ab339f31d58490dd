// Package storage is the gateway to the object store holding uploaded
// document images and synthesized speech.
//
// Uploaded objects get a fresh UUID key that keeps the original file
// extension, and are written publicly readable so clients can fetch them by
// their URL.
package storage

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// ObjectStore is the blob backend behind the Gateway.
type ObjectStore interface {
	// Bucket is the bucket uploads are written to.
	Bucket() string

	Put(ctx context.Context, key string, data []byte, contentType string, public bool) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	SetPublic(ctx context.Context, bucket, key string) error
}

// Fetcher reads stored objects by key. OCR backends that need the raw image
// bytes depend on this instead of the whole Gateway.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Gateway uploads, fetches and publishes objects.
type Gateway struct {
	store ObjectStore
	newID func() string
	log   zerolog.Logger
}

// NewGateway returns a Gateway over store.
func NewGateway(store ObjectStore) *Gateway {
	return &Gateway{
		store: store,
		newID: uuid.NewString,
		log:   logger.WithComponent("storage"),
	}
}

// Bucket returns the bucket uploads are written to.
func (g *Gateway) Bucket() string {
	return g.store.Bucket()
}

// Upload stores data under a generated key that keeps the extension of
// originalName, readable by anyone.
func (g *Gateway) Upload(ctx context.Context, data []byte, originalName string) (*models.StoredObject, error) {
	const op = "Upload"

	if len(data) == 0 {
		return nil, WrapStorageError(op, originalName, ErrEmptyObject)
	}

	key := g.newID()
	ext := Extension(originalName)
	if ext != "" {
		key += "." + ext
	}

	if err := g.store.Put(ctx, key, data, contentType(ext), true); err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Failed to upload object")
		return nil, WrapStorageError(op, key, err)
	}

	g.log.Info().
		Str("key", key).
		Str("original_name", originalName).
		Int("bytes", len(data)).
		Msg("Object uploaded")

	return &models.StoredObject{
		Key:       key,
		Bucket:    g.store.Bucket(),
		PublicURL: g.PublicURL(key),
	}, nil
}

// Fetch returns the content stored under key, or ErrNotFound.
func (g *Gateway) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := g.store.Get(ctx, g.store.Bucket(), key)
	if err != nil {
		return nil, WrapStorageError("Fetch", key, err)
	}
	return data, nil
}

// MakePublic grants public read on the object named by the last two
// segments (bucket, key) of uri.
func (g *Gateway) MakePublic(ctx context.Context, uri string) error {
	const op = "MakePublic"

	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return WrapStorageError(op, uri, err)
	}

	if err := g.store.SetPublic(ctx, bucket, key); err != nil {
		return WrapStorageError(op, key, err)
	}

	g.log.Debug().Str("bucket", bucket).Str("key", key).Msg("Object made public")
	return nil
}

// PublicURL is the public HTTP address of key in the gateway's bucket.
func (g *Gateway) PublicURL(key string) string {
	return fmt.Sprintf("http://%s.s3.amazonaws.com/%s", g.store.Bucket(), key)
}

// Extension returns the part of name after its last '.', or "" when name
// has no extension.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

// ParseObjectURI splits a storage URI such as
// https://s3.us-east-1.amazonaws.com/bucket/key.mp3 into bucket and key.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	parts := strings.Split(uri, "/")
	if len(parts) < 2 {
		return "", "", ErrInvalidURI
	}

	bucket, key = parts[len(parts)-2], parts[len(parts)-1]
	if bucket == "" || key == "" {
		return "", "", ErrInvalidURI
	}
	return bucket, key, nil
}

func contentType(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension("." + strings.ToLower(ext)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
