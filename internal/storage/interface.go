package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when the requested bucket/key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is an open object body with its metadata.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStorage defines the read operations used to serve CSV sources from a bucket.
type ObjectStorage interface {
	// Open streams an object. Callers must close Body.
	Open(ctx context.Context, bucket, key string) (*Object, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, bucket, key string) (bool, error)
}
