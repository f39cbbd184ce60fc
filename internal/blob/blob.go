// Package blob provides the object storage abstraction used for archived
// roster exports. Semantics mirror a minimal subset of S3 so the S3 adapter
// stays nearly 1:1 while the filesystem adapter emulates them for local use.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // user metadata, small flat key-value
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method  string        // GET|PUT (only GET used internally)
	Expiry  time.Duration // default 15m
	Headers map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the interface archived exports are written through.
type Store interface {
	// Put stores a new blob at key. Fails if the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves the blob contents and metadata.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a blob. Returns (false, nil) when not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs whose key has the provided prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a time-limited GET URL for the key. Drivers may
	// return ErrUnsupported.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	// Driver returns the configured backend driver identifier.
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blob: unsupported operation")

// Settings selects the blob backend. Zero-value fields fall back to the
// ROSTERCORE_BLOB_* environment and then to the fs driver defaults.
type Settings struct {
	Driver Driver
	FSRoot string // directory root when Driver is fs
}

// Open selects a Store implementation using environment variables.
//
//	ROSTERCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	ROSTERCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./rosterblobs)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	return OpenSettings(ctx, Settings{})
}

// OpenSettings selects a Store implementation from explicit settings, filling
// unset fields from the environment variables Open documents.
func OpenSettings(ctx context.Context, settings Settings) (Store, error) {
	driver := settings.Driver
	if driver == "" {
		driver = Driver(os.Getenv("ROSTERCORE_BLOB_DRIVER"))
	}
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		root := settings.FSRoot
		if root == "" {
			root = os.Getenv("ROSTERCORE_BLOB_FS_ROOT")
		}
		return NewFilesystem(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
