package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rostercore/internal/blob"
	"rostercore/pkg/domain"
)

// Archiver writes rendered export bundles to a blob store. Every run gets a
// unique key prefix so archives are immutable.
type Archiver struct {
	store blob.Store
	now   func() time.Time
}

// NewArchiver wraps a blob store. A nil clock defaults to time.Now.
func NewArchiver(store blob.Store, clock func() time.Time) *Archiver {
	if clock == nil {
		clock = time.Now
	}
	return &Archiver{store: store, now: clock}
}

// ArchiveResult identifies a stored export bundle.
type ArchiveResult struct {
	Prefix    string      `json:"prefix"`
	Artifacts []blob.Info `json:"artifacts"`
	CreatedAt time.Time   `json:"created_at"`
}

// Archive renders the snapshot (entity CSVs plus the full JSON state) and
// stores the bundle under exports/<timestamp>-<uuid>/.
func (a *Archiver) Archive(ctx context.Context, snap domain.Snapshot) (ArchiveResult, error) {
	files, err := CSVFiles(snap)
	if err != nil {
		return ArchiveResult{}, err
	}
	stateFile, err := SnapshotJSON(snap)
	if err != nil {
		return ArchiveResult{}, err
	}
	files = append(files, stateFile)

	now := a.now().UTC()
	prefix := fmt.Sprintf("exports/%s-%s/", now.Format("20060102T150405Z"), uuid.NewString())

	result := ArchiveResult{Prefix: prefix, CreatedAt: now}
	for _, file := range files {
		info, err := a.store.Put(ctx, prefix+file.Name, bytes.NewReader(file.Body), blob.PutOptions{
			ContentType: file.ContentType,
			Metadata:    map[string]string{"bundle": prefix},
		})
		if err != nil {
			return ArchiveResult{}, fmt.Errorf("archive %s: %w", file.Name, err)
		}
		result.Artifacts = append(result.Artifacts, info)
	}
	return result, nil
}

// List returns artifacts previously stored by Archive, all bundles when
// prefix is empty.
func (a *Archiver) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	if prefix == "" {
		prefix = "exports/"
	}
	return a.store.List(ctx, prefix)
}
