package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urpagin/wallsync/internal/sdk"
	"github.com/urpagin/wallsync/internal/utils"
)

const (
	defaultMaxAttempts = 3
	retryBaseWait      = 500 * time.Millisecond
)

// executor performs the byte transfers a reconcile plan calls for. Every
// visible effect follows the same order: disk first, manifest second.
type executor struct {
	client      *sdk.Client
	dir         string
	tmpDir      string
	manifest    *Manifest
	maxAttempts int
}

// fetchAndStore downloads one record into the mirror directory. The digest
// is verified on the staged temp file before anything visible changes; only
// after the rename commits does the manifest learn about the record.
// Returns sdk.ErrNotFound when the record vanished server-side mid-cycle.
func (e *executor) fetchAndStore(ctx context.Context, rec *sdk.ImageRecord) error {
	if !validRecordID(rec.ID) {
		return fmt.Errorf("%w: %q", ErrUnsafeRecordID, rec.ID)
	}

	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * retryBaseWait):
			}
		}

		err := e.fetchOnce(ctx, rec)
		if err == nil {
			return nil
		}
		if errors.Is(err, sdk.ErrNotFound) || errors.Is(err, context.Canceled) {
			// deleted between catalog list and fetch, or we are shutting
			// down; neither is worth another attempt
			return err
		}

		lastErr = err
		slog.Warn("fetch attempt failed", "id", rec.ID, "attempt", attempt, "error", err)
	}

	return fmt.Errorf("fetch %s after %d attempts: %w", rec.ID, e.maxAttempts, lastErr)
}

func (e *executor) fetchOnce(ctx context.Context, rec *sdk.ImageRecord) error {
	tmpPath := filepath.Join(e.tmpDir, rec.ID+".part")
	defer os.Remove(tmpPath)

	if err := e.client.Download(ctx, rec.ID, tmpPath); err != nil {
		return err
	}

	digest, err := utils.FileDigest(tmpPath)
	if err != nil {
		return fmt.Errorf("hash download: %w", err)
	}
	if digest != rec.Digest {
		return &IntegrityError{ID: rec.ID, Want: rec.Digest, Got: digest}
	}

	if err := utils.MoveFileAtomic(tmpPath, filepath.Join(e.dir, rec.ID)); err != nil {
		return err
	}

	if err := e.manifest.Set(rec); err != nil {
		return fmt.Errorf("record fetch in manifest: %w", err)
	}

	slog.Debug("fetched", "id", rec.ID, "size", rec.Size)
	return nil
}

// removeLocal deletes one record's file and then its manifest row. A file
// that is already gone still counts as success; disk and manifest agree
// once the row is dropped.
func (e *executor) removeLocal(ctx context.Context, rec *sdk.ImageRecord) error {
	if !validRecordID(rec.ID) {
		return fmt.Errorf("%w: %q", ErrUnsafeRecordID, rec.ID)
	}

	path := filepath.Join(e.dir, rec.ID)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", rec.ID, err)
	}

	if err := e.manifest.Delete(rec.ID); err != nil {
		return fmt.Errorf("record removal in manifest: %w", err)
	}

	slog.Debug("removed", "id", rec.ID)
	return nil
}

// validRecordID accepts only ids that map to a plain file directly inside
// the mirror directory. Dotted names are reserved for local metadata.
func validRecordID(id string) bool {
	return id != "" &&
		!strings.HasPrefix(id, ".") &&
		!strings.ContainsAny(id, `/\`) &&
		filepath.IsLocal(id)
}

// cleanTempFiles drops leftover .part files from an interrupted cycle.
func (e *executor) cleanTempFiles() {
	entries, err := os.ReadDir(e.tmpDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			os.Remove(filepath.Join(e.tmpDir, entry.Name()))
		}
	}
}
