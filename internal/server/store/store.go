package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/urpagin/wallsync/internal/utils"
)

const (
	tempPrefix        = ".upload-"
	maxRecordIDLength = 255
)

// Store is the server's authoritative image collection: content on the
// filesystem, metadata in a SQLite index. All mutations for one id are
// serialized; different ids proceed independently.
type Store struct {
	dir   string
	index *storeIndex
	locks *keyedMutex
}

func New(dir string, db *sqlx.DB) (*Store, error) {
	resolved, err := utils.ResolvePath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve image dir %q: %w", dir, err)
	}

	if err := utils.EnsureDir(resolved); err != nil {
		return nil, fmt.Errorf("create image dir %q: %w", resolved, err)
	}

	index, err := newStoreIndex(db)
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:   resolved,
		index: index,
		locks: newKeyedMutex(),
	}, nil
}

// Dir returns the directory holding the image files.
func (s *Store) Dir() string {
	return s.dir
}

// Start reconciles the index with the files actually on disk. Files added
// out of band get hashed and indexed; rows whose file vanished are dropped.
func (s *Store) Start(ctx context.Context) error {
	tstart := time.Now()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read image dir: %w", err)
	}

	onDisk := make(map[string]struct{}, len(entries))
	var added int
	var bytesHashed int64

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		onDisk[name] = struct{}{}

		if _, ok := s.index.Get(name); ok {
			continue
		}

		path := filepath.Join(s.dir, name)
		digest, err := utils.FileDigest(path)
		if err != nil {
			slog.Warn("reindex skipping unreadable file", "file", name, "error", err)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("reindex skipping file", "file", name, "error", err)
			continue
		}

		if err := s.index.Set(&ImageRecord{ID: name, Digest: digest, Size: info.Size()}); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
		added++
		bytesHashed += info.Size()
	}

	// drop index rows whose file is gone
	recs, err := s.index.List()
	if err != nil {
		return err
	}
	var dropped int
	for _, rec := range recs {
		if _, ok := onDisk[rec.ID]; !ok {
			if err := s.index.Remove(rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("drop stale index row %s: %w", rec.ID, err)
			}
			dropped++
		}
	}

	slog.Info("store reindex",
		"files", len(onDisk),
		"added", added,
		"dropped", dropped,
		"hashed", humanize.Bytes(uint64(bytesHashed)),
		"took", time.Since(tstart),
	)
	return nil
}

// Shutdown releases the index connection.
func (s *Store) Shutdown(ctx context.Context) error {
	return s.index.Close()
}

// Put streams content into the store and publishes it under a freshly
// minted id. The record only becomes visible to List after the file is
// fully written, fsynced and renamed into place.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (*ImageRecord, error) {
	id, err := newRecordID(name)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return nil, wrapIOErr(fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		cleanup()
		return nil, wrapIOErr(fmt.Errorf("write content: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, wrapIOErr(fmt.Errorf("sync content: %w", err))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, wrapIOErr(fmt.Errorf("close content: %w", err))
	}

	rec := &ImageRecord{
		ID:     id,
		Digest: hex.EncodeToString(hash.Sum(nil)),
		Size:   size,
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if err := os.Rename(tmpPath, filepath.Join(s.dir, id)); err != nil {
		os.Remove(tmpPath)
		return nil, wrapIOErr(fmt.Errorf("publish %s: %w", id, err))
	}

	if err := s.index.Set(rec); err != nil {
		// roll the file back so list and disk stay consistent
		os.Remove(filepath.Join(s.dir, id))
		return nil, fmt.Errorf("index %s: %w", id, err)
	}

	slog.Info("store put", "id", rec.ID, "digest", rec.Digest[:12], "size", humanize.Bytes(uint64(rec.Size)))
	return rec, nil
}

// Delete removes a record and its bytes. Returns ErrNotFound for an unknown
// id, so deleting twice fails cleanly the second time.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if _, ok := s.index.Get(id); !ok {
		return ErrNotFound
	}

	// remove bytes first: a crash here leaves an index row that the next
	// reindex drops, never a file without a record
	if err := os.Remove(filepath.Join(s.dir, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return wrapIOErr(fmt.Errorf("remove %s: %w", id, err))
	}

	if err := s.index.Remove(id); err != nil {
		return err
	}

	slog.Info("store delete", "id", id)
	return nil
}

// List returns the current catalog. Fresh on every call, reflecting all
// commits that completed before it.
func (s *Store) List(ctx context.Context) ([]*ImageRecord, error) {
	return s.index.List()
}

// Open returns a reader over one record's content. ErrNotFound covers both
// an unknown id and a file deleted between index lookup and open.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, *ImageRecord, error) {
	rec, ok := s.index.Get(id)
	if !ok {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, wrapIOErr(fmt.Errorf("open %s: %w", id, err))
	}

	return f, rec, nil
}

// newRecordID mints an id from the uploaded filename: sanitized stem,
// a uuid, and the lowercased extension. e.g. "sunset_peak-5f0e...-b2.jpg"
func newRecordID(name string) (string, error) {
	if !utils.IsImageFilename(name) {
		return "", fmt.Errorf("unsupported image name %q", name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	stem := utils.SanitizeStem(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if stem == "" {
		stem = "image"
	}

	id := fmt.Sprintf("%s-%s%s", stem, uuid.NewString(), ext)
	if len(id) > maxRecordIDLength {
		keep := maxRecordIDLength - len(id) + len(stem)
		id = fmt.Sprintf("%s-%s%s", stem[:keep], uuid.NewString(), ext)
	}
	return id, nil
}

func wrapIOErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", ErrStorageFull, err)
	}
	return err
}
