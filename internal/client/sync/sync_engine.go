package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/urpagin/wallsync/internal/client/config"
	"github.com/urpagin/wallsync/internal/sdk"
	"github.com/urpagin/wallsync/internal/utils"
)

const (
	metadataDir      = ".wallsync"
	lockFileName     = "wallsync.lock"
	manifestFileName = "manifest.db"
	tmpDirName       = "tmp"

	transferWorkers = 4
)

// Result aggregates one sync cycle. Partial progress is always preserved:
// per-record failures land in Errors and never abort the other records.
type Result struct {
	Fetched int
	Removed int
	Skipped int
	Failed  int
	Errors  []*RecordError
}

// Converged reports whether the cycle fully matched the remote catalog.
func (r *Result) Converged() bool {
	return r.Failed == 0
}

// Engine runs pull-based sync cycles against a wallsync server. Each client
// owns its mirror directory and manifest exclusively; a flock guards
// against a second concurrent invocation of the same client.
type Engine struct {
	client   *sdk.Client
	manifest *Manifest
	exec     *executor
	dir      string
	flock    *flock.Flock
}

func NewEngine(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metaDir := filepath.Join(cfg.Dir, metadataDir)
	if err := utils.EnsureDir(filepath.Join(metaDir, tmpDirName)); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}

	client, err := sdk.New(cfg.ServerURL, sdk.WithBasicAuth(cfg.User, cfg.Password))
	if err != nil {
		return nil, err
	}

	manifest, err := NewManifest(filepath.Join(metaDir, manifestFileName))
	if err != nil {
		return nil, err
	}

	return &Engine{
		client:   client,
		manifest: manifest,
		dir:      cfg.Dir,
		flock:    flock.New(filepath.Join(metaDir, lockFileName)),
		exec: &executor{
			client:      client,
			dir:         cfg.Dir,
			tmpDir:      filepath.Join(metaDir, tmpDirName),
			manifest:    manifest,
			maxAttempts: defaultMaxAttempts,
		},
	}, nil
}

func (e *Engine) Close() error {
	e.client.Close()
	return e.manifest.Close()
}

// Run executes one sync cycle: fetch the catalog, diff it against local
// state, transfer the delta. Only a failure to list the catalog is fatal.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	locked, err := e.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	defer e.flock.Unlock()

	tstart := time.Now()
	e.exec.cleanTempFiles()

	catalog, err := e.client.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	local, err := e.localState()
	if err != nil {
		return nil, err
	}

	plan := Reconcile(catalog, local)
	result := e.execute(ctx, plan)

	var fetchedBytes int64
	for _, rec := range plan.Fetch {
		fetchedBytes += rec.Size
	}

	slog.Info("sync cycle",
		"took", time.Since(tstart),
		"catalog", len(catalog),
		"fetched", result.Fetched,
		"removed", result.Removed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"transferred", humanize.Bytes(uint64(fetchedBytes)),
	)

	return result, nil
}

// localState is the manifest filtered down to rows whose file actually
// exists. A row without its file (interrupted earlier cycle, out-of-band
// delete) is dropped from the manifest db as well: if the record is still
// in the catalog the reconciler schedules a re-fetch, and if it is gone on
// both sides no dangling row survives the cycle.
func (e *Engine) localState() (map[string]*sdk.ImageRecord, error) {
	state, err := e.manifest.All()
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	for id := range state {
		if !utils.FileExists(filepath.Join(e.dir, id)) {
			slog.Debug("manifest entry missing on disk", "id", id)
			if err := e.manifest.Delete(id); err != nil {
				return nil, fmt.Errorf("drop manifest row %s: %w", id, err)
			}
			delete(state, id)
		}
	}
	return state, nil
}

func (e *Engine) execute(ctx context.Context, plan *Plan) *Result {
	result := &Result{}
	var mu sync.Mutex

	record := func(err error, id string, counter *int) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case err == nil:
			*counter++
		case errors.Is(err, sdk.ErrNotFound):
			// deleted remotely mid-cycle; the next catalog fetch settles it
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, &RecordError{ID: id, Err: err})
			slog.Error("sync record failed", "id", id, "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferWorkers)

	for _, rec := range plan.Fetch {
		rec := rec
		g.Go(func() error {
			record(e.exec.fetchAndStore(gctx, rec), rec.ID, &result.Fetched)
			return nil
		})
	}
	for _, rec := range plan.Remove {
		rec := rec
		g.Go(func() error {
			record(e.exec.removeLocal(gctx, rec), rec.ID, &result.Removed)
			return nil
		})
	}

	g.Wait()
	return result
}

// Verify walks the manifest and re-hashes every mirrored file, reporting
// entries whose content no longer matches. Used by the `verify` command.
func (e *Engine) Verify(ctx context.Context) ([]*RecordError, error) {
	state, err := e.manifest.All()
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	var bad []*RecordError
	for id, rec := range state {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(e.dir, id)
		if !utils.FileExists(path) {
			bad = append(bad, &RecordError{ID: id, Err: os.ErrNotExist})
			continue
		}

		digest, err := utils.FileDigest(path)
		if err != nil {
			bad = append(bad, &RecordError{ID: id, Err: err})
			continue
		}
		if digest != rec.Digest {
			bad = append(bad, &RecordError{ID: id, Err: &IntegrityError{ID: id, Want: rec.Digest, Got: digest}})
		}
	}

	return bad, nil
}
