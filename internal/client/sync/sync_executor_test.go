package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urpagin/wallsync/internal/sdk"
	"github.com/urpagin/wallsync/internal/utils"
)

// newTestExecutor wires an executor against an arbitrary handler so tests
// can serve whatever bytes they like for a given record.
func newTestExecutor(t *testing.T, handler http.Handler) (*executor, string) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := sdk.New(ts.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	dir := t.TempDir()
	tmpDir := filepath.Join(dir, metadataDir, tmpDirName)
	require.NoError(t, utils.EnsureDir(tmpDir))

	manifest, err := NewManifest(filepath.Join(dir, metadataDir, manifestFileName))
	require.NoError(t, err)
	t.Cleanup(func() { manifest.Close() })

	return &executor{
		client:      client,
		dir:         dir,
		tmpDir:      tmpDir,
		manifest:    manifest,
		maxAttempts: 1,
	}, dir
}

func serveBytes(content []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(content)
	})
}

func TestFetchAndStore_VerifiesDigest(t *testing.T) {
	content := []byte("honest bytes")
	exec, dir := newTestExecutor(t, serveBytes(content))

	rec := &sdk.ImageRecord{ID: "wall.png", Digest: utils.Digest(content), Size: int64(len(content))}
	require.NoError(t, exec.fetchAndStore(context.Background(), rec))

	got, err := os.ReadFile(filepath.Join(dir, "wall.png"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	stored, err := exec.manifest.Get("wall.png")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Digest, stored.Digest)
}

func TestFetchAndStore_RejectsLyingServer(t *testing.T) {
	// the server advertises one digest but serves different bytes
	exec, dir := newTestExecutor(t, serveBytes([]byte("tampered bytes")))

	rec := &sdk.ImageRecord{ID: "wall.png", Digest: utils.Digest([]byte("expected bytes")), Size: 14}
	err := exec.fetchAndStore(context.Background(), rec)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "wall.png", integrity.ID)
	assert.Equal(t, rec.Digest, integrity.Want)

	// nothing visible: no mirror file, no manifest row, no leftover temp
	assert.False(t, utils.FileExists(filepath.Join(dir, "wall.png")))
	stored, err := exec.manifest.Get("wall.png")
	require.NoError(t, err)
	assert.Nil(t, stored)

	entries, err := os.ReadDir(exec.tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchAndStore_BadFetchLeavesGoodCopyAlone(t *testing.T) {
	exec, dir := newTestExecutor(t, serveBytes([]byte("tampered bytes")))

	good := []byte("good copy")
	goodPath := filepath.Join(dir, "wall.png")
	require.NoError(t, os.WriteFile(goodPath, good, 0o644))
	require.NoError(t, exec.manifest.Set(&sdk.ImageRecord{
		ID: "wall.png", Digest: utils.Digest(good), Size: int64(len(good)),
	}))

	rec := &sdk.ImageRecord{ID: "wall.png", Digest: utils.Digest([]byte("newer bytes")), Size: 11}
	err := exec.fetchAndStore(context.Background(), rec)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)

	got, err := os.ReadFile(goodPath)
	require.NoError(t, err)
	assert.Equal(t, good, got, "failed fetch must not clobber the existing file")

	stored, err := exec.manifest.Get("wall.png")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, utils.Digest(good), stored.Digest, "manifest keeps the old row")
}

func TestFetchAndStore_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"E_IMAGE_NOT_FOUND","error":"image not found"}`))
	})
	exec, _ := newTestExecutor(t, handler)
	exec.maxAttempts = 3

	rec := &sdk.ImageRecord{ID: "ghost.png", Digest: "feedface", Size: 4}
	err := exec.fetchAndStore(context.Background(), rec)
	assert.ErrorIs(t, err, sdk.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestFetchAndStore_RetriesTransientFailure(t *testing.T) {
	content := []byte("eventually fine")
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(content)
	})
	exec, dir := newTestExecutor(t, handler)
	exec.maxAttempts = 3

	rec := &sdk.ImageRecord{ID: "flaky.png", Digest: utils.Digest(content), Size: int64(len(content))}
	require.NoError(t, exec.fetchAndStore(context.Background(), rec))
	assert.True(t, utils.FileExists(filepath.Join(dir, "flaky.png")))
}

func TestFetchAndStore_RejectsPathShapedIDs(t *testing.T) {
	content := []byte("planted")
	exec, dir := newTestExecutor(t, serveBytes(content))

	for _, id := range []string{
		"../../outside/planted.png",
		"nested/planted.png",
		`..\planted.png`,
		"..",
		".wallsync",
		"",
	} {
		rec := &sdk.ImageRecord{ID: id, Digest: utils.Digest(content), Size: int64(len(content))}
		err := exec.fetchAndStore(context.Background(), rec)
		assert.ErrorIs(t, err, ErrUnsafeRecordID, "id %q", id)
	}

	// nothing escaped the mirror directory
	assert.False(t, utils.FileExists(filepath.Join(dir, "..", "..", "outside", "planted.png")))
	assert.False(t, utils.FileExists(filepath.Join(dir, "nested", "planted.png")))

	count, err := exec.manifest.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRemoveLocal_RejectsPathShapedIDs(t *testing.T) {
	exec, dir := newTestExecutor(t, serveBytes(nil))

	victim := filepath.Join(dir, "..", "victim.png")
	require.NoError(t, os.WriteFile(victim, []byte("keep out"), 0o644))

	rec := &sdk.ImageRecord{ID: "../victim.png", Digest: "d", Size: 8}
	err := exec.removeLocal(context.Background(), rec)
	assert.ErrorIs(t, err, ErrUnsafeRecordID)
	assert.True(t, utils.FileExists(victim))
}

func TestRemoveLocal_DeletesFileThenManifest(t *testing.T) {
	exec, dir := newTestExecutor(t, serveBytes(nil))

	content := []byte("doomed")
	path := filepath.Join(dir, "old.png")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	rec := &sdk.ImageRecord{ID: "old.png", Digest: utils.Digest(content), Size: int64(len(content))}
	require.NoError(t, exec.manifest.Set(rec))

	require.NoError(t, exec.removeLocal(context.Background(), rec))

	assert.False(t, utils.FileExists(path))
	stored, err := exec.manifest.Get("old.png")
	require.NoError(t, err)
	assert.Nil(t, stored)

	// a second remove of the same record is harmless
	require.NoError(t, exec.removeLocal(context.Background(), rec))
}

func TestCleanTempFiles(t *testing.T) {
	exec, _ := newTestExecutor(t, serveBytes(nil))

	stale := filepath.Join(exec.tmpDir, "crashed.png.part")
	require.NoError(t, os.WriteFile(stale, []byte("half a download"), 0o644))

	exec.cleanTempFiles()

	assert.False(t, utils.FileExists(stale))
}
