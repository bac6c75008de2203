package sdk

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urpagin/wallsync/internal/db"
	"github.com/urpagin/wallsync/internal/server"
	"github.com/urpagin/wallsync/internal/utils"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	config := &server.Config{
		ImageDir:       filepath.Join(dir, "wallpapers"),
		DBPath:         filepath.Join(dir, "index.db"),
		MaxUploadBytes: 1 << 20,
		UploadRate:     "1000-M",
	}

	database, err := db.NewSqliteDB(db.WithPath(config.DBPath), db.WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc, err := server.NewServices(config, database)
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))

	ts := httptest.NewServer(server.SetupRoutes(config, svc))
	t.Cleanup(ts.Close)
	return ts
}

func TestNew_ValidatesURL(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNoServerURL)

	_, err = New("wallpaper.example.org")
	assert.ErrorIs(t, err, ErrInvalidServerURL)

	c, err := New("https://wallpaper.example.org/")
	require.NoError(t, err)
	assert.Equal(t, "https://wallpaper.example.org", c.BaseURL())
}

func TestClientRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	c, err := New(ts.URL, WithBasicAuth("alice", "secret"), WithTimeout(10*time.Second))
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	// empty catalog
	images, err := c.Catalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)

	// upload
	content := []byte("wallpaper bytes")
	src := filepath.Join(t.TempDir(), "blue.png")
	require.NoError(t, os.WriteFile(src, content, 0o644))

	rec, err := c.Upload(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, utils.Digest(content), rec.Digest)

	// catalog reflects it
	images, err = c.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, rec.ID, images[0].ID)

	// download matches
	dest := filepath.Join(t.TempDir(), "down.png")
	require.NoError(t, c.Download(ctx, rec.ID, dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// delete, then the id is gone
	require.NoError(t, c.Delete(ctx, rec.ID))
	assert.ErrorIs(t, c.Delete(ctx, rec.ID), ErrNotFound)
	assert.ErrorIs(t, c.Download(ctx, rec.ID, dest), ErrNotFound)
	assert.False(t, utils.FileExists(dest))
}

func TestDownload_NotFoundLeavesNoFile(t *testing.T) {
	ts := newTestServer(t)

	c, err := New(ts.URL)
	require.NoError(t, err)
	defer c.Close()

	dest := filepath.Join(t.TempDir(), "ghost.png")
	err = c.Download(context.Background(), "ghost.png", dest)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, utils.FileExists(dest))
}

func TestUpload_MissingLocalFile(t *testing.T) {
	ts := newTestServer(t)

	c, err := New(ts.URL)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
