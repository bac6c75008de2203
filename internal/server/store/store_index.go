package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS images (
	id TEXT PRIMARY KEY,
	digest TEXT NOT NULL,
	size INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_images_digest ON images(digest);
`

// storeIndex provides access to the image metadata stored in SQLite
type storeIndex struct {
	db *sqlx.DB
}

// newStoreIndex creates a new index using an existing database connection
func newStoreIndex(db *sqlx.DB) (*storeIndex, error) {
	idx := &storeIndex{db: db}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize index: %w", err)
	}

	return idx, nil
}

// Close releases resources used by the index
func (si *storeIndex) Close() error {
	return si.db.Close()
}

// Get retrieves a record by id
func (si *storeIndex) Get(id string) (*ImageRecord, bool) {
	var rec ImageRecord
	err := si.db.Get(&rec, "SELECT id, digest, size FROM images WHERE id = ?", id)
	if err != nil {
		return nil, false
	}

	return &rec, true
}

// Set adds or updates a record in the index
func (si *storeIndex) Set(rec *ImageRecord) error {
	_, err := si.db.Exec(
		`INSERT OR REPLACE INTO images (id, digest, size) VALUES (?, ?, ?)`,
		rec.ID, rec.Digest, rec.Size,
	)
	return err
}

// Remove deletes a record from the index. Returns ErrNotFound if the id is
// unknown so a second delete surfaces as such, not as a silent no-op.
func (si *storeIndex) Remove(id string) error {
	res, err := si.db.Exec("DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all records in the index
func (si *storeIndex) List() ([]*ImageRecord, error) {
	var recs []*ImageRecord
	err := si.db.Select(&recs, "SELECT id, digest, size FROM images ORDER BY id")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return recs, nil
}

// Count returns the number of records in the index
func (si *storeIndex) Count() (int, error) {
	var count int
	if err := si.db.Get(&count, "SELECT COUNT(*) FROM images"); err != nil {
		return 0, err
	}
	return count, nil
}
