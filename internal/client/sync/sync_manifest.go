package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/urpagin/wallsync/internal/db"
	"github.com/urpagin/wallsync/internal/sdk"
)

const manifestSchema = `
CREATE TABLE IF NOT EXISTS manifest (
	id TEXT PRIMARY KEY,
	digest TEXT NOT NULL,
	size INTEGER NOT NULL
);
`

// Manifest is the client's persisted record of what it believes is mirrored
// locally. It is only ever written after the corresponding on-disk effect
// has committed, so it trails disk truth and never leads it.
type Manifest struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewManifest creates or opens a manifest backed by a SQLite database.
func NewManifest(dbPath string) (*Manifest, error) {
	database, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	if _, err := database.Exec(manifestSchema); err != nil {
		database.Close()
		return nil, fmt.Errorf("initialize manifest schema: %w", err)
	}

	return &Manifest{db: database}, nil
}

// Close closes the underlying database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Get retrieves one record, or nil if the id is not present.
func (m *Manifest) Get(id string) (*sdk.ImageRecord, error) {
	var rec sdk.ImageRecord
	err := m.db.QueryRowx("SELECT id, digest, size FROM manifest WHERE id = ?", id).
		Scan(&rec.ID, &rec.Digest, &rec.Size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query manifest id %s: %w", id, err)
	}
	return &rec, nil
}

// Set inserts or updates one record.
func (m *Manifest) Set(rec *sdk.ImageRecord) error {
	if rec == nil {
		return errors.New("cannot set nil record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.db.Exec(
		"INSERT OR REPLACE INTO manifest (id, digest, size) VALUES (?, ?, ?)",
		rec.ID, rec.Digest, rec.Size,
	)
	if err != nil {
		return fmt.Errorf("set manifest record: %w", err)
	}
	return nil
}

// Delete removes one record. Removing an absent id is not an error; the
// manifest is already consistent in that case.
func (m *Manifest) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.db.Exec("DELETE FROM manifest WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete manifest id %s: %w", id, err)
	}
	return nil
}

// All retrieves the entire manifest keyed by id.
func (m *Manifest) All() (map[string]*sdk.ImageRecord, error) {
	rows, err := m.db.Queryx("SELECT id, digest, size FROM manifest")
	if err != nil {
		return nil, fmt.Errorf("query manifest: %w", err)
	}
	defer rows.Close()

	state := make(map[string]*sdk.ImageRecord)
	for rows.Next() {
		var rec sdk.ImageRecord
		if err := rows.Scan(&rec.ID, &rec.Digest, &rec.Size); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		state[rec.ID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest: %w", err)
	}
	return state, nil
}

// Count returns the number of records in the manifest.
func (m *Manifest) Count() (int, error) {
	var count int
	if err := m.db.Get(&count, "SELECT COUNT(*) FROM manifest"); err != nil {
		return 0, fmt.Errorf("count manifest entries: %w", err)
	}
	return count, nil
}
