package store

// ImageRecord describes one stored image. The ID is assigned at upload time
// and never changes; the digest is the hex SHA-256 of the content.
type ImageRecord struct {
	ID     string `db:"id" json:"id"`
	Digest string `db:"digest" json:"digest"`
	Size   int64  `db:"size" json:"size"`
}
