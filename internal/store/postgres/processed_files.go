package postgres

import (
	"context"
	"fmt"

	"github.com/continuum-dev/continuum/internal/model"
)

// IsProcessed reports whether the processed-files ledger holds path for
// userID with the given content hash. The ingest commands do not consult
// the ledger, so re-running an ingest re-extracts every file.
func (c *Client) IsProcessed(ctx context.Context, userID, path, contentHash string) (bool, error) {
	query := `SELECT content_hash FROM processed_files WHERE path = $1 AND user_id = $2`
	var existingHash string
	err := c.pool.QueryRow(ctx, query, path, userID).Scan(&existingHash)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("postgres: is processed %s: %w", path, err)
	}
	return existingHash == contentHash, nil
}

// MarkProcessed records (or updates, if the file changed) a ledger
// entry for path.
func (c *Client) MarkProcessed(ctx context.Context, f model.ProcessedFile) error {
	query := `
		INSERT INTO processed_files (path, user_id, content_hash, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path, user_id) DO UPDATE SET content_hash = $3, processed_at = $4
	`
	_, err := c.pool.Exec(ctx, query, f.Path, f.UserID, f.ContentHash, f.ProcessedAt)
	if err != nil {
		return fmt.Errorf("postgres: mark processed %s: %w", f.Path, err)
	}
	return nil
}
