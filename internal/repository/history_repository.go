package repository

import (
	"context"
	"database/sql"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// HistoryRepo is the durable history.Recorder. Rows are append-only;
// the only delete path is Purge, used when the operator opted into
// purging history together with the resource.
//
// Expected schema:
//
//	CREATE TABLE history (
//	    id          BIGINT AUTO_INCREMENT PRIMARY KEY,
//	    resource_id VARCHAR(16)  NOT NULL,
//	    holder_id   VARCHAR(64)  NOT NULL,
//	    purpose     VARCHAR(200) NOT NULL DEFAULT '',
//	    started_at  DATETIME     NOT NULL,
//	    ended_at    DATETIME     NOT NULL,
//	    KEY idx_history_resource (resource_id, started_at)
//	);
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Record(ctx context.Context, e model.HistoryEntry) error {
	const q = `INSERT INTO history (resource_id, holder_id, purpose, started_at, ended_at)
	           VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		e.ResourceID, e.HolderID, e.Purpose, e.StartedAt.UTC(), e.EndedAt.UTC())
	return err
}

func (r *HistoryRepo) ListRecent(ctx context.Context, resourceID string, limit int) ([]model.HistoryEntry, error) {
	q := `SELECT resource_id, holder_id, purpose, started_at, ended_at
	      FROM history WHERE resource_id = ? ORDER BY started_at DESC`
	args := []any{resourceID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ResourceID, &e.HolderID, &e.Purpose, &e.StartedAt, &e.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HistoryRepo) Purge(ctx context.Context, resourceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE resource_id = ?`, resourceID)
	return err
}
