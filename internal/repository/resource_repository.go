// Package repository contains the MySQL persistence behind the registry
// and the history recorder.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// ResourceRepo persists resource definitions. It implements the
// registry's Store interface: the registry stays the in-memory source of
// truth and writes through on every mutation.
//
// Expected schema:
//
//	CREATE TABLE resources (
//	    id          VARCHAR(16)  PRIMARY KEY,
//	    name        VARCHAR(64)  NOT NULL,
//	    address     VARCHAR(64)  NOT NULL DEFAULT '',
//	    icon        VARCHAR(10)  NOT NULL DEFAULT '',
//	    description VARCHAR(500) NOT NULL DEFAULT '',
//	    attributes  JSON         NULL,
//	    created_at  DATETIME     NOT NULL,
//	    created_by  VARCHAR(64)  NOT NULL DEFAULT ''
//	);
type ResourceRepo struct {
	db *sql.DB
}

func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

// Save inserts or replaces a resource row.
func (r *ResourceRepo) Save(ctx context.Context, res model.Resource) error {
	var attrs []byte
	if len(res.Attributes) > 0 {
		b, err := json.Marshal(res.Attributes)
		if err != nil {
			return err
		}
		attrs = b
	}
	const q = `INSERT INTO resources (id, name, address, icon, description, attributes, created_at, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               name = VALUES(name), address = VALUES(address), icon = VALUES(icon),
	               description = VALUES(description), attributes = VALUES(attributes)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.Name, res.Address, res.Icon, res.Description, attrs, res.CreatedAt.UTC(), res.CreatedBy)
	return err
}

// Delete removes a resource row. Deleting an absent row is not an error;
// the in-memory registry has already decided the record exists.
func (r *ResourceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	return err
}

// LoadAll returns every stored resource, used to seed the registry at
// startup.
func (r *ResourceRepo) LoadAll(ctx context.Context) ([]model.Resource, error) {
	const q = `SELECT id, name, address, icon, description, attributes, created_at, created_by
	           FROM resources ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Resource
	for rows.Next() {
		var (
			res   model.Resource
			attrs sql.NullString
		)
		if err := rows.Scan(&res.ID, &res.Name, &res.Address, &res.Icon, &res.Description,
			&attrs, &res.CreatedAt, &res.CreatedBy); err != nil {
			return nil, err
		}
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &res.Attributes); err != nil {
				return nil, err
			}
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
