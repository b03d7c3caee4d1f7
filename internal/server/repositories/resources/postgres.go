// Package resources provides the PostgreSQL-backed repository of study
// resources.
package resources

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/common"
	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

const (
	selectAllDownloadable = `
		SELECT r.id, r.title, r.file_url, r.file_type, r.unit_id, u.name, r.created_at, r.updated_at
		FROM resources r
		JOIN units u ON u.id = r.unit_id
		WHERE r.file_type <> $1
		ORDER BY u.name, u.id, r.created_at, r.id
	`
	selectUnitDownloadable = `
		SELECT r.id, r.title, r.file_url, r.file_type, r.unit_id, u.name, r.created_at, r.updated_at
		FROM resources r
		JOIN units u ON u.id = r.unit_id
		WHERE r.file_type <> $1 AND r.unit_id = $2
		ORDER BY r.created_at, r.id
	`
)

// PostgresRepository implements resource storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListDownloadable returns non-video resources joined with their unit name.
// Across all units the order is unit name, unit id, creation time, id; within
// a unit it is creation time, id.
func (r *PostgresRepository) ListDownloadable(ctx context.Context, unitID string) ([]*models.Resource, error) {
	query, args := selectAllDownloadable, []any{common.CategoryYouTube}
	if unitID != "" {
		query, args = selectUnitDownloadable, []any{common.CategoryYouTube, unitID}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select resources: %w", err)
	}
	defer rows.Close()

	var result []*models.Resource
	for rows.Next() {
		var item models.Resource
		if err := rows.Scan(
			&item.ID, &item.Title, &item.FileURL, &item.FileType,
			&item.UnitID, &item.UnitName, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert inserts a resource or updates the existing row with the same id.
func (r *PostgresRepository) Upsert(ctx context.Context, res *models.Resource) error {
	query := `
		INSERT INTO resources (id, title, file_url, file_type, unit_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			title = EXCLUDED.title,
			file_url = EXCLUDED.file_url,
			file_type = EXCLUDED.file_type,
			unit_id = EXCLUDED.unit_id,
			updated_at = now();
	`
	result, err := r.db.ExecContext(ctx, query, res.ID, res.Title, res.FileURL, res.FileType, res.UnitID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
