// Package years provides the PostgreSQL-backed repository of academic years.
package years

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every year ordered by name, without units.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Year, error) {
	query := `SELECT id, name, created_at FROM years ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select years: %w", err)
	}
	defer rows.Close()

	var result []*models.Year
	for rows.Next() {
		var item models.Year
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert creates the year called name unless it already exists and returns
// the stored row either way.
func (r *PostgresRepository) Upsert(ctx context.Context, name string) (*models.Year, error) {
	query := `
		INSERT INTO years (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`

	y := &models.Year{}
	if err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&y.ID, &y.Name, &y.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to upsert year: %w", err)
	}
	return y, nil
}
