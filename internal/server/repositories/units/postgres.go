// Package units provides the PostgreSQL-backed repository of course units.
package units

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studyportal/internal/dbx"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every unit ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Unit, error) {
	query := `SELECT id, name, year_id, created_at FROM units ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select units: %w", err)
	}
	defer rows.Close()

	var result []*models.Unit
	for rows.Next() {
		var item models.Unit
		if err := rows.Scan(&item.ID, &item.Name, &item.YearID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert inserts the unit or renames/moves the existing one with the same id.
func (r *PostgresRepository) Upsert(ctx context.Context, unit *models.Unit) error {
	query := `
		INSERT INTO units (id, name, year_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, year_id = EXCLUDED.year_id;
	`
	res, err := r.db.ExecContext(ctx, query, unit.ID, unit.Name, unit.YearID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
