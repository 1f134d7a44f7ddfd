package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/firelater/authcore/model"
)

var _ model.TenantResolver = (*TenantRepository)(nil)

type TenantRepository struct {
	db *Connection
}

func NewTenantRepository(db *Connection) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Resolve(ctx context.Context, slug string) (model.Tenant, error) {
	var tenant model.Tenant
	query := `SELECT id, slug, name FROM tenants WHERE slug = $1`

	err := r.db.QueryRow(ctx, query, slug).Scan(&tenant.ID, &tenant.Slug, &tenant.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tenant{}, model.ErrNotFound
		}
		return model.Tenant{}, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	return tenant, nil
}
