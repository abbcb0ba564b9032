package tenantinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/tenant"
	"github.com/jmoiron/sqlx"
)

// PostgresDirectory reads the tenants table of the platform database.
type PostgresDirectory struct {
	db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

var _ tenant.Directory = (*PostgresDirectory)(nil)

type tenantRow struct {
	ID        string `db:"id"`
	Subdomain string `db:"subdomain"`
	Name      string `db:"name"`
	DBHost    string `db:"db_host"`
	DBPort    int    `db:"db_port"`
	DBName    string `db:"db_name"`
	Active    bool   `db:"active"`
}

func (r *PostgresDirectory) FindBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	query := `
		SELECT id, subdomain, name, db_host, db_port, db_name, active
		FROM tenants
		WHERE subdomain = $1`

	var row tenantRow
	if err := r.db.GetContext(ctx, &row, query, subdomain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound(subdomain)
		}
		return nil, errx.Wrap(err, "failed to query tenant directory", errx.TypeInternal)
	}

	return &tenant.Tenant{
		ID:        kernel.NewTenantID(row.ID),
		Subdomain: row.Subdomain,
		Name:      row.Name,
		Location:  tenant.Location{Host: row.DBHost, Port: row.DBPort, Name: row.DBName},
		Active:    row.Active,
	}, nil
}
