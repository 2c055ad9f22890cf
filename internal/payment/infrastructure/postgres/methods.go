package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stayhub/payment-service/internal/payment/application"
	"github.com/stayhub/payment-service/internal/payment/domain"
)

const methodColumns = `id, type, active, created_at, updated_at`

// MethodRepository serves payment-method reference data. Inactive methods
// are invisible to every lookup.
type MethodRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewMethodRepository(log *slog.Logger, pool *pgxpool.Pool) *MethodRepository {
	return &MethodRepository{log: log, pool: pool}
}

func (r *MethodRepository) FindByID(ctx context.Context, id string) (domain.Method, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+methodColumns+` FROM payment_methods WHERE id = $1 AND active`, id)
	return scanMethod(row)
}

func (r *MethodRepository) FindByType(ctx context.Context, t domain.MethodType) (domain.Method, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+methodColumns+` FROM payment_methods WHERE type = $1 AND active LIMIT 1`, int(t))
	return scanMethod(row)
}

func (r *MethodRepository) FindAllActive(ctx context.Context) ([]domain.Method, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+methodColumns+` FROM payment_methods WHERE active ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []domain.Method
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func scanMethod(row pgx.Row) (domain.Method, error) {
	var m domain.Method
	var t int
	err := row.Scan(&m.ID, &t, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Method{}, application.ErrMethodNotFound
	}
	if err != nil {
		return domain.Method{}, err
	}
	m.Type = domain.MethodType(t)
	return m, nil
}
