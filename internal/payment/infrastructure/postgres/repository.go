package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stayhub/payment-service/internal/payment/application"
	"github.com/stayhub/payment-service/internal/payment/domain"
)

const paymentColumns = `id, amount, status, confirmed_at, authorization_code,
	qr_code, copy_paste, user_id, reservation_id, method_id, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Payment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO payments
		(id, amount, status, user_id, reservation_id, method_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Amount, int(p.Status), p.UserID, p.ReservationID, p.MethodID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return application.ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateFields(ctx context.Context, id string, u application.PaymentUpdate) (int64, error) {
	sets, args := updateClauses(u)
	if len(args) == 0 {
		return 0, nil
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE payments SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	ct, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Payment{}, application.ErrPaymentNotFound
	}
	return p, err
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SettleWithOutbox applies a terminal transition and records the settlement
// event in the same transaction. Only PENDING rows transition, so a replayed
// or conflicting late event is a no-op and emits nothing.
func (r *Repository) SettleWithOutbox(ctx context.Context, id string, u application.PaymentUpdate, eventType string, payload []byte, headers map[string]string, traceparent string) (int64, error) {
	sets, args := updateClauses(u)
	if len(args) == 0 {
		return 0, nil
	}
	args = append(args, id, int(domain.StatusPending))
	sql := fmt.Sprintf(`UPDATE payments SET %s WHERE id = $%d AND status = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	rows := ct.RowsAffected()
	if rows > 0 {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
			"payment", id, eventType, payload, headers, traceparent)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return rows, nil
}

func (r *Repository) CancelStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE payments SET status = $1, updated_at = now()
		WHERE id IN (
			SELECT id FROM payments
			WHERE status = $2 AND created_at < now() - make_interval(secs => $3)
			ORDER BY created_at
			LIMIT $4
		) AND status = $2
		RETURNING id
	`, int(domain.StatusCanceled), int(domain.StatusPending), olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func updateClauses(u application.PaymentUpdate) ([]string, []any) {
	sets := []string{"updated_at = now()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Status != nil {
		add("status", int(*u.Status))
	}
	if u.AuthorizationCode != nil {
		add("authorization_code", *u.AuthorizationCode)
	}
	if u.ConfirmedAt != nil {
		add("confirmed_at", *u.ConfirmedAt)
	}
	if u.QRCode != nil {
		add("qr_code", *u.QRCode)
	}
	if u.CopyPaste != nil {
		add("copy_paste", *u.CopyPaste)
	}
	return sets, args
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	var status int
	err := row.Scan(&p.ID, &p.Amount, &status, &p.ConfirmedAt, &p.AuthorizationCode,
		&p.QRCode, &p.CopyPaste, &p.UserID, &p.ReservationID, &p.MethodID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Payment{}, err
	}
	p.Status = domain.Status(status)
	return p, nil
}
