package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	slog.Info("connected to postgres", "host", cfg.Host, "db", cfg.Name)
	return db, nil
}

func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "ledger_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) CreateIntent(ctx context.Context, in *domain.PaymentIntent) error {
	if in.Status == "" {
		in.Status = domain.IntentCreated
	}
	query := `INSERT INTO payment_intents (gateway_order_id, user_id, cart_id, receipt, amount_minor, currency, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	_, err := r.db.ExecContext(ctx, query,
		in.GatewayOrderID,
		in.UserID,
		in.CartID,
		in.Receipt,
		in.AmountMinor,
		in.Currency,
		in.Status,
		in.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: intent %s already exists", domain.ErrInvalidArgument, in.GatewayOrderID)
		}
		return domain.Persistence("insert intent", err)
	}
	return nil
}

func (r *PostgresRepository) GetIntent(ctx context.Context, gatewayOrderID string) (*domain.PaymentIntent, error) {
	query := `SELECT gateway_order_id, user_id, cart_id, receipt, amount_minor, currency, status,
	                 gateway_payment_id, order_id, created_at, updated_at
	          FROM payment_intents WHERE gateway_order_id = $1`

	var in domain.PaymentIntent
	err := r.db.QueryRowContext(ctx, query, gatewayOrderID).Scan(
		&in.GatewayOrderID,
		&in.UserID,
		&in.CartID,
		&in.Receipt,
		&in.AmountMinor,
		&in.Currency,
		&in.Status,
		&in.GatewayPaymentID,
		&in.OrderID,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, domain.Persistence("query intent", err)
	}
	return &in, nil
}

func (r *PostgresRepository) MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID, orderID string) error {
	query := `UPDATE payment_intents
	          SET status = $2, gateway_payment_id = $3, order_id = $4, updated_at = NOW()
	          WHERE gateway_order_id = $1 AND status = $5`

	res, err := r.db.ExecContext(ctx, query, gatewayOrderID, domain.IntentCaptured, gatewayPaymentID, orderID, domain.IntentCreated)
	if err != nil {
		return domain.Persistence("capture intent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("capture intent", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM payment_intents WHERE gateway_order_id = $1)`, gatewayOrderID).Scan(&exists)
	if err != nil {
		return domain.Persistence("query intent", err)
	}
	if !exists {
		return domain.ErrPaymentNotFound
	}
	return domain.ErrPaymentAlreadyProcessed
}

// RecordReconciliation inserts the case and flags the intent in one transaction.
func (r *PostgresRepository) RecordReconciliation(ctx context.Context, c *domain.ReconciliationCase) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin reconciliation", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO payment_reconciliations
	           (id, gateway_order_id, gateway_payment_id, user_id, amount_minor, currency, reason, detail, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.ExecContext(ctx, insert,
		c.ID,
		c.GatewayOrderID,
		c.GatewayPaymentID,
		c.UserID,
		c.AmountMinor,
		c.Currency,
		c.Reason,
		c.Detail,
		c.CreatedAt)
	if err != nil {
		return domain.Persistence("insert reconciliation", err)
	}

	flag := `UPDATE payment_intents
	         SET status = $2, gateway_payment_id = $3, updated_at = NOW()
	         WHERE gateway_order_id = $1 AND status <> $4`
	_, err = tx.ExecContext(ctx, flag, c.GatewayOrderID, domain.IntentReconciliationRequired, c.GatewayPaymentID, domain.IntentCaptured)
	if err != nil {
		return domain.Persistence("flag intent", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit reconciliation", err)
	}
	return nil
}

func (r *PostgresRepository) ListOpenReconciliations(ctx context.Context, page domain.PageRequest) ([]domain.ReconciliationCase, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_reconciliations WHERE resolved_at IS NULL`).Scan(&total)
	if err != nil {
		return nil, 0, domain.Persistence("count reconciliations", err)
	}

	query := `SELECT id, gateway_order_id, gateway_payment_id, user_id, amount_minor, currency, reason, detail, created_at
	          FROM payment_reconciliations
	          WHERE resolved_at IS NULL
	          ORDER BY created_at
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, page.Limit, page.Skip())
	if err != nil {
		return nil, 0, domain.Persistence("query reconciliations", err)
	}
	defer rows.Close()

	cases := []domain.ReconciliationCase{}
	for rows.Next() {
		var c domain.ReconciliationCase
		if err := rows.Scan(
			&c.ID,
			&c.GatewayOrderID,
			&c.GatewayPaymentID,
			&c.UserID,
			&c.AmountMinor,
			&c.Currency,
			&c.Reason,
			&c.Detail,
			&c.CreatedAt,
		); err != nil {
			return nil, 0, domain.Persistence("scan reconciliation", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.Persistence("iterate reconciliations", err)
	}
	return cases, total, nil
}

func (r *PostgresRepository) ResolveReconciliation(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("reconciliation case %w", domain.ErrNotFound)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_reconciliations SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL`, id)
	if err != nil {
		return domain.Persistence("resolve reconciliation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("resolve reconciliation", err)
	}
	if n == 0 {
		return fmt.Errorf("reconciliation case %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) ExpireStaleIntents(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_intents SET status = $1, updated_at = NOW() WHERE status = $2 AND created_at < $3`,
		domain.IntentExpired, domain.IntentCreated, before)
	if err != nil {
		return 0, domain.Persistence("expire intents", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.Persistence("expire intents", err)
	}
	return n, nil
}
