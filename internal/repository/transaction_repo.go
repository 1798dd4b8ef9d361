package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

// ErrDuplicateTxHash indica que el hash ya fue registrado.
var ErrDuplicateTxHash = errors.New("transaction hash already recorded")

type TransactionRepository interface {
	Create(ctx context.Context, record domain.Transaction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

// execer cubre pgxpool.Pool y pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PgTransactionRepository) Create(ctx context.Context, record domain.Transaction) error {
	return insertTransaction(ctx, r.pool, record)
}

func insertTransaction(ctx context.Context, db execer, t domain.Transaction) error {
	const query = `
		INSERT INTO transactions (id, user_id, campaign_id, tx_hash, amount, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
	`
	var campaignID any
	if t.CampaignID != "" {
		campaignID = t.CampaignID
	}
	_, err := db.Exec(ctx, query,
		t.ID,
		t.UserID,
		campaignID,
		t.TxHash,
		t.Amount.String(),
		t.Kind,
		t.Status,
		t.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateTxHash
	}
	return err
}

func (r *PgTransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	const query = `
		SELECT id, user_id, campaign_id, tx_hash, amount::text, kind, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limitOrDefault(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Transaction{}
	for rows.Next() {
		var (
			t          domain.Transaction
			campaignID *string
			amount     string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &campaignID, &t.TxHash, &amount, &t.Kind, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		if campaignID != nil {
			t.CampaignID = *campaignID
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
