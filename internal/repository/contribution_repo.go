package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

// ErrCampaignNotAccepting indica que la campaña se cerro o vencio entre la lectura y la escritura.
var ErrCampaignNotAccepting = errors.New("campaign not accepting contributions")

// ErrAmountOutOfRange indica que raised excederia la precision de la columna.
var ErrAmountOutOfRange = errors.New("amount out of numeric range")

type ContributionRepository interface {
	// CreateAndIncrement inserta el aporte y suma el monto a campaigns.raised en una sola transaccion.
	// Si record no es nil, tambien registra la transaccion on-chain asociada.
	CreateAndIncrement(ctx context.Context, contribution domain.Contribution, record *domain.Transaction) (domain.Campaign, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]domain.Contribution, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error)
}

type PgContributionRepository struct {
	pool *pgxpool.Pool
}

func NewPgContributionRepository(pool *pgxpool.Pool) *PgContributionRepository {
	return &PgContributionRepository{pool: pool}
}

func (r *PgContributionRepository) CreateAndIncrement(ctx context.Context, c domain.Contribution, record *domain.Transaction) (domain.Campaign, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Campaign{}, err
	}
	defer tx.Rollback(ctx)

	// El incremento es atomico y solo procede si la campaña sigue abierta.
	incQuery := `
		UPDATE campaigns
		SET raised = raised + $2::numeric, updated_at = $3
		WHERE id = $1 AND status = 'active' AND deadline > $3
		RETURNING ` + campaignColumns
	campaign, err := scanCampaign(tx.QueryRow(ctx, incQuery, c.CampaignID, c.Amount.String(), c.CreatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, ErrCampaignNotAccepting
		}
		if isNumericOverflow(err) {
			return domain.Campaign{}, ErrAmountOutOfRange
		}
		return domain.Campaign{}, err
	}

	const insertQuery = `
		INSERT INTO contributions (id, campaign_id, user_id, amount, tx_hash, message, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertQuery,
		c.ID,
		c.CampaignID,
		c.UserID,
		c.Amount.String(),
		c.TxHash,
		c.Message,
		c.CreatedAt,
	); err != nil {
		return domain.Campaign{}, err
	}

	if record != nil {
		if err := insertTransaction(ctx, tx, *record); err != nil {
			return domain.Campaign{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (r *PgContributionRepository) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]domain.Contribution, error) {
	const query = `
		SELECT id, campaign_id, user_id, amount::text, tx_hash, message, created_at
		FROM contributions
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, campaignID, limitOrDefault(limit))
}

func (r *PgContributionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error) {
	const query = `
		SELECT id, campaign_id, user_id, amount::text, tx_hash, message, created_at
		FROM contributions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limitOrDefault(limit))
}

func (r *PgContributionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Contribution, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Contribution{}
	for rows.Next() {
		var (
			c      domain.Contribution
			amount string
		)
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.UserID, &amount, &c.TxHash, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		if c.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
