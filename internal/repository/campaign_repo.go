package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) error
	GetByID(ctx context.Context, id string) (domain.Campaign, error)
	List(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error)
	Update(ctx context.Context, campaign domain.Campaign) error
	SetStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type PgCampaignRepository struct {
	pool *pgxpool.Pool
}

func NewPgCampaignRepository(pool *pgxpool.Pool) *PgCampaignRepository {
	return &PgCampaignRepository{pool: pool}
}

const campaignColumns = `id, creator_id, title, description, category, image_url, wallet_address,
	goal::text, raised::text, deadline, status, created_at, updated_at`

func (r *PgCampaignRepository) Create(ctx context.Context, c domain.Campaign) error {
	const query = `
		INSERT INTO campaigns (id, creator_id, title, description, category, image_url, wallet_address,
			goal, raised, deadline, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.CreatorID,
		c.Title,
		c.Description,
		c.Category,
		c.ImageURL,
		c.WalletAddress,
		c.Goal.String(),
		c.Raised.String(),
		c.Deadline,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PgCampaignRepository) GetByID(ctx context.Context, id string) (domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Campaign{}, err
	}
	return c, err
}

func (r *PgCampaignRepository) List(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + campaignColumns + " FROM campaigns")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	args = append(args, limitOrDefault(filter.Limit))
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, max(filter.Offset, 0))
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *PgCampaignRepository) Update(ctx context.Context, c domain.Campaign) error {
	const query = `
		UPDATE campaigns
		SET title = $2, description = $3, category = $4, image_url = $5, wallet_address = $6,
			deadline = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Category,
		c.ImageURL,
		c.WalletAddress,
		c.Deadline,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgCampaignRepository) SetStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	const query = `UPDATE campaigns SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete solo borra campañas sin fondos recaudados.
func (r *PgCampaignRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM campaigns WHERE id = $1 AND raised = 0`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var (
		c            domain.Campaign
		goal, raised string
	)
	if err := row.Scan(
		&c.ID,
		&c.CreatorID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.ImageURL,
		&c.WalletAddress,
		&goal,
		&raised,
		&c.Deadline,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return domain.Campaign{}, err
	}
	var err error
	if c.Goal, err = parseDecimal(goal); err != nil {
		return domain.Campaign{}, err
	}
	if c.Raised, err = parseDecimal(raised); err != nil {
		return domain.Campaign{}, err
	}
	return c, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
