package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

// StatsRepository resuelve los contadores agregados del panel de administracion.
type StatsRepository interface {
	Totals(ctx context.Context) (domain.DashboardStats, error)
}

type PgStatsRepository struct {
	pool *pgxpool.Pool
}

func NewPgStatsRepository(pool *pgxpool.Pool) *PgStatsRepository {
	return &PgStatsRepository{pool: pool}
}

func (r *PgStatsRepository) Totals(ctx context.Context) (domain.DashboardStats, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM campaigns),
			(SELECT count(*) FROM campaigns WHERE status = 'active'),
			(SELECT count(*) FROM contributions),
			(SELECT COALESCE(sum(raised), 0)::text FROM campaigns)
	`
	var (
		s     domain.DashboardStats
		total string
	)
	if err := r.pool.QueryRow(ctx, query).Scan(
		&s.Users,
		&s.Campaigns,
		&s.ActiveCampaigns,
		&s.Contributions,
		&total,
	); err != nil {
		return domain.DashboardStats{}, err
	}
	var err error
	if s.TotalRaised, err = parseDecimal(total); err != nil {
		return domain.DashboardStats{}, err
	}
	return s, nil
}
