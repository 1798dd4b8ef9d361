package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

type PredictionRepository interface {
	Create(ctx context.Context, prediction domain.StockPrediction) error
	GetByID(ctx context.Context, id string) (domain.StockPrediction, error)
	List(ctx context.Context, filter domain.PredictionFilter) ([]domain.StockPrediction, error)
	// ListPending devuelve predicciones sin resultado creadas antes de cutoff, las mas viejas primero.
	ListPending(ctx context.Context, cutoff time.Time, limit int) ([]domain.StockPrediction, error)
	// SaveOutcome escribe el resultado solo si aun no existe; devuelve false si otra corrida se adelanto.
	SaveOutcome(ctx context.Context, id string, outcome domain.PredictionOutcome) (bool, error)
	Stats(ctx context.Context) (domain.PredictionStats, error)
}

type PgPredictionRepository struct {
	pool *pgxpool.Pool
}

func NewPgPredictionRepository(pool *pgxpool.Pool) *PgPredictionRepository {
	return &PgPredictionRepository{pool: pool}
}

const predictionColumns = `id, user_id, session_id, symbol, initial_price, predicted_price, predicted_direction,
	confidence, rationale, technical_factors::text, fundamental_factors::text, sentiment_factors::text,
	actual_price, actual_direction, accuracy, verified_at, created_at`

func (r *PgPredictionRepository) Create(ctx context.Context, p domain.StockPrediction) error {
	const query = `
		INSERT INTO stock_predictions (id, user_id, session_id, symbol, initial_price, predicted_price,
			predicted_direction, confidence, rationale, technical_factors, fundamental_factors,
			sentiment_factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12::jsonb, $13)
	`
	technical, err := marshalFactors(p.TechnicalFactors)
	if err != nil {
		return err
	}
	fundamental, err := marshalFactors(p.FundamentalFactors)
	if err != nil {
		return err
	}
	sentiment, err := marshalFactors(p.SentimentFactors)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.SessionID,
		p.Symbol,
		p.InitialPrice,
		p.PredictedPrice,
		p.PredictedDirection,
		p.Confidence,
		p.Rationale,
		technical,
		fundamental,
		sentiment,
		p.CreatedAt,
	)
	return err
}

func (r *PgPredictionRepository) GetByID(ctx context.Context, id string) (domain.StockPrediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM stock_predictions WHERE id = $1`
	p, err := scanPrediction(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockPrediction{}, err
	}
	return p, err
}

func (r *PgPredictionRepository) List(ctx context.Context, filter domain.PredictionFilter) ([]domain.StockPrediction, error) {
	var (
		where []string
		args  []any
	)
	if filter.Symbol != "" {
		args = append(args, strings.ToUpper(filter.Symbol))
		where = append(where, fmt.Sprintf("symbol = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Verified != nil {
		if *filter.Verified {
			where = append(where, "actual_price IS NOT NULL")
		} else {
			where = append(where, "actual_price IS NULL")
		}
	}

	query := `SELECT ` + predictionColumns + ` FROM stock_predictions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limitOrDefault(filter.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return r.query(ctx, query, args...)
}

func (r *PgPredictionRepository) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]domain.StockPrediction, error) {
	query := `SELECT ` + predictionColumns + `
		FROM stock_predictions
		WHERE actual_price IS NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`
	if limit <= 0 {
		limit = 500
	}
	return r.query(ctx, query, cutoff, limit)
}

func (r *PgPredictionRepository) SaveOutcome(ctx context.Context, id string, o domain.PredictionOutcome) (bool, error) {
	const query = `
		UPDATE stock_predictions
		SET actual_price = $2, actual_direction = $3, accuracy = $4, verified_at = $5
		WHERE id = $1 AND actual_price IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, id, o.ActualPrice, o.ActualDirection, o.Accuracy, o.VerifiedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgPredictionRepository) Stats(ctx context.Context) (domain.PredictionStats, error) {
	const query = `
		SELECT count(*),
			count(actual_price),
			COALESCE(avg(accuracy), 0),
			count(*) FILTER (WHERE actual_direction = predicted_direction)
		FROM stock_predictions
	`
	var s domain.PredictionStats
	err := r.pool.QueryRow(ctx, query).Scan(&s.Total, &s.Verified, &s.AverageAccuracy, &s.DirectionHits)
	return s, err
}

func (r *PgPredictionRepository) query(ctx context.Context, query string, args ...any) ([]domain.StockPrediction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StockPrediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanPrediction(row pgx.Row) (domain.StockPrediction, error) {
	var (
		p                                 domain.StockPrediction
		technical, fundamental, sentiment string
		actualPrice, accuracy             sql.NullFloat64
		actualDirection                   *string
		verifiedAt                        *time.Time
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.SessionID,
		&p.Symbol,
		&p.InitialPrice,
		&p.PredictedPrice,
		&p.PredictedDirection,
		&p.Confidence,
		&p.Rationale,
		&technical,
		&fundamental,
		&sentiment,
		&actualPrice,
		&actualDirection,
		&accuracy,
		&verifiedAt,
		&p.CreatedAt,
	); err != nil {
		return domain.StockPrediction{}, err
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{technical, &p.TechnicalFactors},
		{fundamental, &p.FundamentalFactors},
		{sentiment, &p.SentimentFactors},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return domain.StockPrediction{}, fmt.Errorf("unmarshal factors: %w", err)
		}
	}

	if actualPrice.Valid {
		o := &domain.PredictionOutcome{ActualPrice: actualPrice.Float64}
		if actualDirection != nil {
			o.ActualDirection = *actualDirection
		}
		if accuracy.Valid {
			o.Accuracy = accuracy.Float64
		}
		if verifiedAt != nil {
			o.VerifiedAt = *verifiedAt
		}
		p.Outcome = o
	}
	return p, nil
}

func marshalFactors(factors []string) (string, error) {
	if factors == nil {
		factors = []string{}
	}
	b, err := json.Marshal(factors)
	if err != nil {
		return "", fmt.Errorf("marshal factors: %w", err)
	}
	return string(b), nil
}
