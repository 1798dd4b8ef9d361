package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crowdfund-advisor/internal/domain"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session domain.ChatSession) error
	GetByID(ctx context.Context, id string) (domain.ChatSession, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ChatSessionSummary, error)
	// AppendMessages agrega mensajes al final del historial con un unico UPDATE.
	AppendMessages(ctx context.Context, id, category string, messages []domain.ChatMessage, updatedAt time.Time) error
	DeleteByOwner(ctx context.Context, id, userID string) error
}

type PgChatSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatSessionRepository(pool *pgxpool.Pool) *PgChatSessionRepository {
	return &PgChatSessionRepository{pool: pool}
}

func (r *PgChatSessionRepository) Create(ctx context.Context, s domain.ChatSession) error {
	const query = `
		INSERT INTO chat_sessions (id, user_id, title, category, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`
	msgs := s.Messages
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Title,
		s.Category,
		string(payload),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *PgChatSessionRepository) GetByID(ctx context.Context, id string) (domain.ChatSession, error) {
	const query = `
		SELECT id, user_id, title, category, messages::text, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1
	`
	var (
		s   domain.ChatSession
		raw string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Title,
		&s.Category,
		&raw,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChatSession{}, err
	}
	if err != nil {
		return domain.ChatSession{}, err
	}
	if err := json.Unmarshal([]byte(raw), &s.Messages); err != nil {
		return domain.ChatSession{}, fmt.Errorf("unmarshal messages: %w", err)
	}
	return s, nil
}

func (r *PgChatSessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ChatSessionSummary, error) {
	const query = `
		SELECT id, title, category, jsonb_array_length(messages), created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limitOrDefault(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ChatSessionSummary{}
	for rows.Next() {
		var s domain.ChatSessionSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Category, &s.MessageCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgChatSessionRepository) AppendMessages(ctx context.Context, id, category string, messages []domain.ChatMessage, updatedAt time.Time) error {
	// Una sesion general pasa a "stock" si algun turno menciono un simbolo; nunca al reves.
	const query = `
		UPDATE chat_sessions
		SET messages = messages || $2::jsonb,
			category = CASE WHEN $3 = 'stock' THEN 'stock' ELSE category END,
			updated_at = $4
		WHERE id = $1
	`
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, id, string(payload), category, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgChatSessionRepository) DeleteByOwner(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
