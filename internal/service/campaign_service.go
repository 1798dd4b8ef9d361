package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/repository"
)

// Montos en columnas NUMERIC(20,8): 12 digitos enteros y 8 decimales.
const amountScale = 8

var maxAmount = decimal.New(1, 12)

var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCampaignClosed     = errors.New("campaign is not accepting contributions")
	ErrCampaignHasFunds   = errors.New("campaign already raised funds")
	ErrInvalidCampaign    = errors.New("invalid campaign")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDeadlineInPast     = errors.New("deadline must be in the future")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateTxHash    = errors.New("transaction hash already recorded")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Actor identifica a quien ejecuta la operacion.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// CampaignService aplica las reglas de negocio de campañas.
type CampaignService struct {
	logger    *zap.Logger
	campaigns repository.CampaignRepository
	now       func() time.Time
}

func NewCampaignService(logger *zap.Logger, campaigns repository.CampaignRepository) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		logger:    logger,
		campaigns: campaigns,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateCampaignInput struct {
	Title         string
	Description   string
	Category      string
	ImageURL      string
	WalletAddress string
	Goal          decimal.Decimal
	Deadline      time.Time
}

// UpdateCampaignInput: los campos nil no se modifican.
type UpdateCampaignInput struct {
	Title         *string
	Description   *string
	Category      *string
	ImageURL      *string
	WalletAddress *string
	Deadline      *time.Time
}

func (s *CampaignService) Create(ctx context.Context, actor Actor, in CreateCampaignInput) (domain.Campaign, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Campaign{}, fmt.Errorf("%w: title is required", ErrInvalidCampaign)
	}
	if err := checkAmount(in.Goal); err != nil {
		return domain.Campaign{}, fmt.Errorf("%w: goal: %v", ErrInvalidCampaign, err)
	}
	now := s.now()
	if !in.Deadline.After(now) {
		return domain.Campaign{}, ErrDeadlineInPast
	}

	campaign := domain.Campaign{
		ID:            uuid.NewString(),
		CreatorID:     actor.UserID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.ToLower(strings.TrimSpace(in.Category)),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Goal:          in.Goal,
		Raised:        decimal.Zero,
		Deadline:      in.Deadline.UTC(),
		Status:        domain.CampaignStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return domain.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	s.logger.Info("campaign created", zap.String("campaign_id", campaign.ID), zap.String("creator_id", actor.UserID))
	return campaign, nil
}

func (s *CampaignService) Get(ctx context.Context, id string) (domain.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, ErrCampaignNotFound
		}
		return domain.Campaign{}, err
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, filter domain.CampaignFilter) ([]domain.Campaign, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.campaigns.List(ctx, filter)
}

func (s *CampaignService) Update(ctx context.Context, actor Actor, id string, in UpdateCampaignInput) (domain.Campaign, error) {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return domain.Campaign{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.Campaign{}, fmt.Errorf("%w: title is required", ErrInvalidCampaign)
		}
		c.Title = title
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		c.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.ImageURL != nil {
		c.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.WalletAddress != nil {
		c.WalletAddress = strings.TrimSpace(*in.WalletAddress)
	}
	now := s.now()
	if in.Deadline != nil {
		if !in.Deadline.After(now) {
			return domain.Campaign{}, ErrDeadlineInPast
		}
		c.Deadline = in.Deadline.UTC()
	}
	c.UpdatedAt = now

	if err := s.campaigns.Update(ctx, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, ErrCampaignNotFound
		}
		return domain.Campaign{}, fmt.Errorf("update campaign: %w", err)
	}
	return c, nil
}

func (s *CampaignService) Close(ctx context.Context, actor Actor, id string) (domain.Campaign, error) {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return domain.Campaign{}, err
	}
	if c.Status == domain.CampaignStatusClosed {
		return c, nil
	}
	now := s.now()
	if err := s.campaigns.SetStatus(ctx, c.ID, domain.CampaignStatusClosed, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Campaign{}, ErrCampaignNotFound
		}
		return domain.Campaign{}, fmt.Errorf("close campaign: %w", err)
	}
	c.Status = domain.CampaignStatusClosed
	c.UpdatedAt = now
	return c, nil
}

// Delete solo procede si la campaña no recaudo nada.
func (s *CampaignService) Delete(ctx context.Context, actor Actor, id string) error {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return err
	}
	if !c.Raised.IsZero() {
		return ErrCampaignHasFunds
	}
	if err := s.campaigns.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// entro un aporte entre la lectura y el borrado
			return ErrCampaignHasFunds
		}
		return fmt.Errorf("delete campaign: %w", err)
	}
	s.logger.Info("campaign deleted", zap.String("campaign_id", c.ID), zap.String("actor_id", actor.UserID))
	return nil
}

func (s *CampaignService) authorized(ctx context.Context, actor Actor, id string) (domain.Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}
	if c.CreatorID != actor.UserID && !actor.IsAdmin() {
		return domain.Campaign{}, ErrForbidden
	}
	return c, nil
}

// checkAmount rechaza montos que Postgres redondearia a cero o no podria guardar.
func checkAmount(d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	case !d.Equal(d.Truncate(amountScale)):
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, amountScale)
	case d.GreaterThanOrEqual(maxAmount):
		return fmt.Errorf("%w: must be below %s", ErrInvalidAmount, maxAmount.String())
	}
	return nil
}
