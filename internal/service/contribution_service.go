package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/email"
	"crowdfund-advisor/internal/repository"
)

const maxContributionMessageRunes = 500

// ContributionService registra aportes y mantiene campaigns.raised consistente.
type ContributionService struct {
	logger        *zap.Logger
	campaigns     *CampaignService
	contributions repository.ContributionRepository
	transactions  repository.TransactionRepository
	users         repository.UserRepository
	emailSender   email.Sender
	now           func() time.Time
}

func NewContributionService(
	logger *zap.Logger,
	campaigns *CampaignService,
	contributions repository.ContributionRepository,
	transactions repository.TransactionRepository,
	users repository.UserRepository,
	emailSender email.Sender,
) *ContributionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributionService{
		logger:        logger,
		campaigns:     campaigns,
		contributions: contributions,
		transactions:  transactions,
		users:         users,
		emailSender:   emailSender,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type ContributeInput struct {
	CampaignID string
	Amount     decimal.Decimal
	TxHash     string
	Message    string
}

type ContributionResult struct {
	Contribution domain.Contribution `json:"contribution"`
	Campaign     domain.Campaign     `json:"campaign"`
}

// Contribute inserta el aporte y suma al total en una unica transaccion de base de datos.
func (s *ContributionService) Contribute(ctx context.Context, actor Actor, in ContributeInput) (ContributionResult, error) {
	if err := checkAmount(in.Amount); err != nil {
		return ContributionResult{}, err
	}
	campaign, err := s.campaigns.Get(ctx, in.CampaignID)
	if err != nil {
		return ContributionResult{}, err
	}
	if campaign.Raised.Add(in.Amount).GreaterThanOrEqual(maxAmount) {
		return ContributionResult{}, fmt.Errorf("%w: campaign total would overflow", ErrInvalidAmount)
	}
	now := s.now()
	if !campaign.AcceptsContributions(now) {
		return ContributionResult{}, ErrCampaignClosed
	}

	contribution := domain.Contribution{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		UserID:     actor.UserID,
		Amount:     in.Amount,
		TxHash:     strings.TrimSpace(in.TxHash),
		Message:    truncateRunes(strings.TrimSpace(in.Message), maxContributionMessageRunes),
		CreatedAt:  now,
	}

	var record *domain.Transaction
	if contribution.TxHash != "" {
		record = &domain.Transaction{
			ID:         uuid.NewString(),
			UserID:     actor.UserID,
			CampaignID: campaign.ID,
			TxHash:     contribution.TxHash,
			Amount:     in.Amount,
			Kind:       domain.TransactionKindContribution,
			Status:     domain.TransactionStatusConfirmed,
			CreatedAt:  now,
		}
	}

	updated, err := s.contributions.CreateAndIncrement(ctx, contribution, record)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCampaignNotAccepting):
			return ContributionResult{}, ErrCampaignClosed
		case errors.Is(err, repository.ErrDuplicateTxHash):
			return ContributionResult{}, ErrDuplicateTxHash
		case errors.Is(err, repository.ErrAmountOutOfRange):
			return ContributionResult{}, fmt.Errorf("%w: campaign total would overflow", ErrInvalidAmount)
		}
		return ContributionResult{}, fmt.Errorf("record contribution: %w", err)
	}

	s.logger.Info("contribution recorded",
		zap.String("campaign_id", campaign.ID),
		zap.String("user_id", actor.UserID),
		zap.String("amount", in.Amount.String()),
	)
	s.sendReceipt(ctx, actor.UserID, updated, contribution)

	return ContributionResult{Contribution: contribution, Campaign: updated}, nil
}

// sendReceipt es best-effort: un fallo de correo no revierte el aporte.
func (s *ContributionService) sendReceipt(ctx context.Context, userID string, campaign domain.Campaign, c domain.Contribution) {
	if s.emailSender == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("receipt skipped, user lookup failed", zap.Error(err), zap.String("user_id", userID))
		return
	}
	err = s.emailSender.SendContributionReceipt(ctx, email.Receipt{
		ToEmail:       user.Email,
		ToName:        user.DisplayName,
		CampaignTitle: campaign.Title,
		Amount:        c.Amount,
		TxHash:        c.TxHash,
		At:            c.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("send contribution receipt failed", zap.Error(err), zap.String("email", user.Email))
	}
}

func (s *ContributionService) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]domain.Contribution, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.contributions.ListByCampaign(ctx, campaignID, limit)
}

func (s *ContributionService) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Contribution, error) {
	return s.contributions.ListByUser(ctx, userID, limit)
}

type RecordTransactionInput struct {
	CampaignID string
	TxHash     string
	Amount     decimal.Decimal
	Kind       string
	Status     string
}

// RecordTransaction guarda una transaccion on-chain informada por el cliente.
func (s *ContributionService) RecordTransaction(ctx context.Context, actor Actor, in RecordTransactionInput) (domain.Transaction, error) {
	txHash := strings.TrimSpace(in.TxHash)
	if txHash == "" {
		return domain.Transaction{}, fmt.Errorf("%w: tx_hash is required", ErrInvalidTransaction)
	}
	if err := checkAmount(in.Amount); err != nil {
		return domain.Transaction{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = domain.TransactionKindContribution
	}
	if kind != domain.TransactionKindContribution && kind != domain.TransactionKindWithdrawal {
		return domain.Transaction{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, in.Kind)
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	switch status {
	case "":
		status = domain.TransactionStatusPending
	case domain.TransactionStatusPending, domain.TransactionStatusConfirmed, domain.TransactionStatusFailed:
	default:
		return domain.Transaction{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, in.Status)
	}

	campaignID := strings.TrimSpace(in.CampaignID)
	if campaignID != "" {
		if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
			return domain.Transaction{}, err
		}
	}

	record := domain.Transaction{
		ID:         uuid.NewString(),
		UserID:     actor.UserID,
		CampaignID: campaignID,
		TxHash:     txHash,
		Amount:     in.Amount,
		Kind:       kind,
		Status:     status,
		CreatedAt:  s.now(),
	}
	if err := s.transactions.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateTxHash) {
			return domain.Transaction{}, ErrDuplicateTxHash
		}
		return domain.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return record, nil
}

func (s *ContributionService) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID, limit)
}
