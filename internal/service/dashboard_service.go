package service

import (
	"context"
	"fmt"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/repository"
)

const recentCampaignsOnDashboard = 5

// DashboardService arma la vista agregada del panel de administracion.
type DashboardService struct {
	stats       repository.StatsRepository
	campaigns   repository.CampaignRepository
	predictions repository.PredictionRepository
}

func NewDashboardService(stats repository.StatsRepository, campaigns repository.CampaignRepository, predictions repository.PredictionRepository) *DashboardService {
	return &DashboardService{stats: stats, campaigns: campaigns, predictions: predictions}
}

type DashboardView struct {
	domain.DashboardStats
	DirectionHitRate float64 `json:"direction_hit_rate"`
}

func (s *DashboardService) Dashboard(ctx context.Context) (DashboardView, error) {
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return DashboardView{}, fmt.Errorf("dashboard totals: %w", err)
	}
	predictionStats, err := s.predictions.Stats(ctx)
	if err != nil {
		return DashboardView{}, fmt.Errorf("prediction stats: %w", err)
	}
	recent, err := s.campaigns.List(ctx, domain.CampaignFilter{Limit: recentCampaignsOnDashboard})
	if err != nil {
		return DashboardView{}, fmt.Errorf("recent campaigns: %w", err)
	}

	totals.Predictions = predictionStats
	totals.RecentCampaigns = recent
	return DashboardView{
		DashboardStats:   totals,
		DirectionHitRate: predictionStats.DirectionHitRate(),
	}, nil
}
