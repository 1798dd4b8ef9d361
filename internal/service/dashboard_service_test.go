package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"crowdfund-advisor/internal/domain"
)

type mockStatsRepo struct {
	totals domain.DashboardStats
	err    error
}

func (m *mockStatsRepo) Totals(context.Context) (domain.DashboardStats, error) {
	return m.totals, m.err
}

func TestDashboardService_AssemblesView(t *testing.T) {
	campaigns := newMockCampaignRepo()
	seedCampaign(campaigns, "c1", "owner", "40")
	predictions := newMockPredictionRepo()
	predictions.stats = domain.PredictionStats{Total: 10, Verified: 4, AverageAccuracy: 0.71, DirectionHits: 3}
	stats := &mockStatsRepo{totals: domain.DashboardStats{Users: 3, Campaigns: 1, ActiveCampaigns: 1, TotalRaised: decimal.NewFromInt(40)}}

	view, err := NewDashboardService(stats, campaigns, predictions).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.Users != 3 || !view.TotalRaised.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected totals: %+v", view.DashboardStats)
	}
	if view.Predictions.Verified != 4 || view.DirectionHitRate != 0.75 {
		t.Fatalf("unexpected prediction stats: %+v rate=%v", view.Predictions, view.DirectionHitRate)
	}
	if len(view.RecentCampaigns) != 1 || campaigns.lastFilter.Limit != recentCampaignsOnDashboard {
		t.Fatalf("expected recent campaigns with limit %d, got %+v", recentCampaignsOnDashboard, campaigns.lastFilter)
	}
}

func TestDashboardService_PropagatesErrors(t *testing.T) {
	stats := &mockStatsRepo{err: errors.New("db down")}
	if _, err := NewDashboardService(stats, newMockCampaignRepo(), newMockPredictionRepo()).Dashboard(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
