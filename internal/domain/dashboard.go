package domain

import "github.com/shopspring/decimal"

// DashboardStats agrega los contadores del panel de administracion.
type DashboardStats struct {
	Users           int             `json:"users"`
	Campaigns       int             `json:"campaigns"`
	ActiveCampaigns int             `json:"active_campaigns"`
	Contributions   int             `json:"contributions"`
	TotalRaised     decimal.Decimal `json:"total_raised"`
	Predictions     PredictionStats `json:"predictions"`
	RecentCampaigns []Campaign      `json:"recent_campaigns"`
}

// DirectionHitRate es la fraccion de predicciones verificadas que acertaron la direccion.
func (s PredictionStats) DirectionHitRate() float64 {
	if s.Verified == 0 {
		return 0
	}
	return float64(s.DirectionHits) / float64(s.Verified)
}
