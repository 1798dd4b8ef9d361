package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CampaignStatusActive = "active"
	CampaignStatusClosed = "closed"
)

type Campaign struct {
	ID            string          `json:"id"`
	CreatorID     string          `json:"creator_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	WalletAddress string          `json:"wallet_address,omitempty"`
	Goal          decimal.Decimal `json:"goal"`
	Raised        decimal.Decimal `json:"raised"`
	Deadline      time.Time       `json:"deadline"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AcceptsContributions devuelve true si la campaña sigue abierta al momento dado.
func (c Campaign) AcceptsContributions(now time.Time) bool {
	return c.Status == CampaignStatusActive && now.Before(c.Deadline)
}

// Progress es la fraccion recaudada respecto de la meta (puede superar 1).
func (c Campaign) Progress() float64 {
	if !c.Goal.IsPositive() {
		return 0
	}
	f, _ := c.Raised.Div(c.Goal).Float64()
	return f
}

// CampaignFilter restringe listados de campañas.
type CampaignFilter struct {
	Status    string
	Category  string
	CreatorID string
	Limit     int
	Offset    int
}
