package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contribution struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaign_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	TxHash     string          `json:"tx_hash,omitempty"`
	Message    string          `json:"message,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	TransactionKindContribution = "contribution"
	TransactionKindWithdrawal   = "withdrawal"

	TransactionStatusPending   = "pending"
	TransactionStatusConfirmed = "confirmed"
	TransactionStatusFailed    = "failed"
)

// Transaction registra una operacion on-chain informada por el cliente.
type Transaction struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	CampaignID string          `json:"campaign_id,omitempty"`
	TxHash     string          `json:"tx_hash"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
