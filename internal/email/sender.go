package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sender define la interfaz para los correos transaccionales de la plataforma.
type Sender interface {
	SendContributionReceipt(ctx context.Context, receipt Receipt) error
}

// Receipt describe un aporte confirmado.
type Receipt struct {
	ToEmail       string
	ToName        string
	CampaignTitle string
	Amount        decimal.Decimal
	TxHash        string
	At            time.Time
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendContributionReceipt(_ context.Context, _ Receipt) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func receiptSubject(r Receipt) string {
	return fmt.Sprintf("Thanks for backing %s", r.CampaignTitle)
}

func receiptBody(r Receipt) string {
	body := fmt.Sprintf(
		"Your contribution of %s to %q was recorded at %s UTC.\n",
		r.Amount.String(),
		r.CampaignTitle,
		r.At.UTC().Format(time.RFC3339),
	)
	if r.TxHash != "" {
		body += fmt.Sprintf("Transaction hash: %s\n", r.TxHash)
	}
	return body
}
