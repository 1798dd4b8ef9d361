package domain

import "time"

const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNeutral = "neutral"
)

type StockPrediction struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	SessionID          string             `json:"session_id,omitempty"`
	Symbol             string             `json:"symbol"`
	InitialPrice       float64            `json:"initial_price"`
	PredictedPrice     float64            `json:"predicted_price"`
	PredictedDirection string             `json:"predicted_direction"`
	Confidence         float64            `json:"confidence"`
	Rationale          string             `json:"rationale"`
	TechnicalFactors   []string           `json:"technical_factors"`
	FundamentalFactors []string           `json:"fundamental_factors"`
	SentimentFactors   []string           `json:"sentiment_factors"`
	Outcome            *PredictionOutcome `json:"outcome,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// PredictionOutcome se escribe una sola vez, cuando corre la verificacion.
type PredictionOutcome struct {
	ActualPrice     float64   `json:"actual_price"`
	ActualDirection string    `json:"actual_direction"`
	Accuracy        float64   `json:"accuracy"`
	VerifiedAt      time.Time `json:"verified_at"`
}

// Verified indica si la prediccion ya tiene resultado.
func (p StockPrediction) Verified() bool {
	return p.Outcome != nil
}

// PredictionFilter restringe listados de predicciones.
type PredictionFilter struct {
	Symbol   string
	UserID   string
	Verified *bool
	Limit    int
}

// PredictionStats resume la precision historica de las predicciones verificadas.
type PredictionStats struct {
	Total           int     `json:"total"`
	Verified        int     `json:"verified"`
	AverageAccuracy float64 `json:"average_accuracy"`
	DirectionHits   int     `json:"direction_hits"`
}
