package service

import (
	"fmt"
	"strings"

	"crowdfund-advisor/internal/domain"
)

// Cantidad de mensajes previos que se envian como contexto en chat general.
const generalContextMessages = 10

func buildStockPrompt(symbol string, currentPrice float64, question string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Analyze the stock %s. Its current price is $%.2f.\n\n", symbol, currentPrice))
	if q := strings.TrimSpace(question); q != "" {
		sb.WriteString("=== USER QUESTION ===\n")
		sb.WriteString(fmt.Sprintf("%q\n\n", q))
	}

	sb.WriteString("=== REQUIRED SECTIONS ===\n")
	sb.WriteString("Answer in plain text using exactly these labels:\n")
	sb.WriteString("Direction: bullish, bearish or neutral for the next trading days\n")
	sb.WriteString("Confidence: NN%\n")
	sb.WriteString("Price Target: $NN.NN\n")
	sb.WriteString("Technical Factors:\n- up to five bullet points\n")
	sb.WriteString("Fundamental Factors:\n- up to five bullet points\n")
	sb.WriteString("Sentiment Factors:\n- up to five bullet points\n")
	sb.WriteString("Finish with a one line disclaimer that this is not financial advice.")

	return sb.String()
}

func buildGeneralPrompt(history []domain.ChatMessage, message string) string {
	var sb strings.Builder

	sb.WriteString("You are chatting with a user of a crowdfunding platform about investing and markets.\n")
	sb.WriteString("If they ask about a specific company, suggest they mention its ticker (for example $AAPL) to get a full analysis.\n\n")

	if len(history) > generalContextMessages {
		history = history[len(history)-generalContextMessages:]
	}
	if len(history) > 0 {
		sb.WriteString("=== RECENT CONVERSATION ===\n")
		for _, m := range history {
			sb.WriteString(fmt.Sprintf("%s: %s\n", m.Role, strings.TrimSpace(m.Content)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=== USER MESSAGE ===\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", message))
	sb.WriteString("Reply conversationally and keep it under 200 words.")

	return sb.String()
}
