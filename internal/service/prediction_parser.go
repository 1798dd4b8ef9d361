package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"crowdfund-advisor/internal/domain"
)

const (
	defaultConfidence  = 0.7
	fallbackMovePct    = 0.05
	maxFactorsPerGroup = 5
	maxRationaleRunes  = 2000
)

var (
	explicitDirectionRe = regexp.MustCompile(`(?i)\bdirection\**\s*[:=]\s*\**\s*(up|down|neutral|bullish|bearish|upward|downward|sideways)\b`)
	bullishRe           = regexp.MustCompile(`\b(bullish|upward|up)\b`)
	bearishRe           = regexp.MustCompile(`\b(bearish|downward|down)\b`)
	confidenceRe        = regexp.MustCompile(`(?i)confidence(?:\s+level)?(?:\s+of)?\**\s*[:=]?\s*\**\s*(\d{1,3}(?:\.\d+)?)\s*%`)
	priceTargetRe       = regexp.MustCompile(`(?i)price\s+target\**\s*[:=]?\s*\**\s*(?:of\s+)?\$?\s*(\d[\d,]*(?:\.\d+)?)`)
	bulletRe            = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	sentenceSplitRe     = regexp.MustCompile(`[.!?]+\s+|\n+`)
	headingTrimRe       = regexp.MustCompile(`^[\s#*_\-\d.)]+|[\s*_:]+$`)
)

type factorGroup struct {
	headings []string
	keywords []string
}

var (
	technicalGroup = factorGroup{
		headings: []string{"technical factors", "technical analysis", "technical indicators", "technical"},
		keywords: []string{"rsi", "macd", "moving average", "support", "resistance", "volume", "chart", "trend", "momentum", "breakout"},
	}
	fundamentalGroup = factorGroup{
		headings: []string{"fundamental factors", "fundamental analysis", "fundamentals", "fundamental"},
		keywords: []string{"earnings", "revenue", "margin", "valuation", "p/e", "cash flow", "profit", "debt", "guidance", "growth"},
	}
	sentimentGroup = factorGroup{
		headings: []string{"sentiment factors", "sentiment analysis", "market sentiment", "sentiment"},
		keywords: []string{"sentiment", "analyst", "news", "investor", "social media", "hype", "fear", "optimism", "pessimism"},
	}
)

// PredictionAnalysis es lo que se logra rescatar de una respuesta en prosa del LLM.
type PredictionAnalysis struct {
	Direction          string
	Confidence         float64
	PriceTarget        float64
	TechnicalFactors   []string
	FundamentalFactors []string
	SentimentFactors   []string
	Rationale          string
}

// ParsePredictionReply extrae direccion, confianza, precio objetivo y factores de la respuesta.
// Nunca falla: cuando el texto no trae un dato se usan valores por defecto.
func ParsePredictionReply(reply string, currentPrice float64) PredictionAnalysis {
	text := cleanLLMText(reply)
	direction := parseDirection(text)

	return PredictionAnalysis{
		Direction:          direction,
		Confidence:         parseConfidence(text),
		PriceTarget:        parsePriceTarget(text, currentPrice, direction),
		TechnicalFactors:   extractFactors(text, technicalGroup),
		FundamentalFactors: extractFactors(text, fundamentalGroup),
		SentimentFactors:   extractFactors(text, sentimentGroup),
		Rationale:          truncateRunes(text, maxRationaleRunes),
	}
}

func parseDirection(text string) string {
	if m := explicitDirectionRe.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "up", "bullish", "upward":
			return domain.DirectionUp
		case "down", "bearish", "downward":
			return domain.DirectionDown
		default:
			return domain.DirectionNeutral
		}
	}
	lower := strings.ToLower(text)
	if bullishRe.MatchString(lower) {
		return domain.DirectionUp
	}
	if bearishRe.MatchString(lower) {
		return domain.DirectionDown
	}
	return domain.DirectionNeutral
}

func parseConfidence(text string) float64 {
	m := confidenceRe.FindStringSubmatch(text)
	if m == nil {
		return defaultConfidence
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultConfidence
	}
	return clamp01(v / 100)
}

func parsePriceTarget(text string, currentPrice float64, direction string) float64 {
	if m := priceTargetRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v > 0 {
			return roundCents(v)
		}
	}
	switch direction {
	case domain.DirectionUp:
		return roundCents(currentPrice * (1 + fallbackMovePct))
	case domain.DirectionDown:
		return roundCents(currentPrice * (1 - fallbackMovePct))
	default:
		return roundCents(currentPrice)
	}
}

func extractFactors(text string, group factorGroup) []string {
	if items := factorsUnderHeading(text, group.headings); len(items) > 0 {
		return items
	}
	return factorsByKeyword(text, group.keywords)
}

// factorsUnderHeading toma las viñetas que siguen a un encabezado tipo "Technical Factors:".
func factorsUnderHeading(text string, headings []string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		rest, ok := matchHeading(line, headings)
		if !ok {
			continue
		}
		var out []string
		if rest != "" {
			out = append(out, rest)
		}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				if len(out) > 0 {
					break
				}
				continue
			}
			m := bulletRe.FindStringSubmatch(next)
			if m == nil {
				break
			}
			out = appendFactor(out, m[1])
			if len(out) >= maxFactorsPerGroup {
				break
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// matchHeading reconoce "**Technical Analysis**", "### Technical Factors:" o
// "Technical factors: RSI sobrecomprado" (en ese caso devuelve el resto de la linea).
func matchHeading(line string, headings []string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || (bulletRe.MatchString(trimmed) && !strings.Contains(trimmed, ":")) {
		return "", false
	}
	head, rest, hasColon := strings.Cut(trimmed, ":")
	head = strings.ToLower(headingTrimRe.ReplaceAllString(head, ""))
	for _, h := range headings {
		if head == h {
			if !hasColon {
				return "", true
			}
			rest = strings.TrimSpace(strings.Trim(strings.TrimSpace(rest), "*_"))
			return rest, true
		}
	}
	return "", false
}

func factorsByKeyword(text string, keywords []string) []string {
	var out []string
	for _, sentence := range sentenceSplitRe.Split(text, -1) {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = appendFactor(out, sentence)
				break
			}
		}
		if len(out) >= maxFactorsPerGroup {
			break
		}
	}
	return out
}

func appendFactor(out []string, raw string) []string {
	f := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "*_-•"))
	if f == "" {
		return out
	}
	for _, existing := range out {
		if strings.EqualFold(existing, f) {
			return out
		}
	}
	return append(out, f)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
