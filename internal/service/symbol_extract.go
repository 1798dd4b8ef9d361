package service

import (
	"regexp"
	"strings"
)

var (
	cashTagRe   = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
	capsTokenRe = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
	wordRe      = regexp.MustCompile(`[a-z][a-z&.\-]*`)
)

// companySymbols mapea nombres comunes a su ticker.
var companySymbols = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"amazon":    "AMZN",
	"tesla":     "TSLA",
	"nvidia":    "NVDA",
	"meta":      "META",
	"facebook":  "META",
	"netflix":   "NFLX",
	"amd":       "AMD",
	"intel":     "INTC",
	"disney":    "DIS",
	"coinbase":  "COIN",
	"paypal":    "PYPL",
	"walmart":   "WMT",
	"boeing":    "BA",
	"nike":      "NKE",
	"uber":      "UBER",
	"palantir":  "PLTR",
}

// Tokens en mayusculas que no son tickers.
var symbolStopWords = map[string]struct{}{
	"I": {}, "A": {}, "AI": {}, "CEO": {}, "CFO": {}, "USA": {}, "US": {}, "UK": {}, "EU": {},
	"ETF": {}, "IPO": {}, "GDP": {}, "FED": {}, "SEC": {}, "API": {}, "OK": {}, "FAQ": {},
	"USD": {}, "EUR": {}, "EPS": {}, "PE": {}, "ATH": {}, "YTD": {}, "IMO": {}, "LOL": {},
	"THE": {}, "AND": {}, "OR": {}, "BUT": {}, "IS": {}, "IT": {}, "TO": {}, "IN": {},
	"ON": {}, "OF": {}, "MY": {}, "ME": {}, "DO": {}, "BUY": {}, "SELL": {}, "HOLD": {},
	"NOW": {}, "WHAT": {}, "HOW": {}, "WHY": {}, "NEWS": {}, "SP": {}, "NYSE": {}, "DOW": {},
	"LOVE": {}, "HATE": {}, "LIKE": {}, "WANT": {}, "NEED": {}, "WILL": {}, "NOT": {}, "NO": {},
	"YES": {}, "ALL": {}, "ANY": {}, "CAN": {}, "GOOD": {}, "BAD": {}, "BIG": {}, "NEW": {},
	"HELP": {}, "PLS": {}, "FOMO": {}, "YOLO": {}, "HODL": {}, "MOON": {}, "WSB": {},
}

// ExtractSymbol busca un ticker en texto libre. Devuelve "" si no encuentra ninguno.
func ExtractSymbol(text string) string {
	if m := cashTagRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}

	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		word = strings.TrimRight(word, ".-&")
		if sym, ok := companySymbols[word]; ok {
			return sym
		}
	}

	// Un token suelto de una letra es casi siempre prosa; $F cubre esos tickers.
	for _, loc := range capsTokenRe.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		if _, stop := symbolStopWords[tok]; stop {
			continue
		}
		if nextToAmpersand(text, loc[0], loc[1]) {
			continue
		}
		return tok
	}
	return ""
}

// nextToAmpersand descarta siglas como S&P, M&A o AT&T.
func nextToAmpersand(text string, start, end int) bool {
	return (start > 0 && text[start-1] == '&') || (end < len(text) && text[end] == '&')
}
