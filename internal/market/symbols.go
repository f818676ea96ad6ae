package market

import (
	"fmt"
	"strings"
)

// symbolAliases maps lowercase company names to tickers so "apple stock"
// resolves without the user typing AAPL.
var symbolAliases = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"amazon":    "AMZN",
	"tesla":     "TSLA",
	"meta":      "META",
	"facebook":  "META",
	"nvidia":    "NVDA",
	"netflix":   "NFLX",
	"amd":       "AMD",
	"intel":     "INTC",
	"disney":    "DIS",
	"visa":      "V",
	"walmart":   "WMT",
	"nike":      "NKE",
	"starbucks": "SBUX",
}

// knownSymbols accepts bare tickers typed directly ("what's NVDA at").
var knownSymbols = map[string]bool{
	"AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true, "TSLA": true,
	"META": true, "NVDA": true, "NFLX": true, "AMD": true, "INTC": true,
	"CRM": true, "ORCL": true, "ADBE": true, "PYPL": true, "DIS": true,
	"V": true, "MA": true, "JPM": true, "BAC": true, "WFC": true,
	"GS": true, "MS": true, "JNJ": true, "PFE": true, "KO": true,
	"PEP": true, "WMT": true, "HD": true, "NKE": true, "MCD": true,
	"SBUX": true, "UNH": true, "CVX": true,
}

// quoteCues are the words that mark a message as a price question. Live mode
// is only entered when a cue and a resolvable symbol appear together; generic
// advice turns must never trigger a market fetch.
var quoteCues = map[string]bool{
	"stock": true, "stocks": true, "price": true, "quote": true,
	"share": true, "shares": true, "trading": true, "ticker": true,
}

// DetectSymbol decides whether a message is a price-quote query and for which
// symbol. Both a quote cue and an explicit company or ticker mention are
// required.
func DetectSymbol(message string) (string, bool) {
	cued := false
	symbol := ""

	for _, raw := range strings.Fields(message) {
		token := strings.Trim(raw, ".,!?'\"()")
		if token == "" {
			continue
		}

		if quoteCues[strings.ToLower(token)] {
			cued = true
			continue
		}

		if symbol == "" {
			if s, ok := symbolAliases[strings.ToLower(token)]; ok {
				symbol = s
			} else if knownSymbols[token] {
				symbol = token
			}
		}
	}

	if cued && symbol != "" {
		return symbol, true
	}
	return "", false
}

// Validate checks a ticker for plausible shape.
func Validate(symbol string) error {
	symbol = Normalize(symbol)
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

// Normalize converts a symbol to canonical uppercase form.
func Normalize(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}
