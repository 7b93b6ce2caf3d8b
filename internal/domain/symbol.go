package domain

import "strings"

// Symbol shape conventions, kept in one place so the classification rules
// stay unit-testable in isolation from the pipeline:
//
//   X:btc-usd  crypto pair (prefix; case after the prefix is preserved)
//   BTC-USD    crypto pair (quote-currency suffix)
//   ^GSPC      index
//   GC=F       commodity future
//   AAPL       equity or ETF
const (
	cryptoPrefix    = "X:"
	indexPrefix     = "^"
	commoditySuffix = "=F"
)

// cryptoQuoteSuffixes are the quote currencies that mark a bare pair
// symbol as crypto.
var cryptoQuoteSuffixes = []string{"-USD", "-USDT", "-USDC", "-EUR", "-BTC", "-ETH"}

// NormalizeSymbol canonicalizes a user-supplied symbol: trimmed and
// upper-cased, except crypto-prefixed pairs, which keep their case after
// the prefix (some venues are case-sensitive about pair names).
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(cryptoPrefix) && strings.EqualFold(s[:len(cryptoPrefix)], cryptoPrefix) {
		return cryptoPrefix + s[len(cryptoPrefix):]
	}
	return strings.ToUpper(s)
}

// ClassifySymbol derives the instrument class from the symbol shape.
// ETFs are indistinguishable from equities by shape alone; they classify
// as equity here and may be refined later from provider metadata.
func ClassifySymbol(symbol string) Instrument {
	switch {
	case strings.HasPrefix(symbol, cryptoPrefix):
		return InstrumentCrypto
	case strings.HasPrefix(symbol, indexPrefix):
		return InstrumentIndex
	case strings.HasSuffix(symbol, commoditySuffix):
		return InstrumentCommodity
	}
	upper := strings.ToUpper(symbol)
	for _, suffix := range cryptoQuoteSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return InstrumentCrypto
		}
	}
	return InstrumentEquity
}
