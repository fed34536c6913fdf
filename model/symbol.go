package model

import (
	"net/url"
	"strings"
)

// NormalizeSymbol brings a trading pair identifier into the canonical form the
// backend expects: trimmed, uppercase, no separators (BTC/USDT -> BTCUSDT).
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "/", "")
	return strings.ToUpper(s)
}

// NormalizeSymbols normalizes every entry, dropping empties.
func NormalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := NormalizeSymbol(s)
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// JoinSymbols comma-joins a symbol list after normalizing every entry.
func JoinSymbols(symbols []string) string {
	return strings.Join(NormalizeSymbols(symbols), ",")
}

// JoinSymbolsQuery renders a symbol list the way the backend's websocket and
// summaries endpoints want it: comma-joined, percent-encoded.
func JoinSymbolsQuery(symbols []string) string {
	return url.QueryEscape(JoinSymbols(symbols))
}
