package symbols

import (
	"sort"
	"strings"

	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/constants"
	"cryptics.app/cryptics-client/model"
)

// WatchPairs expands the configured assets into the symbol list the feed is
// pinned to: every base crypto against the quote currency, plus any pairs
// given verbatim. Empty config falls back to the default base list.
func WatchPairs(assets config.AssetConfig) []string {
	bases := assets.Crypto
	if len(bases) == 0 {
		bases = constants.DEFAULT_BASES[:]
	}
	quote := assets.Quote
	if quote == "" {
		quote = constants.USDT
	}

	pairs := make([]string, 0, len(bases)+len(assets.Pairs))
	for _, base := range bases {
		pairs = append(pairs, model.NormalizeSymbol(base+quote))
	}
	for _, pair := range assets.Pairs {
		pairs = append(pairs, model.NormalizeSymbol(pair))
	}

	seen := map[string]struct{}{}
	out := pairs[:0]
	for _, p := range pairs {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Base guesses the base asset of a normalized pair by stripping a known
// quote suffix.
func Base(symbol string) string {
	symbol = model.NormalizeSymbol(symbol)
	for _, quote := range []string{constants.USDT, constants.USDC, constants.USD} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote)
		}
	}
	return symbol
}
