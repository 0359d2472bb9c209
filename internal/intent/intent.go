// Package intent generates the search queries issued for a canonical
// variant: locale-aware price queries in English and Arabic plus
// site-restricted queries for the known stores.
package intent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/egphones/pricewatch/internal/config"
	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/normalize"
)

// Query is one search intent. Store is set on site-restricted queries and
// keys the circuit breaker that guards the call; general queries share the
// default backend breaker.
type Query struct {
	Text   string
	Store  string
	Locale string
}

const (
	LocaleEnglish = "en"
	LocaleArabic  = "ar"
)

// Store domains used for site-restricted queries.
var storeDomains = []struct {
	key    string
	domain string
}{
	{"amazon", "amazon.eg"},
	{"noon", "noon.com"},
	{"jumia", "jumia.com.eg"},
	{"btech", "btech.com"},
}

// Queries builds the prioritized, deduplicated query list for one variant,
// capped at cfg.MaxQueries. Query text carries capacity and buy/price
// intent where available since those recover prices most reliably.
func Queries(variant model.CanonicalVariant, cfg config.DiscoveryConfig) []Query {
	brand := normalize.Brand(variant.Brand)
	mdl := normalize.Model(variant.Model)
	full := strings.TrimSpace(brand + " " + mdl)
	country := cfg.Locale

	var queries []Query

	add := func(text, store, locale string) {
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			queries = append(queries, Query{Text: text, Store: store, Locale: locale})
		}
	}

	for _, name := range []string{full, mdl} {
		if variant.Storage != "" {
			add(fmt.Sprintf("%s %s price %s", name, variant.Storage, country), "", LocaleEnglish)
			if variant.RAM != "" {
				add(fmt.Sprintf("%s %s/%s price %s", name, variant.RAM, variant.Storage, country), "", LocaleEnglish)
			}
			add(fmt.Sprintf("buy %s %s %s", name, variant.Storage, country), "", LocaleEnglish)
		} else {
			add(fmt.Sprintf("%s price %s", name, country), "", LocaleEnglish)
		}
	}

	for _, s := range storeDomains {
		text := full
		if variant.Storage != "" {
			text += " " + variant.Storage
		}
		add(fmt.Sprintf("%s site:%s", text, s.domain), s.key, LocaleEnglish)
	}

	add(fmt.Sprintf("%s %s سعر مصر", mdl, variant.Storage), "", LocaleArabic)
	add(fmt.Sprintf("%s السعر في مصر", full), "", LocaleArabic)

	queries = prioritize(dedupe(queries))

	if cfg.MaxQueries > 0 && len(queries) > cfg.MaxQueries {
		queries = queries[:cfg.MaxQueries]
	}
	return queries
}

func dedupe(queries []Query) []Query {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if _, ok := seen[q.Text]; ok {
			continue
		}
		seen[q.Text] = struct{}{}
		out = append(out, q)
	}
	return out
}

// prioritize orders queries by likelihood of recovering a usable price:
// capacity mention, then buy/price intent, then a store restriction, then
// pure-ASCII text which parses more reliably. The sort is stable so equal
// scores keep generation order.
func prioritize(queries []Query) []Query {
	score := func(q Query) int {
		s := 0
		if strings.Contains(q.Text, "GB") || strings.Contains(q.Text, "TB") {
			s += 3
		}
		lower := strings.ToLower(q.Text)
		if strings.Contains(lower, "price") || strings.Contains(lower, "buy") {
			s += 2
		}
		if q.Store != "" {
			s++
		}
		if isASCII(q.Text) {
			s++
		}
		return s
	}

	sort.SliceStable(queries, func(i, j int) bool {
		return score(queries[i]) > score(queries[j])
	})
	return queries
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
