package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/normalize"
)

// Prices outside this band are almost never phones in the Egyptian market;
// below it sits accessories, above it sits listing errors.
const (
	minPlausiblePrice = 2000
	maxPlausiblePrice = 100000
)

const defaultCurrency = "EGP"

// Egyptian Pound spellings seen in listings.
const currencyAlternatives = `EGP|LE|E£|جنيه|ج\.م|pound`

var (
	// currency marker then amount: "EGP 32,999"
	currencyFirstRe = regexp.MustCompile(`(?i)(?:` + currencyAlternatives + `)\s*(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
	// amount then currency marker: "32,999 EGP"
	amountFirstRe = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*(?:` + currencyAlternatives + `)`)
	// bare number that only counts near a price-context keyword
	bareNumberRe = regexp.MustCompile(`\b(\d{4,6})\b`)
)

// A bare number is only treated as a price when one of these appears within
// the surrounding window.
var priceContextKeywords = []string{"price", "cost", "costs", "سعر", "buy", "sale", "offer"}

const bareNumberWindow = 100

// Prices extracts every plausible price mention from raw listing text.
// Arabic-Indic digits are folded to ASCII before matching so a single
// pattern set covers both locales. The result is ordered most trustworthy
// first: currency-qualified mentions before keyword-inferred ones, larger
// amounts before smaller within each group.
func Prices(text string) []model.PriceMention {
	text = normalize.FoldDigits(text)

	var mentions []model.PriceMention
	for _, re := range []*regexp.Regexp{currencyFirstRe, amountFirstRe} {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			amount, ok := parseAmount(text[loc[2]:loc[3]])
			if !ok {
				continue
			}
			mentions = append(mentions, model.PriceMention{
				Amount:    amount,
				Currency:  defaultCurrency,
				Qualified: true,
				Position:  loc[0],
			})
		}
	}

	lower := strings.ToLower(text)
	for _, loc := range bareNumberRe.FindAllStringSubmatchIndex(text, -1) {
		amount, ok := parseAmount(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		if !nearPriceKeyword(lower, loc[0], loc[1]) {
			continue
		}
		mentions = append(mentions, model.PriceMention{
			Amount:    amount,
			Currency:  defaultCurrency,
			Qualified: false,
			Position:  loc[0],
		})
	}

	mentions = dedupeMentions(mentions)

	sort.SliceStable(mentions, func(i, j int) bool {
		if mentions[i].Qualified != mentions[j].Qualified {
			return mentions[i].Qualified
		}
		return mentions[i].Amount > mentions[j].Amount
	})

	return mentions
}

func parseAmount(s string) (float64, bool) {
	amount, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if amount < minPlausiblePrice || amount > maxPlausiblePrice {
		return 0, false
	}
	return amount, true
}

func nearPriceKeyword(lower string, start, end int) bool {
	from := start - bareNumberWindow
	if from < 0 {
		from = 0
	}
	to := end + bareNumberWindow
	if to > len(lower) {
		to = len(lower)
	}
	window := lower[from:to]
	for _, kw := range priceContextKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// dedupeMentions drops repeats of the same amount found at nearby positions,
// keeping the qualified mention when one of the pair is.
func dedupeMentions(mentions []model.PriceMention) []model.PriceMention {
	var out []model.PriceMention
	for _, m := range mentions {
		dup := false
		for i, kept := range out {
			if kept.Amount == m.Amount && abs(kept.Position-m.Position) < bareNumberWindow {
				dup = true
				if m.Qualified && !kept.Qualified {
					out[i] = m
				}
				break
			}
		}
		if !dup {
			out = append(out, m)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
