package extract

import (
	"regexp"
	"strings"

	"github.com/egphones/pricewatch/internal/model"
)

// knownStores maps canonical store keys to the patterns that identify them
// in listing text or URLs. The table is fixed; unmatched text leaves the
// store unknown rather than guessing.
var knownStores = []struct {
	key string
	re  *regexp.Regexp
}{
	{"amazon", regexp.MustCompile(`(?i)\b(amazon|amazon\.eg)\b`)},
	{"noon", regexp.MustCompile(`(?i)\b(noon|noon\.com)\b`)},
	{"jumia", regexp.MustCompile(`(?i)\b(jumia|jumia\.com\.eg)\b`)},
	{"btech", regexp.MustCompile(`(?i)\b(b\.?tech|btech\.com)\b`)},
	{"souq", regexp.MustCompile(`(?i)\b(souq)\b`)},
	{"2b", regexp.MustCompile(`(?i)\b(2b|twob)\b`)},
}

var accessoryKeywords = []string{
	"case", "cover", "cable", "charger", "screen protector",
	"tempered glass", "adapter", "holder", "stand", "mount",
	"earphone", "headphone", "headset", "earbuds", "airpods",
	"power bank", "battery pack", "car charger", "wall charger",
	"stylus", "grip", "skin", "sticker", "protector", "film", "guard",
	"جراب", "كفر", "واقي", "شاحن", "كابل", "سماعة",
}

var refurbishedKeywords = []string{
	"refurbished", "used", "open box", "pre-owned", "pre owned",
	"second hand", "renewed", "reconditioned", "like new",
	"مستعمل", "مجدد", "مستورد", "مفتوح",
}

var officialKeywords = []string{
	"official", "authorized", "warranty", "agent", "guarantee",
	"رسمي", "ضمان", "وكيل",
}

var (
	inStockKeywords    = []string{"in stock", "available now", "available", "free delivery", "ships", "متوفر", "متاح"}
	outOfStockKeywords = []string{"out of stock", "sold out", "unavailable", "not available", "غير متوفر", "نفدت"}
)

// StoreName identifies the selling store from listing text and the result
// URL. The URL is checked first since domains are less ambiguous than prose.
// Returns "" when no known store matches.
func StoreName(text, url string) string {
	for _, s := range knownStores {
		if url != "" && s.re.MatchString(url) {
			return s.key
		}
	}
	for _, s := range knownStores {
		if s.re.MatchString(text) {
			return s.key
		}
	}
	return ""
}

// ConditionFlags runs the keyword-set membership tests for accessory,
// refurbished, and official-channel signals.
func ConditionFlags(text string) (isAccessory, isRefurbished, mentionsOfficial bool) {
	lower := strings.ToLower(text)
	return containsAny(lower, accessoryKeywords),
		containsAny(lower, refurbishedKeywords),
		containsAny(lower, officialKeywords)
}

// Availability classifies stock status. Out-of-stock phrases win over
// in-stock ones since "not available" contains "available".
func Availability(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, outOfStockKeywords) {
		return model.AvailabilityOutOfStock
	}
	if containsAny(lower, inStockKeywords) {
		return model.AvailabilityInStock
	}
	return model.AvailabilityUnknown
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
