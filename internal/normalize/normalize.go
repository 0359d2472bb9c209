// Package normalize canonicalizes brand names, model names, capacity
// strings, and slugs so that every downstream comparison operates on a
// single representation.
package normalize

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnrecognizedCapacity is returned when a capacity string carries a unit
// outside GB/TB or no digits at all.
var ErrUnrecognizedCapacity = eris.New("normalize: unrecognized capacity")

// brandAliases maps lowercase raw brand spellings to canonical names.
var brandAliases = map[string]string{
	"samsung":  "Samsung",
	"apple":    "Apple",
	"xiaomi":   "Xiaomi",
	"oppo":     "Oppo",
	"realme":   "Realme",
	"oneplus":  "OnePlus",
	"one plus": "OnePlus",
	"google":   "Google",
	"motorola": "Motorola",
	"moto":     "Motorola",
	"nokia":    "Nokia",
	"vivo":     "Vivo",
	"huawei":   "Huawei",
	"honor":    "Honor",
	"infinix":  "Infinix",
	"tecno":    "Tecno",
	"itel":     "Itel",
	"lenovo":   "Lenovo",
	"asus":     "Asus",
	"sony":     "Sony",
	"lg":       "LG",
	"htc":      "HTC",
	"alcatel":  "Alcatel",
	"zte":      "ZTE",
	"meizu":    "Meizu",
	"nothing":  "Nothing",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	capacityRe   = regexp.MustCompile(`^(\d+)\s*(GB|TB|G|T)?B?$`)
	slugDropRe   = regexp.MustCompile(`[^a-z0-9\s]`)

	titleCaser = cases.Title(language.English)
)

// Brand canonicalizes a raw brand name. Known aliases map to their canonical
// spelling; unknown brands fall back to title case so they remain usable.
func Brand(brand string) string {
	clean := whitespaceRe.ReplaceAllString(strings.TrimSpace(brand), " ")
	if clean == "" {
		return ""
	}
	if canonical, ok := brandAliases[strings.ToLower(clean)]; ok {
		return canonical
	}
	return titleCaser.String(clean)
}

// Model collapses internal whitespace and trims a raw model name. Casing is
// preserved, model names like "iPhone 15 Pro Max" are case-sensitive.
func Model(model string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(model), " ")
}

// Capacity normalizes a storage or RAM capacity string to "<digits>GB" or
// "<digits>TB". The function is idempotent: feeding its own output back
// yields the same string.
func Capacity(raw string) (string, error) {
	clean := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if clean == "" {
		return "", eris.Wrap(ErrUnrecognizedCapacity, "empty input")
	}

	m := capacityRe.FindStringSubmatch(clean)
	if m == nil {
		return "", eris.Wrapf(ErrUnrecognizedCapacity, "input %q", raw)
	}

	unit := "GB"
	if m[2] == "TB" || m[2] == "T" {
		unit = "TB"
	}
	return m[1] + unit, nil
}

// Slug builds the deterministic primary key for a brand/model pair:
// lowercase, ASCII-transliterated, non-alphanumerics stripped, spaces
// collapsed to single underscores. Slug(Brand(b), Model(m)) is stable for
// any spelling of the same phone.
func Slug(brand, model string) string {
	combined := strings.ToLower(asciiFold(brand + " " + model))
	cleaned := slugDropRe.ReplaceAllString(combined, "")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(cleaned), "_")
}
