package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Arabic-Indic and Extended Arabic-Indic digits to ASCII.
var digitFold = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

// FoldDigits rewrites Arabic-Indic digits to their ASCII equivalents so a
// single set of price patterns covers Arabic and English listings. All
// other runes pass through unchanged.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if ascii, ok := digitFold[r]; ok {
			return ascii
		}
		return r
	}, s)
}

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold strips diacritics so accented Latin input survives slugging.
// Runes with no ASCII form (Arabic letters and the like) are dropped later
// by the slug cleanup pass.
func asciiFold(s string) string {
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return folded
}
