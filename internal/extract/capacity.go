package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tbRe       = regexp.MustCompile(`(\d+)\s*TB\b`)
	gbRe       = regexp.MustCompile(`(\d+)\s*GB\b`)
	ramAdjRe   = regexp.MustCompile(`(?:(\d+)\s*GB\s+(?:RAM|MEMORY))|(?:(?:RAM|MEMORY)\s+(\d+)\s*GB)`)
	comboRe    = regexp.MustCompile(`(\d+)\s*G?B?\s*/\s*(\d+)\s*G?B?`)
	maxRAMSize = 24
)

// Capacity pulls storage and RAM mentions out of listing text, resolving the
// ambiguity between the two. Ambiguous GB mentions default to storage; a
// value only counts as RAM when it sits next to a RAM keyword or appears as
// the smaller half of a "12GB/256GB" pair.
func Capacity(text string) (storage, ram string) {
	upper := strings.ToUpper(text)

	if m := tbRe.FindStringSubmatch(upper); m != nil {
		storage = m[1] + "TB"
	}

	if m := ramAdjRe.FindStringSubmatch(upper); m != nil {
		val := m[1]
		if val == "" {
			val = m[2]
		}
		if n, _ := strconv.Atoi(val); n <= maxRAMSize {
			ram = val + "GB"
		}
	}

	if ram == "" {
		if m := comboRe.FindStringSubmatch(upper); m != nil {
			first, _ := strconv.Atoi(m[1])
			second, _ := strconv.Atoi(m[2])
			if first < second && first <= maxRAMSize {
				ram = m[1] + "GB"
				if storage == "" {
					storage = m[2] + "GB"
				}
			}
		}
	}

	if storage == "" {
		for _, m := range gbRe.FindAllStringSubmatch(upper, -1) {
			n, _ := strconv.Atoi(m[1])
			// Phone storage tiers start at 32GB; 8 and 16 cover older
			// devices. Anything else that small is a RAM mention.
			if n >= 32 || n == 8 || n == 16 {
				if m[1]+"GB" == ram {
					continue
				}
				storage = m[1] + "GB"
				break
			}
		}
	}

	return storage, ram
}
