// Package extract recovers structured price candidates from raw search
// result text. Everything here is pure keyword and regex work over
// title+snippet strings; no HTML or DOM parsing is involved.
package extract

import (
	"github.com/egphones/pricewatch/internal/model"
)

// Candidate runs the full extraction pass over one search result. It never
// fails: empty or garbled input produces a candidate with all optional
// fields unset, and the caller decides whether that is worth logging.
func Candidate(title, snippet, url string) model.ExtractedCandidate {
	text := title
	if snippet != "" {
		if text != "" {
			text += " "
		}
		text += snippet
	}

	cand := model.ExtractedCandidate{
		RawText:   text,
		SourceURL: url,
	}
	if text == "" {
		cand.Availability = model.AvailabilityUnknown
		return cand
	}

	cand.Prices = Prices(text)
	if len(cand.Prices) > 0 {
		cand.PriceAmount = cand.Prices[0].Amount
		cand.Currency = cand.Prices[0].Currency
	}

	cand.Storage, cand.RAM = Capacity(text)
	cand.StoreName = StoreName(text, url)
	cand.IsAccessory, cand.IsRefurbished, cand.MentionsOfficial = ConditionFlags(text)
	cand.Availability = Availability(text)

	return cand
}
