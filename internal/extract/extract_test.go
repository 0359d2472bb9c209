package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egphones/pricewatch/internal/model"
)

func TestPricesCurrencyQualified(t *testing.T) {
	mentions := Prices("Samsung Galaxy S23 costs 32,999 EGP at Amazon")
	require.Len(t, mentions, 1)
	assert.Equal(t, 32999.0, mentions[0].Amount)
	assert.Equal(t, "EGP", mentions[0].Currency)
	assert.True(t, mentions[0].Qualified)
}

func TestPricesCurrencyFirst(t *testing.T) {
	mentions := Prices("now only EGP 45,500 with free shipping")
	require.Len(t, mentions, 1)
	assert.Equal(t, 45500.0, mentions[0].Amount)
}

func TestPricesArabic(t *testing.T) {
	// Folded digits plus the سعر context keyword recover the amount even
	// though the comma-grouped currency pattern cannot parse it directly.
	mentions := Prices("سعر الهاتف ٣٢٩٩٩ جنيه")
	require.NotEmpty(t, mentions)
	assert.Equal(t, 32999.0, mentions[0].Amount)

	qualified := Prices("الهاتف بسعر ٣٢,٩٩٩ جنيه")
	require.NotEmpty(t, qualified)
	assert.Equal(t, 32999.0, qualified[0].Amount)
	assert.True(t, qualified[0].Qualified)
}

func TestPricesBareNumberNeedsKeyword(t *testing.T) {
	assert.Empty(t, Prices("model number 34567 released in 2024"))

	mentions := Prices("best price 34567 for this phone")
	require.Len(t, mentions, 1)
	assert.Equal(t, 34567.0, mentions[0].Amount)
	assert.False(t, mentions[0].Qualified)
}

func TestPricesPlausibilityBand(t *testing.T) {
	assert.Empty(t, Prices("case for 150 EGP"))
	assert.Empty(t, Prices("apartment for 1,500,000 EGP"))
}

func TestPricesQualifiedRankedFirst(t *testing.T) {
	text := "price 25000 or pay 32,999 EGP today"
	mentions := Prices(text)
	require.Len(t, mentions, 2)
	assert.True(t, mentions[0].Qualified)
	assert.Equal(t, 32999.0, mentions[0].Amount)
	assert.False(t, mentions[1].Qualified)
}

func TestPricesDedupes(t *testing.T) {
	// The same amount matched by both patterns at the same position counts once.
	mentions := Prices("EGP 32,999 EGP")
	require.Len(t, mentions, 1)
}

func TestCapacityStorageOnly(t *testing.T) {
	storage, ram := Capacity("Samsung Galaxy S23 256GB")
	assert.Equal(t, "256GB", storage)
	assert.Empty(t, ram)
}

func TestCapacityRAMKeyword(t *testing.T) {
	storage, ram := Capacity("Galaxy S23 256GB with 8GB RAM")
	assert.Equal(t, "256GB", storage)
	assert.Equal(t, "8GB", ram)
}

func TestCapacityComboForm(t *testing.T) {
	storage, ram := Capacity("Xiaomi 14 12GB/256GB dual sim")
	assert.Equal(t, "256GB", storage)
	assert.Equal(t, "12GB", ram)
}

func TestCapacityTerabyte(t *testing.T) {
	storage, ram := Capacity("iPhone 15 Pro Max 1TB")
	assert.Equal(t, "1TB", storage)
	assert.Empty(t, ram)
}

func TestCapacityAmbiguousDefaultsToStorage(t *testing.T) {
	// 64 is above the RAM ceiling, so a bare mention is storage.
	storage, ram := Capacity("phone with 64GB")
	assert.Equal(t, "64GB", storage)
	assert.Empty(t, ram)
}

func TestStoreName(t *testing.T) {
	assert.Equal(t, "amazon", StoreName("buy it on Amazon Egypt", ""))
	assert.Equal(t, "noon", StoreName("", "https://www.noon.com/egypt-en/p/123"))
	assert.Equal(t, "btech", StoreName("available at B.Tech stores", ""))
	assert.Equal(t, "2b", StoreName("2B Egypt offer", ""))
	assert.Empty(t, StoreName("some local shop", "https://example.com"))
}

func TestStoreNameURLWins(t *testing.T) {
	// Text mentions a different store; the URL domain is authoritative.
	got := StoreName("cheaper than Amazon", "https://www.jumia.com.eg/phone")
	assert.Equal(t, "jumia", got)
}

func TestConditionFlags(t *testing.T) {
	acc, refurb, official := ConditionFlags("Samsung Galaxy S24 silicone case")
	assert.True(t, acc)
	assert.False(t, refurb)
	assert.False(t, official)

	acc, refurb, official = ConditionFlags("Galaxy S24 renewed, open box")
	assert.False(t, acc)
	assert.True(t, refurb)
	assert.False(t, official)

	acc, refurb, official = ConditionFlags("official warranty from the agent")
	assert.False(t, acc)
	assert.False(t, refurb)
	assert.True(t, official)
}

func TestConditionFlagsArabic(t *testing.T) {
	acc, _, _ := ConditionFlags("جراب سامسونج جلاكسي")
	assert.True(t, acc)

	_, refurb, _ := ConditionFlags("هاتف مستعمل بحالة جيدة")
	assert.True(t, refurb)

	_, _, official := ConditionFlags("ضمان الوكيل سنتين")
	assert.True(t, official)
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, model.AvailabilityInStock, Availability("In stock. Free delivery."))
	assert.Equal(t, model.AvailabilityOutOfStock, Availability("currently out of stock"))
	assert.Equal(t, model.AvailabilityOutOfStock, Availability("not available right now"))
	assert.Equal(t, model.AvailabilityUnknown, Availability("great phone"))
	assert.Equal(t, model.AvailabilityInStock, Availability("متوفر الآن"))
}

func TestCandidateFullText(t *testing.T) {
	cand := Candidate(
		"Samsung Galaxy S24 Ultra 256GB",
		"Official warranty - EGP 32,999 at Amazon Egypt. In stock.",
		"https://www.amazon.eg/dp/B0TEST",
	)

	assert.Equal(t, 32999.0, cand.PriceAmount)
	assert.Equal(t, "EGP", cand.Currency)
	assert.Equal(t, "256GB", cand.Storage)
	assert.Equal(t, "amazon", cand.StoreName)
	assert.True(t, cand.MentionsOfficial)
	assert.False(t, cand.IsAccessory)
	assert.False(t, cand.IsRefurbished)
	assert.Equal(t, model.AvailabilityInStock, cand.Availability)
	assert.False(t, cand.Empty())
}

func TestCandidateEmptyInputNeverFails(t *testing.T) {
	cand := Candidate("", "", "")
	assert.True(t, cand.Empty())
	assert.Zero(t, cand.PriceAmount)
	assert.Equal(t, model.AvailabilityUnknown, cand.Availability)
}
