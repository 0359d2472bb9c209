package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egphones/pricewatch/internal/model"
)

func candidate(text, storage string) model.ExtractedCandidate {
	return model.ExtractedCandidate{RawText: text, Storage: storage}
}

var s24Ultra = model.CanonicalVariant{
	Brand:   "Samsung",
	Model:   "Galaxy S24 Ultra",
	Slug:    "samsung_galaxy_s24_ultra",
	Storage: "256GB",
}

func TestMatchIdenticalTitle(t *testing.T) {
	got := Match(candidate("Samsung Galaxy S24 Ultra 256GB", "256GB"), s24Ultra)
	assert.GreaterOrEqual(t, got.Similarity, 0.95)
	assert.True(t, got.StorageExact)
}

func TestMatchTokenOrderIndependent(t *testing.T) {
	a := Match(candidate("Samsung Galaxy S24 Ultra 256GB", "256GB"), s24Ultra)
	b := Match(candidate("256GB Ultra S24 Galaxy Samsung", "256GB"), s24Ultra)
	assert.InDelta(t, a.Similarity, b.Similarity, 0.001)
}

func TestMatchStorageMismatchCapped(t *testing.T) {
	got := Match(candidate("Samsung Galaxy S24 Ultra 512GB", "512GB"), s24Ultra)
	assert.LessOrEqual(t, got.Similarity, 0.3)
	assert.False(t, got.StorageExact)
}

func TestMatchMissingStorageNotCapped(t *testing.T) {
	got := Match(candidate("Samsung Galaxy S24 Ultra best price", ""), s24Ultra)
	assert.Greater(t, got.Similarity, 0.9)
	assert.False(t, got.StorageExact)
}

func TestMatchWrongBrandRejected(t *testing.T) {
	variant := model.CanonicalVariant{
		Brand: "Tecno", Model: "Spark 20", Slug: "tecno_spark_20", Storage: "256GB",
	}
	got := Match(candidate("Apple iPhone 15 Pro 256GB", "256GB"), variant)
	assert.Zero(t, got.Similarity)
	assert.Less(t, got.BrandRatio, 0.6)
}

func TestMatchBrandAliasNormalized(t *testing.T) {
	variant := model.CanonicalVariant{
		Brand: "one plus", Model: "12R", Slug: "oneplus_12r", Storage: "256GB",
	}
	got := Match(candidate("OnePlus 12R 256GB global version", "256GB"), variant)
	assert.Greater(t, got.Similarity, 0.9)
}

func TestBestPrefersExactStorage(t *testing.T) {
	v256 := s24Ultra
	v512 := model.CanonicalVariant{
		Brand: "Samsung", Model: "Galaxy S24 Ultra",
		Slug: "samsung_galaxy_s24_ultra_512", Storage: "512GB",
	}

	// No storage in the candidate text, so both variants score identically
	// and the tie-break decides.
	cand := candidate("Samsung Galaxy S24 Ultra best deal", "")
	got, ok := Best(cand, []model.CanonicalVariant{v512, v256})
	require.True(t, ok)

	// Neither is storage-exact; the shorter slug wins lexicographically.
	assert.Equal(t, "samsung_galaxy_s24_ultra", got.VariantSlug)

	// With storage extracted, the exact-capacity variant wins outright.
	cand = candidate("Samsung Galaxy S24 Ultra 512GB", "512GB")
	got, ok = Best(cand, []model.CanonicalVariant{v256, v512})
	require.True(t, ok)
	assert.Equal(t, "samsung_galaxy_s24_ultra_512", got.VariantSlug)
}

func TestBestPrefersCloserModel(t *testing.T) {
	base := model.CanonicalVariant{
		Brand: "Samsung", Model: "Galaxy S24",
		Slug: "samsung_galaxy_s24", Storage: "256GB",
	}
	plus := model.CanonicalVariant{
		Brand: "Samsung", Model: "Galaxy S24 Plus",
		Slug: "samsung_galaxy_s24_plus", Storage: "256GB",
	}

	cand := candidate("Samsung Galaxy S24 256GB", "256GB")
	got, ok := Best(cand, []model.CanonicalVariant{plus, base})
	require.True(t, ok)
	assert.Equal(t, "samsung_galaxy_s24", got.VariantSlug)
}

func TestBestNoMatch(t *testing.T) {
	_, ok := Best(candidate("wireless earbuds pro", ""), []model.CanonicalVariant{s24Ultra})
	assert.False(t, ok)

	_, ok = Best(candidate("Samsung Galaxy S24 Ultra", ""), nil)
	assert.False(t, ok)
}
