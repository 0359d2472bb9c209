package normalize

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"uppercase alias", "SAMSUNG", "Samsung"},
		{"lowercase alias", "apple", "Apple"},
		{"two word alias", "one plus", "OnePlus"},
		{"moto alias", "moto", "Motorola"},
		{"initialism", "lg", "LG"},
		{"unknown brand title cased", "fairphone", "Fairphone"},
		{"extra whitespace", "  one   plus  ", "OnePlus"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Brand(tt.in))
		})
	}
}

func TestModel(t *testing.T) {
	assert.Equal(t, "Galaxy S24 Ultra", Model("Galaxy  S24   Ultra"))
	assert.Equal(t, "iPhone 15 Pro Max", Model("  iPhone 15 Pro Max  "))
	assert.Equal(t, "", Model("   "))
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"256 GB", "256GB"},
		{"256gb", "256GB"},
		{"256GB", "256GB"},
		{"512G", "512GB"},
		{"1TB", "1TB"},
		{"1 tb", "1TB"},
		{"1T", "1TB"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Capacity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapacityIdempotent(t *testing.T) {
	first, err := Capacity("256 GB")
	require.NoError(t, err)
	second, err := Capacity(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCapacityUnrecognized(t *testing.T) {
	for _, in := range []string{"", "lots", "256MB", "TB"} {
		_, err := Capacity(in)
		require.Error(t, err, "input %q", in)
		assert.True(t, eris.Is(err, ErrUnrecognizedCapacity))
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		brand string
		model string
		want  string
	}{
		{"Samsung", "Galaxy S24 Ultra", "samsung_galaxy_s24_ultra"},
		{"Apple", "iPhone 15 Pro Max", "apple_iphone_15_pro_max"},
		{"OnePlus", "12R", "oneplus_12r"},
		{"Xiaomi", "Redmi Note 13+", "xiaomi_redmi_note_13"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.brand, tt.model))
	}
}

func TestSlugStableAcrossSpellings(t *testing.T) {
	a := Slug(Brand("SAMSUNG"), Model("Galaxy  S24  Ultra"))
	b := Slug(Brand("samsung"), Model("Galaxy S24 Ultra"))
	assert.Equal(t, a, b)
}

func TestFoldDigits(t *testing.T) {
	assert.Equal(t, "32999", FoldDigits("٣٢٩٩٩"))
	assert.Equal(t, "price 4500 EGP", FoldDigits("price ٤٥٠٠ EGP"))
	assert.Equal(t, "no digits here", FoldDigits("no digits here"))
}
