package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/store"
)

func newServerWithRecord(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "pricewatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.ReplaceRecords(ctx, map[string]model.PriceRecord{
		"samsung_galaxy_s24_ultra": {
			PhoneSlug: "samsung_galaxy_s24_ultra",
			Variant:   "12GB/256GB",
			Offers: []model.Offer{{
				Store: "amazon", Price: 32999, Currency: "EGP",
				Confidence: 0.95, ConfidenceLevel: model.ConfidenceHigh,
			}},
			BestPrice:   32999,
			BestStore:   "amazon",
			LastUpdated: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}))

	srv := httptest.NewServer(apiRouter(st))
	t.Cleanup(srv.Close)
	return srv
}

func TestServeHealth(t *testing.T) {
	srv := newServerWithRecord(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServePrices(t *testing.T) {
	srv := newServerWithRecord(t)

	resp, err := http.Get(srv.URL + "/api/prices")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records map[string]model.PriceRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, 32999.0, records["samsung_galaxy_s24_ultra"].BestPrice)
}

func TestServePriceBySlug(t *testing.T) {
	srv := newServerWithRecord(t)

	resp, err := http.Get(srv.URL + "/api/prices/samsung_galaxy_s24_ultra")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec model.PriceRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "amazon", rec.BestStore)
}

func TestServePriceUnknownSlug(t *testing.T) {
	srv := newServerWithRecord(t)

	resp, err := http.Get(srv.URL + "/api/prices/nokia_3310")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
