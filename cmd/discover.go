package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/egphones/pricewatch/internal/discovery"
	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/normalize"
	"github.com/egphones/pricewatch/pkg/jina"
)

var variantsPath string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one price discovery cycle over the variant catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		variants, err := loadVariants(variantsPath)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}

		search := jina.NewClient(cfg.Jina.Key,
			jina.WithBaseURL(cfg.Jina.SearchBaseURL),
			jina.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Jina.TimeoutSecs) * time.Second}),
			jina.WithRateLimit(float64(cfg.Jina.RatePerSec), cfg.Jina.RateBurst),
		)

		runner := discovery.NewRunner(cfg, st, search)

		started := time.Now()
		summary, err := runner.Run(cmd.Context(), variants)
		if err != nil {
			return eris.Wrap(err, "discovery run")
		}

		zap.L().Info("run finished",
			zap.String("run_id", summary.RunID),
			zap.Int("variants", summary.Variants),
			zap.Int("committed", summary.Committed),
			zap.Int("retained_stale", summary.RetainedStale),
			zap.Int("offers", summary.OffersFound),
			zap.Int("errors", summary.Errors),
			zap.Duration("elapsed", time.Since(started)),
		)
		return nil
	},
}

// loadVariants reads the canonical variant catalog. Slugs from the catalog
// are authoritative; only variants without one get a generated slug.
func loadVariants(path string) ([]model.CanonicalVariant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read variant catalog %s", path)
	}

	var variants []model.CanonicalVariant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, eris.Wrap(err, "parse variant catalog")
	}

	for i := range variants {
		v := &variants[i]
		if v.Brand == "" || v.Model == "" {
			return nil, eris.Errorf("variant %d: brand and model are required", i)
		}
		if v.Storage != "" {
			storage, err := normalize.Capacity(v.Storage)
			if err != nil {
				return nil, eris.Wrapf(err, "variant %d: storage", i)
			}
			v.Storage = storage
		}
		if v.RAM != "" {
			ram, err := normalize.Capacity(v.RAM)
			if err != nil {
				return nil, eris.Wrapf(err, "variant %d: ram", i)
			}
			v.RAM = ram
		}
		if v.Slug == "" {
			v.Slug = normalize.Slug(v.Brand, v.Model)
			if v.Storage != "" {
				v.Slug += "_" + strings.ToLower(v.Storage)
			}
		}
	}

	return variants, nil
}

func init() {
	discoverCmd.Flags().StringVar(&variantsPath, "variants", "variants.json", "path to the variant catalog JSON")
	rootCmd.AddCommand(discoverCmd)
}
