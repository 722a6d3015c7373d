package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bea-cli/internal/cache"
	"github.com/sells-group/bea-cli/internal/config"
	"github.com/sells-group/bea-cli/internal/store"
	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bea",
	Short: "Query the Bureau of Economic Analysis data API",
	Long:  "Lists BEA datasets and their parameters, fetches observations, caches responses locally and exports them to SQLite or XLSX.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds an API client from the loaded configuration.
func newClient() (bea.Client, error) {
	if err := cfg.Validate("api"); err != nil {
		return nil, err
	}
	return bea.NewClient(cfg.APIKey,
		bea.WithBaseURL(cfg.BaseURL),
		bea.WithTimeout(time.Duration(cfg.TimeoutSecs)*time.Second),
		bea.WithRateLimit(cfg.RatePerMinute),
		bea.WithLoadOptions(loadOptions()...),
	), nil
}

func loadOptions() []bea.LoadOption {
	if cfg != nil && cfg.StrictFlags {
		return []bea.LoadOption{bea.WithStrictFlags()}
	}
	return nil
}

func initStore(_ context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.NewSQLite(cfg.Store.Path)
}

// parseDataset resolves a dataset argument by name, case-insensitively.
func parseDataset(arg string) (codes.Dataset, error) {
	ds, err := codes.Datasets.Parse(arg)
	if err != nil {
		return "", eris.Wrapf(err, "unknown dataset %q", arg)
	}
	return ds, nil
}

// requireCachedDataset rejects ds when check datasets has cached a dataset
// list that does not include it. Without a cached list any known dataset
// passes.
func requireCachedDataset(ds codes.Dataset) error {
	if cfg == nil || strings.TrimSpace(cfg.DataDir) == "" {
		return nil
	}
	dir, err := cache.New(cfg.DataDir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir.Path(cache.DatasetsBin)); err != nil {
		return nil
	}
	list, err := dir.LoadDatasetsBinary()
	if err != nil {
		zap.L().Warn("cached dataset list unreadable", zap.Error(err))
		return nil
	}
	if _, err := list.Find(ds); err != nil {
		return eris.Wrapf(err, "dataset %s is not in %s; rerun check datasets", ds, dir.Path(cache.DatasetsBin))
	}
	return nil
}

// parseParameterName resolves a parameter argument by name, case-insensitively.
func parseParameterName(arg string) (codes.ParameterName, error) {
	p, err := codes.ParameterNames.Parse(arg)
	if err != nil {
		return "", eris.Wrapf(err, "unknown parameter %q", arg)
	}
	return p, nil
}
