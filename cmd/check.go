package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bea-cli/internal/cache"
	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Smoke-test the API and the local cache",
}

var checkDatasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Fetch the dataset list, cache it and verify both cached forms",
	Long: "Fetches GetDataSetList, writes datasets.json and datasets.bin under BEA_DATA,\n" +
		"reads both back and checks they match the fetched list.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		dir, err := cache.New(cfg.DataDir)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		return checkDatasets(cmd.Context(), cmd.OutOrStdout(), client, dir)
	},
}

var checkParamsCmd = &cobra.Command{
	Use:   "params",
	Short: "Fetch and cache the parameter list of every dataset",
	Long: "Fetches GetParameterList for each dataset in the cached dataset list (or the\n" +
		"built-in dataset table when none is cached) and writes params_<dataset>.json\n" +
		"under BEA_DATA. Every body must parse; failures are reported per dataset.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		dir, err := cache.New(cfg.DataDir)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		return checkParams(cmd.Context(), cmd.OutOrStdout(), client, dir, concurrency)
	},
}

func init() {
	checkParamsCmd.Flags().Int("concurrency", 4, "max parallel requests (still paced by the rate limit)")

	checkCmd.AddCommand(checkDatasetsCmd)
	checkCmd.AddCommand(checkParamsCmd)
	rootCmd.AddCommand(checkCmd)
}

// checkDatasets round-trips the dataset list through dir.
func checkDatasets(ctx context.Context, out io.Writer, client bea.Client, dir *cache.Dir) error {
	body, err := client.Raw(ctx, codes.MethodGetDataSetList, bea.Options{})
	if err != nil {
		return eris.Wrap(err, "check datasets: fetch")
	}
	resp, err := bea.ParseDatasetList(body, loadOptions()...)
	if err != nil {
		return eris.Wrap(err, "check datasets: parse")
	}
	want := resp.Results

	if err := dir.SaveDatasets(body, want); err != nil {
		return eris.Wrap(err, "check datasets: save")
	}

	fromJSON, err := dir.LoadDatasetsJSON(loadOptions()...)
	if err != nil {
		return eris.Wrap(err, "check datasets: reload json")
	}
	if !sameDatasets(want, fromJSON) {
		return eris.Errorf("check datasets: %s does not match the fetched list", dir.Path(cache.DatasetsJSON))
	}

	fromBin, err := dir.LoadDatasetsBinary()
	if err != nil {
		return eris.Wrap(err, "check datasets: reload binary")
	}
	if !sameDatasets(want, fromBin) {
		return eris.Errorf("check datasets: %s does not match the fetched list", dir.Path(cache.DatasetsBin))
	}

	zap.L().Info("check datasets: ok", zap.Int("datasets", len(want.Datasets)))
	_, _ = fmt.Fprintf(out, "OK: %d datasets cached in %s and %s\n",
		len(want.Datasets), dir.Path(cache.DatasetsJSON), dir.Path(cache.DatasetsBin))
	return nil
}

// sameDatasets compares element-wise; gob decodes an empty list as nil.
func sameDatasets(a, b bea.DatasetList) bool {
	if len(a.Datasets) != len(b.Datasets) {
		return false
	}
	for i := range a.Datasets {
		if a.Datasets[i] != b.Datasets[i] {
			return false
		}
	}
	return true
}

// paramsFile names the cached parameter list of ds.
func paramsFile(ds codes.Dataset) string {
	return "params_" + string(ds) + ".json"
}

// checkParams fetches every dataset's parameter list, at most concurrency
// at a time. One dataset failing does not stop the others.
func checkParams(ctx context.Context, out io.Writer, client bea.Client, dir *cache.Dir, concurrency int) error {
	datasets := cachedDatasets(dir)
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu       sync.Mutex
		failures = make(map[codes.Dataset]error)
		ok       atomic.Int64
	)
	for _, ds := range datasets {
		g.Go(func() error {
			log := zap.L().With(zap.String("dataset", string(ds)))

			n, err := fetchParams(gctx, client, dir, ds)
			if err != nil {
				log.Error("check params: failed", zap.Error(err))
				mu.Lock()
				failures[ds] = err
				mu.Unlock()
				return nil
			}
			ok.Add(1)
			log.Debug("check params: ok", zap.Int("parameters", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "check params")
	}

	for _, ds := range datasets {
		if err, failed := failures[ds]; failed {
			_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", ds, err)
		}
	}
	_, _ = fmt.Fprintf(out, "%d datasets ok, %d failed\n", ok.Load(), len(failures))
	if len(failures) > 0 {
		return eris.Errorf("check params: %d of %d datasets failed", len(failures), len(datasets))
	}
	return nil
}

func fetchParams(ctx context.Context, client bea.Client, dir *cache.Dir, ds codes.Dataset) (int, error) {
	body, err := client.Raw(ctx, codes.MethodGetParameterList, bea.Options{Dataset: ds})
	if err != nil {
		return 0, err
	}
	resp, err := bea.ParseParameterList(body, loadOptions()...)
	if err != nil {
		return 0, err
	}
	if err := dir.WriteJSON(paramsFile(ds), body); err != nil {
		return 0, err
	}
	return len(resp.Results.Parameters), nil
}

// cachedDatasets prefers the dataset list saved by check datasets.
func cachedDatasets(dir *cache.Dir) []codes.Dataset {
	list, err := dir.LoadDatasetsBinary()
	if err != nil || len(list.Datasets) == 0 {
		return codes.Datasets.Symbols()
	}
	out := make([]codes.Dataset, 0, len(list.Datasets))
	for _, d := range list.Datasets {
		out = append(out, d.DatasetName)
	}
	return out
}
