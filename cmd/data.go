package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bea-cli/internal/export"
	"github.com/sells-group/bea-cli/internal/store"
	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

var dataCmd = &cobra.Command{
	Use:   "data <dataset>",
	Short: "Fetch observations from a dataset",
	Long: "Fetches observations with GetData. Parameters are passed as NAME=VALUE, e.g.\n\n" +
		"  bea data Regional -p TableName=CAINC1 -p GeoFips=STATE -p LineCode=1 -p Year=2022",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ds, err := parseDataset(args[0])
		if err != nil {
			return err
		}
		pairs, _ := cmd.Flags().GetStringArray("param")
		opts, err := parseParams(pairs)
		if err != nil {
			return err
		}
		if err := requireCachedDataset(ds); err != nil {
			return err
		}
		opts.Dataset = ds

		save, _ := cmd.Flags().GetBool("store")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newClient()
		if err != nil {
			return err
		}

		var st store.Store
		if save || ttl > 0 {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}

		resp, err := fetchData(ctx, client, st, opts, ttl)
		if err != nil {
			return eris.Wrapf(err, "data %s", ds)
		}
		results := &resp.Results

		if save {
			run, err := st.SaveData(ctx, ds, opts, results)
			if err != nil {
				return eris.Wrap(err, "data: save run")
			}
			zap.L().Info("data: saved run", zap.String("run_id", run.ID), zap.Int("rows", run.Rows))
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s (%d rows)\n", run.ID, run.Rows)
		}

		if xlsxPath != "" {
			if err := export.WriteXLSX(xlsxPath, results); err != nil {
				return err
			}
			if err := export.VerifyXLSX(xlsxPath, results); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", xlsxPath)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		formatData(cmd.OutOrStdout(), results, limit)
		return nil
	},
}

func init() {
	dataCmd.Flags().StringArrayP("param", "p", nil, "query parameter (NAME=VALUE, repeatable)")
	dataCmd.Flags().Bool("store", false, "save the observations as a run in the local database")
	dataCmd.Flags().Duration("ttl", 0, "reuse a cached response younger than this (e.g. 24h); 0 disables the cache")
	dataCmd.Flags().String("xlsx", "", "also write the observations to this XLSX file")
	dataCmd.Flags().Bool("json", false, "print the parsed results as JSON")
	dataCmd.Flags().Int("limit", 0, "max number of rows to print (0 prints all)")

	rootCmd.AddCommand(dataCmd)
}

// fetchData runs GetData for opts. When st is non-nil and ttl is positive
// a fresh cached body is served; a body fetched from the API is written
// back. A hit never extends the entry's expiry.
func fetchData(ctx context.Context, client bea.Client, st store.Store, opts bea.Options, ttl time.Duration) (*bea.Response[bea.DataResults], error) {
	useCache := st != nil && ttl > 0
	key := cacheKey(codes.MethodGetData, opts)

	var (
		body      []byte
		fromCache bool
	)
	if useCache {
		cached, err := st.GetCachedResponse(ctx, key)
		if err != nil {
			zap.L().Warn("data: response cache read failed", zap.String("key", key), zap.Error(err))
		}
		body = cached
		fromCache = cached != nil
	}

	if fromCache {
		zap.L().Debug("data: response cache hit", zap.String("key", key))
	} else {
		raw, err := client.Raw(ctx, codes.MethodGetData, opts)
		if err != nil {
			return nil, err
		}
		body = raw
	}

	resp, err := bea.ParseData(body, loadOptions()...)
	if err != nil {
		return nil, err
	}

	// Only bodies that parsed are worth caching.
	if useCache && !fromCache {
		if err := st.SetCachedResponse(ctx, key, body, ttl); err != nil {
			zap.L().Warn("data: response cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// cacheKey identifies a request by method and parameters. The API key is
// never part of it.
func cacheKey(method codes.Method, opts bea.Options) string {
	params := opts.Params()
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(strings.ToUpper(p.Key))+"="+url.QueryEscape(p.Value))
	}
	return string(method) + "?" + strings.Join(parts, "&")
}

// formatData writes the statistic header and up to limit observation rows.
func formatData(out io.Writer, results *bea.DataResults, limit int) {
	if results.Statistic != "" {
		_, _ = fmt.Fprintf(out, "%s", results.Statistic)
		if results.UnitOfMeasure != "" {
			_, _ = fmt.Fprintf(out, " (%s)", results.UnitOfMeasure)
		}
		_, _ = fmt.Fprintln(out)
	}

	cols := export.Columns(results)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))
	dashes := make([]string, len(cols))
	for i, c := range cols {
		dashes[i] = strings.Repeat("-", len(c))
	}
	_, _ = fmt.Fprintln(w, strings.Join(dashes, "\t"))

	rows := export.Records(results)
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	for _, r := range shown {
		_, _ = fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()

	if len(shown) < len(rows) {
		_, _ = fmt.Fprintf(out, "... %d more rows\n", len(rows)-len(shown))
	}
	for _, n := range results.Notes {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", n.NoteRef, n.NoteText)
	}
}
