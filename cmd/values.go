package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bea-cli/pkg/bea"
)

var valuesCmd = &cobra.Command{
	Use:   "values <dataset> <parameter>",
	Short: "List the accepted values of a dataset parameter",
	Long: "Lists the values a parameter accepts. With --filter the values are narrowed by\n" +
		"other parameters (GetParameterValuesFiltered), e.g.\n\n" +
		"  bea values Regional LineCode --filter TableName=CAINC1",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := parseDataset(args[0])
		if err != nil {
			return err
		}
		param, err := parseParameterName(args[1])
		if err != nil {
			return err
		}
		filters, _ := cmd.Flags().GetStringArray("filter")
		filter, err := parseParams(filters)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		var resp *bea.Response[bea.ParameterValueList]
		if len(filters) > 0 {
			resp, err = client.ParameterValuesFiltered(cmd.Context(), ds, param, filter)
		} else {
			resp, err = client.ParameterValues(cmd.Context(), ds, param)
		}
		if err != nil {
			return eris.Wrapf(err, "values %s %s", ds, param)
		}

		formatValues(cmd.OutOrStdout(), resp.Results)
		return nil
	},
}

func init() {
	valuesCmd.Flags().StringArray("filter", nil, "narrow values by another parameter (NAME=VALUE, repeatable)")
	rootCmd.AddCommand(valuesCmd)
}

// parseParams turns NAME=VALUE pairs into options. Names are matched
// case-insensitively; unknown names are passed through as-is.
func parseParams(pairs []string) (bea.Options, error) {
	var opts bea.Options
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return bea.Options{}, eris.Errorf("invalid parameter %q, want NAME=VALUE", p)
		}
		opts.Set(name, strings.TrimSpace(value))
	}
	return opts, nil
}

// formatValues writes key, description and any extra columns to out.
func formatValues(out io.Writer, list bea.ParameterValueList) {
	extra := extraColumns(list)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := append([]string{"KEY", "DESCRIPTION"}, extra...)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(dashes, "\t"))

	for _, v := range list.Values {
		row := []string{v.Key, v.Desc}
		for _, k := range extra {
			row = append(row, v.Extra[k])
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func extraColumns(list bea.ParameterValueList) []string {
	seen := make(map[string]bool)
	for _, v := range list.Values {
		for k := range v.Extra {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
