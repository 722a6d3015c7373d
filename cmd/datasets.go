package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bea-cli/pkg/bea"
	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets published by the API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			body, err := client.Raw(cmd.Context(), codes.MethodGetDataSetList, bea.Options{})
			if err != nil {
				return eris.Wrap(err, "datasets")
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}

		resp, err := client.DatasetList(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "datasets")
		}
		formatDatasets(cmd.OutOrStdout(), resp.Results)
		return nil
	},
}

var paramsCmd = &cobra.Command{
	Use:   "params <dataset>",
	Short: "List the parameters a dataset accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := parseDataset(args[0])
		if err != nil {
			return err
		}
		if err := requireCachedDataset(ds); err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		resp, err := client.ParameterList(cmd.Context(), ds)
		if err != nil {
			return eris.Wrapf(err, "params %s", ds)
		}
		formatParameters(cmd.OutOrStdout(), resp.Results)
		return nil
	},
}

func init() {
	datasetsCmd.Flags().Bool("raw", false, "print the unparsed JSON response")

	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(paramsCmd)
}

// formatDatasets writes a tabular list of datasets to out.
func formatDatasets(out io.Writer, list bea.DatasetList) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-----------")
	for _, d := range list.Datasets {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", d.DatasetName, d.DatasetDescription)
	}
	_ = w.Flush()
}

// formatParameters writes a tabular list of parameters to out.
func formatParameters(out io.Writer, list bea.ParameterList) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tREQUIRED\tMULTIPLE\tDEFAULT\tALL\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t----\t--------\t--------\t-------\t---\t-----------")
	for _, p := range list.Parameters {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ParameterName,
			p.ParameterDataType,
			yesNo(p.ParameterIsRequiredFlag),
			yesNo(p.MultipleAcceptedFlag),
			deref(p.ParameterDefaultValue),
			deref(p.AllValue),
			p.ParameterDescription,
		)
	}
	_ = w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
