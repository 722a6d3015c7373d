package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

var codesCmd = &cobra.Command{
	Use:   "codes [table] [code-or-name]",
	Short: "Browse the built-in code tables",
	Long: "Without arguments lists the code tables. With a table name lists its entries.\n" +
		"With a code or name as well, looks up a single entry.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			formatTables(out, codes.All())
			return nil
		}

		table, ok := codes.Find(args[0])
		if !ok {
			return eris.Errorf("unknown code table %q", args[0])
		}
		if len(args) == 1 {
			formatEntries(out, table.Entries())
			return nil
		}

		e, ok := table.Lookup(args[1])
		if !ok {
			return eris.Errorf("%s: no entry matches %q", table.Name(), args[1])
		}
		formatEntries(out, []codes.Entry{e})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(codesCmd)
}

func formatTables(out io.Writer, tables []codes.Lookup) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tENTRIES\tTITLE")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-----")
	for _, t := range tables {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", t.Name(), t.Len(), t.Title())
	}
	_ = w.Flush()
}

func formatEntries(out io.Writer, entries []codes.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SYMBOL\tCODE\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "------\t----\t-----------")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Symbol, e.Code, e.Description)
	}
	_ = w.Flush()
}
