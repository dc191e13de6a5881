package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/apbverif/datarecording"
	"github.com/sarchlab/apbverif/tracing"
)

type queryOptions struct {
	verdict string
	limit   int
}

var queryOpts queryOptions

var queryCmd = &cobra.Command{
	Use:   "query <database>",
	Short: "Print the verdicts stored by run --record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queryVerdicts(
			cmd.Context(), cmd.OutOrStdout(), args[0], queryOpts)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryOpts.verdict, "verdict", "",
		"only print verdicts of this kind, for example MISMATCH or FAULT")
	queryCmd.Flags().IntVar(&queryOpts.limit, "limit", 0,
		"print at most this many rows; 0 prints all")

	rootCmd.AddCommand(queryCmd)
}

func queryVerdicts(
	ctx context.Context,
	out io.Writer,
	path string,
	opts queryOptions,
) error {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable(tracing.VerdictTable, tracing.VerdictEntry{})

	params := datarecording.QueryParams{
		OrderBy: "Cycle",
		Limit:   opts.limit,
	}

	if opts.verdict != "" {
		params.Where = "Verdict = ?"
		params.Args = []any{opts.verdict}
	}

	rows, total, err := reader.Query(ctx, tracing.VerdictTable, params)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCYCLE\tADDR\tKIND\tRDATA\tEXPECTED\tVERDICT")

	for _, row := range rows {
		v := row.(*tracing.VerdictEntry)

		kind := "READ"
		if v.Write {
			kind = "WRITE"
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t0x%02x\t0x%02x\t%s\n",
			v.ID, v.Cycle, v.Addr, kind, v.RData, v.Expected, v.Verdict)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "%d of %d rows\n", len(rows), total)

	return err
}
