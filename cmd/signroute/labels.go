package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/signroute/internal/classifier"
)

func newLabelsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the label set with model output indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := classifier.LoadLabelsFile(c.cfg.LabelsPath)
			if err != nil {
				return err
			}
			printLabels(cmd.OutOrStdout(), labels)
			return nil
		},
	}
}

func printLabels(out io.Writer, labels []string) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "INDEX\tLABEL")
	for i, l := range labels {
		fmt.Fprintf(w, "%d\t%s\n", i, l)
	}
	w.Flush()
}
