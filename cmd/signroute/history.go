package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/signroute/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit       int
		transcripts bool
		session     string
		olderThan   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded decisions or transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(c.cfg.DBPath())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			switch {
			case olderThan > 0:
				n, err := st.Decisions().DeleteBefore(time.Now().UTC().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d decisions.\n", n)
				return nil
			case transcripts:
				return listTranscripts(out, st, session, limit)
			default:
				return listDecisions(out, st, limit)
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&limit, "limit", "n", store.DefaultListLimit, "maximum rows to print")
	flags.BoolVar(&transcripts, "transcripts", false, "list speech transcripts instead of decisions")
	flags.StringVar(&session, "session", "", "only transcripts from this speech session")
	flags.DurationVar(&olderThan, "prune", 0, "delete decisions older than this duration instead of listing")

	return cmd
}

func listDecisions(out io.Writer, st *store.Store, limit int) error {
	decisions, err := st.Decisions().List(limit)
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		fmt.Fprintln(out, "No decisions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tLABEL\tCONFIDENCE\tHANDS")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", d.CreatedAt.Local().Format(timeLayout), d.Label, d.Confidence, d.Hands)
	}
	return w.Flush()
}

func listTranscripts(out io.Writer, st *store.Store, session string, limit int) error {
	transcripts, err := st.Transcripts().List(session, limit)
	if err != nil {
		return err
	}
	if len(transcripts) == 0 {
		fmt.Fprintln(out, "No transcripts recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tTEXT")
	for _, t := range transcripts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.CreatedAt.Local().Format(timeLayout), t.SessionID, t.Text)
	}
	return w.Flush()
}
