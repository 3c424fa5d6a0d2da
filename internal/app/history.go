package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"codequest/internal/state"
)

// WriteHistory prints the attempt summary and the most recent attempts
// recorded under cfg.DataDir.
func WriteHistory(ctx context.Context, w io.Writer, cfg Config, limit int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		return err
	}
	attempts, err := store.RecentAttempts(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d generated · %d runs · %d submissions (%d accepted) · %d errors\n\n",
		sum.Generates, sum.Runs, sum.Submissions, sum.Accepted, sum.Errors)
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No attempts yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tKIND\tPROBLEM\tLANGUAGE\tOUTCOME\tDETAIL")
	for _, at := range attempts {
		subject := at.ProblemID
		if subject == "" {
			subject = at.Topic
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(at.TS), at.Kind, dash(subject), dash(at.Language), at.Outcome, at.Message)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
