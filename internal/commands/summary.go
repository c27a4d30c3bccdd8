package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/colonyops/tick/internal/core/report"
	"github.com/colonyops/tick/internal/core/run"
	"github.com/colonyops/tick/internal/core/styles"
)

// printSummaryTo writes a per-response table and result tallies for a
// finished or interrupted session.
func printSummaryTo(out io.Writer, sess *run.Session) {
	stats := report.ComputeStats(sess.Responses)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, resp := range sess.Responses {
		fmt.Fprintf(w, "%s\t%s\t%s\n", styles.ResultIcon(resp.Result), resp.ItemID, styles.Result(resp.Result))
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\n%d pass, %d fail, %d skip, %d n/a",
		stats.Pass, stats.Fail, stats.Skip, stats.NA)
	if stats.Pass+stats.Fail > 0 {
		fmt.Fprintf(out, " (%.0f%% pass rate)", stats.PassRate())
	}
	fmt.Fprintln(out)
}
