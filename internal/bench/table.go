package bench

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

// WriteTable prints results as a markdown table. Server is the mean time from
// connection to first response byte.
func WriteTable(w io.Writer, results []domain.RunResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(tw, "Method\tSink\tMean\tAllocated\tAllocs/op\tIterations\tReused\tServer\t")
	fmt.Fprintln(tw, "---\t---\t---:\t---:\t---:\t---:\t---:\t---:\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t\n",
			r.Strategy, r.Sink, formatMean(r.NsPerOp), formatBytes(r.BytesPerOp),
			r.AllocsPerOp, r.Iterations, formatReuse(r.Requests, r.ConnReused),
			formatTraced(r.Requests, r.ServerNsPerReq))
	}
	return tw.Flush()
}

func formatMean(ns int64) string {
	switch {
	case ns >= 1_000_000:
		return fmt.Sprintf("%.2f ms", float64(ns)/1e6)
	case ns >= 1_000:
		return fmt.Sprintf("%.1f us", float64(ns)/1e3)
	default:
		return fmt.Sprintf("%d ns", ns)
	}
}

func formatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.2f KB", float64(b)/1024)
}

func formatTraced(requests, ns int64) string {
	if requests == 0 {
		return "-"
	}
	return formatMean(ns)
}

func formatReuse(requests, reused int64) string {
	if requests == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(reused)/float64(requests))
}
