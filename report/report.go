// Package report formats benchmark results into comparison tables and
// exports them as tab-separated files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/weiihann/iobench/harness"
	"github.com/weiihann/iobench/results"
)

// TimestampFormat names the timestamped export file.
const TimestampFormat = "20060102-150405"

// Generate writes a markdown comparison table for the given results.
func Generate(w io.Writer, records []harness.RunRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no results to report")
	}

	best := bestThroughput(records)

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Backend", "Operation", "Bytes", "Elapsed", "Throughput", "Slowdown",
	})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{
		Left: true, Top: false, Right: true, Bottom: false,
	})
	table.SetCenterSeparator("|")

	for _, r := range records {
		slowdown := "-"
		if tp := r.Throughput(); tp > 0 {
			slowdown = fmt.Sprintf("%.2fx", best[r.Operation]/tp)
		}

		table.Append([]string{
			r.Backend,
			string(r.Operation),
			formatBytes(uint64(max(r.BytesTransferred, 0))),
			formatSeconds(r.ElapsedTime),
			formatThroughput(r.Throughput()),
			slowdown,
		})
	}

	table.Render()

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, records []harness.RunRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(records)
}

// Paths are the files written by Export.
type Paths struct {
	Timestamped string
	Latest      string
}

// ExportPaths returns the export file names for prefix at time now.
func ExportPaths(dir, prefix string, now time.Time) Paths {
	return Paths{
		Timestamped: filepath.Join(
			dir, fmt.Sprintf("%s-%s.tsv", prefix, now.Format(TimestampFormat)),
		),
		Latest: filepath.Join(dir, prefix+"-latest.tsv"),
	}
}

// Export writes the table to a timestamped file and to the latest file,
// overwriting the latter.
func Export(dir, prefix string, t *results.Table, now time.Time) (Paths, error) {
	paths := ExportPaths(dir, prefix, now)

	for _, p := range []string{paths.Timestamped, paths.Latest} {
		if err := results.Save(p, t); err != nil {
			return paths, err
		}
	}

	return paths, nil
}

// bestThroughput returns the highest throughput seen per operation.
func bestThroughput(records []harness.RunRecord) map[harness.Operation]float64 {
	best := make(map[harness.Operation]float64)

	for _, r := range records {
		if tp := r.Throughput(); tp > best[r.Operation] {
			best[r.Operation] = tp
		}
	}

	return best
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.0fms", s*1000)
	}

	return fmt.Sprintf("%.2fs", s)
}

func formatThroughput(bps float64) string {
	if bps <= 0 {
		return "-"
	}

	return formatBytes(uint64(bps)) + "/s"
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
