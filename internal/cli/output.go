package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/pyladies-meetup/internal/collector"
	"github.com/pfrederiksen/pyladies-meetup/internal/growth"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// WriteSummary writes a run summary in the specified format
func WriteSummary(w io.Writer, summary *collector.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeSummaryText(w, summary)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteGrowth writes growth reports in the specified format
func WriteGrowth(w io.Writer, reports []*growth.Report, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, reports)
	case FormatText:
		return writeGrowthText(w, reports)
	case FormatCSV:
		return writeGrowthCSV(w, reports)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeSummaryText outputs a run summary as human-readable text
func writeSummaryText(w io.Writer, s *collector.Summary) error {
	fmt.Fprintf(w, "Run %s finished in %s\n", s.RunID, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "Output directory: %s\n", s.OutputDir)
	fmt.Fprintf(w, "Chapters: %d (%d without Meetup data)\n", s.Chapters, len(s.Unresolvable))
	fmt.Fprintf(w, "Groups found: %d, skipped: %d\n", s.Resolved, s.Skipped)
	fmt.Fprintf(w, "Chapters collected: %d\n", s.Collected)
	fmt.Fprintf(w, "Nearby PUGs collected: %d, failed: %d\n", s.NearbyPUGs, s.NearbyFailed)

	if len(s.Failures) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nFailures (%d):\n", len(s.Failures))
	for _, f := range s.Failures {
		if f.Group != "" {
			fmt.Fprintf(w, "  %s / %s [%s]: %s\n", f.Chapter, f.Group, f.Stage, f.Error)
		} else {
			fmt.Fprintf(w, "  %s [%s]: %s\n", f.Chapter, f.Stage, f.Error)
		}
	}
	return nil
}

// writeGrowthText renders one table per chapter: a row per month, a column
// per group.
func writeGrowthText(w io.Writer, reports []*growth.Report) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No collected chapters found.")
		return nil
	}

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)

		title := r.Chapter
		if r.Created != nil {
			title += " (created " + r.Created.Format("2006-01-02") + ")"
		}
		t.SetTitle(title)

		header := table.Row{"Month"}
		for _, s := range r.Series {
			header = append(header, s.Name)
		}
		t.AppendHeader(header)

		for _, month := range r.Months() {
			row := table.Row{month}
			for _, s := range r.Series {
				row = append(row, s.Count(month))
			}
			t.AppendRow(row)
		}

		undated := table.Row{"Undated"}
		total := table.Row{"Total"}
		for _, s := range r.Series {
			undated = append(undated, s.Undated)
			total = append(total, s.Total)
		}
		t.AppendFooter(undated)
		t.AppendFooter(total)

		t.SetStyle(table.StyleRounded)
		t.Render()
	}
	return nil
}

// writeGrowthCSV outputs one row per chapter, group and month.
func writeGrowthCSV(w io.Writer, reports []*growth.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"chapter", "group", "kind", "month", "count"})

	for _, r := range reports {
		for _, s := range r.Series {
			for _, m := range s.Months {
				t.AppendRow(table.Row{r.Chapter, s.Name, s.Kind, m.Month, strconv.Itoa(m.Count)})
			}
		}
	}

	t.RenderCSV()
	return nil
}
