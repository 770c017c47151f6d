// Package report renders the click dashboard as Markdown.
package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/okian/toolscout/internal/domain/model"
)

// Dashboard is everything one rendering needs.
type Dashboard struct {
	Report model.ClickReport
	Global model.GlobalCounts
	// Names maps entity ids to display names. Missing ids render as the id.
	Names       map[string]string
	GeneratedAt time.Time
}

// MarkdownWriter outputs click dashboards in Markdown format.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders d.
func (w *MarkdownWriter) Write(d Dashboard) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, d)
	w.writeSummary(md, d)
	w.writeEntities(md, d)
	w.writeGlobal(md, d)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, d Dashboard) {
	md.H1("Click Dashboard")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Range", "`" + d.Report.Range + "`"},
			{"As of", d.Report.Now.Format("2006-01-02 15:04:05 MST")},
			{"Generated", d.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, d Dashboard) {
	s := d.Report.Summary
	top := "-"
	if s.TopEntity != "" {
		top = displayName(d.Names, s.TopEntity)
	}

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total clicks", strconv.Itoa(s.TotalClicks)},
			{"Active tools", strconv.Itoa(s.ActiveEntities)},
			{"Top tool", top},
			{"Average per active tool", s.AverageText},
		},
	})
	md.PlainText("")

	if s.TotalClicks == 0 {
		md.Note("No clicks recorded in this range.")
		md.PlainText("")
		return
	}
	w.writePieChart(md, d)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, d Dashboard) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Clicks by tool"),
		piechart.WithShowData(true),
	)
	for _, e := range d.Report.Entities {
		if e.Stats.Total > 0 {
			chart.LabelAndIntValue(displayName(d.Names, e.EntityID), uint64(e.Stats.Total))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeEntities(md *markdown.Markdown, d Dashboard) {
	md.H2("Per tool")
	md.PlainText("")

	if len(d.Report.Entities) == 0 {
		md.PlainText("No tools in the catalog.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(d.Report.Entities))
	for i, e := range d.Report.Entities {
		rows[i] = []string{
			displayName(d.Names, e.EntityID),
			strconv.Itoa(e.Stats.Total),
			strconv.Itoa(e.Stats.Last7Days),
			strconv.Itoa(e.Stats.ThisMonth),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tool", "Total", "Last 7 days", "This month"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeGlobal(md *markdown.Markdown, d Dashboard) {
	md.H2("All clicks")
	md.PlainText("")
	md.BulletList(
		"Total: "+strconv.Itoa(d.Global.Total),
		"Last 7 days: "+strconv.Itoa(d.Global.Last7Days),
		"This month: "+strconv.Itoa(d.Global.ThisMonth),
	)
	md.PlainText("")
}

func displayName(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
