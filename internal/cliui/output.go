package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"

	"github.com/starford/sideload/internal/importer"
	"github.com/starford/sideload/internal/models"
)

// NewTable creates a table writing to w with consistent styling.
func NewTable(w io.Writer, headers ...any) table.Table {
	tbl := table.New(headers...)
	tbl.WithWriter(w)
	tbl.WithFirstColumnFormatter(func(format string, vals ...any) string {
		return BoldStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)
	// ANSI codes must not count toward column width.
	tbl.WithWidthFunc(lipgloss.Width)
	return tbl
}

// PrintBrowse writes a directory listing with its breadcrumb trail.
func PrintBrowse(w io.Writer, res *models.BrowseResult) {
	labels := make([]string, 0, len(res.Breadcrumbs))
	for _, c := range res.Breadcrumbs {
		labels = append(labels, c.Label)
	}
	fmt.Fprintln(w, HeaderStyle.Render(strings.Join(labels, " / ")))
	fmt.Fprintln(w, DimStyle.Render(res.CurrentPath))
	fmt.Fprintln(w)

	if len(res.Directories) == 0 && len(res.Files) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(empty)"))
		return
	}

	tbl := NewTable(w, "NAME", "SIZE", "TYPE", "STATUS")
	for _, d := range res.Directories {
		tbl.AddRow(d.Name+"/", "", "dir", "")
	}
	for _, f := range res.Files {
		tbl.AddRow(f.Name, FormatSize(f.Size), f.MimeType, fileStatus(f))
	}
	tbl.Print()
}

func fileStatus(f models.FileEntry) string {
	switch {
	case f.Imported:
		if f.AssetID != nil {
			return SuccessStyle.Render(fmt.Sprintf("imported #%d", *f.AssetID))
		}
		return SuccessStyle.Render("imported")
	case f.Importable:
		return "importable"
	default:
		return DimStyle.Render("not allowed")
	}
}

// PrintSummary writes one row per import result and a totals line.
func PrintSummary(w io.Writer, s importer.Summary) {
	if len(s.Results) > 0 {
		tbl := NewTable(w, "FILE", "RESULT", "DETAIL")
		for _, r := range s.Results {
			if r.Success {
				tbl.AddRow(r.File, SuccessStyle.Render("ok"), r.URL)
			} else {
				tbl.AddRow(r.File, ErrorStyle.Render("failed"), r.Error)
			}
		}
		tbl.Print()
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s %s\n",
		SuccessStyle.Render(fmt.Sprintf("%d imported", s.Succeeded)),
		failedCount(s.Failed))
}

func failedCount(n int) string {
	text := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return DimStyle.Render(text)
	}
	return ErrorStyle.Render(text)
}

// FormatSize formats a byte count for humans.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
