package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"qbfrt/internal/journal"
	"qbfrt/internal/qbfrt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws a rounded table for terminals. Other writers get
// tab-separated lines without a header so output stays scriptable.
func renderTable(w io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	if !isTerminal(w) {
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	fmt.Fprintln(w, tw.Render())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printRuns(w io.Writer, runs []*journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := ""
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.RunID,
			r.Operation,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			r.Status,
			strconv.Itoa(r.Written),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(r.Failed),
			r.BackupName,
		})
	}
	renderTable(w,
		[]string{"Run", "Operation", "Started", "Duration", "Status", "Written", "Unchanged", "Failed", "Backup"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func printFailures(w io.Writer, failures []journal.Failure) {
	if len(failures) == 0 {
		fmt.Fprintln(w, "No failures recorded for this run.")
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.TorrentID, f.Outcome, f.Message})
	}
	renderTable(w, []string{"Torrent", "Outcome", "Message"}, rows, nil)
}

func printBackups(w io.Writer, objs []qbfrt.BackupObject) {
	if len(objs) == 0 {
		fmt.Fprintln(w, "No backups stored.")
		return
	}
	rows := make([][]string, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, []string{
			o.Name,
			humanize.IBytes(uint64(o.Size)),
			humanize.Time(o.ModifiedAt),
		})
	}
	renderTable(w, []string{"Name", "Size", "Modified"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft})
}
