package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maauso/tracksplit/internal/boundary"
	"github.com/maauso/tracksplit/internal/job"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var trackHeaders = []string{"#", "Name", "Start", "End", "Length", "Status", "Output"}

var trackAligns = []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}

// trackRows formats resolved tracks for renderTable. The final track has no
// end and shows "end of file".
func trackRows(tracks []job.Track) [][]string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		end, length := "end of file", "-"
		if d, ok := t.Interval.Duration(); ok {
			end = boundary.FormatClock(t.Interval.End)
			length = boundary.FormatClock(d)
		}
		output := t.OutputPath
		if t.URL != "" {
			output = t.URL
		}
		status := string(t.Status)
		if t.Error != "" {
			status += ": " + t.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Index + 1),
			t.Name,
			boundary.FormatClock(t.Interval.Start),
			end,
			length,
			status,
			output,
		})
	}
	return rows
}
