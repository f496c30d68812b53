package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// textColumnWidth bounds free-text cells such as segment text and error
// details; longer values wrap at word boundaries.
const textColumnWidth = 72

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView describes one CLI table. Headers and Footer may be empty; a
// table without headers renders as a plain key/value listing.
type tableView struct {
	Title   string
	Headers []string
	Rows    [][]string
	Align   []columnAlignment
	Footer  []string
}

// fieldsTable renders label/value pairs under a title.
func fieldsTable(title string, rows [][]string) string {
	return tableView{Title: title, Rows: rows, Align: []columnAlignment{alignLeft, alignLeft}}.render()
}

func (v tableView) columns() int {
	n := len(v.Headers)
	for _, row := range v.Rows {
		n = max(n, len(row))
	}
	return n
}

// render draws the table with the rounded style. Labels keep their case.
// Short rows are padded with empty cells.
func (v tableView) render() string {
	columns := v.columns()
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	style := tw.Style()
	style.Title.Format = text.FormatDefault
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	if v.Title != "" {
		tw.SetTitle(v.Title)
	}
	if len(v.Headers) > 0 {
		tw.AppendHeader(padRow(v.Headers, columns))
	}
	for _, row := range v.Rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(v.Footer) > 0 {
		tw.AppendFooter(padRow(v.Footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(v.Align) && v.Align[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			AlignFooter:      align,
			WidthMax:         textColumnWidth,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render() + "\n"
}

func padRow(cells []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
