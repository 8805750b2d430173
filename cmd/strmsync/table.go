package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableView accumulates rows for one rounded-style CLI table. The column
// count is fixed by the headers; short rows are padded on render.
type tableView struct {
	writer  table.Writer
	columns int
}

func newTableView(headers ...string) *tableView {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return &tableView{writer: tw, columns: len(headers)}
}

func (v *tableView) addRow(cells ...string) {
	row := make(table.Row, v.columns)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	v.writer.AppendRow(row)
}

// rightAlign right-aligns the given 1-based columns. Headers stay
// left-aligned either way.
func (v *tableView) rightAlign(columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, number := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      number,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	v.writer.SetColumnConfigs(configs)
}

func (v *tableView) render() string {
	return v.writer.Render()
}
