package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/aktagon/articles-client/internal/api"
)

const previewWidth = 48

// Table buffers rows and renders them without borders
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table writing to w
func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render outputs the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}
	return t.table.Render()
}

// ArticleTable renders articles as ID/TOPIC/TITLE/TEXT rows. The row whose id
// equals selected is marked with an asterisk.
func ArticleTable(w io.Writer, articles []api.Article, selected *int) error {
	t := NewTable(w, []string{"", "ID", "Topic", "Title", "Text"})
	for _, a := range articles {
		mark := ""
		if selected != nil && *selected == a.ID {
			mark = "*"
		}
		t.AddRow([]string{mark, strconv.Itoa(a.ID), a.Topic, a.Title, preview(a.Text)})
	}
	return t.Render()
}

// preview flattens text to one line and shortens it for table cells.
func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= previewWidth {
		return flat
	}
	return string(r[:previewWidth-1]) + "…"
}
