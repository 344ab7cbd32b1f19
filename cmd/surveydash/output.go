package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"surveydash/adapters/excel"
	"surveydash/domain/dataset"
)

// printTable renders a table as text. A limit above zero truncates the rows.
func printTable(w io.Writer, t *dataset.Table, limit int) {
	header, rows := t.Records()
	truncated := 0
	if limit > 0 && len(rows) > limit {
		truncated = len(rows) - limit
		rows = rows[:limit]
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()

	if truncated > 0 {
		fmt.Fprintf(w, "... %d more rows\n", truncated)
	}
}

// printPairs renders label/value lines as a two-column table
func printPairs(w io.Writer, pairs [][2]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	for _, p := range pairs {
		tw.Append([]string{p[0], p[1]})
	}
	tw.Render()
}

func readTable(path string) (*dataset.Table, error) {
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	return excel.NewDataReader(path).ReadTable()
}

func writeWorkbook(path string, t *dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := excel.Write(f, t, excel.DefaultSheet); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitColumns(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
