package main

import (
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cast"
)

// tableData header and cells of rows, columns are taken from the rows unless given
func tableData(rows []map[string]interface{}, columns []string) pterm.TableData {
	if len(columns) == 0 {
		seen := map[string]bool{}
		for _, row := range rows {
			for key := range row {
				if !seen[key] {
					seen[key] = true
					columns = append(columns, key)
				}
			}
		}
		sort.Strings(columns)
		for idx, column := range columns {
			if column == "id" && idx > 0 {
				copy(columns[1:idx+1], columns[:idx])
				columns[0] = "id"
			}
		}
	}

	data := pterm.TableData{columns}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for idx, column := range columns {
			if value, ok := row[column]; ok && value != nil {
				text, err := cast.ToStringE(value)
				if err != nil {
					text = pterm.Sprint(value)
				}
				cells[idx] = text
			}
		}
		data = append(data, cells)
	}
	return data
}

func renderTable(out io.Writer, rows []map[string]interface{}, columns []string) error {
	if len(rows) == 0 {
		errorColor.Fprintln(out, "no rows")
		return nil
	}

	text, err := pterm.DefaultTable.WithHasHeader().WithData(tableData(rows, columns)).Srender()
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text+"\n")
	return err
}
