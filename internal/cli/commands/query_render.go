package commands

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderResults drains rows and writes them in format: table (default),
// json, csv or md.
func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var results [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return renderGrid(w, cols, results, format)
}

// renderGrid writes already materialized rows in format.
func renderGrid(w io.Writer, cols []string, results [][]any, format string) error {
	switch format {
	case "json":
		return renderJSON(w, cols, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

func renderTable(w io.Writer, cols []string, results [][]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range results {
		row := make(table.Row, len(result))
		for i, v := range result {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func renderJSON(w io.Writer, cols []string, results [][]any) error {
	objects := make([]map[string]any, 0, len(results))
	for _, result := range results {
		obj := make(map[string]any, len(cols))
		for i, col := range cols {
			obj[col] = result[i]
		}
		objects = append(objects, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func renderCSV(w io.Writer, cols []string, results [][]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, result := range results {
		for i, v := range result {
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, cols []string, results [][]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, result := range results {
		values := make([]string, len(result))
		for i, v := range result {
			values[i] = strings.ReplaceAll(formatValue(v), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func listTablesFromDB(ctx context.Context, w io.Writer, db *sql.DB, format string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY type, name
	`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// columnInfo represents schema column information.
type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable string `json:"nullable"`
	Default  string `json:"default"`
	PK       bool   `json:"pk"`
}

type schemaOutput struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Columns []columnInfo `json:"columns"`
}

func showSchemaFromDB(ctx context.Context, w io.Writer, db *sql.DB, tableName, format string) error {
	var objType string
	err := db.QueryRowContext(ctx, `
		SELECT type FROM sqlite_master
		WHERE name = ? AND type IN ('table', 'view')
	`, tableName).Scan(&objType)
	if err == sql.ErrNoRows {
		return fmt.Errorf("table or view '%s' not found", tableName)
	}
	if err != nil {
		return err
	}

	// pragma_table_info takes the name as a bound argument.
	rows, err := db.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, tableName)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}

		nullable := "YES"
		if notNull == 1 {
			nullable = "NO"
		}

		defaultVal := dflt.String
		if pk > 0 {
			if defaultVal != "" {
				defaultVal += " "
			}
			defaultVal += "(primary key)"
		}

		columns = append(columns, columnInfo{
			Name:     name,
			Type:     colType,
			Nullable: nullable,
			Default:  defaultVal,
			PK:       pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemaOutput{Name: tableName, Type: objType, Columns: columns})
	}

	title := "Table"
	if objType == "view" {
		title = "View"
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", title, tableName)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default"})
	for _, col := range columns {
		t.AppendRow(table.Row{col.Name, col.Type, col.Nullable, col.Default})
	}
	t.Render()
	return nil
}
