package database

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	resultSeparator = strings.Repeat("=", 80)
	rowSeparator    = strings.Repeat("-", 80)
)

// FormatRows renders a tabular result set as plain text for LLM
// consumption: a header block naming the database and query, a
// row-numbered column-aligned table, and a footer repeating the row count.
// Rendering is deterministic for a given result set.
func FormatRows(rs *ResultSet, query, databaseName string) string {
	if rs.Len() == 0 {
		return resultSeparator + "\n" +
			"DATABASE QUERY RESULTS\n" +
			resultSeparator + "\n" +
			"Database: " + databaseName + "\n" +
			"Query: " + query + "\n" +
			"Result: No rows returned (empty result set)\n" +
			resultSeparator + "\n"
	}

	columns := rs.Columns
	if len(columns) == 0 {
		columns = columnsOf(rs.Rows[0])
	}

	// Column width = max over header and all values, in runes so
	// multi-byte values do not skew the alignment.
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range rs.Rows {
		for i, col := range columns {
			if w := utf8.RuneCountInString(stringifyValue(row, col)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	out := []string{
		resultSeparator,
		"DATABASE QUERY RESULTS",
		resultSeparator,
		"Database: " + databaseName,
		"Query: " + query,
		fmt.Sprintf("Rows returned: %d", rs.Len()),
		"",
		rowSeparator,
	}

	header := make([]string, 0, len(columns)+1)
	header = append(header, "Row#")
	for i, col := range columns {
		header = append(header, padRight(col, widths[i]))
	}
	out = append(out, strings.Join(header, "  "), rowSeparator)

	for idx, row := range rs.Rows {
		parts := make([]string, 0, len(columns)+1)
		parts = append(parts, fmt.Sprintf("%4d", idx+1))
		for i, col := range columns {
			parts = append(parts, padRight(stringifyValue(row, col), widths[i]))
		}
		out = append(out, strings.Join(parts, "  "))
	}

	out = append(out,
		rowSeparator,
		fmt.Sprintf("Total rows: %d", rs.Len()),
		resultSeparator,
		"",
	)
	return strings.Join(out, "\n")
}

// FormatDocuments renders document-store results as numbered blocks of
// "key: value" lines, preserving each document's field order.
func FormatDocuments(rs *ResultSet, query, databaseName string) string {
	if rs.Len() == 0 {
		return resultSeparator + "\n" +
			"MONGODB QUERY RESULTS\n" +
			resultSeparator + "\n" +
			"Database: " + databaseName + "\n" +
			"Query: " + query + "\n" +
			"Result: No documents returned (empty result set)\n" +
			resultSeparator + "\n"
	}

	out := []string{
		resultSeparator,
		"MONGODB QUERY RESULTS",
		resultSeparator,
		"Database: " + databaseName,
		"Query: " + query,
		fmt.Sprintf("Documents returned: %d", rs.Len()),
		"",
		rowSeparator,
	}

	for idx, doc := range rs.Rows {
		out = append(out, fmt.Sprintf("Document #%d:", idx+1))
		for _, f := range doc {
			out = append(out, fmt.Sprintf("  %s: %v", f.Name, f.Value))
		}
		out = append(out, rowSeparator)
	}

	out = append(out,
		fmt.Sprintf("Total documents: %d", rs.Len()),
		resultSeparator,
		"",
	)
	return strings.Join(out, "\n")
}

func columnsOf(row Row) []string {
	cols := make([]string, len(row))
	for i, f := range row {
		cols[i] = f.Name
	}
	return cols
}

func stringifyValue(row Row, column string) string {
	v, ok := row.Get(column)
	if !ok || v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
