package database

import (
	"fmt"
	"strings"
)

// Character-per-token ratios for estimation. Tabular database output is
// denser than prose, so it gets the lowest ratio.
const (
	charsPerTokenDatabase = 2.8
	charsPerTokenHTML     = 2.5
	charsPerTokenRegular  = 3.2

	tokenEstimationBuffer = 1.1

	// Fixed overheads of the formatted result block.
	headerTokenOverhead = 200
	noticeTokenReserve  = 100
)

// EstimateTokens approximates the language-model token cost of text using a
// character-based heuristic with a 10% buffer.
func EstimateTokens(text string, isDatabaseResult bool) int {
	chars := charsPerTokenRegular
	switch {
	case isDatabaseResult:
		chars = charsPerTokenDatabase
	case strings.Contains(text, "<") && strings.Contains(text, ">"):
		chars = charsPerTokenHTML
	}
	estimate := float64(len(text)) / chars * tokenEstimationBuffer
	return int(estimate + 0.5)
}

// EstimateResultTokens approximates the cost of a formatted result set
// before formatting it: a fixed header overhead plus a per-row estimate
// derived from one representative row serialized as "key: value" pairs.
func EstimateResultTokens(rs *ResultSet, query string) int {
	if rs.Len() == 0 {
		return EstimateTokens(fmt.Sprintf("Query: %s\nResult: No rows returned", query), true)
	}
	return headerTokenOverhead + tokensPerRow(rs.Rows[0])*rs.Len()
}

func tokensPerRow(sample Row) int {
	parts := make([]string, len(sample))
	for i, f := range sample {
		parts[i] = fmt.Sprintf("%s: %v", f.Name, f.Value)
	}
	// +5 covers row numbering and alignment padding.
	return EstimateTokens(strings.Join(parts, " "), true) + 5
}

// Truncate keeps a result set within maxTokens. When the full estimate fits
// the budget the set is returned unchanged. Otherwise the leading prefix of
// rows that fits (always at least one) is kept in original order and a
// notice stating the original and kept counts is returned alongside.
//
// The policy is a deterministic prefix-keep, not sampling, so repeated runs
// over the same data produce identical output.
func Truncate(rs *ResultSet, maxTokens int, query, databaseName string) (*ResultSet, bool, string) {
	if rs.Len() == 0 {
		return rs, false, ""
	}

	fullTokens := EstimateResultTokens(rs, query)
	if fullTokens <= maxTokens {
		return rs, false, ""
	}

	rowTokens := tokensPerRow(rs.Rows[0])
	available := maxTokens - headerTokenOverhead - noticeTokenReserve
	keep := 1
	if rowTokens > 0 && available > rowTokens {
		keep = available / rowTokens
	}
	if keep > rs.Len() {
		keep = rs.Len()
	}

	truncated := &ResultSet{
		Columns: rs.Columns,
		Rows:    rs.Rows[:keep],
	}
	notice := fmt.Sprintf(
		"\n\n[TRUNCATED] Original result had %d rows, showing first %d rows to fit token budget. "+
			"Estimated tokens: %d -> %d",
		rs.Len(), keep, fullTokens, maxTokens)
	return truncated, true, notice
}

// OptimalRowLimit derives a row cap from a constrained token budget, used
// to size the injected LIMIT clause before fetching. The result is clamped
// to [10, 10000]; tokensPerRow falls back to 50 when unknown.
func OptimalRowLimit(maxTokens, tokensPerRow int) int {
	if tokensPerRow <= 0 {
		tokensPerRow = 50
	}
	available := maxTokens - headerTokenOverhead
	if available < 100 {
		available = 100
	}
	rows := available / tokensPerRow
	if rows < 10 {
		return 10
	}
	if rows > DefaultMaxRows {
		return DefaultMaxRows
	}
	return rows
}
