package database

import (
	"fmt"
	"strings"
	"testing"
)

func makeResultSet(rows int) *ResultSet {
	rs := &ResultSet{Columns: []string{"id", "name", "email"}}
	for i := 0; i < rows; i++ {
		rs.Rows = append(rs.Rows, Row{
			{Name: "id", Value: i + 1},
			{Name: "name", Value: fmt.Sprintf("user_%d", i+1)},
			{Name: "email", Value: fmt.Sprintf("user_%d@example.com", i+1)},
		})
	}
	return rs
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		isDatabase bool
		want       int
	}{
		{"empty", "", true, 0},
		{"database text", strings.Repeat("a", 280), true, 110},
		{"html text", "<" + strings.Repeat("a", 248) + ">", false, 110},
		{"regular text", strings.Repeat("a", 320), false, 110},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateTokens(tc.text, tc.isDatabase); got != tc.want {
				t.Errorf("EstimateTokens = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTruncate_WithinBudgetUnchanged(t *testing.T) {
	rs := makeResultSet(5)
	got, wasTruncated, notice := Truncate(rs, 100_000, "SELECT * FROM users", "mydb")
	if wasTruncated {
		t.Fatal("Small result within a large budget must not be truncated")
	}
	if got != rs {
		t.Error("Untruncated result should be returned as-is")
	}
	if notice != "" {
		t.Errorf("Expected no notice, got %q", notice)
	}
}

func TestTruncate_EmptyResult(t *testing.T) {
	rs := &ResultSet{Columns: []string{"id"}}
	got, wasTruncated, _ := Truncate(rs, 10, "SELECT * FROM users", "mydb")
	if wasTruncated {
		t.Error("Empty result sets are never truncated")
	}
	if got.Len() != 0 {
		t.Errorf("Expected empty result, got %d rows", got.Len())
	}
}

func TestTruncate_KeepsLeadingPrefixInOrder(t *testing.T) {
	rs := makeResultSet(1000)
	got, wasTruncated, notice := Truncate(rs, 1000, "SELECT * FROM users", "mydb")
	if !wasTruncated {
		t.Fatal("1000 rows cannot fit a 1000 token budget")
	}
	if got.Len() >= rs.Len() {
		t.Fatalf("Expected fewer rows after truncation, got %d", got.Len())
	}
	if got.Len() < 1 {
		t.Fatal("Truncation must keep at least one row")
	}
	for i, row := range got.Rows {
		id, _ := row.Get("id")
		if id != i+1 {
			t.Fatalf("Row %d out of order: id=%v", i, id)
		}
	}
	if !strings.Contains(notice, "[TRUNCATED]") {
		t.Errorf("Notice should be flagged: %q", notice)
	}
	if !strings.Contains(notice, fmt.Sprintf("Original result had %d rows, showing first %d rows", rs.Len(), got.Len())) {
		t.Errorf("Notice should state original and kept counts: %q", notice)
	}
}

func TestTruncate_TinyBudgetKeepsOneRow(t *testing.T) {
	rs := makeResultSet(50)
	got, wasTruncated, _ := Truncate(rs, 1, "SELECT * FROM users", "mydb")
	if !wasTruncated {
		t.Fatal("Expected truncation under a one-token budget")
	}
	if got.Len() != 1 {
		t.Errorf("Expected exactly one kept row, got %d", got.Len())
	}
}

func TestTruncate_Deterministic(t *testing.T) {
	rs := makeResultSet(500)
	a, _, _ := Truncate(rs, 2000, "SELECT * FROM users", "mydb")
	b, _, _ := Truncate(rs, 2000, "SELECT * FROM users", "mydb")
	if a.Len() != b.Len() {
		t.Errorf("Truncation must be deterministic: %d vs %d rows", a.Len(), b.Len())
	}
}

func TestOptimalRowLimit(t *testing.T) {
	tests := []struct {
		name         string
		maxTokens    int
		tokensPerRow int
		want         int
	}{
		{"floor of 10", 50, 50, 10},
		{"ceiling at max rows", 10_000_000, 50, DefaultMaxRows},
		{"mid range", 5200, 50, 100},
		{"unknown row cost falls back", 5200, 0, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OptimalRowLimit(tc.maxTokens, tc.tokensPerRow); got != tc.want {
				t.Errorf("OptimalRowLimit(%d, %d) = %d, want %d",
					tc.maxTokens, tc.tokensPerRow, got, tc.want)
			}
		})
	}
}
