package database

import (
	"strings"
	"testing"
)

func TestFormatRows_EmptyResult(t *testing.T) {
	rs := &ResultSet{Columns: []string{"id"}}
	out := FormatRows(rs, "SELECT * FROM users WHERE 1=0", "mydb")

	for _, want := range []string{
		"DATABASE QUERY RESULTS",
		"Database: mydb",
		"Query: SELECT * FROM users WHERE 1=0",
		"Result: No rows returned (empty result set)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRows_Table(t *testing.T) {
	rs := makeResultSet(3)
	out := FormatRows(rs, "SELECT * FROM users", "mydb")

	for _, want := range []string{
		"DATABASE QUERY RESULTS",
		"Database: mydb",
		"Query: SELECT * FROM users",
		"Rows returned: 3",
		"Total rows: 3",
		"Row#",
		"user_1@example.com",
		"user_3@example.com",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	// Rows appear in result order, numbered from 1.
	if strings.Index(out, "user_1") > strings.Index(out, "user_2") {
		t.Error("Rows should render in original order")
	}
	if !strings.Contains(out, "   1  ") {
		t.Error("Row numbers should be right-aligned in a 4-wide column")
	}
}

func TestFormatRows_ColumnAlignment(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"id", "name"},
		Rows: []Row{
			{{Name: "id", Value: 1}, {Name: "name", Value: "a"}},
			{{Name: "id", Value: 2}, {Name: "name", Value: "much_longer_value"}},
		},
	}
	out := FormatRows(rs, "SELECT id, name FROM t", "mydb")

	// The short value is padded to the widest value in its column.
	if !strings.Contains(out, "a"+strings.Repeat(" ", len("much_longer_value")-1)) {
		t.Errorf("Short values should be padded to column width:\n%s", out)
	}
}

func TestFormatRows_MultiByteAlignment(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"id", "name", "city"},
		Rows: []Row{
			{{Name: "id", Value: 1}, {Name: "name", Value: "café"}, {Name: "city", Value: "x"}},
			{{Name: "id", Value: 2}, {Name: "name", Value: "münchen"}, {Name: "city", Value: "y"}},
			{{Name: "id", Value: 3}, {Name: "name", Value: "東京"}, {Name: "city", Value: "z"}},
		},
	}
	out := FormatRows(rs, "SELECT id, name, city FROM t", "mydb")

	// Widths count runes, not bytes, so every name cell is padded to the
	// widest value (münchen, 7 runes) and the city column lines up.
	for _, want := range []string{
		"café" + strings.Repeat(" ", 3) + "  x",
		"münchen  y",
		"東京" + strings.Repeat(" ", 5) + "  z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing aligned cell %q:\n%s", want, out)
		}
	}
}

func TestFormatRows_NullValues(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"id", "note"},
		Rows: []Row{
			{{Name: "id", Value: 1}, {Name: "note", Value: nil}},
		},
	}
	out := FormatRows(rs, "SELECT id, note FROM t", "mydb")
	if !strings.Contains(out, "NULL") {
		t.Errorf("nil values should render as NULL:\n%s", out)
	}
}

func TestFormatDocuments(t *testing.T) {
	rs := &ResultSet{
		Rows: []Row{
			{{Name: "_id", Value: "65f1a2b3c4d5e6f7a8b9c0d1"}, {Name: "name", Value: "alice"}},
			{{Name: "_id", Value: "65f1a2b3c4d5e6f7a8b9c0d2"}, {Name: "name", Value: "bob"}},
		},
	}
	out := FormatDocuments(rs, "users.find()", "appdb")

	for _, want := range []string{
		"MONGODB QUERY RESULTS",
		"Database: appdb",
		"Query: users.find()",
		"Documents returned: 2",
		"Document #1:",
		"Document #2:",
		"  name: alice",
		"  name: bob",
		"Total documents: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	// Field order inside a document is preserved.
	doc1 := out[strings.Index(out, "Document #1:"):strings.Index(out, "Document #2:")]
	if strings.Index(doc1, "_id") > strings.Index(doc1, "name") {
		t.Error("Document fields should render in insertion order")
	}
}

func TestFormatDocuments_Empty(t *testing.T) {
	out := FormatDocuments(&ResultSet{}, "users.find()", "appdb")
	if !strings.Contains(out, "Result: No documents returned (empty result set)") {
		t.Errorf("Empty document result message missing:\n%s", out)
	}
}
