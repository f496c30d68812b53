package main

import (
	"strings"
	"testing"
)

func TestTableViewKeepsLabelCase(t *testing.T) {
	out := tableView{
		Title:   "Translation cache",
		Headers: []string{"Field", "Value"},
		Rows:    [][]string{{"Entries", "3"}},
		Footer:  []string{"Total", "3 entries"},
	}.render()
	for _, want := range []string{"Translation cache", "Field", "Value", "3 entries"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "TRANSLATION CACHE") || strings.Contains(out, "FIELD") {
		t.Fatalf("labels were upper-cased:\n%s", out)
	}
}

func TestTableViewWrapsLongText(t *testing.T) {
	long := strings.Repeat("word ", 40)
	out := tableView{Headers: []string{"#", "Text"}, Rows: [][]string{{"1", long}}}.render()
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if n := len([]rune(line)); n > textColumnWidth+20 {
			t.Fatalf("line of %d runes exceeds the wrap width:\n%s", n, out)
		}
	}
	if strings.Count(out, "word") != 40 {
		t.Fatalf("wrapping lost text:\n%s", out)
	}
}

func TestTableViewPadsShortRows(t *testing.T) {
	out := tableView{Headers: []string{"A", "B", "C"}, Rows: [][]string{{"only"}}}.render()
	if !strings.Contains(out, "only") {
		t.Fatalf("row missing:\n%s", out)
	}
	if got := (tableView{}).render(); got != "" {
		t.Fatalf("empty view rendered %q", got)
	}
}

func TestFieldsTableHasNoHeader(t *testing.T) {
	out := fieldsTable("Run 1234abcd", [][]string{{"Segments", "3"}})
	if !strings.Contains(out, "Run 1234abcd") || !strings.Contains(out, "Segments") {
		t.Fatalf("unexpected fields table:\n%s", out)
	}
}
