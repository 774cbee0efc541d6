package schema

import "testing"

func TestNewHeaderMap_Reordered(t *testing.T) {
	// Column order in the sheet must not matter.
	hm, err := NewHeaderMap([]string{ColCompany, ColTitle, ColMessageID})
	if err != nil {
		t.Fatalf("NewHeaderMap: %v", err)
	}
	if i, ok := hm.Column(ColTitle); !ok || i != 1 {
		t.Errorf("Column(%q) = %d, %v; want 1, true", ColTitle, i, ok)
	}
	if i, ok := hm.Column("job title"); !ok || i != 1 {
		t.Errorf("case-insensitive lookup failed: got %d, %v", i, ok)
	}
	if _, ok := hm.Column("Salary"); ok {
		t.Errorf("unexpected column %q", "Salary")
	}
}

func TestNewHeaderMap_Errors(t *testing.T) {
	if _, err := NewHeaderMap(nil); err == nil {
		t.Error("expected error for empty header row")
	}
	if _, err := NewHeaderMap([]string{"", "  "}); err == nil {
		t.Error("expected error for header row with no named columns")
	}
	if _, err := NewHeaderMap([]string{"Status", "status"}); err == nil {
		t.Error("expected error for duplicate headers")
	}
}

func TestHeaderMap_PlaceAll(t *testing.T) {
	hm, err := NewHeaderMap([]string{ColMessageID, ColCompany, ColTitle})
	if err != nil {
		t.Fatalf("NewHeaderMap: %v", err)
	}

	row, err := hm.PlaceAll(map[string]string{
		ColTitle:   "Backend Engineer",
		ColCompany: "Acme",
	})
	if err != nil {
		t.Fatalf("PlaceAll: %v", err)
	}
	want := []string{"", "Acme", "Backend Engineer"}
	if len(row) != len(want) {
		t.Fatalf("row length = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}

	if _, err := hm.PlaceAll(map[string]string{"Nope": "x"}); err == nil {
		t.Error("expected error placing value into unknown column")
	}
}

func TestHeaderMap_Require(t *testing.T) {
	hm, err := NewHeaderMap(RecordHeaders())
	if err != nil {
		t.Fatalf("NewHeaderMap: %v", err)
	}
	if err := hm.Require(RecordHeaders()...); err != nil {
		t.Errorf("Require on full header: %v", err)
	}
	if err := hm.Require("Salary", "Recruiter"); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tt := range tests {
		if got := ColumnLetter(tt.index); got != tt.want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
