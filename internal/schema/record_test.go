package schema

import "testing"

func TestValidTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Software Engineer", true},
		{"  Staff SRE  ", true},
		{"", false},
		{"   ", false},
		{"n/a", false},
		{"N/A", false},
		{" N/a ", false},
		{"error", false},
		{"ERROR", false},
		{"Error Analyst", true}, // sentinel must match the whole title
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := ValidTitle(tt.title); got != tt.want {
				t.Errorf("ValidTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
