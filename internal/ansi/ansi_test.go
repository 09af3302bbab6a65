package ansi

import "testing"

func TestStyle(t *testing.T) {
	tests := []struct {
		name  string
		color bool
		s     string
		codes []string
		want  string
	}{
		{"off", false, "x", []string{Red}, "x"},
		{"no codes", true, "x", nil, "x"},
		{"empty", true, "", []string{Red}, ""},
		{"single", true, "x", []string{Red}, Red + "x" + Reset},
		{"combined", true, "x", []string{Bold, Green}, Bold + Green + "x" + Reset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Style(tt.color, tt.s, tt.codes...); got != tt.want {
				t.Errorf("Style() = %q, want %q", got, tt.want)
			}
		})
	}
}
