package utils_test

import (
	"testing"

	"github.com/KaramelBytes/robowriter/internal/utils"
)

func TestCountWords(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"markdown", "# Solna\n\n---\nUnemployment rose 1,5 % in 2014.", 6},
		{"unicode", "Malmö och Lund", 3},
	}
	for _, c := range cases {
		if got := utils.CountWords(c.in); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Solna":          "Solna",
		"Upplands Väsby": "Upplands Väsby",
		"a/b\\c":         "a_b_c",
		"../etc":         "_etc",
		"..":             "_",
		"  ":             "_",
		"x:y?":           "x_y_",
	}
	for in, want := range cases {
		if got := utils.SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
