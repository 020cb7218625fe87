package engine

import (
	"reflect"
	"slices"
	"testing"
)

func TestCombinations(t *testing.T) {
	names := []string{"a", "b", "c", "d"}

	var got [][]string
	for combo := range Combinations(names, 2) {
		got = append(got, combo)
	}

	want := [][]string{
		{"a", "b"}, {"a", "c"}, {"a", "d"},
		{"b", "c"}, {"b", "d"},
		{"c", "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combinations() = %v, want %v", got, want)
	}
}

func TestCombinations_CountMatchesBinomial(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = string(rune('a' + i))
	}

	for k := 1; k <= 13; k++ {
		count := 0
		for range Combinations(names, k) {
			count++
		}
		if count != Binomial(12, k) {
			t.Errorf("k=%d: %d combinations, want %d", k, count, Binomial(12, k))
		}
	}
}

func TestCombinations_RestartableAndStoppable(t *testing.T) {
	seq := Combinations([]string{"a", "b", "c", "d", "e", "f"}, 5)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !reflect.DeepEqual(first, second) {
		t.Error("sequence is not restartable")
	}

	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("early stop saw %d", seen)
	}
}

func TestCombinations_FreshSlices(t *testing.T) {
	all := slices.Collect(Combinations([]string{"a", "b", "c"}, 2))
	all[0][0] = "z"
	if all[1][0] != "a" {
		t.Error("combinations share backing arrays")
	}
}

func TestBinomial(t *testing.T) {
	tests := []struct{ n, k, want int }{
		{5, 0, 1},
		{5, 5, 1},
		{10, 5, 252},
		{60, 5, 5461512},
		{3, 4, 0},
		{3, -1, 0},
	}
	for _, tt := range tests {
		if got := Binomial(tt.n, tt.k); got != tt.want {
			t.Errorf("Binomial(%d, %d) = %d, want %d", tt.n, tt.k, got, tt.want)
		}
	}
}
