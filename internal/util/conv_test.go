package util

import "testing"

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{7, 10, 70},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{0, 0, 0},
		{5, 5, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestMustParseUint(t *testing.T) {
	if got := MustParseUint("42"); got != 42 {
		t.Errorf("MustParseUint(42) = %d", got)
	}
	if got := MustParseUint("abc"); got != 0 {
		t.Errorf("MustParseUint(abc) = %d, want 0", got)
	}
}
