package main

import "testing"

func TestBoxOverlaps(t *testing.T) {
	a := NewBox(0, 0, 10, 10)

	cases := []struct {
		name string
		b    Box
		want bool
	}{
		{"identical", NewBox(0, 0, 10, 10), true},
		{"partial overlap", NewBox(5, 5, 10, 10), true},
		{"contained", NewBox(2, 2, 3, 3), true},
		{"touching right edge", NewBox(10, 0, 5, 5), false},
		{"touching bottom edge", NewBox(0, 10, 5, 5), false},
		{"disjoint", NewBox(50, 50, 10, 10), false},
		{"overlap only on x", NewBox(5, 20, 10, 10), false},
		{"overlap only on y", NewBox(20, 5, 10, 10), false},
	}

	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
		// Overlap is symmetric
		if got := tc.b.Overlaps(a); got != tc.want {
			t.Errorf("%s (reversed): got %v, want %v", tc.name, got, tc.want)
		}
	}
}
