package util

import "testing"

func TestCompareChapters(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"Chapter 10", "Chapter 12", -1},
		{"Chapter 12", "Chapter 12", 0},
		{"Chapter 12.5", "Chapter 12", 1},
		{"12", "Chapter 12", 0},
		{"Vol. 2 Ch. 3", "Vol. 1 Ch. 30", 1},
		{"Extra", "Side Story", -1},
		{"", "", 0},
	}
	for _, tc := range testCases {
		if got := CompareChapters(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareChapters(%q, %q) = %d; want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestChapterKey(t *testing.T) {
	key := ChapterKey("Vol. 2 Ch. 10.5")
	if len(key) != 2 || key[0] != 2 || key[1] != 10.5 {
		t.Errorf("ChapterKey returned %v; want [2 10.5]", key)
	}
}
