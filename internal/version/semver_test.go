package version

import "testing"

func TestParseSemver(t *testing.T) {
	tests := []struct {
		in   string
		want [3]int
	}{
		{"v1.2.3", [3]int{1, 2, 3}},
		{"1.2.3", [3]int{1, 2, 3}},
		{"v0.9", [3]int{0, 9, 0}},
		{"v2", [3]int{2, 0, 0}},
		{"v1.4.0-rc.1", [3]int{1, 4, 0}},
		{"v1.4.0+build.7", [3]int{1, 4, 0}},
		{"v1.x.0", [3]int{}},
		{"", [3]int{}},
	}
	for _, tt := range tests {
		if got := parseSemver(tt.in); got != tt.want {
			t.Errorf("parseSemver(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"v0.3.0", "v0.2.9", true},
		{"v1.0.0", "v0.99.99", true},
		{"v0.2.10", "v0.2.9", true},
		{"v0.2.9", "v0.2.9", false},
		{"v0.2.8", "v0.2.9", false},
		{"v0.3.0-rc.1", "v0.3.0", false},
		{"garbage", "v0.1.0", false},
	}
	for _, tt := range tests {
		if got := isNewer(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}
