package components

import "testing"

func TestPadding(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string, int) string
		in   string
		w    int
		want string
	}{
		{"right", PadRight, "ab", 4, "ab  "},
		{"left", PadLeft, "ab", 4, "  ab"},
		{"center odd", PadCenter, "ab", 5, " ab  "},
		{"already wide", PadRight, "abcdef", 3, "abcdef"},
		{"fit truncates", Fit, "abcdef", 3, "abc"},
		{"fit pads", Fit, "ab", 3, "ab "},
		{"fit zero", Fit, "ab", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in, tt.w); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVisibleLenIgnoresANSI(t *testing.T) {
	if got := VisibleLen("\x1b[31mred\x1b[0m"); got != 3 {
		t.Errorf("VisibleLen = %d, want 3", got)
	}
	if got := VisibleLen("東京"); got != 4 {
		t.Errorf("VisibleLen(wide) = %d, want 4", got)
	}
}

func TestTruncateWithTail(t *testing.T) {
	if got := TruncateWithTail("Kubota Corp", 7, "…"); got != "Kubota…" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate(0) = %q", got)
	}
}
