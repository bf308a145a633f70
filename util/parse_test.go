package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{"2GB", 2 << 30},
		{"64B", 64},
		{"2048", 2048},
		{" 1 KB ", 1 << 10},
		{"", -1},
		{"lots", -1},
		{"12abc", -1},
		{"-5MB", -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSize(tt.in, -1); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("file:drafts.db?_pragma=x", 4); got != "file***" {
		t.Errorf("got %q", got)
	}
	if got := MaskSecret("abc", 4); got != "***" {
		t.Errorf("got %q", got)
	}
}
