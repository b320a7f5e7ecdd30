package display

import (
	"strings"
	"testing"
)

func TestColorizeRespectsEnabled(t *testing.T) {
	SetColorsEnabled(false)
	defer SetColorsEnabled(false)

	if got := Success("done"); got != "done" {
		t.Errorf("Success with colors off = %q, want plain text", got)
	}

	SetColorsEnabled(true)
	if got := Success("done"); !strings.Contains(got, "\033[") {
		t.Errorf("Success with colors on = %q, want ANSI escape", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatTransfer(t *testing.T) {
	if got := FormatTransfer(1024, 4096); got != "1.0 KB/4.0 KB" {
		t.Errorf("FormatTransfer = %q", got)
	}
	// Unknown total: only the transferred count is shown.
	if got := FormatTransfer(1024, 0); got != "1.0 KB" {
		t.Errorf("FormatTransfer without total = %q", got)
	}
}
