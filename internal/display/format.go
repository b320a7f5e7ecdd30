package display

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var sizePrinter = message.NewPrinter(language.English)

// FormatBytes renders a byte count as a human-readable size with grouped
// digits, e.g. 1.5 MB or 12,034 KB.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return sizePrinter.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return sizePrinter.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return sizePrinter.Sprintf("%d B", n)
	}
}

// FormatTransfer renders progress as "downloaded/total", e.g. "1.2 MB/8.0 MB".
// When the total is unknown (zero) only the downloaded size is shown.
func FormatTransfer(done, total int64) string {
	if total <= 0 {
		return FormatBytes(done)
	}
	return FormatBytes(done) + "/" + FormatBytes(total)
}
