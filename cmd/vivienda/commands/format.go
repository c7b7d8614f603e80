package commands

import (
	"fmt"
	"io"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// printHeader prints a formatted command header
func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// printFooter closes a header block
func printFooter(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// printKV prints one aligned key/value line
func printKV(w io.Writer, key string, value interface{}) {
	fmt.Fprintf(w, "  %-10s: %v\n", key, value)
}
