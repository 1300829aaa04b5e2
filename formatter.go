package qagen

import (
	"fmt"
	"strings"
)

// FormatQAPairs formats pairs for terminal display.
// Each pair prints as a Q/A block with its source URL; blocks are
// separated by blank lines.
func FormatQAPairs(pairs []*QAPair) string {
	if len(pairs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		var b strings.Builder
		fmt.Fprintf(&b, "Q: %s\n", p.Question)
		fmt.Fprintf(&b, "A: %s\n", p.Answer)
		fmt.Fprintf(&b, "   source: %s", p.SourceURL)
		if p.Category != "" {
			fmt.Fprintf(&b, " [%s]", p.Category)
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n")
}
