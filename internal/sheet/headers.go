// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"fmt"
	"strings"
)

// Headers cleans a raw header row so every column name is distinct:
// surrounding whitespace and byte order marks are trimmed, a blank header
// becomes "Column N" (1-based position) and a repeated header gets a
// positional suffix, "Dest", "Dest (2)", "Dest (3)".
func Headers(raw []string) []string {
	out := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))

	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}

		name := h
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s (%d)", h, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
