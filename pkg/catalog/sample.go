package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"
)

// SampleSize bounds the dump logged and displayed for unrecognized nodes.
const SampleSize = 50

// Sample renders v as JSON truncated to SampleSize bytes followed by "...".
func Sample(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(fmt.Sprint(v))
	}
	s := string(b)
	if len(s) <= SampleSize {
		return s
	}
	cut := SampleSize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Keys returns the keys of m in sorted order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
