package macro

import (
	"strings"
	"unicode"
)

// NormalizeKey canonicalizes a rendered raw key. Keys without "(" are returned
// unchanged. Function-like keys lose all whitespace and get exactly one space
// between the identifier and the opening parenthesis: "NAME(  a , b )"
// becomes "NAME (a,b)".
func NormalizeKey(key string) string {
	if !strings.Contains(key, "(") {
		return key
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, key)

	open := strings.IndexByte(compact, '(')
	if open <= 0 {
		return compact
	}
	return compact[:open] + " " + compact[open:]
}

// Normalize rewrites assembled definitions into records keyed by their
// normalized signature. Keys that collide after normalization keep the first
// position and the last body.
func Normalize(defs []Definition) []Record {
	index := make(map[string]int, len(defs))
	records := make([]Record, 0, len(defs))

	for _, d := range defs {
		rec := Record{
			Key:  NormalizeKey(d.Key.String()),
			Body: d.Body,
		}
		if i, ok := index[rec.Key]; ok {
			records[i] = rec
			continue
		}
		index[rec.Key] = len(records)
		records = append(records, rec)
	}
	return records
}
