package macro

import (
	"regexp"
	"strings"
)

var (
	// computationRe matches "name(params)rest" where params may hold one level
	// of nested parentheses.
	computationRe = regexp.MustCompile(`^(\w+)\s*\(([^()]*(?:\([^()]*\)[^()]*)*)\)\s*(.*)$`)
	simpleRe      = regexp.MustCompile(`^(\w+)\s+(.*)$`)
)

// SplitLine separates a "<key> <body>" line into identifier and value.
//
// Function-like lines are tried first. When nothing trails the parameter list
// the value is searched for in this order, each step only when the previous
// one came up empty:
//  1. the text after the last ")" that has a "(" before it;
//  2. the first balanced parenthesized group of the whole line, which is then
//     removed from the identifier so the group is not reported twice.
//
// Lines that are not function-like split on the first whitespace run. A bare
// name with no "(" anywhere yields an absent value. SplitLine never fails: a
// line matching neither shape comes back whole with an absent value.
func SplitLine(line string) SplitResult {
	line = strings.TrimSpace(line)

	if m := computationRe.FindStringSubmatch(line); m != nil {
		name, params, value := m[1], m[2], m[3]
		identifier := name + "(" + params + ")"

		if strings.TrimSpace(value) == "" {
			if end := strings.LastIndexByte(line, ')'); end != -1 {
				if strings.LastIndexByte(line[:end], '(') != -1 {
					value = line[end+1:]
				}
			}
		}

		if strings.TrimSpace(value) == "" {
			if groups := ParenGroups(line); len(groups) > 0 {
				value = groups[0]
				identifier = strings.ReplaceAll(identifier, groups[0], "")
			}
		}

		value = strings.TrimSpace(value)
		return SplitResult{Identifier: identifier, Value: value, HasValue: value != ""}
	}

	if m := simpleRe.FindStringSubmatch(line); m != nil {
		name, rest := m[1], strings.TrimSpace(m[2])
		if rest == "" && !strings.Contains(line, "(") {
			return SplitResult{Identifier: name}
		}
		return SplitResult{Identifier: name, Value: rest, HasValue: true}
	}

	return SplitResult{Identifier: line}
}

// ParenGroups returns every outermost balanced "( ... )" span of s, in order.
// A ")" with no matching "(" is ignored; an unclosed "(" yields no group.
func ParenGroups(s string) []string {
	var groups []string
	depth, start := 0, 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				groups = append(groups, s[start:i+1])
			}
		}
	}
	return groups
}
