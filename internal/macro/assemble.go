package macro

import (
	"regexp"
	"strings"
)

var (
	// defineRe matches a #define header on a trimmed line: name, optional raw
	// parameter list, then the first body fragment.
	defineRe = regexp.MustCompile(`^#define\s+(\w+)\s*(\([^)]*\))?\s*(.*)`)

	escapeRe     = regexp.MustCompile(`\\.`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// orderedDefs is an insertion-ordered key -> definition map. Re-setting a key
// keeps its original position and replaces the value.
type orderedDefs struct {
	index map[string]int
	defs  []Definition
}

func newOrderedDefs() *orderedDefs {
	return &orderedDefs{index: make(map[string]int)}
}

func (o *orderedDefs) set(d Definition) {
	key := d.Key.String()
	if i, ok := o.index[key]; ok {
		o.defs[i] = d
		return
	}
	o.index[key] = len(o.defs)
	o.defs = append(o.defs, d)
}

// assembler accumulates the body fragments of the macro currently open.
type assembler struct {
	out       *orderedDefs
	open      bool
	key       RawKey
	fragments []string
}

func (a *assembler) start(key RawKey, fragment string) {
	if a.open {
		a.finalize()
	}
	a.open = true
	a.key = key
	a.fragments = append(a.fragments[:0], fragment)
	if !strings.HasSuffix(fragment, `\`) {
		a.finalize()
	}
}

func (a *assembler) continueWith(line string) {
	a.fragments = append(a.fragments, line)
	if !strings.HasSuffix(line, `\`) {
		a.finalize()
	}
}

func (a *assembler) finalize() {
	if !a.open {
		return
	}
	body := StripNonPrintable(strings.TrimSpace(strings.Join(a.fragments, " ")))
	a.out.set(Definition{Key: a.key, Body: cleanBody(body)})
	a.open = false
	a.key = RawKey{}
	a.fragments = a.fragments[:0]
}

// cleanBody drops two-character backslash sequences left over from line
// continuations and collapses whitespace.
func cleanBody(body string) string {
	body = escapeRe.ReplaceAllString(body, "")
	body = whitespaceRe.ReplaceAllString(body, " ")
	return strings.TrimSpace(body)
}

// Assemble scans sanitized text line by line and returns one Definition per
// distinct raw key in first-seen order. A redefinition silently replaces the
// earlier body. A macro with no body is stored with an empty Body.
func Assemble(text string) []Definition {
	a := &assembler{out: newOrderedDefs()}

	for _, raw := range strings.Split(lineBreaks.Replace(text), "\n") {
		line := strings.TrimSpace(raw)

		if m := defineRe.FindStringSubmatch(line); m != nil {
			a.start(RawKey{Name: m[1], Params: m[2]}, strings.TrimSpace(m[3]))
			continue
		}
		if a.open {
			a.continueWith(line)
		}
	}
	a.finalize()

	return a.out.defs
}
