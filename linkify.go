package lattice

import (
	"regexp"
	"strings"
)

// linkRE matches a bracketed bare or dotted name reference: [Dog],
// [pets.Dog].
var linkRE = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_.]*)\]`)

// Linkify rewrites bracketed name references in text into resolved
// cross-reference tokens of the form [Name][full.target]. resolve maps a
// name as written to a fully-qualified target; "" leaves the reference
// untouched. Fenced code blocks and inline code spans are never rewritten,
// and references that already carry a target or link destination are left
// alone.
func Linkify(text string, resolve func(name string) string) string {
	if !strings.Contains(text, "[") {
		return text
	}
	lines := strings.Split(text, "\n")
	fenced := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		lines[i] = linkifyLine(line, resolve)
	}
	return strings.Join(lines, "\n")
}

// linkifyLine rewrites one line, leaving inline code spans alone. Segments
// between backticks alternate prose and code.
func linkifyLine(line string, resolve func(string) string) string {
	if !strings.Contains(line, "`") {
		return linkifySegment(line, resolve)
	}
	segs := strings.Split(line, "`")
	var out strings.Builder
	for i, seg := range segs {
		if i > 0 {
			out.WriteByte('`')
		}
		if i%2 == 1 {
			out.WriteString(seg)
			continue
		}
		out.WriteString(linkifySegment(seg, resolve))
	}
	return out.String()
}

func linkifySegment(seg string, resolve func(string) string) string {
	matches := linkRE.FindAllStringSubmatchIndex(seg, -1)
	if matches == nil {
		return seg
	}
	var out strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		name := seg[m[2]:m[3]]

		// Skip brackets that are part of an existing link: a following
		// "[" or "(" means this is the text half of one, a preceding "]"
		// means it is the target half.
		partOfLink := (end < len(seg) && (seg[end] == '[' || seg[end] == '(')) ||
			(start > 0 && seg[start-1] == ']')
		target := ""
		if !partOfLink {
			target = resolve(name)
		}
		if target == "" {
			out.WriteString(seg[last:end])
			last = end
			continue
		}
		out.WriteString(seg[last:start])
		out.WriteString("[")
		out.WriteString(name)
		out.WriteString("][")
		out.WriteString(target)
		out.WriteString("]")
		last = end
	}
	out.WriteString(seg[last:])
	return out.String()
}
