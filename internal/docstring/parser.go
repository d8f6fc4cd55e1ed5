package docstring

import (
	"regexp"
	"strings"
)

// itemRE matches "name (type): text" item heads in colon style.
var itemRE = regexp.MustCompile(`^(\*{0,2}[\w.]+)\s*(?:\(([^)]*)\))?\s*:\s?(.*)$`)

// underlineItemRE matches "name : type" item heads in underline style.
var underlineItemRE = regexp.MustCompile(`^(\*{0,2}[\w.]+)\s*:\s*(.*)$`)

// typeTokenRE matches a leading unspaced token followed by a colon. Used for
// the unnamed Returns/Yields split. The token stops at the first colon, so a
// type spelled with an embedded colon is split at that colon too; this
// mirrors the behavior of the comment conventions themselves and is pinned
// by a test rather than corrected.
var typeTokenRE = regexp.MustCompile(`^([^\s:]+):\s?(.*)$`)

// Parse splits a free-text comment block into typed sections and items.
// Unparseable content degrades to untitled prose; Parse never fails.
func Parse(text string) *Doc {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	lines := strings.Split(text, "\n")

	var sections []Section
	if detectUnderline(lines) {
		sections = parseUnderline(lines)
	} else {
		sections = parseColon(lines)
	}
	sections = foldAdmonitions(sections)

	doc := &Doc{}
	if len(sections) > 0 && sections[0].Name == "" && !sections[0].Admonition {
		doc.Text = sections[0].Text
		sections = sections[1:]
	}
	if len(sections) > 0 {
		doc.Sections = sections
	}
	return doc
}

// detectUnderline reports whether any known section name is immediately
// followed by a matching-length underline of "-" or "=".
func detectUnderline(lines []string) bool {
	for i := 0; i+1 < len(lines); i++ {
		title := strings.TrimSpace(lines[i])
		if _, ok := CanonicalSection(title); !ok {
			continue
		}
		if isUnderline(strings.TrimSpace(lines[i+1]), len(title)) {
			return true
		}
	}
	return false
}

func isUnderline(s string, length int) bool {
	if len(s) == 0 || len(s) != length {
		return false
	}
	ch := s[0]
	if ch != '-' && ch != '=' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != ch {
			return false
		}
	}
	return true
}

func parseColon(lines []string) []Section {
	var sections []Section
	var prose []string

	flushProse := func() {
		text := strings.TrimSpace(strings.Join(prose, "\n"))
		prose = prose[:0]
		if text != "" {
			sections = append(sections, Section{Text: text})
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		name, ok := headerName(trimmed)
		if !ok {
			prose = append(prose, line)
			i++
			continue
		}

		flushProse()
		headerIndent := indentOf(line)
		var body []string
		j := i + 1
		for j < len(lines) {
			if strings.TrimSpace(lines[j]) == "" {
				body = append(body, "")
				j++
				continue
			}
			if indentOf(lines[j]) <= headerIndent {
				break
			}
			body = append(body, lines[j])
			j++
		}
		sections = append(sections, buildSection(name, dedent(body), false))
		i = j
	}
	flushProse()
	return sections
}

// headerName recognizes a colon-style section header: a known section name
// alone on its line, ending in ":".
func headerName(trimmed string) (string, bool) {
	if !strings.HasSuffix(trimmed, ":") {
		return "", false
	}
	return CanonicalSection(trimmed[:len(trimmed)-1])
}

func parseUnderline(lines []string) []Section {
	type header struct {
		idx  int
		name string
	}
	var headers []header
	for i := 0; i+1 < len(lines); i++ {
		title := strings.TrimSpace(lines[i])
		name, ok := CanonicalSection(title)
		if !ok {
			continue
		}
		if isUnderline(strings.TrimSpace(lines[i+1]), len(title)) {
			headers = append(headers, header{idx: i, name: name})
		}
	}

	var sections []Section
	if len(headers) == 0 || headers[0].idx > 0 {
		end := len(lines)
		if len(headers) > 0 {
			end = headers[0].idx
		}
		text := strings.TrimSpace(strings.Join(lines[:end], "\n"))
		if text != "" {
			sections = append(sections, Section{Text: text})
		}
	}
	for h := 0; h < len(headers); h++ {
		start := headers[h].idx + 2
		end := len(lines)
		if h+1 < len(headers) {
			end = headers[h+1].idx
		}
		sections = append(sections, buildSection(headers[h].name, dedent(lines[start:end]), true))
	}
	return sections
}

// buildSection shapes a dedented body according to the section kind.
func buildSection(name string, body []string, underline bool) Section {
	s := Section{Name: name, Admonition: admonitionSections[name]}
	switch {
	case namedItemSections[name]:
		s.Items = parseNamedItems(body, underline)
	case unnamedItemSections[name]:
		if item, ok := parseUnnamedItem(body, underline); ok {
			s.Items = []Item{item}
		}
	default:
		s.Text = strings.TrimSpace(strings.Join(body, "\n"))
	}
	return s
}

// parseNamedItems splits a section body on unindented line boundaries and
// parses each group's head line as one item.
func parseNamedItems(body []string, underline bool) []Item {
	var items []Item
	var group []string

	flush := func() {
		if len(group) == 0 {
			return
		}
		items = append(items, parseNamedItem(group, underline))
		group = group[:0]
	}

	for _, line := range body {
		if strings.TrimSpace(line) == "" {
			if len(group) > 0 {
				group = append(group, "")
			}
			continue
		}
		if indentOf(line) == 0 {
			flush()
		}
		group = append(group, line)
	}
	flush()
	return items
}

func parseNamedItem(group []string, underline bool) Item {
	head := group[0]
	rest := strings.TrimSpace(strings.Join(dedent(group[1:]), "\n"))

	if underline {
		if m := underlineItemRE.FindStringSubmatch(head); m != nil {
			return Item{Name: m[1], Type: strings.TrimSpace(m[2]), Text: rest}
		}
		return Item{Name: strings.TrimSpace(head), Text: rest}
	}

	if m := itemRE.FindStringSubmatch(head); m != nil {
		return Item{Name: m[1], Type: strings.TrimSpace(m[2]), Text: joinHead(m[3], rest)}
	}
	// No explicit delimiter: the whole head line is description text.
	return Item{Text: joinHead(strings.TrimSpace(head), rest)}
}

// parseUnnamedItem parses the single Returns/Yields item. No leading name
// token is expected, but "name (type):" and a leading "name:"-shaped token
// are still recognized and extracted when present.
func parseUnnamedItem(body []string, underline bool) (Item, bool) {
	var head string
	var rest []string
	for i, line := range body {
		if strings.TrimSpace(line) == "" {
			continue
		}
		head = line
		rest = body[i+1:]
		break
	}
	if head == "" {
		return Item{}, false
	}
	restText := strings.TrimSpace(strings.Join(dedent(rest), "\n"))

	if underline {
		if m := underlineItemRE.FindStringSubmatch(head); m != nil && strings.TrimSpace(m[2]) != "" {
			return Item{Name: m[1], Type: strings.TrimSpace(m[2]), Text: restText}, true
		}
		return Item{Type: strings.TrimSpace(head), Text: restText}, true
	}

	if m := itemRE.FindStringSubmatch(head); m != nil && m[2] != "" {
		return Item{Name: m[1], Type: strings.TrimSpace(m[2]), Text: joinHead(m[3], restText)}, true
	}
	if m := typeTokenRE.FindStringSubmatch(strings.TrimSpace(head)); m != nil {
		return Item{Type: m[1], Text: joinHead(m[2], restText)}, true
	}
	return Item{Text: joinHead(strings.TrimSpace(head), restText)}, true
}

// foldAdmonitions concatenates admonition sections into textually adjacent
// untitled prose instead of keeping them as separate sections.
func foldAdmonitions(sections []Section) []Section {
	var out []Section
	for _, s := range sections {
		if s.Admonition && len(out) > 0 && out[len(out)-1].Name == "" {
			prev := &out[len(out)-1]
			prev.Text = joinText(prev.Text, s.Name+": "+s.Text)
			continue
		}
		out = append(out, s)
	}
	return out
}

func joinHead(head, rest string) string {
	head = strings.TrimSpace(head)
	switch {
	case head == "":
		return rest
	case rest == "":
		return head
	default:
		return head + "\n" + rest
	}
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

// dedent strips the minimum common leading-space indent of the non-blank
// lines.
func dedent(lines []string) []string {
	min := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := indentOf(line); min < 0 || n < min {
			min = n
		}
	}
	if min <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= min {
			out[i] = line[min:]
		} else {
			out[i] = strings.TrimLeft(line, " ")
		}
	}
	return out
}
