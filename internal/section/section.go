// Package section performs header-scoped edits on markdown text.
//
// A section starts at a header line and runs until the next header line or
// the end of the document. Header detection is purely structural: a line
// starting with one to four '#' characters followed by a space.
package section

import (
	"regexp"
	"strings"

	"github.com/starford/echovault/internal/marker"
)

var headerRe = regexp.MustCompile(`(?m)^(#{1,4}) `)

// AppendUnder inserts fragment at the end of the section introduced by
// header. It reports whether doc changed.
//
// When the fragment carries a capture marker whose id already appears in
// doc (in any marker format), doc is returned untouched. When the header is
// missing, header and fragment are appended at the end of doc.
func AppendUnder(doc, header, fragment string) (string, bool) {
	if id, ok := marker.CaptureID(fragment); ok && marker.HasCapture(doc, id) {
		return doc, false
	}

	_, end, found := find(doc, header)
	if !found {
		return appendWithHeader(doc, header, fragment), true
	}

	boundary := len(doc)
	if loc := headerRe.FindStringIndex(doc[end:]); loc != nil {
		boundary = end + loc[0]
	}
	return splice(doc[:boundary], fragment, doc[boundary:]), true
}

// Replace swaps the whole body of the section introduced by header for body.
// The section ends at the next header of equal or shallower depth.
//
// When the header is missing it is created right before the anchor header if
// the anchor exists, otherwise at the end of doc. Every call discards the
// previous body entirely.
func Replace(doc, header, body, anchor string) string {
	_, end, found := find(doc, header)
	if !found {
		if anchor != "" {
			if aStart, _, ok := find(doc, anchor); ok {
				block := header + "\n"
				if b := strings.Trim(body, "\n"); b != "" {
					block += "\n" + b + "\n"
				}
				return splice(doc[:aStart], block, doc[aStart:])
			}
		}
		return appendWithHeader(doc, header, body)
	}

	boundary := sectionEnd(doc, end, Depth(header))

	head := doc[:end]
	rest := doc[boundary:]
	b := strings.Trim(body, "\n")
	if b == "" {
		out := strings.TrimRight(head, "\r\n") + "\n"
		if rest != "" {
			out += "\n" + rest
		}
		return out
	}
	return splice(head, b, rest)
}

// Body returns the text between header and the next header of equal or
// shallower depth, trimmed of surrounding blank lines.
func Body(doc, header string) (string, bool) {
	_, end, found := find(doc, header)
	if !found {
		return "", false
	}
	boundary := sectionEnd(doc, end, Depth(header))
	return strings.Trim(doc[end:boundary], "\r\n"), true
}

// Depth returns the number of leading '#' characters of a header literal.
// Literals that are not markdown headers get the deepest depth, so any
// header ends their section.
func Depth(header string) int {
	n := 0
	for n < len(header) && header[n] == '#' {
		n++
	}
	if n == 0 || n > 4 {
		return 4
	}
	return n
}

// sectionEnd returns the offset of the first header at or after from whose
// depth is at most depth, or len(doc).
func sectionEnd(doc string, from, depth int) int {
	for _, loc := range headerRe.FindAllStringSubmatchIndex(doc[from:], -1) {
		if loc[3]-loc[2] <= depth {
			return from + loc[0]
		}
	}
	return len(doc)
}

// find locates header as a whole line. It returns the offset of the line
// start and the offset just past the line (including its newline).
func find(doc, header string) (int, int, bool) {
	re, err := regexp.Compile(`(?m)^` + regexp.QuoteMeta(strings.TrimSpace(header)) + `[ \t]*\r?$`)
	if err != nil {
		return 0, 0, false
	}
	loc := re.FindStringIndex(doc)
	if loc == nil {
		return 0, 0, false
	}
	end := loc[1]
	if end < len(doc) && doc[end] == '\n' {
		end++
	}
	return loc[0], end, true
}

// splice joins before, fragment and after with exactly one blank line
// between before and fragment and one blank line before after.
func splice(before, fragment, after string) string {
	var b strings.Builder
	head := strings.TrimRight(before, "\r\n")
	if head != "" {
		b.WriteString(head)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.Trim(fragment, "\r\n"))
	b.WriteString("\n")
	if after != "" {
		b.WriteString("\n")
		b.WriteString(after)
	}
	return b.String()
}

func appendWithHeader(doc, header, fragment string) string {
	block := strings.TrimSpace(header)
	if f := strings.Trim(fragment, "\r\n"); f != "" {
		block += "\n\n" + f
	}
	return splice(doc, block, "")
}
