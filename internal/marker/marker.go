// Package marker generates and recognizes the inline id markers that tie
// vault text to remote captures and todos.
//
// Two generations of markers exist. Older documents carry HTML comments
// (<!-- echo-id:42 -->, <!-- echo-todo:7 -->); current documents carry compact
// tags (#📼 42, #📼42, #📼t 7). Both are always recognized.
package marker

import (
	"regexp"
	"strconv"
)

// Emoji is the tape glyph shared by capture and todo markers.
const Emoji = "📼"

var (
	captureRe = regexp.MustCompile(`<!--\s*echo-id:\s*(\d+)\s*-->|#` + Emoji + ` ?(\d+)`)
	todoRe    = regexp.MustCompile(`<!--\s*echo-todo:\s*(\d+)\s*-->|#` + Emoji + `t ?(\d+)`)
	todoStrip = regexp.MustCompile(`\s*(?:<!--\s*echo-todo:\s*\d+\s*-->|#` + Emoji + `t ?\d+)`)
)

// CaptureMarker returns the canonical marker for a capture id.
func CaptureMarker(id int64) string {
	return "#" + Emoji + " " + strconv.FormatInt(id, 10)
}

// TodoMarker returns the canonical marker for a todo id.
func TodoMarker(id int64) string {
	return "#" + Emoji + "t " + strconv.FormatInt(id, 10)
}

// CaptureID extracts the first capture id found in text.
func CaptureID(text string) (int64, bool) {
	return first(captureRe, text)
}

// TodoID extracts the first todo id found in text.
func TodoID(text string) (int64, bool) {
	return first(todoRe, text)
}

// HasCapture reports whether text carries a marker for the given capture id
// in either format.
func HasCapture(text string, id int64) bool {
	return contains(captureRe, text, id)
}

// HasTodo reports whether text carries a marker for the given todo id in
// either format.
func HasTodo(text string, id int64) bool {
	return contains(todoRe, text, id)
}

// StripTodo removes every todo marker from text.
func StripTodo(text string) string {
	return todoStrip.ReplaceAllString(text, "")
}

func first(re *regexp.Regexp, text string) (int64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseGroups(m)
}

// contains walks every match so that id 42 never matches #📼 420.
func contains(re *regexp.Regexp, text string, id int64) bool {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if got, ok := parseGroups(m); ok && got == id {
			return true
		}
	}
	return false
}

func parseGroups(m []string) (int64, bool) {
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		id, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
