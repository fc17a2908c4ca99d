// Package parser reads and writes the YAML frontmatter of vault notes and
// extracts wikilinks and tags from their bodies.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Note is the parsed form of a vault document.
type Note struct {
	Frontmatter map[string]any
	Body        string
	Kind        string // frontmatter "type", e.g. daily or meeting
	Title       string
	Links       []string
	Tags        []string
}

// Parse splits data into frontmatter and body and collects links and tags.
// Missing or malformed frontmatter is not an error: the whole input becomes
// the body.
func Parse(data []byte) *Note {
	fm, body := splitFrontmatter(data)
	n := &Note{
		Frontmatter: fm,
		Body:        body,
		Links:       links(body),
		Tags:        tags(body, fm),
		Title:       title(fm, body),
	}
	if k, ok := fm["type"].(string); ok {
		n.Kind = k
	}
	return n
}

// Render serializes fm as a YAML frontmatter block followed by body. fm is
// usually a struct with yaml tags so that key order is stable.
func Render(fm any, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	return buf.String(), nil
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// links returns deduplicated wikilink targets without aliases.
func links(body string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// tags collects frontmatter tags followed by inline #tags. Marker tags such
// as #📼 never match the inline pattern.
func tags(body string, fm map[string]any) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if list, ok := fm["tags"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// title prefers the frontmatter title, then the first H1.
func title(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}
