package todosync

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/echovault/internal/marker"
	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/storage"
)

// DefaultEmblem marks a checklist line as a syncable task.
const DefaultEmblem = "🎤"

// DefaultScanWindow is the number of recently modified documents scanned.
const DefaultScanWindow = 30

var checklistRe = regexp.MustCompile(`^\s*- \[([ xX/])\] (.*)$`)

// ParseLine reports whether line is a task line and returns it parsed. A
// task line is a checklist item containing the emblem. Lines carrying only a
// todo marker, such as the pulled todo section, are not task lines.
func ParseLine(line, emblem string) (models.TaskLine, bool) {
	if emblem == "" {
		emblem = DefaultEmblem
	}
	m := checklistRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil || !strings.Contains(m[2], emblem) {
		return models.TaskLine{}, false
	}
	id, _ := marker.TodoID(m[2])

	text := strings.ReplaceAll(marker.StripTodo(m[2]), emblem, "")
	return models.TaskLine{
		Raw:       line,
		Text:      strings.Join(strings.Fields(text), " "),
		Completed: m[1] == "x" || m[1] == "X",
		TodoID:    id,
	}, true
}

// ScanText returns the task lines of one document.
func ScanText(path, content, emblem string) []models.TaskLine {
	var out []models.TaskLine
	for i, line := range strings.Split(content, "\n") {
		tl, ok := ParseLine(line, emblem)
		if !ok {
			continue
		}
		tl.Path = path
		tl.Line = i
		out = append(out, tl)
	}
	return out
}

// recent returns the window most recently modified documents under folder,
// ordered by path.
func recent(fs storage.Provider, folder string, window int) ([]string, error) {
	metas, err := fs.List(folder)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(metas, func(i, j int) bool { return metas[i].UpdatedAt.After(metas[j].UpdatedAt) })
	if window > 0 && len(metas) > window {
		metas = metas[:window]
	}
	paths := make([]string, len(metas))
	for i, m := range metas {
		paths[i] = m.Path
	}
	sort.Strings(paths)
	return paths, nil
}
