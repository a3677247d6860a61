package curation

import (
	"os"
	"path/filepath"
	"strings"
)

// GuidelineSource supplies the optional editorial guideline for a category.
type GuidelineSource interface {
	Guideline(category string) (string, bool)
}

type noGuidelines struct{}

func (noGuidelines) Guideline(string) (string, bool) { return "", false }

// FileGuidelines reads <Dir>/<category>.md.
type FileGuidelines struct {
	Dir string
}

// Guideline implements GuidelineSource. Missing or unreadable files yield false.
func (g FileGuidelines) Guideline(category string) (string, bool) {
	name := guidelineName(category)
	if g.Dir == "" || name == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(g.Dir, name+".md"))
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(data))
	return text, text != ""
}

// guidelineName reduces a category key to [a-z0-9_-] so it cannot escape Dir.
func guidelineName(category string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(category)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}
