package producer

import "strings"

// DefaultStyleName is the one style every StyleList carries, always first
// and never removable — the fallback used when no trigger matches.
const DefaultStyleName = "Default"

// Style is one named stylesheet selectable by a case-insensitive substring
// match against a headline's text.
type Style struct {
	Name       string
	Stylesheet string
	Triggers   []string
}

// StyleList is the ordered set of Styles a Producer chooses from, mirroring
// the settings dialog's Styles tree: "Default" is always present at index 0
// and cannot be removed.
type StyleList struct {
	styles []Style
}

// NewStyleList returns a StyleList seeded with the given Default stylesheet.
func NewStyleList(defaultStylesheet string) *StyleList {
	return &StyleList{styles: []Style{{Name: DefaultStyleName, Stylesheet: defaultStylesheet}}}
}

// Add appends a new selectable style. A style whose name matches an existing
// one (case-insensitively), "Default" included, replaces it in place rather
// than duplicating it.
func (l *StyleList) Add(s Style) {
	for i, existing := range l.styles {
		if strings.EqualFold(existing.Name, s.Name) {
			l.styles[i] = s
			return
		}
	}
	l.styles = append(l.styles, s)
}

// Remove deletes a style by name. The Default style can never be removed.
func (l *StyleList) Remove(name string) bool {
	if strings.EqualFold(name, DefaultStyleName) {
		return false
	}
	for i, s := range l.styles {
		if strings.EqualFold(s.Name, name) {
			l.styles = append(l.styles[:i], l.styles[i+1:]...)
			return true
		}
	}
	return false
}

// Select returns the first style (after Default) whose trigger matches text
// as a case-insensitive substring, or Default if none match.
func (l *StyleList) Select(text string) Style {
	lower := strings.ToLower(text)
	for _, s := range l.styles {
		if strings.EqualFold(s.Name, DefaultStyleName) {
			continue
		}
		for _, t := range s.Triggers {
			if t == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(t)) {
				return s
			}
		}
	}
	return l.styles[0]
}

// Styles returns the list in display order, Default always first.
func (l *StyleList) Styles() []Style {
	out := make([]Style, len(l.styles))
	copy(out, l.styles)
	return out
}
