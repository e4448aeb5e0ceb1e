// Package headline owns the Headline type: a single displayable
// notification, its geometry, styling, and the font-fit / progress-bar
// painting logic a Chyron drives during its lifecycle.
package headline

import (
	"regexp"
	"strconv"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
)

// FixedSizePolicy controls how text that exceeds the headline's fixed
// dimensions is handled.
type FixedSizePolicy int

const (
	FixedNone FixedSizePolicy = iota
	FixedScaleToFit
	FixedClipToFit
)

// Handle is an opaque index into a Chyron's headline arena (see
// internal/chyron), replacing the original's raw back-pointer from Headline
// to its owning Chyron.
type Handle int

const minScaledFontPt = 6.0

// Headline is a single displayable notification.
type Headline struct {
	Story        string // opaque story identity, must match owning Chyron's settings
	Text         string
	StylesheetID string
	FontPt       float64
	Margin       int
	FixedSize    FixedSizePolicy

	ProgressRegex   *regexp.Regexp
	ProgressOnTop   bool
	ProgressPercent int // -1 when no progress bar text matched
	ProgressCompact bool

	Rect        geometry.Rect
	OwnerDraw   bool
	Opacity     float64
	CreatedAt   time.Time
	ViewedAt    time.Time // zero until the entry animation finishes
	Ignored     bool      // set once a train-shifted headline is no longer eligible for aging
	Animation   AnimationHandle
}

// AnimationHandle identifies the single in-flight animation a Headline may
// carry; zero value means no animation is running.
type AnimationHandle int

// New constructs a Headline in its pre-initialized state: no geometry yet,
// opacity 0 so an entry animation (including Fade) always starts from a
// known value.
func New(story, text string) *Headline {
	return &Headline{
		Story:           story,
		Text:            text,
		Opacity:         0,
		CreatedAt:       time.Now(),
		ProgressPercent: -1,
	}
}

// Viewed reports whether the headline has finished entering.
func (h *Headline) Viewed() bool { return !h.ViewedAt.IsZero() }

// Age returns how long it has been since the headline finished entering; it
// is zero while the headline is still entering.
func (h *Headline) Age(now time.Time) time.Duration {
	if !h.Viewed() {
		return 0
	}
	return now.Sub(h.ViewedAt)
}

const ellipsis = "…"

// elideLine shortens line, one rune at a time from the end, appending an
// ellipsis, until measure reports it fits within width — the Go analogue of
// original_source/headline.cpp's QFontMetrics::elidedText.
func elideLine(line string, width int, fontPt float64, measure func(fontPt float64, lines []string) (widest int, lineHeight int)) string {
	if width <= 0 {
		return line
	}
	if widest, _ := measure(fontPt, []string{line}); widest <= width {
		return line
	}
	runes := []rune(line)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if widest, _ := measure(fontPt, []string{candidate}); widest <= width {
			return candidate
		}
	}
	return ellipsis
}

// Initialize configures display sizing per spec.md §4.6: for ScaleToFit it
// iteratively reduces FontPt by 0.1 until the text fits width/height,
// floored at 6pt; for ClipToFit it truncates lines from the bottom and then
// elides each remaining line's text to fit width. measure reports
// (widestLineWidth, lineHeight) for a given font size and line set —
// supplied by the caller since actual text metrics require a font
// rendering backend outside this package's scope.
func (h *Headline) Initialize(width, height int, measure func(fontPt float64, lines []string) (widest int, lineHeight int)) {
	lines := splitLines(h.Text)
	switch h.FixedSize {
	case FixedScaleToFit:
		for h.FontPt > minScaledFontPt {
			widest, lineHeight := measure(h.FontPt, lines)
			totalHeight := lineHeight * len(lines)
			if widest <= width && totalHeight <= height {
				break
			}
			h.FontPt -= 0.1
		}
	case FixedClipToFit:
		for len(lines) > 0 {
			_, lineHeight := measure(h.FontPt, lines)
			if lineHeight*len(lines) <= height {
				break
			}
			lines = lines[:len(lines)-1]
		}
		for i := range lines {
			lines[i] = elideLine(lines[i], width, h.FontPt, measure)
		}
		h.Text = joinLines(lines)
	}
	h.Rect = geometry.Rect{X: h.Rect.X, Y: h.Rect.Y, W: width, H: height}
}

// ExtractProgress parses h.Text with ProgressRegex (capture group 1 = a
// percentage string) and stores the clamped result in ProgressPercent, or
// -1 if no match.
func (h *Headline) ExtractProgress() {
	h.ProgressPercent = -1
	if h.ProgressRegex == nil {
		return
	}
	m := h.ProgressRegex.FindStringSubmatch(h.Text)
	if len(m) < 2 {
		return
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	h.ProgressPercent = v
}

// ProgressBarRect returns the rectangle a progress bar should paint into,
// given the headline's current Rect, or the zero Rect if no progress value
// has been extracted.
func (h *Headline) ProgressBarRect() (geometry.Rect, bool) {
	if h.ProgressPercent < 0 {
		return geometry.Rect{}, false
	}
	barHeight := 5
	if h.ProgressCompact {
		barHeight = h.Rect.H
	}
	y := h.Rect.Y + h.Rect.H - barHeight
	if h.ProgressOnTop {
		y = h.Rect.Y
	}
	width := h.Rect.W * h.ProgressPercent / 100
	return geometry.Rect{X: h.Rect.X, Y: y, W: width, H: barHeight}, true
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
