package headline

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeIsZeroUntilViewed(t *testing.T) {
	h := New("story-a", "hello")
	assert.Zero(t, h.Age(time.Now().Add(time.Hour)), "Age must be 0 before ViewedAt is set")

	h.ViewedAt = time.Now()
	time.Sleep(time.Millisecond)
	assert.Positive(t, h.Age(time.Now()), "expected positive Age once viewed")
}

func TestScaleToFitShrinksFontUntilItFitsOrFloors(t *testing.T) {
	h := New("story-a", "a very long headline that does not fit")
	h.FontPt = 20
	h.FixedSize = FixedScaleToFit

	measure := func(fontPt float64, lines []string) (int, int) {
		// width scales linearly with font size and only fits 100px at 2pt,
		// below the floor, so the loop must stop at minScaledFontPt rather
		// than spin forever.
		return int(fontPt * 50), int(fontPt * 2)
	}
	h.Initialize(100, 1000, measure)

	assert.LessOrEqual(t, h.FontPt, minScaledFontPt, "expected FontPt to floor at minScaledFontPt")
}

func TestClipToFitTruncatesLinesFromBottom(t *testing.T) {
	h := New("story-a", "one\ntwo\nthree\nfour")
	h.FontPt = 12
	h.FixedSize = FixedClipToFit

	measure := func(fontPt float64, lines []string) (int, int) {
		return 10, 20 // each line is 20px tall regardless of content
	}
	h.Initialize(200, 45, measure) // room for at most 2 lines

	require.Equal(t, "one\ntwo", h.Text)
}

func TestExtractProgressParsesAndClampsPercentage(t *testing.T) {
	h := New("story-a", "build running 142%")
	h.ProgressRegex = regexp.MustCompile(`\s(\d+)%`)
	h.ExtractProgress()
	assert.Equal(t, 100, h.ProgressPercent, "expected clamp to 100")

	h2 := New("story-a", "no progress info here")
	h2.ProgressRegex = regexp.MustCompile(`\s(\d+)%`)
	h2.ExtractProgress()
	assert.Equal(t, -1, h2.ProgressPercent, "expected -1 when regex doesn't match")
}

func TestProgressBarRectHonorsOnTopAndCompact(t *testing.T) {
	h := New("story-a", "build 50%")
	h.Rect.X, h.Rect.Y, h.Rect.W, h.Rect.H = 0, 100, 200, 40
	h.ProgressPercent = 50

	bottom, ok := h.ProgressBarRect()
	require.True(t, ok, "expected a progress rect when ProgressPercent >= 0")
	assert.Equal(t, 100+40-5, bottom.Y, "expected bar anchored to bottom by default")
	assert.Equal(t, 100, bottom.W, "expected bar width to be 50%% of 200")

	h.ProgressOnTop = true
	top, _ := h.ProgressBarRect()
	assert.Equal(t, 100, top.Y, "expected bar anchored to top when ProgressOnTop")

	h.ProgressCompact = true
	compact, _ := h.ProgressBarRect()
	assert.Equal(t, 40, compact.H, "expected compact bar to fill the headline's full height")
}

func TestProgressBarRectAbsentWhenNoProgressExtracted(t *testing.T) {
	h := New("story-a", "no progress")
	_, ok := h.ProgressBarRect()
	assert.False(t, ok, "expected no progress rect when ProgressPercent is -1")
}
