package producer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/lane"
	"github.com/b0bh00d/Newsroom-sub000/internal/newsroomerr"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter"
)

func TestChunkWholePayloadWhenNotLimited(t *testing.T) {
	raw := "line one\nline two\nline three"
	got := chunk(raw, false, 0)
	want := []string{raw}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunk() = %#v, want %#v", got, want)
	}
}

func TestChunkGroupsByLimitAndRejoinsWithNewline(t *testing.T) {
	raw := "a\nb\nc\nd\ne"
	got := chunk(raw, true, 2)
	want := []string{"a\nb", "c\nd", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunk() = %#v, want %#v", got, want)
	}
}

func TestChunkPrefersBrSeparatorWhenPresent(t *testing.T) {
	raw := "a<br>b<br>c"
	got := chunk(raw, true, 2)
	want := []string{"a<br>b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunk() = %#v, want %#v", got, want)
	}
}

func TestStyleListSelectMatchesTriggerCaseInsensitivelyAndDefaultsOtherwise(t *testing.T) {
	styles := NewStyleList("default.css")
	styles.Add(Style{Name: "Critical", Stylesheet: "red.css", Triggers: []string{"FAILED"}})

	if got := styles.Select("build 12 FAILED"); got.Name != "Critical" {
		t.Fatalf("expected Critical style for literal-case trigger match, got %q", got.Name)
	}
	if got := styles.Select("build 12 failed again"); got.Name != "Critical" {
		t.Fatalf("expected case-insensitive trigger match, got %q", got.Name)
	}
	if got := styles.Select("build 12 succeeded"); got.Name != DefaultStyleName {
		t.Fatalf("expected Default style when no trigger matches, got %q", got.Name)
	}
}

func TestStyleListDefaultCannotBeRemoved(t *testing.T) {
	styles := NewStyleList("default.css")
	if styles.Remove(DefaultStyleName) {
		t.Fatal("expected Remove(Default) to report false")
	}
	if len(styles.Styles()) != 1 {
		t.Fatal("expected Default to remain after a rejected Remove")
	}
}

// fakeReporter is a minimal reporter.Reporter double driven directly by
// tests, pushing NewData onto its own channel on demand.
type fakeReporter struct {
	story    string
	ch       chan reporter.NewData
	covered  bool
	coverErr error
	draw     func(payload []byte) (string, bool)
}

func newFakeReporter() *fakeReporter { return &fakeReporter{ch: make(chan reporter.NewData, 8)} }

func (f *fakeReporter) DisplayName() (string, string)          { return "fake", "" }
func (f *fakeReporter) PluginClass() string                    { return "Test" }
func (f *fakeReporter) PluginID() string                       { return "test.fake" }
func (f *fakeReporter) Supports(story string) float64           { return 1 }
func (f *fakeReporter) RequiresVersion() int                    { return 1 }
func (f *fakeReporter) RequiresFormat() string                  { return "Simple" }
func (f *fakeReporter) RequiresUpgrade(int, map[string]string) bool { return false }
func (f *fakeReporter) Requires() []reporter.Requirement        { return nil }
func (f *fakeReporter) SetRequirements(map[string]string) bool  { return true }
func (f *fakeReporter) SetStory(story string)                   { f.story = story }
func (f *fakeReporter) CoverStory(ctx context.Context) error {
	if f.coverErr != nil {
		return f.coverErr
	}
	f.covered = true
	return nil
}
func (f *fakeReporter) FinishStory() error                      { f.covered = false; close(f.ch); return nil }
func (f *fakeReporter) Secure(map[string]string)                {}
func (f *fakeReporter) Unsecure(map[string]string)              {}
func (f *fakeReporter) Subscribe() <-chan reporter.NewData       { return f.ch }

type fakeDrawerReporter struct {
	*fakeReporter
}

func (f *fakeDrawerReporter) Draw(payload []byte) (string, bool) {
	if f.draw != nil {
		return f.draw(payload)
	}
	return "", false
}

func newTestChyron(t *testing.T, story string) *chyron.Chyron {
	t.Helper()
	lm := lane.New(geometry.Rect{W: 1920, H: 1080}, 60)
	s := chyron.DefaultSettings(story)
	s.TTL = time.Hour
	c, err := chyron.New(s, lm, nil, nil, nil)
	if err != nil {
		t.Fatalf("chyron.New: %v", err)
	}
	c.Display()
	t.Cleanup(c.Hide)
	return c
}

func waitForPosted(t *testing.T, c *chyron.Chyron, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(c.Posted()) >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d posted headlines, got %d", n, len(c.Posted()))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestProducerFilesChunkedHeadlinesFromReporterUpdates(t *testing.T) {
	rep := newFakeReporter()
	c := newTestChyron(t, "story-a")
	styles := NewStyleList("default.css")
	styles.Add(Style{Name: "Critical", Stylesheet: "red.css", Triggers: []string{"failed"}})

	p := New("story-a", rep, c, styles, true, 1)
	if err := p.StartCoveringStory(context.Background()); err != nil {
		t.Fatalf("StartCoveringStory: %v", err)
	}
	defer p.StopCoveringStory()

	rep.ch <- reporter.NewData{Payload: []byte("build 1 ok\nbuild 2 failed")}

	// limitContentTo=1 groups the two newline-separated lines into two
	// Headlines; both should land as distinct posted entries.
	waitForPosted(t, c, 2)
}

func TestProducerDrawerHookBypassesChunking(t *testing.T) {
	rep := &fakeDrawerReporter{fakeReporter: newFakeReporter()}
	rep.draw = func(payload []byte) (string, bool) { return "<b>drawn</b>", true }
	c := newTestChyron(t, "story-a")

	p := New("story-a", rep, c, nil, true, 1)
	if err := p.StartCoveringStory(context.Background()); err != nil {
		t.Fatalf("StartCoveringStory: %v", err)
	}
	defer p.StopCoveringStory()

	rep.ch <- reporter.NewData{Payload: []byte("line one\nline two\nline three")}

	waitForPosted(t, c, 1)
	if len(c.Posted()) != 1 {
		t.Fatalf("expected the Drawer hook to produce exactly one Headline regardless of line count, got %d", len(c.Posted()))
	}
}

// fakeSignalerReporter layers the optional Signaler surface on top of the
// drawing fake, so tests can emit highlight and shelve signals on demand.
type fakeSignalerReporter struct {
	*fakeDrawerReporter
	highlights chan reporter.Highlight
	shelves    chan bool
}

func newFakeSignalerReporter() *fakeSignalerReporter {
	return &fakeSignalerReporter{
		fakeDrawerReporter: &fakeDrawerReporter{fakeReporter: newFakeReporter()},
		highlights:         make(chan reporter.Highlight, 4),
		shelves:            make(chan bool, 4),
	}
}

func (f *fakeSignalerReporter) Highlights() <-chan reporter.Highlight { return f.highlights }
func (f *fakeSignalerReporter) ShelveSignals() <-chan bool            { return f.shelves }

func TestReporterHighlightSignalBoostsOwnerDrawnHeadlineOpacity(t *testing.T) {
	rep := newFakeSignalerReporter()
	rep.draw = func(payload []byte) (string, bool) { return "<b>drawn</b>", true }
	c := newTestChyron(t, "story-a")

	p := New("story-a", rep, c, nil, false, 0)
	if err := p.StartCoveringStory(context.Background()); err != nil {
		t.Fatalf("StartCoveringStory: %v", err)
	}
	defer p.StopCoveringStory()

	rep.ch <- reporter.NewData{Payload: []byte("ignored")}
	waitForPosted(t, c, 1)

	rep.highlights <- reporter.Highlight{Opacity: 0.42}

	handles := c.OwnerDrawnPosted()
	if len(handles) != 1 {
		t.Fatalf("expected one owner-drawn posted headline, got %d", len(handles))
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if op, ok := c.Opacity(handles[0]); ok && op == 0.42 {
			return
		}
		if time.Now().After(deadline) {
			op, _ := c.Opacity(handles[0])
			t.Fatalf("timed out waiting for highlight opacity 0.42, got %v", op)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReporterShelveSignalsWithdrawAndRestoreTheChyron(t *testing.T) {
	rep := newFakeSignalerReporter()
	c := newTestChyron(t, "story-a")

	p := New("story-a", rep, c, nil, false, 0)
	if err := p.StartCoveringStory(context.Background()); err != nil {
		t.Fatalf("StartCoveringStory: %v", err)
	}
	defer p.StopCoveringStory()

	waitForState := func(want chyron.State) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for c.State() != want {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for state %v, got %v", want, c.State())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	rep.shelves <- true
	waitForState(chyron.StateShelved)

	rep.shelves <- false
	waitForState(chyron.StateDisplaying)
}

func TestStartCoveringStorySurfacesReporterDecline(t *testing.T) {
	rep := newFakeReporter()
	rep.coverErr = errors.New("endpoint unreachable")
	c := newTestChyron(t, "story-a")

	p := New("story-a", rep, c, nil, false, 0)
	err := p.StartCoveringStory(context.Background())
	if !errors.Is(err, newsroomerr.ErrReporterCoverFailed) {
		t.Fatalf("expected ErrReporterCoverFailed, got %v", err)
	}
	if p.IsCoveringStory() {
		t.Fatal("a declined CoverStory must leave the producer not covering")
	}
}

func TestStopCoveringStoryIsIdempotentWhenNotCovering(t *testing.T) {
	rep := newFakeReporter()
	c := newTestChyron(t, "story-a")
	p := New("story-a", rep, c, nil, false, 0)
	if p.StopCoveringStory() {
		t.Fatal("expected StopCoveringStory to report false when not covering")
	}
}
