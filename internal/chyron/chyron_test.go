package chyron

import (
	"testing"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/headline"
	"github.com/b0bh00d/Newsroom-sub000/internal/lane"
)

// fakeClock is the same shape as the teacher's ratelimit fakeClock
// (internal/ratelimit/token_bucket_test.go): a settable time.Time advanced
// explicitly by the test instead of sleeping wall-clock time.
type fakeClock struct{ now time.Time }

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }
func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }

func newTestChyron(t *testing.T, settings Settings) (*Chyron, *fakeClock) {
	t.Helper()
	lm := lane.New(geometry.Rect{W: 1920, H: 1080}, 60)
	c, err := New(settings, lm, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clock := newFakeClock(time.Unix(0, 0))
	c.WithClock(clock)
	c.Display()
	// Display starts a real-time ticker goroutine; stop it immediately so
	// the test drives tick() manually against the fake clock instead.
	c.stopLoop()
	return c, clock
}

func TestFileHeadlineMismatchedStoryFails(t *testing.T) {
	s := DefaultSettings("story-a")
	c, _ := newTestChyron(t, s)

	h := headline.New("story-b", "wrong story")
	err := c.FileHeadline(h)
	if err == nil {
		t.Fatal("expected error for mismatched story identity")
	}
}

func TestPopEntryTTLScenario(t *testing.T) {
	// spec.md §8 scenario 1: Pop entry, 5s ttl, three headlines filed at
	// t=0,1,2; each exits on the first tick more than 5s after it was
	// viewed, one exit per tick, and the posted list is empty by t=8.
	s := DefaultSettings("story-a")
	s.EntryType = PopCenter
	s.ExitType = ExitPop
	s.TTL = 5 * time.Second
	c, clock := newTestChyron(t, s)

	file := func(text string) {
		if err := c.FileHeadline(headline.New("story-a", text)); err != nil {
			t.Fatalf("FileHeadline: %v", err)
		}
	}

	file("first")
	c.tick() // t=0: dequeue+enter "first" (Pop is instant, viewed = now)

	clock.Advance(1 * time.Second)
	file("second")
	c.tick() // t=1: dequeue+enter "second"

	clock.Advance(1 * time.Second)
	file("third")
	c.tick() // t=2: dequeue+enter "third"

	if len(c.posted) != 3 {
		t.Fatalf("expected all 3 posted before any ttl elapses, got %d", len(c.posted))
	}

	// t=5.1: first headline (viewed at t=0) is now ttl-eligible; Pop exits
	// instantly, so one tick both starts and completes it.
	clock.Advance(3*time.Second + 100*time.Millisecond)
	c.tick()
	if len(c.posted) != 2 {
		t.Fatalf("at t=5.1 expected 2 posted after first exits, got %d", len(c.posted))
	}

	// t=6.1: second headline (viewed at t=1) now ttl-eligible.
	clock.Advance(1 * time.Second)
	c.tick()
	if len(c.posted) != 1 {
		t.Fatalf("at t=6.1 expected 1 posted after second exits, got %d", len(c.posted))
	}

	// t=7.1: third headline (viewed at t=2) now ttl-eligible.
	clock.Advance(1 * time.Second)
	c.tick()
	if len(c.posted) != 0 {
		t.Fatalf("at t=7.1 expected headline_list.len() == 0, got %d", len(c.posted))
	}
}

func TestAnimationInterlockBlocksNewEntryWhileOneInFlight(t *testing.T) {
	s := DefaultSettings("story-a")
	s.EntryType = SlideDownCenterTop
	s.ExitType = ExitSlideUp
	s.MotionDuration = 1 * time.Second
	c, clock := newTestChyron(t, s)

	file := func(text string) {
		if err := c.FileHeadline(headline.New("story-a", text)); err != nil {
			t.Fatalf("FileHeadline: %v", err)
		}
	}
	file("a")
	file("b")

	c.tick() // starts entering "a"
	if len(c.entering) != 1 {
		t.Fatalf("expected 1 entering after first tick, got %d", len(c.entering))
	}
	if len(c.incoming) != 1 {
		t.Fatalf("expected second headline still queued behind the interlock, got %d incoming", len(c.incoming))
	}

	clock.Advance(2 * time.Second)
	c.tick() // "a" finishes entering; same tick starts "b" since the interlock is now clear
	if len(c.entering) != 1 {
		t.Fatalf("expected second headline to start entering once interlock cleared, got %d", len(c.entering))
	}
}

func TestShiftLeftThenRightReturnsToOriginalGeometry(t *testing.T) {
	s := DefaultSettings("story-a")
	s.EntryType = PopCenter
	s.ExitType = ExitPop
	s.TTL = 1 * time.Hour
	c, _ := newTestChyron(t, s)

	if err := c.FileHeadline(headline.New("story-a", "only")); err != nil {
		t.Fatalf("FileHeadline: %v", err)
	}
	c.tick()

	var handle headline.Handle
	var before geometry.Rect
	for h, hl := range c.posted {
		handle = h
		before = hl.Rect
	}

	c.ShiftLeft(40)
	c.ShiftRight(40)

	after := c.posted[handle].Rect
	if after != before {
		t.Fatalf("shift_left(n); shift_right(n) should return geometry to its original value, got %+v want %+v", after, before)
	}
}

func TestHideDestroysVisibleHeadlines(t *testing.T) {
	s := DefaultSettings("story-a")
	s.EntryType = PopCenter
	c, _ := newTestChyron(t, s)

	if err := c.FileHeadline(headline.New("story-a", "only")); err != nil {
		t.Fatalf("FileHeadline: %v", err)
	}
	c.tick()
	if len(c.posted) != 1 {
		t.Fatalf("expected 1 posted headline before Hide, got %d", len(c.posted))
	}

	c.Hide()
	if len(c.posted) != 0 {
		t.Fatalf("expected Hide to destroy all visible headlines, got %d remaining", len(c.posted))
	}
	if c.State() != StateHidden {
		t.Fatalf("expected StateHidden after Hide, got %v", c.State())
	}
}

func TestSuspendPausesDequeueingWithoutClearingVisibles(t *testing.T) {
	s := DefaultSettings("story-a")
	s.EntryType = PopCenter
	c, _ := newTestChyron(t, s)

	if err := c.FileHeadline(headline.New("story-a", "first")); err != nil {
		t.Fatalf("FileHeadline: %v", err)
	}
	c.tick()
	if len(c.posted) != 1 {
		t.Fatalf("expected 1 posted before suspend, got %d", len(c.posted))
	}

	c.Suspend()
	if err := c.FileHeadline(headline.New("story-a", "second")); err != nil {
		t.Fatalf("FileHeadline: %v", err)
	}
	if len(c.incoming) != 1 {
		t.Fatalf("expected FileHeadline to queue while suspended, got %d queued", len(c.incoming))
	}
	c.tick()
	if len(c.incoming) != 1 {
		t.Fatalf("expected no dequeue while suspended, got %d queued", len(c.incoming))
	}
	if len(c.posted) != 1 {
		t.Fatalf("Suspend must not clear already-posted headlines, got %d posted", len(c.posted))
	}

	c.Resume()
	c.tick()
	if len(c.incoming) != 0 {
		t.Fatalf("expected the queued headline to dequeue after Resume, got %d queued", len(c.incoming))
	}
	if len(c.posted) != 2 {
		t.Fatalf("expected 2 posted after Resume, got %d", len(c.posted))
	}
}

func TestTrainEntryPushesPostedHeadlinesAside(t *testing.T) {
	// spec.md §8 scenario 2: when B enters via Train, A must be translated
	// downward by h_B + margin, and B lands at the top margin.
	s := DefaultSettings("story-a")
	s.EntryType = TrainDownCenterTop
	s.InterpretAsPixels = true
	s.PixelWidth = 200
	s.PixelHeight = 40
	s.Margin = 5
	s.MotionDuration = 0
	c, _ := newTestChyron(t, s)

	if err := c.FileHeadline(headline.New("story-a", "A")); err != nil {
		t.Fatalf("FileHeadline A: %v", err)
	}
	c.tick() // A enters and completes (duration 0 -> posted)
	var aHandle headline.Handle
	for h := range c.posted {
		aHandle = h
	}
	if _, stillEntering := c.entering[aHandle]; stillEntering {
		t.Fatalf("expected Pop-duration entry to resolve same tick")
	}
	aBefore := c.posted[aHandle].Rect

	if err := c.FileHeadline(headline.New("story-a", "B")); err != nil {
		t.Fatalf("FileHeadline B: %v", err)
	}
	c.tick() // B's Train entry should push A aside, then expire anything now off-display

	if len(c.posted) != 2 {
		t.Fatalf("expected both A and B posted after the train push, got %d", len(c.posted))
	}

	aAfter := c.posted[aHandle].Rect
	wantDY := s.PixelHeight + s.Margin
	if aAfter.Y != aBefore.Y+wantDY || aAfter.X != aBefore.X {
		t.Fatalf("expected A pushed down by h_B+margin=%d, before=%+v after=%+v", wantDY, aBefore, aAfter)
	}

	var bHandle headline.Handle
	for h := range c.posted {
		if h != aHandle {
			bHandle = h
		}
	}
	bRect := c.posted[bHandle].Rect
	if bRect.Y != 0 {
		t.Fatalf("expected B to land at the top margin (y=0 for TrainDownCenterTop), got %+v", bRect)
	}
}

func TestTrainEntryBypassesAnimationInterlock(t *testing.T) {
	// Train entries must bypass the interlock entirely, unlike Slide/Pop/
	// Fade, which wait for any in-flight animation to finish first.
	s := DefaultSettings("story-a")
	s.EntryType = TrainDownCenterTop
	s.InterpretAsPixels = true
	s.PixelWidth = 200
	s.PixelHeight = 40
	s.MotionDuration = 1 * time.Second
	c, clock := newTestChyron(t, s)

	file := func(text string) {
		if err := c.FileHeadline(headline.New("story-a", text)); err != nil {
			t.Fatalf("FileHeadline: %v", err)
		}
	}
	file("a")
	c.tick() // starts entering "a"
	if len(c.entering) != 1 {
		t.Fatalf("expected 1 entering after first tick, got %d", len(c.entering))
	}

	file("b")
	clock.Advance(10 * time.Millisecond)
	c.tick() // "a" is still entering, but Train must start "b" anyway

	if len(c.entering) != 2 {
		t.Fatalf("expected Train entry to start alongside an in-flight one, got %d entering", len(c.entering))
	}
}
