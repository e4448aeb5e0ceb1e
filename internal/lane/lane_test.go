package lane_test

import (
	"testing"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/lane"
)

func TestSubscribeAssignsDistinctLanesAndReusesFreedOnes(t *testing.T) {
	m := lane.New(geometry.Rect{W: 1920, H: 1080}, 50)

	a := m.Subscribe("story-a", chyron.PopCenter, chyron.ExitPop)
	b := m.Subscribe("story-b", chyron.PopCenter, chyron.ExitPop)
	if a == b {
		t.Fatalf("expected distinct lane indices, got %d and %d", a, b)
	}

	// Re-subscribing the same story must return the same lane, not a new one.
	again := m.Subscribe("story-a", chyron.PopCenter, chyron.ExitPop)
	if again != a {
		t.Fatalf("re-subscribing story-a should return lane %d, got %d", a, again)
	}

	m.Unsubscribe("story-a")
	c := m.Subscribe("story-c", chyron.PopCenter, chyron.ExitPop)
	if c != a {
		t.Fatalf("expected freed lane %d to be reused, got %d", a, c)
	}
}

func TestLaneInvariantLaneWithinBoundaries(t *testing.T) {
	// spec.md §3/§8 invariant 5: C.lane ⊆ C.lane_boundaries at subscription,
	// and lane_boundaries starts out equal to lane before anything grows it.
	m := lane.New(geometry.Rect{W: 1920, H: 1080}, 50)
	idx := m.Subscribe("story-a", chyron.PopCenter, chyron.ExitPop)

	base := m.BaseLanePosition(idx)
	boundaries, ok := m.LaneBoundaries(idx)
	if !ok {
		t.Fatal("expected lane boundaries to exist for a subscribed story")
	}
	if !boundaries.Contains(base) {
		t.Fatalf("lane %+v not contained in lane_boundaries %+v", base, boundaries)
	}
}

func TestUnsubscribeUnknownStoryIsNoop(t *testing.T) {
	m := lane.New(geometry.Rect{W: 100, H: 100}, 10)
	m.Unsubscribe("never-subscribed") // must not panic
}

func TestAnchorCollapsesToSensibleCorner(t *testing.T) {
	m := lane.New(geometry.Rect{W: 1000, H: 500}, 40)
	idx := m.Subscribe("story-a", chyron.PopTopLeft, chyron.ExitPop)
	display := m.Display(idx)
	size := geometry.Rect{W: 100, H: 20}

	topLeft := m.Anchor(idx, chyron.PopTopLeft, chyron.ExitPop, size, display)
	if topLeft.X != display.X || topLeft.Y != display.Y {
		t.Fatalf("PopTopLeft anchor = %+v, want origin of %+v", topLeft, display)
	}

	bottomRight := m.Anchor(idx, chyron.PopBottomRight, chyron.ExitPop, size, display)
	if bottomRight.Right() != display.Right() || bottomRight.Bottom() != display.Bottom() {
		t.Fatalf("PopBottomRight anchor = %+v, want bottom-right corner of %+v", bottomRight, display)
	}
}

func TestBaseLanePositionShapeVariesByEntryAndExit(t *testing.T) {
	display := geometry.Rect{W: 1000, H: 500}
	m := lane.New(display, 10)

	vertical := m.Subscribe("story-vertical", chyron.SlideDownCenterTop, chyron.ExitSlideUp)
	line := m.BaseLanePosition(vertical)
	if line.H != display.H {
		t.Fatalf("SlideDownCenterTop lane should span the full display height, got %+v", line)
	}

	horizontal := m.Subscribe("story-horizontal", chyron.SlideInLeftTop, chyron.ExitSlideLeft)
	hline := m.BaseLanePosition(horizontal)
	if hline.W != display.W {
		t.Fatalf("SlideInLeftTop lane should span the full display width, got %+v", hline)
	}

	slidingExit := m.Subscribe("story-pop-slide", chyron.PopCenter, chyron.ExitSlideLeft)
	slideLane := m.BaseLanePosition(slidingExit)
	if slideLane.W != 10 && slideLane.H != display.H {
		t.Fatalf("PopCenter with a sliding exit should keep a full line, got %+v", slideLane)
	}

	popExit := m.Subscribe("story-pop-pop", chyron.PopCenter, chyron.ExitPop)
	pointLane := m.BaseLanePosition(popExit)
	if pointLane.W != 10 || pointLane.H != 10 {
		t.Fatalf("PopCenter with a Pop exit should collapse to a point, got %+v", pointLane)
	}
}

func TestGrowLaneBoundariesUnionsOccupiedFootprint(t *testing.T) {
	m := lane.New(geometry.Rect{W: 1920, H: 1080}, 50)
	idx := m.Subscribe("story-a", chyron.PopCenter, chyron.ExitPop)

	first := geometry.Rect{X: 100, Y: 100, W: 300, H: 40}
	second := geometry.Rect{X: 50, Y: 300, W: 300, H: 40}
	m.GrowLaneBoundaries(idx, first)
	m.GrowLaneBoundaries(idx, second)

	boundaries, ok := m.LaneBoundaries(idx)
	if !ok {
		t.Fatal("expected lane boundaries to exist")
	}
	if !boundaries.Contains(first) || !boundaries.Contains(second) {
		t.Fatalf("expected lane_boundaries to contain every grown rect, got %+v", boundaries)
	}

	m.GrowLaneBoundaries(99, geometry.Rect{X: 1, Y: 1, W: 1, H: 1}) // unknown lane must not panic
}

func TestUnknownLaneReturnsDisplayFallback(t *testing.T) {
	m := lane.New(geometry.Rect{W: 640, H: 480}, 20)
	if got := m.BaseLanePosition(99); got != (geometry.Rect{W: 640, H: 480}) {
		t.Fatalf("expected display fallback for unknown lane, got %+v", got)
	}
	if _, ok := m.LaneBoundaries(99); ok {
		t.Fatal("expected LaneBoundaries to report false for an unknown lane")
	}
}
