// Package lane implements the lane registry a Dashboard and its Chyrons
// share to avoid overlapping headlines: each subscribed story is assigned a
// lane shaped deterministically from its entry/exit type and the target
// display, and entry types resolve their resting rectangle against that
// lane's boundaries.
package lane

import (
	"sync"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
)

// laneData mirrors original_source/lanedata.h's LaneData: the static lane
// rectangle and the mutable boundaries rectangle that GrowLaneBoundaries
// widens as the Chyron posts headlines.
type laneData struct {
	story      string
	entry      chyron.EntryType
	exit       chyron.ExitType
	lane       geometry.Rect
	boundaries geometry.Rect
}

// Manager is the registry of lane assignments for the Chyrons drawing on one
// display. It implements chyron.LaneManager.
type Manager struct {
	mu sync.Mutex

	display geometry.Rect
	laneH   int

	byStory map[string]int
	lanes   []*laneData
	free    []int
}

// New constructs a Manager that lays out lanes within display, using laneH
// as the thickness of a collapsed lane shape (a line's cross-axis size, or
// a point's edge length), growing the lane list as stories subscribe.
func New(display geometry.Rect, laneH int) *Manager {
	if laneH <= 0 {
		laneH = 1
	}
	return &Manager{
		display: display,
		laneH:   laneH,
		byStory: make(map[string]int),
	}
}

// Subscribe assigns story a lane shaped for (entry, exit) against the
// display — spec.md §4.2's "deterministic function of (entry type, exit
// type, display rect)" — reusing an index freed by Unsubscribe when
// possible.
func (m *Manager) Subscribe(story string, entry chyron.EntryType, exit chyron.ExitType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.byStory[story]; ok {
		return idx
	}
	var idx int
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = len(m.lanes)
		m.lanes = append(m.lanes, nil)
	}
	laneRect := m.calculateBaseLanePosition(entry, exit, m.display)
	m.lanes[idx] = &laneData{story: story, entry: entry, exit: exit, lane: laneRect, boundaries: laneRect}
	m.byStory[story] = idx
	return idx
}

// Unsubscribe releases story's lane, making it available for reuse.
func (m *Manager) Unsubscribe(story string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.byStory[story]
	if !ok {
		return
	}
	delete(m.byStory, story)
	m.lanes[idx] = nil
	m.free = append(m.free, idx)
}

// Display returns the full target display rectangle lane is anchored
// within. Unlike BaseLanePosition, this is never collapsed to a line or a
// point, so callers needing the true display area (percent-of-display
// sizing, the train-expire off-display check) use this instead.
func (m *Manager) Display(lane int) geometry.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

// calculateBaseLanePosition implements spec.md §4.2's anchor table: a
// vertical line spanning the full display height for SlideDown*/SlideUp*
// (and their Train equivalents), a horizontal line spanning the full width
// for SlideIn*/TrainIn*, and for Fade*/Pop* a shape the exit type further
// collapses — a sliding exit keeps a full line to exit along, a Fade/Pop
// exit collapses it to a point. Dashboard entries are positioned by the
// owning Dashboard, not this Manager, so they get the same point shape as a
// non-sliding Fade/Pop exit.
func (m *Manager) calculateBaseLanePosition(entry chyron.EntryType, exit chyron.ExitType, display geometry.Rect) geometry.Rect {
	switch {
	case entry.IsVerticalSlideFamily():
		return geometry.Rect{X: verticalEdgeX(entry, display), Y: display.Y, W: m.laneH, H: display.H}
	case entry.IsHorizontalSlideFamily():
		return geometry.Rect{X: display.X, Y: horizontalEdgeY(entry, display), W: display.W, H: m.laneH}
	case entry.IsPop(), entry.IsFade():
		corner := cornerPoint(entry, display)
		if exit.IsSliding() {
			return slidingLineForCorner(entry, corner, display, m.laneH)
		}
		return geometry.Rect{X: corner.X, Y: corner.Y, W: m.laneH, H: m.laneH}
	default: // Dashboard*, delegated to the owning Dashboard
		corner := cornerPoint(entry, display)
		return geometry.Rect{X: corner.X, Y: corner.Y, W: m.laneH, H: m.laneH}
	}
}

// verticalEdgeX reports the X coordinate of the vertical line a
// SlideDown*/SlideUp* entry anchors along: left edge, center, or right edge
// of display, per its named origin.
func verticalEdgeX(entry chyron.EntryType, display geometry.Rect) int {
	switch entry {
	case chyron.SlideDownLeftTop, chyron.SlideUpLeftBottom, chyron.TrainDownLeftTop, chyron.TrainUpLeftBottom:
		return display.X
	case chyron.SlideDownRightTop, chyron.SlideUpRightBottom, chyron.TrainDownRightTop, chyron.TrainUpRightBottom:
		return display.Right()
	default: // *CenterTop/*CenterBottom
		return display.X + display.W/2
	}
}

// horizontalEdgeY reports the Y coordinate of the horizontal line a
// SlideIn* entry anchors along: top or bottom edge of display.
func horizontalEdgeY(entry chyron.EntryType, display geometry.Rect) int {
	switch entry {
	case chyron.SlideInLeftTop, chyron.SlideInRightTop, chyron.TrainInLeftTop, chyron.TrainInRightTop:
		return display.Y
	default: // *LeftBottom/*RightBottom
		return display.Bottom()
	}
}

// cornerPoint reports the named corner or center point a Pop/Fade/Dashboard
// entry resolves to.
func cornerPoint(entry chyron.EntryType, display geometry.Rect) geometry.Rect {
	switch entry {
	case chyron.PopCenter, chyron.FadeCenter:
		return geometry.Rect{X: display.X + display.W/2, Y: display.Y + display.H/2}
	case chyron.PopTopLeft, chyron.FadeTopLeft,
		chyron.DashboardDownLeft, chyron.DashboardInLeftTop:
		return geometry.Rect{X: display.X, Y: display.Y}
	case chyron.PopTopRight, chyron.FadeTopRight,
		chyron.DashboardDownRight, chyron.DashboardInRightTop:
		return geometry.Rect{X: display.Right(), Y: display.Y}
	case chyron.PopBottomLeft, chyron.FadeBottomLeft,
		chyron.DashboardInLeftBottom:
		return geometry.Rect{X: display.X, Y: display.Bottom()}
	case chyron.PopBottomRight, chyron.FadeBottomRight,
		chyron.DashboardInRightBottom:
		return geometry.Rect{X: display.Right(), Y: display.Bottom()}
	case chyron.DashboardUpLeft:
		return geometry.Rect{X: display.X, Y: display.Bottom()}
	case chyron.DashboardUpRight:
		return geometry.Rect{X: display.Right(), Y: display.Bottom()}
	default:
		return geometry.Rect{X: display.X + display.W/2, Y: display.Y + display.H/2}
	}
}

// slidingLineForCorner opens corner into the full line it sits on the end
// of, so a sliding exit has a line to travel along rather than a bare
// point: every corner opens into a horizontal line along its top or bottom
// edge, and the center opens into a vertical line.
func slidingLineForCorner(entry chyron.EntryType, corner, display geometry.Rect, thickness int) geometry.Rect {
	switch entry {
	case chyron.PopTopLeft, chyron.FadeTopLeft, chyron.PopTopRight, chyron.FadeTopRight,
		chyron.PopBottomLeft, chyron.FadeBottomLeft, chyron.PopBottomRight, chyron.FadeBottomRight:
		return geometry.Rect{X: display.X, Y: corner.Y, W: display.W, H: thickness}
	default: // PopCenter/FadeCenter
		return geometry.Rect{X: corner.X, Y: display.Y, W: thickness, H: display.H}
	}
}

// BaseLanePosition returns the static, unshifted lane rectangle for lane —
// the shape calculateBaseLanePosition computed at Subscribe time.
func (m *Manager) BaseLanePosition(lane int) geometry.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lane < 0 || lane >= len(m.lanes) || m.lanes[lane] == nil {
		return m.display
	}
	return m.lanes[lane].lane
}

// LaneBoundaries returns the mutable boundaries rectangle for lane, which
// GrowLaneBoundaries widens as headlines are posted.
func (m *Manager) LaneBoundaries(lane int) (geometry.Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lane < 0 || lane >= len(m.lanes) || m.lanes[lane] == nil {
		return geometry.Rect{}, false
	}
	return m.lanes[lane].boundaries, true
}

// GrowLaneBoundaries unions rect into lane's boundaries, so lane_boundaries
// tracks the actual occupied footprint of every headline a Chyron has
// posted there rather than staying pinned to the static lane shape
// calculateBaseLanePosition assigned at Subscribe time. A Dashboard reads
// this via Chyron.LaneBoundaries to size its reflow shift (spec.md §4.3).
func (m *Manager) GrowLaneBoundaries(lane int, rect geometry.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lane < 0 || lane >= len(m.lanes) || m.lanes[lane] == nil {
		return
	}
	m.lanes[lane].boundaries = m.lanes[lane].boundaries.Union(rect)
}

// Anchor resolves the resting rectangle for an entry of the given size
// within display, honoring the entry type's named origin/position/edge
// (spec.md §4.2). exit is threaded through for parity with
// get_base_lane_position's (entry, exit, display) signature: the resting
// point for a single headline coincides with the corner/edge
// calculateBaseLanePosition resolves for that exit regardless of whether
// the lane is a line or a point, since the point is always an endpoint of
// the line — what exit actually changes is the lane *shape* that
// BaseLanePosition reports for boundary bookkeeping.
func (m *Manager) Anchor(laneIdx int, entry chyron.EntryType, exit chyron.ExitType, size geometry.Rect, display geometry.Rect) geometry.Rect {
	if display == (geometry.Rect{}) {
		display = m.Display(laneIdx)
	}
	r := geometry.Rect{W: size.W, H: size.H}

	left := func() int { return display.X }
	right := func() int { return display.Right() - size.W }
	top := func() int { return display.Y }
	bottom := func() int { return display.Bottom() - size.H }
	centerX := func() int { return display.X + (display.W-size.W)/2 }
	centerY := func() int { return display.Y + (display.H-size.H)/2 }

	switch entry {
	case chyron.SlideDownLeftTop, chyron.TrainDownLeftTop, chyron.SlideInLeftTop, chyron.TrainInLeftTop:
		r.X, r.Y = left(), top()
	case chyron.SlideDownCenterTop, chyron.TrainDownCenterTop:
		r.X, r.Y = centerX(), top()
	case chyron.SlideDownRightTop, chyron.TrainDownRightTop, chyron.SlideInRightTop, chyron.TrainInRightTop:
		r.X, r.Y = right(), top()
	case chyron.SlideUpLeftBottom, chyron.TrainUpLeftBottom, chyron.SlideInLeftBottom, chyron.TrainInLeftBottom:
		r.X, r.Y = left(), bottom()
	case chyron.SlideUpCenterBottom, chyron.TrainUpCenterBottom:
		r.X, r.Y = centerX(), bottom()
	case chyron.SlideUpRightBottom, chyron.TrainUpRightBottom, chyron.SlideInRightBottom, chyron.TrainInRightBottom:
		r.X, r.Y = right(), bottom()

	case chyron.PopCenter, chyron.FadeCenter:
		r.X, r.Y = centerX(), centerY()
	case chyron.PopTopLeft, chyron.FadeTopLeft:
		r.X, r.Y = left(), top()
	case chyron.PopTopRight, chyron.FadeTopRight:
		r.X, r.Y = right(), top()
	case chyron.PopBottomLeft, chyron.FadeBottomLeft:
		r.X, r.Y = left(), bottom()
	case chyron.PopBottomRight, chyron.FadeBottomRight:
		r.X, r.Y = right(), bottom()

	case chyron.DashboardDownLeft, chyron.DashboardInLeftTop, chyron.DashboardInLeftBottom:
		r.X, r.Y = left(), top()
	case chyron.DashboardDownRight, chyron.DashboardInRightTop, chyron.DashboardInRightBottom:
		r.X, r.Y = right(), top()
	case chyron.DashboardUpLeft:
		r.X, r.Y = left(), bottom()
	case chyron.DashboardUpRight:
		r.X, r.Y = right(), bottom()

	default:
		r.X, r.Y = centerX(), centerY()
	}
	return r
}
