// Package dashboard implements Dashboard, the grouping of multiple Chyrons
// sharing a dashboard_group_id into a single stacked, headered lane
// (spec.md §4.3). A Dashboard serializes the reflow work its member
// Chyrons generate (shifts triggered by a sibling unsubscribing) through a
// single worker goroutine draining a buffered queue, the same
// checkpoint-loop shape the teacher uses for batched disk writes.
package dashboard

import (
	"container/list"
	"sync"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/events"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/headline"
)

// member is one Chyron tracked by the Dashboard, in display order.
type member struct {
	id     string
	chyron *chyron.Chyron
}

// reflowJob is a queued shift operation: when a member unsubscribes, every
// member below it in stack order shifts toward the vacated slot by the
// removed member's actual lane_boundaries size in the stacking direction.
type reflowJob struct {
	removedIndex int
	amount       int
}

// Dashboard groups Chyrons sharing a group id into one stacked lane.
type Dashboard struct {
	mu sync.Mutex

	id     string
	header *headline.Headline

	members *list.List // of *member, in stack order
	byID    map[string]*list.Element

	// axisVertical/axisSign fix the stacking orientation, taken from the
	// first member's EntryType.DashboardAxis() (spec.md §4.3): Down/Up
	// families stack vertically, In families stack horizontally, and sign
	// reports which direction later indices move away from the header.
	axisVertical bool
	axisSign     int
	axisSet      bool

	queue chan reflowJob
	wg    sync.WaitGroup
	done  chan struct{}

	bus events.Bus

	spacing int
	display geometry.Rect
}

// New constructs an empty Dashboard identified by id, decorated with a
// small header headline carrying the group id as its text.
func New(id string, display geometry.Rect, spacing int, bus events.Bus) *Dashboard {
	d := &Dashboard{
		id:           id,
		header:       headline.New(id, id),
		members:      list.New(),
		byID:         make(map[string]*list.Element),
		axisVertical: true,
		axisSign:     1,
		queue:        make(chan reflowJob, 64),
		done:         make(chan struct{}),
		bus:          bus,
		spacing:      spacing,
		display:      display,
	}
	d.wg.Add(1)
	go d.reflowLoop()
	return d
}

// ID reports the dashboard_group_id this Dashboard manages.
func (d *Dashboard) ID() string { return d.id }

// IsEmpty reports whether the Dashboard currently manages no Chyrons.
func (d *Dashboard) IsEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.members.Len() == 0
}

// IsManaging reports whether storyID is a current member of this Dashboard.
func (d *Dashboard) IsManaging(storyID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.byID[storyID]
	return ok
}

// HeaderGeometry returns the header headline's current rectangle.
func (d *Dashboard) HeaderGeometry() geometry.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.header.Rect
}

// AddMember appends c (identified by storyID) to the bottom of the stack,
// positions the header at the top if this is the first member, fixes the
// Dashboard's stacking axis from that first member's EntryType if it isn't
// set yet, and re-sequences every member's dashboard slot.
func (d *Dashboard) AddMember(storyID string, c *chyron.Chyron) {
	d.mu.Lock()
	if d.members.Len() == 0 {
		d.header.Rect = geometry.Rect{X: d.display.X, Y: d.display.Y, W: d.display.W, H: c.Settings().Margin * 4}
	}
	if !d.axisSet {
		d.axisVertical, d.axisSign = c.Settings().EntryType.DashboardAxis()
		d.axisSet = true
	}
	el := d.members.PushBack(&member{id: storyID, chyron: c})
	d.byID[storyID] = el
	d.mu.Unlock()

	d.resequence()
}

// RemoveMember removes storyID from the stack and queues a reflow shift for
// every member that was stacked below it, mirroring remove_lane/_remove_lane
// plus the deferred shift work the original drains from its unsubscribe
// queue. The shift amount is the removed member's actual lane_boundaries
// size in the stacking direction (spec.md §4.3), read before it releases
// its lane.
func (d *Dashboard) RemoveMember(storyID string) {
	d.mu.Lock()
	el, ok := d.byID[storyID]
	if !ok {
		d.mu.Unlock()
		return
	}
	idx := d.indexOf(el)
	m := el.Value.(*member)
	d.members.Remove(el)
	delete(d.byID, storyID)
	empty := d.members.Len() == 0
	axisVertical := d.axisVertical
	d.mu.Unlock()

	amount := m.chyron.Settings().Margin*2 + d.spacing
	if boundaries, ok := m.chyron.LaneBoundaries(); ok {
		if axisVertical {
			amount = boundaries.H + d.spacing
		} else {
			amount = boundaries.W + d.spacing
		}
	}

	m.chyron.Unsubscribed()

	if empty {
		d.publishEmpty()
		return
	}
	select {
	case d.queue <- reflowJob{removedIndex: idx, amount: amount}:
	default:
		// queue saturated: apply inline rather than drop a reflow, since a
		// missed shift would leave a visible gap.
		d.applyReflow(reflowJob{removedIndex: idx, amount: amount})
	}
}

func (d *Dashboard) indexOf(target *list.Element) int {
	i := 0
	for el := d.members.Front(); el != nil; el = el.Next() {
		if el == target {
			return i
		}
		i++
	}
	return -1
}

// reflowLoop is the Dashboard's single serialized worker, draining queued
// reflow jobs one at a time so overlapping member removals never race on
// the same members' geometry.
func (d *Dashboard) reflowLoop() {
	defer d.wg.Done()
	for job := range d.queue {
		d.applyReflow(job)
	}
}

func (d *Dashboard) applyReflow(job reflowJob) {
	d.mu.Lock()
	i := 0
	var all []*chyron.Chyron
	var toShift []*chyron.Chyron
	for el := d.members.Front(); el != nil; el = el.Next() {
		c := el.Value.(*member).chyron
		all = append(all, c)
		if i >= job.removedIndex {
			toShift = append(toShift, c)
		}
		i++
	}
	d.mu.Unlock()

	// §4.3's invariant: no member dequeues while a reflow animation group
	// is in flight. All members are suspended, not just the ones shifting,
	// since the group as a whole (header included) must complete together.
	for _, c := range all {
		c.Suspend()
	}
	for _, c := range toShift {
		d.applyAxisShift(c, job.amount)
	}
	d.resequence()
	for _, c := range all {
		c.Resume()
	}
	d.publish("reflowed")
}

// applyAxisShift moves c by amount toward the header along the Dashboard's
// stacking axis — the direction a sibling's removal vacates, regardless of
// whether this Dashboard stacks Down, Up, or sideways via an In family
// (spec.md §4.3).
func (d *Dashboard) applyAxisShift(c *chyron.Chyron, amount int) {
	if amount == 0 {
		return
	}
	delta := -d.axisSign * amount
	if d.axisVertical {
		if delta >= 0 {
			c.ShiftDown(delta)
		} else {
			c.ShiftUp(-delta)
		}
		return
	}
	if delta >= 0 {
		c.ShiftRight(delta)
	} else {
		c.ShiftLeft(-delta)
	}
}

// memberExtent reports how much room c's headline occupies in the stacking
// direction, per spec.md §4.3's "index × (headline_extent + margin)"
// layout rule, scaled by DashboardCompression when the member runs in
// compact mode.
func memberExtent(c *chyron.Chyron, display geometry.Rect, vertical bool) int {
	s := c.Settings()
	w, h := s.Dimensions(display)
	extent := h
	if !vertical {
		extent = w
	}
	if s.DashboardCompactMode && s.DashboardCompression > 0 {
		extent = int(float64(extent) * s.DashboardCompression / 100.0)
	}
	return extent
}

// resequence recomputes every member's dashboard slot rectangle from its
// index and extent along the stacking axis, starting just past the header,
// and pushes each one to its Chyron via SetDashboardSlot so the next
// Dashboard-type entry anchors there.
func (d *Dashboard) resequence() {
	d.mu.Lock()
	type sized struct {
		c      *chyron.Chyron
		extent int
	}
	var sizedMembers []sized
	for el := d.members.Front(); el != nil; el = el.Next() {
		c := el.Value.(*member).chyron
		sizedMembers = append(sizedMembers, sized{c: c, extent: memberExtent(c, d.display, d.axisVertical)})
	}
	axisVertical, sign := d.axisVertical, d.axisSign
	header := d.header.Rect
	display := d.display
	margin := d.spacing
	d.mu.Unlock()

	var cursor int
	switch {
	case axisVertical && sign >= 0:
		cursor = header.Bottom()
	case axisVertical:
		cursor = header.Y
	case !axisVertical && sign >= 0:
		cursor = header.Right()
	default:
		cursor = header.X
	}

	for _, s := range sizedMembers {
		w, h := s.c.Settings().Dimensions(display)
		var rect geometry.Rect
		switch {
		case axisVertical && sign >= 0:
			rect = geometry.Rect{X: display.X, Y: cursor, W: w, H: h}
			cursor += s.extent + margin
		case axisVertical:
			cursor -= s.extent + margin
			rect = geometry.Rect{X: display.X, Y: cursor, W: w, H: h}
		case !axisVertical && sign >= 0:
			rect = geometry.Rect{X: cursor, Y: display.Y, W: w, H: h}
			cursor += s.extent + margin
		default:
			cursor -= s.extent + margin
			rect = geometry.Rect{X: cursor, Y: display.Y, W: w, H: h}
		}
		s.c.SetDashboardSlot(rect)
	}
}

// Close stops the reflow worker. Call once, when the Dashboard itself is
// torn down (all members already removed).
func (d *Dashboard) Close() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dashboard) publishEmpty() { d.publish("empty") }

func (d *Dashboard) publish(kind string) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(events.Event{
		Time:     time.Now(),
		Category: events.CategoryDashboard,
		Type:     kind,
		Labels:   map[string]string{"group": d.id},
	})
}
