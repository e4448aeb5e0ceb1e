package chyron

import (
	"context"
	"sync"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/events"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/headline"
	"github.com/b0bh00d/Newsroom-sub000/internal/newsroomerr"
	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/logging"
	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/metrics"
)

// Clock abstracts time so Chyron's 100ms tick loop can be driven
// deterministically from tests, mirroring the teacher's rate limiter clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// TickInterval is the default age/animation tick period (spec.md §4.1).
const TickInterval = 100 * time.Millisecond

// State is the Chyron's coarse lifecycle state.
type State int

const (
	StateHidden State = iota
	StateDisplaying
	StateSuspended
	StateShelved
)

func (s State) String() string {
	switch s {
	case StateDisplaying:
		return "Displaying"
	case StateSuspended:
		return "Suspended"
	case StateShelved:
		return "Shelved"
	default:
		return "Hidden"
	}
}

// LaneManager is the subset of internal/lane.Manager a Chyron depends on.
// Defined here, at the consumer, so internal/lane need not import this
// package.
type LaneManager interface {
	Subscribe(story string, entry EntryType, exit ExitType) int
	Unsubscribe(story string)
	Display(lane int) geometry.Rect
	BaseLanePosition(lane int) geometry.Rect
	LaneBoundaries(lane int) (geometry.Rect, bool)
	GrowLaneBoundaries(lane int, rect geometry.Rect)
	Anchor(lane int, entry EntryType, exit ExitType, size geometry.Rect, display geometry.Rect) geometry.Rect
}

type inFlight struct {
	kind      animKind
	start     geometry.Rect
	end       geometry.Rect
	startOp   float64
	endOp     float64
	startedAt time.Time
	duration  time.Duration
	easing    geometry.Easing
}

// progress reports how far through [0,1] this animation is at now, with its
// configured easing curve applied (spec.md §9's "pure function f(t)->[0,1]").
func (a *inFlight) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	t := float64(now.Sub(a.startedAt)) / float64(a.duration)
	if t > 1 {
		t = 1
	}
	if t < 0 {
		t = 0
	}
	return a.easing.Apply(t)
}

// apply writes this animation's interpolated geometry/opacity at now onto h.
func (a *inFlight) apply(h *headline.Headline, now time.Time) {
	f := a.progress(now)
	h.Rect = geometry.Lerp(a.start, a.end, f)
	h.Opacity = a.startOp + (a.endOp-a.startOp)*f
}

type animKind int

const (
	animEntry animKind = iota
	animExit
	animShift
)

// Chyron manages the headlines submitted for a single story, animating
// their entry/exit and aging them out according to its Settings.
type Chyron struct {
	mu sync.Mutex

	settings Settings
	lanes    LaneManager
	clock    Clock
	bus      events.Bus
	log      logging.Logger
	metrics  metrics.Provider

	lane int

	state State

	incoming               []*headline.Headline // queued, not yet entering
	posted                 map[headline.Handle]*headline.Headline
	entering               map[headline.Handle]*inFlight
	exiting                map[headline.Handle]*inFlight
	shifting               map[headline.Handle]*inFlight // train-push displacement of already-posted headlines
	trainCompletionPending map[headline.Handle]struct{}  // entering handles whose completion should trigger trainExpireHeadlines
	nextHandle             headline.Handle

	dashboardSlot    geometry.Rect // overrides Anchor's result for Dashboard entry types
	hasDashboardSlot bool

	stopCh chan struct{}
	wg     sync.WaitGroup

	tickCounter        metrics.Counter
	entryCounter       metrics.Counter
	exitCounter        metrics.Counter
	mismatchedCounter  metrics.Counter
}

// New constructs a Chyron bound to the given settings and lane manager. It
// subscribes a lane from lanes immediately; call Display to begin accepting
// and animating headlines.
func New(settings Settings, lanes LaneManager, bus events.Bus, log logging.Logger, provider metrics.Provider) (*Chyron, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}
	c := &Chyron{
		settings:               settings,
		lanes:                  lanes,
		clock:                  realClock{},
		bus:                    bus,
		log:                    log,
		metrics:                provider,
		state:                  StateHidden,
		posted:                 make(map[headline.Handle]*headline.Headline),
		entering:               make(map[headline.Handle]*inFlight),
		exiting:                make(map[headline.Handle]*inFlight),
		shifting:               make(map[headline.Handle]*inFlight),
		trainCompletionPending: make(map[headline.Handle]struct{}),
		nextHandle:             1, // 0 is reserved so AnimationHandle's zero value means "none"
	}
	c.lane = lanes.Subscribe(settings.Story, settings.EntryType, settings.ExitType)
	c.tickCounter = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Name: "chyron_ticks_total", Help: "Chyron scheduler ticks"}})
	c.entryCounter = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Name: "chyron_entries_total", Help: "Headline entry animations started"}})
	c.exitCounter = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Name: "chyron_exits_total", Help: "Headline exit animations started"}})
	c.mismatchedCounter = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Name: "chyron_mismatched_story_total", Help: "FileHeadline calls rejected for story mismatch"}})
	return c, nil
}

// WithClock overrides the Chyron's clock; intended for tests.
func (c *Chyron) WithClock(clock Clock) *Chyron {
	if clock != nil {
		c.clock = clock
	}
	return c
}

// Settings returns the Chyron's immutable configuration.
func (c *Chyron) Settings() Settings { return c.settings }

func (c *Chyron) logInfo(msg string, attrs ...any) {
	if c.log == nil {
		return
	}
	c.log.InfoCtx(context.Background(), msg, append([]any{"story", c.settings.Story}, attrs...)...)
}

func (c *Chyron) logWarn(msg string, attrs ...any) {
	if c.log == nil {
		return
	}
	c.log.WarnCtx(context.Background(), msg, append([]any{"story", c.settings.Story}, attrs...)...)
}

// State reports the current lifecycle state.
func (c *Chyron) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Display begins displaying Headlines, starting the tick loop if it isn't
// already running.
func (c *Chyron) Display() {
	c.mu.Lock()
	alreadyRunning := c.stopCh != nil
	c.state = StateDisplaying
	c.mu.Unlock()
	if alreadyRunning {
		return
	}
	c.mu.Lock()
	c.stopCh = make(chan struct{})
	stop := c.stopCh
	c.mu.Unlock()
	c.wg.Add(1)
	go c.runLoop(stop)
	c.logInfo("chyron displaying")
}

// Hide stops displaying Headlines and destroys any that exist.
func (c *Chyron) Hide() {
	c.stopLoop()
	c.mu.Lock()
	c.state = StateHidden
	c.incoming = nil
	c.posted = make(map[headline.Handle]*headline.Headline)
	c.entering = make(map[headline.Handle]*inFlight)
	c.exiting = make(map[headline.Handle]*inFlight)
	c.shifting = make(map[headline.Handle]*inFlight)
	c.trainCompletionPending = make(map[headline.Handle]struct{})
	c.mu.Unlock()
	c.logInfo("chyron hidden")
}

// Shelve stops displaying Headlines and destroys existing ones, same as
// Hide, but leaves the Chyron in StateShelved so a Dashboard can
// distinguish "temporarily withdrawn" from "never shown" (spec.md §4.4).
func (c *Chyron) Shelve() {
	c.stopLoop()
	c.mu.Lock()
	c.state = StateShelved
	c.incoming = nil
	c.posted = make(map[headline.Handle]*headline.Headline)
	c.entering = make(map[headline.Handle]*inFlight)
	c.exiting = make(map[headline.Handle]*inFlight)
	c.shifting = make(map[headline.Handle]*inFlight)
	c.trainCompletionPending = make(map[headline.Handle]struct{})
	c.mu.Unlock()
	c.logInfo("chyron shelved")
}

// Suspend pauses dequeuing: Headlines filed while suspended stay queued, and
// those already posted are left as they are.
func (c *Chyron) Suspend() {
	c.mu.Lock()
	c.state = StateSuspended
	c.mu.Unlock()
}

// Resume lets queued Headlines dequeue again.
func (c *Chyron) Resume() {
	c.mu.Lock()
	if c.state == StateSuspended {
		c.state = StateDisplaying
	}
	c.mu.Unlock()
}

func (c *Chyron) stopLoop() {
	c.mu.Lock()
	stop := c.stopCh
	c.stopCh = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
		c.wg.Wait()
	}
}

// Unsubscribed releases the Chyron's lane reservation. Call once, when the
// owning Dashboard/Producer is done with this Chyron.
func (c *Chyron) Unsubscribed() {
	c.stopLoop()
	c.lanes.Unsubscribe(c.settings.Story)
}

// FileHeadline enqueues a headline for display. It fails fast with
// newsroomerr.ErrMismatchedStory if the headline's story identity doesn't
// match this Chyron's settings (a contract violation, never recovered).
func (c *Chyron) FileHeadline(h *headline.Headline) error {
	if h.Story != c.settings.Story {
		c.mismatchedCounter.Inc(1)
		c.logWarn("file_headline story mismatch", "headline_story", h.Story)
		return newsroomerr.ErrMismatchedStory
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateShelved || c.state == StateHidden {
		return nil
	}
	h.Margin = c.settings.Margin
	h.FontPt = 0 // resolved by Initialize at entry time by the caller/producer
	h.ExtractProgress()
	c.incoming = append(c.incoming, h)
	return nil
}

// HighlightHeadline adjusts a reporter-drawn Headline's opacity for
// `timeout` to signal it was interacted with, then restores its prior
// opacity. Intended for use by internal/producer when forwarding a
// reporter-originated highlight request.
func (c *Chyron) HighlightHeadline(handle headline.Handle, opacity float64, timeout time.Duration) {
	c.mu.Lock()
	h, ok := c.posted[handle]
	if !ok {
		c.mu.Unlock()
		return
	}
	prior := h.Opacity
	h.Opacity = opacity
	c.mu.Unlock()

	if timeout <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		t := time.NewTimer(timeout)
		defer t.Stop()
		<-t.C
		c.mu.Lock()
		if h2, ok := c.posted[handle]; ok && h2 == h {
			h.Opacity = prior
		}
		c.mu.Unlock()
	}()
}

// LaneBoundaries returns this Chyron's current lane_boundaries rectangle —
// the dynamic, headline-occupancy-grown rect a Dashboard reads to size its
// reflow shift (spec.md §4.3).
func (c *Chyron) LaneBoundaries() (geometry.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lanes.LaneBoundaries(c.lane)
}

// SetDashboardSlot overrides this Chyron's resting anchor for Dashboard
// entry types, whose layout is computed by the owning Dashboard rather than
// the LaneManager (spec.md §4.3).
func (c *Chyron) SetDashboardSlot(rect geometry.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboardSlot = rect
	c.hasDashboardSlot = true
}

// shift_* adjust every posted/entering/exiting headline's resting position
// by the given pixel amount, used by a Dashboard to make room when a
// sibling Chyron unsubscribes (spec.md §4.3).
func (c *Chyron) ShiftLeft(amount int)  { c.shift(-amount, 0) }
func (c *Chyron) ShiftRight(amount int) { c.shift(amount, 0) }
func (c *Chyron) ShiftUp(amount int)    { c.shift(0, -amount) }
func (c *Chyron) ShiftDown(amount int)  { c.shift(0, amount) }

func (c *Chyron) shift(dx, dy int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.posted {
		h.Rect.X += dx
		h.Rect.Y += dy
	}
	for _, a := range c.entering {
		a.start.X += dx
		a.start.Y += dy
		a.end.X += dx
		a.end.Y += dy
	}
	for _, a := range c.exiting {
		a.start.X += dx
		a.start.Y += dy
		a.end.X += dx
		a.end.Y += dy
	}
	for _, a := range c.shifting {
		a.start.X += dx
		a.start.Y += dy
		a.end.X += dx
		a.end.Y += dy
	}
	if c.hasDashboardSlot {
		c.dashboardSlot.X += dx
		c.dashboardSlot.Y += dy
	}
}

func (c *Chyron) runLoop(stop chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick is the single entry point for all of a Chyron's time-driven
// behavior, called every TickInterval by runLoop (or directly by tests
// against a fake Clock). It implements spec.md §4.1's scheduling clock
// verbatim: first let any in-flight animation's completion land, then at
// most one of {start the next queued entry, start one ttl exit} happens —
// never both in the same tick (the animation interlock).
func (c *Chyron) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickCounter.Inc(1)

	now := c.clock.Now()

	c.updateInFlightGeometry(now)
	c.advanceShifts(now)
	c.advanceEntries(now)
	c.advanceExits(now)
	c.applyAgingEffect(now)

	if len(c.incoming) > 0 {
		if c.state == StateSuspended {
			return // dequeuing is paused until Resume
		}
		// Train entries bypass the interlock entirely: a newcomer pushes
		// posted headlines aside instead of waiting for them to settle.
		if c.settings.EntryType.IsTrain() || (len(c.entering) == 0 && len(c.exiting) == 0) {
			c.startNextEntry(now)
		}
		return
	}
	if len(c.entering) > 0 || len(c.exiting) > 0 {
		return
	}
	c.startOneExit(now)
}

// updateInFlightGeometry writes each in-flight animation's eased,
// interpolated geometry/opacity onto its headline, so a renderer reading
// posted headlines mid-animation sees smooth motion rather than a snap
// from start straight to end.
func (c *Chyron) updateInFlightGeometry(now time.Time) {
	for h, a := range c.entering {
		if hl := c.headlineByHandle(h); hl != nil {
			a.apply(hl, now)
		}
	}
	for h, a := range c.exiting {
		if hl := c.headlineByHandle(h); hl != nil {
			a.apply(hl, now)
		}
	}
	for h, a := range c.shifting {
		if hl := c.headlineByHandle(h); hl != nil {
			a.apply(hl, now)
		}
	}
}

// advanceShifts completes any train-push shift whose duration has elapsed,
// landing the displaced headline at its final pushed-aside position. Run
// alongside advanceEntries as a ParallelAnimationGroup (spec.md §4.1/§8
// scenario 2): both start at the same instant with the same duration, so
// they land on the same tick.
func (c *Chyron) advanceShifts(now time.Time) {
	for h, a := range c.shifting {
		if now.Sub(a.startedAt) < a.duration {
			continue
		}
		if hl := c.headlineByHandle(h); hl != nil {
			hl.Rect = a.end
			hl.Opacity = a.endOp
		}
		delete(c.shifting, h)
	}
}

// advanceEntries completes any entry animation whose duration has elapsed,
// moving the headline from entering into posted.
func (c *Chyron) advanceEntries(now time.Time) {
	for h, a := range c.entering {
		if now.Sub(a.startedAt) < a.duration {
			continue
		}
		hl := c.headlineByHandle(h)
		if hl == nil {
			delete(c.entering, h)
			delete(c.trainCompletionPending, h)
			continue
		}
		hl.Rect = a.end
		hl.Opacity = a.endOp
		hl.ViewedAt = now
		c.posted[h] = hl
		delete(c.entering, h)
		c.publish(events.CategoryHeadline, "entered", h)

		if _, pending := c.trainCompletionPending[h]; pending {
			delete(c.trainCompletionPending, h)
			c.trainExpireHeadlines(now, c.lanes.Display(c.lane))
		}
	}
}

// advanceExits completes any exit animation whose duration has elapsed,
// removing the headline entirely and notifying subscribers it has gone out
// of scope (the Go analogue of signal_headline_going_out_of_scope).
func (c *Chyron) advanceExits(now time.Time) {
	for h, a := range c.exiting {
		if now.Sub(a.startedAt) < a.duration {
			continue
		}
		delete(c.exiting, h)
		delete(c.posted, h)
		c.publish(events.CategoryHeadline, "out_of_scope", h)
	}
}

// startNextEntry dequeues the next incoming headline and starts its entry
// animation, honoring the animation interlock: a new entry never starts
// while one for this Chyron is already in flight (spec.md §4.1's "animation
// interlock" invariant), except for Train variants, whose arrival instead
// pushes existing posted headlines and so bypasses the interlock entirely.
func (c *Chyron) startNextEntry(now time.Time) {
	if len(c.incoming) == 0 {
		return
	}
	if !c.settings.EntryType.IsTrain() && len(c.entering) > 0 {
		return
	}
	h := c.incoming[0]
	c.incoming = c.incoming[1:]

	handle := c.nextHandle
	c.nextHandle++
	h.Animation = headline.AnimationHandle(handle)

	display := c.lanes.Display(c.lane)
	w, ht := c.settings.Dimensions(display)
	size := geometry.Rect{W: w, H: ht}
	end := c.lanes.Anchor(c.lane, c.settings.EntryType, c.settings.ExitType, size, display)
	if c.settings.EntryType.IsDashboard() && c.hasDashboardSlot {
		end = c.dashboardSlot
	}
	c.lanes.GrowLaneBoundaries(c.lane, end)
	start := end
	switch {
	case c.settings.EntryType.IsSlideOrTrain():
		start = offLaneOrigin(c.settings.EntryType, end, display)
	}

	startOp, endOp := 1.0, 1.0
	if c.settings.EntryType.IsFade() {
		startOp, endOp = 0.0, 1.0
	}

	dur := c.settings.MotionDuration
	easing := c.settings.MotionEasing
	if c.settings.EntryType.IsPop() {
		dur = 0
	} else if c.settings.EntryType.IsFade() {
		dur = c.settings.FadeDuration
		easing = c.settings.FadeEasing
	}

	isTrain := c.settings.EntryType.IsTrain()
	var dx, dy int
	if isTrain {
		dx, dy = trainPushVector(c.settings.EntryType, w, ht, c.settings.Margin)
	}

	if dur <= 0 {
		// Pop shows instantly with viewed = now (spec.md §4.1): no
		// animation interlock is held open for it.
		h.Rect = end
		h.Opacity = endOp
		h.ViewedAt = now
		c.posted[handle] = h
		c.entryCounter.Inc(1)
		c.publish(events.CategoryHeadline, "entered", handle)
		if isTrain {
			c.pushPosted(handle, dx, dy)
			c.trainExpireHeadlines(now, display)
		}
		return
	}

	if isTrain {
		c.startTrainPush(handle, dx, dy, now, dur, easing)
	}

	c.entering[handle] = &inFlight{
		kind:      animEntry,
		start:     start,
		end:       end,
		startOp:   startOp,
		endOp:     endOp,
		startedAt: now,
		duration:  dur,
		easing:    easing,
	}
	h.Rect = start
	h.Opacity = startOp
	c.posted[handle] = h // visible immediately even while entering, per lane anchor rules
	c.entryCounter.Inc(1)
	if isTrain {
		c.trainCompletionPending[handle] = struct{}{}
	}
	c.publish(events.CategoryHeadline, "entering", handle)
}

// trainPushVector reports the displacement a Train newcomer of size (w,h)
// pushes every other posted headline by, along the axis its named origin
// implies: Down/Up entries push vertically by h+margin, In entries push
// horizontally by w+margin, always away from the edge the newcomer entered
// from (spec.md §4.1/§8 scenario 2).
func trainPushVector(e EntryType, w, h, margin int) (dx, dy int) {
	switch e {
	case TrainDownLeftTop, TrainDownCenterTop, TrainDownRightTop:
		return 0, h + margin
	case TrainUpLeftBottom, TrainUpCenterBottom, TrainUpRightBottom:
		return 0, -(h + margin)
	case TrainInLeftTop, TrainInLeftBottom:
		return w + margin, 0
	case TrainInRightTop, TrainInRightBottom:
		return -(w + margin), 0
	default:
		return 0, 0
	}
}

// pushPosted instantly translates every posted headline other than
// newcomer by (dx,dy). Used for the dur<=0 case, where there is no
// animation for the push to run alongside.
func (c *Chyron) pushPosted(newcomer headline.Handle, dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	for h, hl := range c.posted {
		if h == newcomer {
			continue
		}
		if _, exiting := c.exiting[h]; exiting {
			continue
		}
		hl.Rect.X += dx
		hl.Rect.Y += dy
	}
}

// startTrainPush begins a ParallelAnimationGroup-style shift of every
// currently posted headline other than newcomer by (dx,dy), run alongside
// the newcomer's own entry animation (spec.md §4.1/§8 scenario 2): A is
// translated by the new headline's size+margin while B enters, landing
// together.
func (c *Chyron) startTrainPush(newcomer headline.Handle, dx, dy int, now time.Time, dur time.Duration, easing geometry.Easing) {
	if dx == 0 && dy == 0 {
		return
	}
	for h, hl := range c.posted {
		if h == newcomer {
			continue
		}
		if _, exiting := c.exiting[h]; exiting {
			continue
		}
		if _, already := c.shifting[h]; already {
			continue
		}
		start := hl.Rect
		end := geometry.Rect{X: start.X + dx, Y: start.Y + dy, W: start.W, H: start.H}
		c.shifting[h] = &inFlight{
			kind:      animShift,
			start:     start,
			end:       end,
			startOp:   hl.Opacity,
			endOp:     hl.Opacity,
			startedAt: now,
			duration:  dur,
			easing:    easing,
		}
	}
}

// trainExpireHeadlines drops every posted headline the just-completed push
// has moved fully outside display, applying the configured age effect to
// those that remain only partially visible instead of removing them
// outright — slot_train_expire_headlines in the original implementation.
// Called once the push group (the newcomer's entry plus every sibling's
// shift) has completed, never before.
func (c *Chyron) trainExpireHeadlines(now time.Time, display geometry.Rect) {
	for h, hl := range c.posted {
		if _, entering := c.entering[h]; entering {
			continue
		}
		if _, exiting := c.exiting[h]; exiting {
			continue
		}
		if _, shifting := c.shifting[h]; shifting {
			continue
		}
		if display.Outside(hl.Rect) {
			delete(c.posted, h)
			c.publish(events.CategoryHeadline, "out_of_scope", h)
			continue
		}
		if display.Contains(hl.Rect) {
			continue
		}
		switch c.settings.AgeEffectPolicy {
		case AgeEffectReduceOpacityFixed:
			hl.Opacity = 1.0 - float64(c.settings.AgePercent)/100.0
			hl.Ignored = true
		case AgeEffectReduceOpacityByAge:
			hl.Ignored = true
		}
	}
}

// applyAgingEffect recomputes the continuous ReduceOpacityByAge opacity for
// every eligible posted headline, every tick — independent of, and prior
// to, the one-exit-per-tick decision below (spec.md §4.1's "aging of train
// headlines" clause applies continuously, not just at exit time).
func (c *Chyron) applyAgingEffect(now time.Time) {
	if c.settings.AgeEffectPolicy != AgeEffectReduceOpacityByAge || c.settings.TTL <= 0 {
		return
	}
	for h, hl := range c.posted {
		if _, entering := c.entering[h]; entering {
			continue
		}
		if _, exiting := c.exiting[h]; exiting {
			continue
		}
		if hl.Ignored && !c.settings.EntryType.IsTrain() {
			continue
		}
		frac := float64(hl.Age(now)) / float64(c.settings.TTL)
		if frac > 1 {
			frac = 1
		}
		hl.Opacity = 1.0 - frac*float64(c.settings.AgePercent)/100.0
	}
}

// startOneExit implements spec.md §4.1 step 3: iterate posted headlines in
// insertion order (handles are assigned monotonically at dequeue time, so
// ascending handle order is insertion order) and start the exit animation
// for the first one whose ttl has elapsed and whose ignore flag is false,
// stopping after that single one.
func (c *Chyron) startOneExit(now time.Time) {
	if c.settings.EntryType.IsTrain() || c.settings.TTL <= 0 {
		return
	}
	var candidate headline.Handle
	found := false
	for h, hl := range c.posted {
		if _, entering := c.entering[h]; entering {
			continue
		}
		if _, exiting := c.exiting[h]; exiting {
			continue
		}
		if hl.Ignored {
			continue
		}
		if hl.Age(now) < c.settings.TTL {
			continue
		}
		if !found || h < candidate {
			candidate, found = h, true
		}
	}
	if found {
		c.startExit(candidate, now)
	}
}

// startExit begins the exit animation for a posted headline.
func (c *Chyron) startExit(h headline.Handle, now time.Time) {
	hl, ok := c.posted[h]
	if !ok {
		return
	}
	dur := c.settings.FadeDuration
	easing := c.settings.FadeEasing
	endOp := hl.Opacity
	end := hl.Rect
	switch c.settings.ExitType {
	case ExitFade:
		endOp = 0
	case ExitSlideLeft, ExitSlideFadeLeft:
		end.X -= hl.Rect.W
	case ExitSlideRight, ExitSlideFadeRight:
		end.X += hl.Rect.W
	case ExitSlideUp, ExitSlideFadeUp:
		end.Y -= hl.Rect.H
	case ExitSlideDown, ExitSlideFadeDown:
		end.Y += hl.Rect.H
	case ExitPop:
		dur = 0
	}
	if c.settings.ExitType != ExitFade {
		easing = c.settings.MotionEasing
	}
	if c.settings.ExitType.IsSlideFade() {
		endOp = 0
		dur = c.settings.MotionDuration
	}
	if dur <= 0 {
		// Pop exit: remove without animating (spec.md §4.1's exit table).
		delete(c.posted, h)
		c.exitCounter.Inc(1)
		c.publish(events.CategoryHeadline, "out_of_scope", h)
		return
	}
	c.exiting[h] = &inFlight{
		kind:      animExit,
		start:     hl.Rect,
		end:       end,
		startOp:   hl.Opacity,
		endOp:     endOp,
		startedAt: now,
		duration:  dur,
		easing:    easing,
	}
	c.exitCounter.Inc(1)
	c.publish(events.CategoryHeadline, "exiting", h)
}

// Posted returns a snapshot of each currently posted headline's rectangle,
// keyed by its handle. Used by Dashboard and tests to observe geometry
// without reaching into headline.Headline directly.
func (c *Chyron) Posted() map[int]geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]geometry.Rect, len(c.posted))
	for h, hl := range c.posted {
		out[int(h)] = hl.Rect
	}
	return out
}

// OwnerDrawnPosted returns the handles of every posted reporter-drawn
// headline. A Producer forwarding a Reporter's highlight signal targets
// these; handles that have since gone out of scope simply stop appearing,
// which is what makes the arena handle a safe weak reference (spec.md §9).
func (c *Chyron) OwnerDrawnPosted() []headline.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []headline.Handle
	for h, hl := range c.posted {
		if hl.OwnerDraw {
			out = append(out, h)
		}
	}
	return out
}

// Opacity reports the current opacity of a posted headline, false if the
// handle isn't posted. Used by renderers and by the highlight forwarding
// path's tests.
func (c *Chyron) Opacity(handle headline.Handle) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hl, ok := c.posted[handle]; ok {
		return hl.Opacity, true
	}
	return 0, false
}

func (c *Chyron) headlineByHandle(h headline.Handle) *headline.Headline {
	if hl, ok := c.posted[h]; ok {
		return hl
	}
	return nil
}

func (c *Chyron) publish(category, kind string, handle headline.Handle) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.Event{
		Category: category,
		Type:     kind,
		Labels:   map[string]string{"story": c.settings.Story},
		Fields:   map[string]interface{}{"handle": int(handle)},
	})
}

// offLaneOrigin computes the starting rectangle for a Slide/Train entry,
// placing it just outside the display on the side its name implies.
func offLaneOrigin(e EntryType, end geometry.Rect, display geometry.Rect) geometry.Rect {
	start := end
	switch e {
	case SlideDownLeftTop, SlideDownCenterTop, SlideDownRightTop,
		TrainDownLeftTop, TrainDownCenterTop, TrainDownRightTop:
		start.Y = -end.H
	case SlideUpLeftBottom, SlideUpCenterBottom, SlideUpRightBottom,
		TrainUpLeftBottom, TrainUpCenterBottom, TrainUpRightBottom:
		start.Y = display.H
	case SlideInLeftTop, SlideInLeftBottom, TrainInLeftTop, TrainInLeftBottom:
		start.X = -end.W
	case SlideInRightTop, SlideInRightBottom, TrainInRightTop, TrainInRightBottom:
		start.X = display.W
	}
	return start
}
