// Package chyron implements the per-story animation scheduler: entry/exit
// geometry, train push semantics, aging, and the Hidden/Displaying/
// Suspended/Shelved state machine described in spec.md §4.1.
package chyron

import (
	"errors"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
)

// errInvalidDashboardGroup is returned by Settings.Validate.
var errInvalidDashboardGroup = errors.New("chyron: dashboard_group_id must be set iff entry type is a Dashboard variant")

// EntryType enumerates every headline entry animation. Slide and Train
// share the same 10 named origins (see DESIGN.md for why this is a superset
// of spec.md's summary "9 origins" count); Pop and Fade each cover 5
// positions; Dashboard covers 8 edge/side combinations.
type EntryType int

const (
	// Slide family: the headline travels in from off-lane to its resting
	// position, aging out normally via ttl.
	SlideDownLeftTop EntryType = iota
	SlideDownCenterTop
	SlideDownRightTop
	SlideUpLeftBottom
	SlideUpCenterBottom
	SlideUpRightBottom
	SlideInLeftTop
	SlideInRightTop
	SlideInLeftBottom
	SlideInRightBottom

	// Train family: identical geometry to the matching Slide variant, but
	// newcomers push existing posted headlines aside instead of aging them.
	TrainDownLeftTop
	TrainDownCenterTop
	TrainDownRightTop
	TrainUpLeftBottom
	TrainUpCenterBottom
	TrainUpRightBottom
	TrainInLeftTop
	TrainInRightTop
	TrainInLeftBottom
	TrainInRightBottom

	// Pop family: appears instantly at its resting position, no motion.
	PopCenter
	PopTopLeft
	PopTopRight
	PopBottomLeft
	PopBottomRight

	// Fade family: appears at its resting position, opacity 0->1.
	FadeCenter
	FadeTopLeft
	FadeTopRight
	FadeBottomLeft
	FadeBottomRight

	// Dashboard family: anchor delegated to the owning Dashboard (§4.3).
	DashboardDownLeft
	DashboardDownRight
	DashboardUpLeft
	DashboardUpRight
	DashboardInLeftTop
	DashboardInRightTop
	DashboardInLeftBottom
	DashboardInRightBottom
)

// IsTrain reports whether e is one of the Train entry variants. Implemented
// as an explicit switch, never an ordinal/range comparison, so reordering
// the EntryType enum can't silently change behavior (spec.md §9).
func (e EntryType) IsTrain() bool {
	switch e {
	case TrainDownLeftTop, TrainDownCenterTop, TrainDownRightTop,
		TrainUpLeftBottom, TrainUpCenterBottom, TrainUpRightBottom,
		TrainInLeftTop, TrainInRightTop, TrainInLeftBottom, TrainInRightBottom:
		return true
	default:
		return false
	}
}

// IsDashboard reports whether e is one of the Dashboard entry variants.
func (e EntryType) IsDashboard() bool {
	switch e {
	case DashboardDownLeft, DashboardDownRight, DashboardUpLeft, DashboardUpRight,
		DashboardInLeftTop, DashboardInRightTop, DashboardInLeftBottom, DashboardInRightBottom:
		return true
	default:
		return false
	}
}

// IsPop reports whether e is one of the Pop entry variants.
func (e EntryType) IsPop() bool {
	switch e {
	case PopCenter, PopTopLeft, PopTopRight, PopBottomLeft, PopBottomRight:
		return true
	default:
		return false
	}
}

// IsFade reports whether e is one of the Fade entry variants.
func (e EntryType) IsFade() bool {
	switch e {
	case FadeCenter, FadeTopLeft, FadeTopRight, FadeBottomLeft, FadeBottomRight:
		return true
	default:
		return false
	}
}

// IsSlideOrTrain reports whether e animates geometry (Slide or Train),
// as opposed to Pop (instant) or Fade (opacity only).
func (e EntryType) IsSlideOrTrain() bool {
	return !e.IsPop() && !e.IsFade() && !e.IsDashboard()
}

// IsVerticalSlideFamily reports whether e resolves to a lane anchored as a
// vertical line spanning the full display height — the SlideDown*/SlideUp*
// (and matching Train*) variants (spec.md §4.2).
func (e EntryType) IsVerticalSlideFamily() bool {
	switch e {
	case SlideDownLeftTop, SlideDownCenterTop, SlideDownRightTop,
		SlideUpLeftBottom, SlideUpCenterBottom, SlideUpRightBottom,
		TrainDownLeftTop, TrainDownCenterTop, TrainDownRightTop,
		TrainUpLeftBottom, TrainUpCenterBottom, TrainUpRightBottom:
		return true
	default:
		return false
	}
}

// IsHorizontalSlideFamily reports whether e resolves to a lane anchored as
// a horizontal line spanning the full display width — the SlideIn* (and
// matching Train*) variants (spec.md §4.2).
func (e EntryType) IsHorizontalSlideFamily() bool {
	switch e {
	case SlideInLeftTop, SlideInRightTop, SlideInLeftBottom, SlideInRightBottom,
		TrainInLeftTop, TrainInRightTop, TrainInLeftBottom, TrainInRightBottom:
		return true
	default:
		return false
	}
}

// DashboardAxis reports the stacking axis and direction a Dashboard entry
// type lays its members out along: Down/Up families stack vertically below
// or above the header, In families stack horizontally beside it. sign is +1
// when later indices move away from the header in the positive X/Y
// direction, -1 otherwise.
func (e EntryType) DashboardAxis() (vertical bool, sign int) {
	switch e {
	case DashboardDownLeft, DashboardDownRight:
		return true, 1
	case DashboardUpLeft, DashboardUpRight:
		return true, -1
	case DashboardInLeftTop, DashboardInLeftBottom:
		return false, 1
	case DashboardInRightTop, DashboardInRightBottom:
		return false, -1
	default:
		return true, 1
	}
}

// ExitType enumerates every headline exit animation.
type ExitType int

const (
	ExitPop ExitType = iota
	ExitFade
	ExitSlideLeft
	ExitSlideRight
	ExitSlideUp
	ExitSlideDown
	ExitSlideFadeLeft
	ExitSlideFadeRight
	ExitSlideFadeUp
	ExitSlideFadeDown
)

// IsSlideFade reports whether e both translates and fades.
func (e ExitType) IsSlideFade() bool {
	switch e {
	case ExitSlideFadeLeft, ExitSlideFadeRight, ExitSlideFadeUp, ExitSlideFadeDown:
		return true
	default:
		return false
	}
}

// IsSliding reports whether e translates the headline out (as opposed to
// Pop/Fade, which leave it in place). Used by internal/lane to decide
// whether a Fade/Pop entry's lane keeps a full line to exit along or
// collapses to a single point (spec.md §4.2).
func (e ExitType) IsSliding() bool {
	switch e {
	case ExitSlideLeft, ExitSlideRight, ExitSlideUp, ExitSlideDown,
		ExitSlideFadeLeft, ExitSlideFadeRight, ExitSlideFadeUp, ExitSlideFadeDown:
		return true
	default:
		return false
	}
}

// AgeEffect controls how a train-displaced headline's opacity responds once
// it is no longer ttl-eligible.
type AgeEffect int

const (
	AgeEffectNone AgeEffect = iota
	AgeEffectReduceOpacityFixed
	AgeEffectReduceOpacityByAge
)

// Settings is the immutable per-Chyron-instance configuration (spec.md
// §3's "Chyron settings"). Field names mirror original_source/storyinfo.h.
type Settings struct {
	Story string // opaque story identity

	EntryType EntryType
	ExitType  ExitType

	TTL    time.Duration
	Margin int

	TargetDisplay int

	// Size: either fixed pixels or a percentage of the target display,
	// selected by InterpretAsPixels (original_source/storyinfo.h).
	InterpretAsPixels   bool
	PixelWidth          int
	PixelHeight         int
	PercentWidth        float64
	PercentHeight       float64
	HeadlinesAlwaysVisible bool

	AgeEffectPolicy AgeEffect
	AgePercent      int
	MotionDuration  time.Duration
	FadeDuration    time.Duration
	MotionEasing    geometry.Easing
	FadeEasing      geometry.Easing

	DashboardGroupID     string
	DashboardCompactMode bool
	DashboardCompression float64 // percent, e.g. 25 => 25%

	LimitContent   bool
	LimitContentTo int

	IncludeProgressBar bool
	ProgressTextRE     string
	ProgressOnTop      bool
}

// DefaultSettings returns a Settings populated with the original
// implementation's documented defaults (original_source/storyinfo.h).
func DefaultSettings(story string) Settings {
	return Settings{
		Story:          story,
		EntryType:      PopCenter,
		ExitType:       ExitPop,
		TTL:            5 * time.Second,
		Margin:         5,
		MotionDuration: 500 * time.Millisecond,
		FadeDuration:   500 * time.Millisecond,
		MotionEasing:   geometry.EasingOutCubic,
		FadeEasing:     geometry.EasingInCubic,
		AgePercent:     60,
		DashboardCompression: 25,
		ProgressTextRE:       `\s(\d+)%`,
	}
}

// Validate enforces the §3 invariant: dashboard group id is non-empty iff
// entry type is a Dashboard variant.
func (s Settings) Validate() error {
	isDashboard := s.EntryType.IsDashboard()
	hasGroup := s.DashboardGroupID != ""
	if isDashboard != hasGroup {
		return errInvalidDashboardGroup
	}
	return nil
}

// Dimensions resolves the headline's fixed width/height given a display
// rectangle, honoring InterpretAsPixels vs percentage-of-display sizing.
func (s Settings) Dimensions(display geometry.Rect) (w, h int) {
	if s.InterpretAsPixels {
		return s.PixelWidth, s.PixelHeight
	}
	w = int(s.PercentWidth / 100.0 * float64(display.W))
	h = int(s.PercentHeight / 100.0 * float64(display.H))
	return
}
