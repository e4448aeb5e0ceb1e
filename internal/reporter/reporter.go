// Package reporter defines the plug-in contract external collaborators
// implement to cover a story, mirroring IReporter in the original
// implementation (spec.md §6): a small, versioned interface the host never
// needs to recompile to support a new data source.
package reporter

import (
	"context"
	"time"
)

// ParamKind names the type of a required parameter, as IReporter.Requires
// documents it: the suffix after a colon is a default value, and a
// trailing asterisk on the name marks it required.
type ParamKind string

const (
	ParamString   ParamKind = "string"
	ParamPassword ParamKind = "password"
	ParamInteger  ParamKind = "integer"
	ParamDouble   ParamKind = "double"
	ParamMultiline ParamKind = "multiline"
	ParamCombo    ParamKind = "combo"
)

// Requirement describes one parameter a Reporter needs before it can cover
// a story.
type Requirement struct {
	Name     string
	Kind     ParamKind
	Required bool
	Default  string
	Choices  []string // only meaningful for ParamCombo
}

// NewData is what a Reporter hands back to its Producer when it has new
// content to render as a Headline.
type NewData struct {
	Payload []byte
}

// Reporter is the contract every plug-in implements. A Producer drives one
// Reporter instance per covered story.
type Reporter interface {
	// DisplayName returns a user-facing name and, optionally, a tooltip.
	DisplayName() (name, tooltip string)

	// PluginClass categorizes the kind of story this Reporter covers
	// ("Local", "REST", etc).
	PluginClass() string

	// PluginID returns a stable, globally unique identifier for this
	// Reporter implementation (not per-instance).
	PluginID() string

	// Supports reports this Reporter's confidence, in [0,1], that it can
	// meaningfully cover story. Zero means it cannot.
	Supports(story string) float64

	// RequiresVersion reports the parameter-set version this Reporter
	// speaks; hosts persist it alongside the parameters.
	RequiresVersion() int

	// RequiresFormat names the requirement declaration format Requires
	// speaks; "Simple" is the only format currently defined.
	RequiresFormat() string

	// RequiresUpgrade upgrades parameters persisted at an older version in
	// place, reporting whether anything changed.
	RequiresUpgrade(version int, parameters map[string]string) bool

	// Requires lists the parameters this Reporter needs before it can
	// cover a story.
	Requires() []Requirement

	// SetRequirements supplies the parameters Requires asked for. Returns
	// false if they are insufficient.
	SetRequirements(parameters map[string]string) bool

	// SetStory sets the target this Reporter instance will cover. Only
	// called after Supports returns true.
	SetStory(story string)

	// CoverStory begins covering the story set by SetStory.
	CoverStory(ctx context.Context) error

	// FinishStory stops covering the story.
	FinishStory() error

	// Secure obfuscates sensitive parameter values in place before they are
	// persisted to disk.
	Secure(parameters map[string]string)

	// Unsecure reverses Secure, restoring parameters to usable form.
	Unsecure(parameters map[string]string)

	// Subscribe returns a channel of NewData the Producer reads from for
	// the lifetime of CoverStory. Closed when the Reporter stops covering.
	Subscribe() <-chan NewData
}

// Drawer is an optional interface a Reporter may additionally implement to
// render its own Headline content directly, rather than handing back raw
// bytes for the Producer to chunk (spec.md §6's "reporter-draw hook").
type Drawer interface {
	Draw(payload []byte) (html string, ok bool)
}

// Highlight is a reporter-originated request to temporarily boost the
// opacity of the headlines it has drawn.
type Highlight struct {
	Opacity float64
	Timeout time.Duration
}

// Signaler is an optional interface an owner-drawing Reporter may implement
// alongside Drawer. Highlights delivers highlight requests the Producer
// forwards to the Chyron's highlight_headline; ShelveSignals asks the
// Producer to withdraw (true) or restore (false) the story's display
// without stopping coverage. Both channels are read for the lifetime of
// CoverStory and abandoned when the story finishes.
type Signaler interface {
	Highlights() <-chan Highlight
	ShelveSignals() <-chan bool
}
