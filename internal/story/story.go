// Package story defines Info, the shared record describing one covered
// story: its stable identity, the reporter chosen to cover it, that
// reporter's parameters, and the Chyron presentation settings. An Info is
// built by a configuration dialog, handed to a Producer, and persisted in
// the settings document; after handoff it is treated as immutable by the
// dialog.
package story

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/settings"
)

// Info is one story's full configuration. The reporter id is authoritative
// for selecting the covering plug-in; no list index is ever persisted.
type Info struct {
	Identity   string
	Beat       string // reporter class: "Local", "REST", ...
	ReporterID string

	// Parameters are the reporter's requirement values. Callers persist
	// them after the reporter's Secure hook has run and restore them with
	// Unsecure after loading.
	Parameters map[string]string

	Chyron chyron.Settings
}

// New returns an Info for identity with default Chyron settings.
func New(identity string) *Info {
	return &Info{
		Identity:   identity,
		Parameters: make(map[string]string),
		Chyron:     chyron.DefaultSettings(identity),
	}
}

const paramPrefix = "param."

// ToElement flattens the Info into a settings Element for persistence.
func (i *Info) ToElement() settings.Element {
	items := map[string]settings.Item{
		"identity":    i.Identity,
		"beat":        i.Beat,
		"reporter_id": i.ReporterID,

		"entry_type":     strconv.Itoa(int(i.Chyron.EntryType)),
		"exit_type":      strconv.Itoa(int(i.Chyron.ExitType)),
		"ttl":            strconv.Itoa(int(i.Chyron.TTL / time.Second)),
		"margin":         strconv.Itoa(i.Chyron.Margin),
		"target_display": strconv.Itoa(i.Chyron.TargetDisplay),

		"interpret_as_pixels":      strconv.FormatBool(i.Chyron.InterpretAsPixels),
		"pixel_width":              strconv.Itoa(i.Chyron.PixelWidth),
		"pixel_height":             strconv.Itoa(i.Chyron.PixelHeight),
		"percent_width":            strconv.FormatFloat(i.Chyron.PercentWidth, 'f', -1, 64),
		"percent_height":           strconv.FormatFloat(i.Chyron.PercentHeight, 'f', -1, 64),
		"headlines_always_visible": strconv.FormatBool(i.Chyron.HeadlinesAlwaysVisible),

		"age_effect":      strconv.Itoa(int(i.Chyron.AgeEffectPolicy)),
		"age_percent":     strconv.Itoa(i.Chyron.AgePercent),
		"motion_duration": strconv.Itoa(int(i.Chyron.MotionDuration / time.Millisecond)),
		"fade_duration":   strconv.Itoa(int(i.Chyron.FadeDuration / time.Millisecond)),
		"motion_easing":   strconv.Itoa(int(i.Chyron.MotionEasing)),
		"fade_easing":     strconv.Itoa(int(i.Chyron.FadeEasing)),

		"dashboard_group":       i.Chyron.DashboardGroupID,
		"dashboard_compact":     strconv.FormatBool(i.Chyron.DashboardCompactMode),
		"dashboard_compression": strconv.FormatFloat(i.Chyron.DashboardCompression, 'f', -1, 64),

		"limit_content":    strconv.FormatBool(i.Chyron.LimitContent),
		"limit_content_to": strconv.Itoa(i.Chyron.LimitContentTo),

		"progress_bar":    strconv.FormatBool(i.Chyron.IncludeProgressBar),
		"progress_re":     i.Chyron.ProgressTextRE,
		"progress_on_top": strconv.FormatBool(i.Chyron.ProgressOnTop),
	}
	for name, value := range i.Parameters {
		items[paramPrefix+name] = value
	}
	return settings.Element{Items: items}
}

// FromElement reconstructs an Info persisted by ToElement. Persist-then-
// load is identity for every field, including parameters.
func FromElement(e settings.Element) (*Info, error) {
	get := func(key string) string { return e.Items[key] }
	atoi := func(key string) (int, error) {
		v, err := strconv.Atoi(get(key))
		if err != nil {
			return 0, fmt.Errorf("story: element field %s: %w", key, err)
		}
		return v, nil
	}

	identity := get("identity")
	if identity == "" {
		return nil, fmt.Errorf("story: element missing identity")
	}

	info := New(identity)
	info.Beat = get("beat")
	info.ReporterID = get("reporter_id")

	for key, value := range e.Items {
		if len(key) > len(paramPrefix) && key[:len(paramPrefix)] == paramPrefix {
			info.Parameters[key[len(paramPrefix):]] = value
		}
	}

	var err error
	fields := []struct {
		key string
		set func(v int)
	}{
		{"entry_type", func(v int) { info.Chyron.EntryType = chyron.EntryType(v) }},
		{"exit_type", func(v int) { info.Chyron.ExitType = chyron.ExitType(v) }},
		{"ttl", func(v int) { info.Chyron.TTL = time.Duration(v) * time.Second }},
		{"margin", func(v int) { info.Chyron.Margin = v }},
		{"target_display", func(v int) { info.Chyron.TargetDisplay = v }},
		{"pixel_width", func(v int) { info.Chyron.PixelWidth = v }},
		{"pixel_height", func(v int) { info.Chyron.PixelHeight = v }},
		{"age_effect", func(v int) { info.Chyron.AgeEffectPolicy = chyron.AgeEffect(v) }},
		{"age_percent", func(v int) { info.Chyron.AgePercent = v }},
		{"motion_duration", func(v int) { info.Chyron.MotionDuration = time.Duration(v) * time.Millisecond }},
		{"fade_duration", func(v int) { info.Chyron.FadeDuration = time.Duration(v) * time.Millisecond }},
		{"motion_easing", func(v int) { info.Chyron.MotionEasing = geometry.Easing(v) }},
		{"fade_easing", func(v int) { info.Chyron.FadeEasing = geometry.Easing(v) }},
		{"limit_content_to", func(v int) { info.Chyron.LimitContentTo = v }},
	}
	for _, f := range fields {
		var v int
		if v, err = atoi(f.key); err != nil {
			return nil, err
		}
		f.set(v)
	}

	bools := []struct {
		key string
		set func(v bool)
	}{
		{"interpret_as_pixels", func(v bool) { info.Chyron.InterpretAsPixels = v }},
		{"headlines_always_visible", func(v bool) { info.Chyron.HeadlinesAlwaysVisible = v }},
		{"dashboard_compact", func(v bool) { info.Chyron.DashboardCompactMode = v }},
		{"limit_content", func(v bool) { info.Chyron.LimitContent = v }},
		{"progress_bar", func(v bool) { info.Chyron.IncludeProgressBar = v }},
		{"progress_on_top", func(v bool) { info.Chyron.ProgressOnTop = v }},
	}
	for _, f := range bools {
		var v bool
		if v, err = strconv.ParseBool(get(f.key)); err != nil {
			return nil, fmt.Errorf("story: element field %s: %w", f.key, err)
		}
		f.set(v)
	}

	floats := []struct {
		key string
		set func(v float64)
	}{
		{"percent_width", func(v float64) { info.Chyron.PercentWidth = v }},
		{"percent_height", func(v float64) { info.Chyron.PercentHeight = v }},
		{"dashboard_compression", func(v float64) { info.Chyron.DashboardCompression = v }},
	}
	for _, f := range floats {
		var v float64
		if v, err = strconv.ParseFloat(get(f.key), 64); err != nil {
			return nil, fmt.Errorf("story: element field %s: %w", f.key, err)
		}
		f.set(v)
	}

	info.Chyron.Story = identity
	info.Chyron.DashboardGroupID = get("dashboard_group")
	info.Chyron.ProgressTextRE = get("progress_re")
	return info, nil
}

// ResolveIdentityCollision returns identity unchanged when exists reports
// it free, otherwise appends a random suffix until it is unique — the
// recovery for a story identity collision before handoff to a Producer.
func ResolveIdentityCollision(identity string, exists func(string) bool) string {
	for exists(identity) {
		identity = identity + "-" + uuid.NewString()[:8]
	}
	return identity
}

const (
	storiesSection = "stories"
	storiesArray   = "covered"
)

// SaveAll writes infos into doc's stories section, replacing any existing
// list. Callers run each reporter's Secure hook over its Info's Parameters
// before calling this.
func SaveAll(doc *settings.Document, infos []*Info) {
	arr := settings.Array{}
	for _, i := range infos {
		arr.Elements = append(arr.Elements, i.ToElement())
	}
	doc.SetArray(storiesSection, storiesArray, arr)
}

// LoadAll reads every persisted story from doc, in stored order. Elements
// that fail to parse are skipped rather than aborting the whole load, so
// one corrupt record preserves the rest (the settings-parse recovery rule).
func LoadAll(doc *settings.Document) []*Info {
	arr, ok := doc.GetArray(storiesSection, storiesArray)
	if !ok {
		return nil
	}
	var out []*Info
	for _, e := range arr.Elements {
		info, err := FromElement(e)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out
}
