// Package producer implements Producer, which drives a single
// reporter.Reporter covering one story and turns its NewData updates into
// Headlines filed on an assigned Chyron (spec.md §4.5). Grounded on
// original_source/producer.h/.cpp for the method set and lifecycle, and on
// the teacher's pipeline worker-goroutine shape
// (engine/internal/pipeline/pipeline.go) for the read-one-channel,
// write-headlines loop under a cancellable context.
package producer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/headline"
	"github.com/b0bh00d/Newsroom-sub000/internal/newsroomerr"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter"
)

// Producer manages a Reporter covering a Story, chunking its reported
// content into Headlines and filing them on the assigned Chyron.
type Producer struct {
	mu sync.Mutex

	story    string
	reporter reporter.Reporter
	chyron   *chyron.Chyron
	styles   *StyleList

	limitContent   bool
	limitContentTo int

	covering bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs a Producer that will drive rep against c once
// StartCoveringStory is called.
func New(story string, rep reporter.Reporter, c *chyron.Chyron, styles *StyleList, limitContent bool, limitContentTo int) *Producer {
	return &Producer{
		story:          story,
		reporter:       rep,
		chyron:         c,
		styles:         styles,
		limitContent:   limitContent,
		limitContentTo: limitContentTo,
	}
}

// Story returns the story identity this Producer covers.
func (p *Producer) Story() string { return p.story }

// IsCoveringStory reports whether the Reporter is currently active.
func (p *Producer) IsCoveringStory() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.covering
}

// StartCoveringStory begins covering the story: it calls the Reporter's
// CoverStory and starts a goroutine translating its NewData channel into
// Headlines filed on the Chyron. A Reporter that declines surfaces as
// newsroomerr.ErrReporterCoverFailed, with the producer-chyron wiring torn
// back down so the caller can show the failure and retry later.
func (p *Producer) StartCoveringStory(ctx context.Context) error {
	p.mu.Lock()
	if p.covering {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	if err := p.reporter.CoverStory(runCtx); err != nil {
		cancel()
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
		return fmt.Errorf("%w: story %s: %v", newsroomerr.ErrReporterCoverFailed, p.story, err)
	}

	p.mu.Lock()
	p.covering = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.translateLoop(runCtx, p.reporter.Subscribe())
	if sig, ok := p.reporter.(reporter.Signaler); ok {
		p.wg.Add(1)
		go p.signalLoop(runCtx, sig)
	}
	return nil
}

// StopCoveringStory halts the Reporter and the translation goroutine.
func (p *Producer) StopCoveringStory() bool {
	p.mu.Lock()
	if !p.covering {
		p.mu.Unlock()
		return false
	}
	cancel := p.cancel
	p.cancel = nil
	p.covering = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	_ = p.reporter.FinishStory()
	p.wg.Wait()
	return true
}

// ShelveCoveringStory stops covering the story and withdraws its Chyron's
// display, leaving both ready to resume later (spec.md §4.5).
func (p *Producer) ShelveCoveringStory() {
	p.StopCoveringStory()
	p.chyron.Shelve()
}

// ShelveStory withdraws the story's display without stopping the Reporter —
// the target of an owner-drawing Reporter's shelve signal (spec.md §4.4).
func (p *Producer) ShelveStory() { p.chyron.Shelve() }

// UnshelveStory restores a shelved story's display.
func (p *Producer) UnshelveStory() { p.chyron.Display() }

// signalLoop services an owner-drawing Reporter's optional highlight and
// shelve/unshelve signals for the lifetime of the coverage, the Go analogue
// of the original's signal subscriptions made when the first reporter-drawn
// headline is produced and dropped when coverage stops.
func (p *Producer) signalLoop(ctx context.Context, sig reporter.Signaler) {
	defer p.wg.Done()
	highlights := sig.Highlights()
	shelves := sig.ShelveSignals()
	for {
		select {
		case <-ctx.Done():
			return
		case hl, ok := <-highlights:
			if !ok {
				if shelves == nil {
					return
				}
				highlights = nil
				continue
			}
			p.forwardHighlight(hl)
		case shelve, ok := <-shelves:
			if !ok {
				if highlights == nil {
					return
				}
				shelves = nil
				continue
			}
			if shelve {
				p.ShelveStory()
			} else {
				p.UnshelveStory()
			}
		}
	}
}

// forwardHighlight relays a Reporter's highlight request onto every
// owner-drawn headline still on screen. Headlines that have gone out of
// scope no longer appear in the Chyron's arena, so nothing needs explicit
// stripping here.
func (p *Producer) forwardHighlight(hl reporter.Highlight) {
	for _, handle := range p.chyron.OwnerDrawnPosted() {
		p.chyron.HighlightHeadline(handle, hl.Opacity, hl.Timeout)
	}
}

func (p *Producer) translateLoop(ctx context.Context, updates <-chan reporter.NewData) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-updates:
			if !ok {
				return
			}
			if drawer, ok := p.reporter.(reporter.Drawer); ok {
				if html, drawn := drawer.Draw(data.Payload); drawn {
					p.fileDrawnHeadline(html)
					continue
				}
			}
			p.fileHeadline(string(data.Payload))
		}
	}
}

// fileHeadline splits raw reported text into one or more Headlines
// (chunked by <br> or newline, capped by limitContentTo when limitContent
// is set) and files each on the Chyron, assigning a stylesheet by matching
// the chunk's text against the Producer's StyleList.
func (p *Producer) fileHeadline(raw string) {
	chunks := chunk(raw, p.limitContent, p.limitContentTo)
	for _, text := range chunks {
		h := headline.New(p.story, text)
		if p.styles != nil {
			h.StylesheetID = p.styles.Select(text).Name
		}
		_ = p.chyron.FileHeadline(h)
	}
}

// fileDrawnHeadline files a single Headline for content a Reporter chose to
// render itself (the optional reporter.Drawer hook), bypassing both
// chunking and style-trigger matching since the Reporter already produced
// its final presentation.
func (p *Producer) fileDrawnHeadline(html string) {
	h := headline.New(p.story, html)
	h.OwnerDraw = true
	_ = p.chyron.FileHeadline(h)
}

// chunk implements spec.md §4.5's chunking rule: when limit is false the
// whole payload is one Headline, untouched. When true, the payload is split
// on <br> (if any are present) or else newline, and a new Headline is
// emitted every limitTo lines, rejoined with the separator that was used to
// split them; any trailing remainder shorter than limitTo lines still
// emits one final Headline.
func chunk(raw string, limit bool, limitTo int) []string {
	if !limit || limitTo <= 0 {
		return []string{raw}
	}

	sep := "\n"
	if strings.Contains(raw, "<br>") {
		sep = "<br>"
	}
	lines := strings.Split(raw, sep)

	var out []string
	for i := 0; i < len(lines); i += limitTo {
		end := i + limitTo
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, strings.Join(lines[i:end], sep))
	}
	return out
}
