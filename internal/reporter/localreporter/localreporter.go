// Package localreporter implements a reporter.Reporter that covers a local
// file or directory, emitting a NewData update whenever fsnotify observes a
// write or create event on the target (spec.md §6's LocalTrigger
// story class). Grounded on original_source/reporter_local.h/.cpp.
package localreporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/b0bh00d/Newsroom-sub000/internal/reporter"
)

// TriggerType selects what local file system activity counts as a new
// report, mirroring the original's LocalTrigger enum.
type TriggerType int

const (
	TriggerNewContent TriggerType = iota // file grew; report the appended bytes
	TriggerFileChange                    // file was rewritten/replaced; report its full contents
)

// Reporter watches a single local path and reports new content as it
// appears.
type Reporter struct {
	mu sync.Mutex

	path    string
	trigger TriggerType

	watcher *fsnotify.Watcher
	out     chan reporter.NewData
	done    chan struct{}
	wg      sync.WaitGroup

	lastSize int64
	id       string
}

// New constructs a localreporter.Reporter for path with the given trigger
// semantics. The returned value implements reporter.Reporter.
func New(path string, trigger TriggerType) *Reporter {
	return &Reporter{path: path, trigger: trigger, id: uuid.NewString()}
}

func (r *Reporter) DisplayName() (string, string) {
	return "Local File/Directory", "Watches a local file or directory for changes and reports new content."
}

func (r *Reporter) PluginClass() string { return "Local" }
func (r *Reporter) PluginID() string    { return r.id }

// Supports reports full confidence for any path that exists on the local
// filesystem, zero otherwise.
func (r *Reporter) Supports(story string) float64 {
	if _, err := os.Stat(story); err != nil {
		return 0
	}
	return 1
}

func (r *Reporter) RequiresVersion() int   { return 1 }
func (r *Reporter) RequiresFormat() string { return "Simple" }

func (r *Reporter) RequiresUpgrade(version int, parameters map[string]string) bool {
	return false
}

func (r *Reporter) Requires() []reporter.Requirement {
	return []reporter.Requirement{
		{Name: "trigger", Kind: reporter.ParamCombo, Required: true, Choices: []string{"new-content", "file-change"}},
	}
}

func (r *Reporter) SetRequirements(parameters map[string]string) bool {
	switch parameters["trigger"] {
	case "file-change":
		r.trigger = TriggerFileChange
	default:
		r.trigger = TriggerNewContent
	}
	return true
}

func (r *Reporter) SetStory(story string) { r.path = story }

// CoverStory starts an fsnotify watch on the reporter's path.
func (r *Reporter) CoverStory(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("localreporter: create watcher: %w", err)
	}
	if err := w.Add(r.path); err != nil {
		w.Close()
		return fmt.Errorf("localreporter: watch %s: %w", r.path, err)
	}
	if fi, err := os.Stat(r.path); err == nil {
		r.lastSize = fi.Size()
	}

	r.mu.Lock()
	r.watcher = w
	r.out = make(chan reporter.NewData, 16)
	r.done = make(chan struct{})
	out := r.out
	done := r.done
	r.mu.Unlock()

	r.wg.Add(1)
	go r.watchLoop(ctx, w, out, done)
	return nil
}

func (r *Reporter) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan reporter.NewData, done chan struct{}) {
	defer r.wg.Done()
	defer close(out)
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := r.readUpdate(ev.Name)
			if err != nil {
				continue
			}
			if len(data) == 0 {
				continue
			}
			select {
			case out <- reporter.NewData{Payload: data}:
			default:
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (r *Reporter) readUpdate(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if r.trigger == TriggerFileChange {
		return io.ReadAll(f)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	offset := r.lastSize
	if fi.Size() < offset {
		offset = 0 // file truncated/replaced
	}
	r.lastSize = fi.Size()
	r.mu.Unlock()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

// FinishStory stops the fsnotify watch.
func (r *Reporter) FinishStory() error {
	r.mu.Lock()
	done := r.done
	r.done = nil
	r.mu.Unlock()
	if done != nil {
		close(done)
	}
	r.wg.Wait()
	return nil
}

// Secure/Unsecure are no-ops: a local reporter's only parameter (the
// trigger kind) is never sensitive.
func (r *Reporter) Secure(map[string]string)   {}
func (r *Reporter) Unsecure(map[string]string) {}

func (r *Reporter) Subscribe() <-chan reporter.NewData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}
