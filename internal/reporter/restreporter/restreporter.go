// Package restreporter implements a reporter.Reporter that covers a
// TeamCity-9-style build/project endpoint by registering interest with a
// shared internal/poller.SharedPoller rather than polling independently.
// Grounded on original_source/reporters/REST/TeamCity9/teamcity9.cpp.
package restreporter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/b0bh00d/Newsroom-sub000/internal/poller"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter"
	"github.com/b0bh00d/Newsroom-sub000/internal/settings"
)

// Reporter covers a single project/builder pair served by a shared TeamCity
// poller, translating poller.Update notifications into reporter.NewData.
type Reporter struct {
	registry    *poller.Registry
	target      string
	pollTimeout time.Duration
	client      *http.Client

	username string
	password string
	project  string
	builder  string

	id string

	unsubscribe func()
	out         chan reporter.NewData
	done        chan struct{}
}

// New constructs a restreporter.Reporter that will share a SharedPoller
// against target through registry.
func New(registry *poller.Registry, target string, pollTimeout time.Duration, client *http.Client) *Reporter {
	return &Reporter{registry: registry, target: target, pollTimeout: pollTimeout, client: client, id: uuid.NewString()}
}

func (r *Reporter) DisplayName() (string, string) {
	return "TeamCity 9 Build Status", "Polls a TeamCity 9 server for project/builder status via a shared poller."
}

func (r *Reporter) PluginClass() string { return "REST" }
func (r *Reporter) PluginID() string    { return r.id }

// Supports reports moderate confidence for any non-empty story string,
// since a "project/builder" pair can't be validated without a request.
func (r *Reporter) Supports(story string) float64 {
	if story == "" {
		return 0
	}
	return 0.5
}

func (r *Reporter) RequiresVersion() int   { return 1 }
func (r *Reporter) RequiresFormat() string { return "Simple" }

func (r *Reporter) RequiresUpgrade(version int, parameters map[string]string) bool {
	return false // version 1 is the first parameter layout
}

func (r *Reporter) Requires() []reporter.Requirement {
	return []reporter.Requirement{
		{Name: "project*", Kind: reporter.ParamString, Required: true},
		{Name: "builder", Kind: reporter.ParamString},
		{Name: "username", Kind: reporter.ParamString},
		{Name: "password*", Kind: reporter.ParamPassword, Required: true},
	}
}

func (r *Reporter) SetRequirements(parameters map[string]string) bool {
	r.project = parameters["project*"]
	r.builder = parameters["builder"]
	r.username = parameters["username"]
	r.password = parameters["password*"]
	return r.project != "" && r.password != ""
}

func (r *Reporter) SetStory(story string) {
	if r.project == "" {
		r.project = story
	}
}

// CoverStory acquires the shared poller for r.target and subscribes to
// updates for r.project/r.builder, translating each poller.Update into a
// reporter.NewData on r.out.
func (r *Reporter) CoverStory(ctx context.Context) error {
	p := r.registry.Acquire(r.target, func() *poller.SharedPoller {
		return poller.NewSharedPoller(r.target, poller.FormatJSON, r.pollTimeout, r.client)
	})
	updates, unsubscribe := p.Subscribe(r.project, r.builder)
	r.unsubscribe = unsubscribe
	r.out = make(chan reporter.NewData, 16)
	r.done = make(chan struct{})

	go r.translateLoop(ctx, updates, r.out, r.done)
	return nil
}

func (r *Reporter) translateLoop(ctx context.Context, updates <-chan poller.Update, out chan reporter.NewData, done chan struct{}) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Err != nil {
				continue
			}
			payload, err := renderStatus(u.Payload)
			if err != nil {
				continue
			}
			select {
			case out <- reporter.NewData{Payload: payload}:
			default:
			}
		}
	}
}

func (r *Reporter) FinishStory() error {
	if r.done != nil {
		close(r.done)
	}
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.registry.Release(r.target)
	return nil
}

// Secure/Unsecure obscure the password field with the same fixed-key
// XOR+base64 round trip internal/settings uses for persisted documents, so
// a persisted parameter blob and a persisted settings document share one
// obfuscation scheme.
func (r *Reporter) Secure(parameters map[string]string) {
	if pw, ok := parameters["password*"]; ok {
		parameters["password*"] = settings.SecureString(pw)
	}
}

func (r *Reporter) Unsecure(parameters map[string]string) {
	if pw, ok := parameters["password*"]; ok {
		parameters["password*"] = settings.UnsecureString(pw)
	}
}

func (r *Reporter) Subscribe() <-chan reporter.NewData {
	return r.out
}

// buildStatus is the subset of a TeamCity build-status JSON object this
// reporter extracts into Headline-ready text.
type buildStatus struct {
	BuildTypeID        string `json:"buildTypeId"`
	Status             string `json:"status"`
	State              string `json:"state"`
	PercentageComplete int    `json:"percentageComplete"`
}

func renderStatus(raw interface{}) ([]byte, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var s buildStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s: %s (%d%%)", s.BuildTypeID, s.Status, s.PercentageComplete)), nil
}
