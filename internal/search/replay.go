package search

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/identity-cli/internal/resilience"
)

// FixtureEntry is one recorded query/response pair. ErrKind, when set,
// replays a provider failure of that kind instead of a response.
type FixtureEntry struct {
	Query    string   `yaml:"query"`
	Response Response `yaml:"response,omitempty"`
	ErrKind  string   `yaml:"err_kind,omitempty"`
}

type fixtureFile struct {
	Entries []FixtureEntry `yaml:"entries"`
}

type replayProvider struct {
	name    string
	entries map[string]FixtureEntry
	log     *zap.Logger
}

// NewReplayProvider serves recorded responses from a YAML fixture.
// Queries are matched case-insensitively; a miss replays as an empty
// result set so runs stay deterministic regardless of plan drift.
func NewReplayProvider(name, path string) (Provider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "replay: read fixture %s", path)
	}
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "replay: parse fixture %s", path)
	}

	entries := make(map[string]FixtureEntry, len(file.Entries))
	for _, e := range file.Entries {
		entries[fixtureKey(e.Query)] = e
	}
	return &replayProvider{name: name, entries: entries, log: zap.L()}, nil
}

func (p *replayProvider) Name() string { return p.name }

func (p *replayProvider) Search(_ context.Context, query string) (*Response, error) {
	entry, ok := p.entries[fixtureKey(query)]
	if !ok {
		p.log.Warn("replay fixture miss", zap.String("provider", p.name), zap.String("query", query))
		return &Response{}, nil
	}
	if entry.ErrKind != "" {
		return nil, resilience.E(resilience.Kind(entry.ErrKind), eris.Errorf("replay: recorded %s for %q", entry.ErrKind, query))
	}
	resp := entry.Response
	return &resp, nil
}

func fixtureKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Recorder wraps a live provider and captures every exchange so a run
// can be turned into a replay fixture.
type Recorder struct {
	inner Provider

	mu      sync.Mutex
	entries []FixtureEntry
}

// NewRecorder wraps a provider for fixture capture.
func NewRecorder(p Provider) *Recorder {
	return &Recorder{inner: p}
}

func (r *Recorder) Name() string { return r.inner.Name() }

func (r *Recorder) Search(ctx context.Context, query string) (*Response, error) {
	resp, err := r.inner.Search(ctx, query)

	entry := FixtureEntry{Query: query}
	if err != nil {
		entry.ErrKind = string(resilience.KindOf(err))
	} else {
		entry.Response = *resp
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	return resp, err
}

// WriteFile persists the captured exchanges as a YAML fixture.
func (r *Recorder) WriteFile(path string) error {
	r.mu.Lock()
	file := fixtureFile{Entries: append([]FixtureEntry(nil), r.entries...)}
	r.mu.Unlock()

	raw, err := yaml.Marshal(file)
	if err != nil {
		return eris.Wrap(err, "replay: marshal fixture")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return eris.Wrapf(err, "replay: write fixture %s", path)
	}
	return nil
}
