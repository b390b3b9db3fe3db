// Package queryplan turns enriched hints into deduplicated, prioritized
// search queries under a per-pass budget. Every query carries a stable
// variant id used for dedupe bookkeeping and aggregate metrics.
package queryplan

import (
	"strings"

	"github.com/sells-group/identity-cli/internal/model"
)

// Confidence gates deciding which hints are trusted enough to query on.
const (
	GateHigh   = 0.70
	GateMedium = 0.50
	GateLow    = 0.30
)

// maxLocationLen drops unwieldy location strings from query text.
const maxLocationLen = 30

// builder accumulates queries in priority order, deduplicating by
// case-folded text within the planning pass.
type builder struct {
	seen    map[string]bool
	queries []model.Query
}

func newBuilder() *builder {
	return &builder{seen: make(map[string]bool)}
}

func (b *builder) add(text string, qt model.QueryType, variant string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	key := strings.ToLower(text)
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.queries = append(b.queries, model.Query{Text: text, Type: qt, Variant: variant})
}

// take enforces the global budget: the first min(len, budget) queries in
// priority order.
func (b *builder) take(budget int) []model.Query {
	if budget >= 0 && len(b.queries) > budget {
		return b.queries[:budget]
	}
	return b.queries
}

func quoted(s string) string {
	return `"` + s + `"`
}
