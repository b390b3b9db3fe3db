package eval

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Gates are the CI regression thresholds a suite run must satisfy.
type Gates struct {
	MinAutoMergePrecision float64 `yaml:"min_auto_merge_precision"`
	MinRecall             float64 `yaml:"min_recall"`
	MinPersistRate        float64 `yaml:"min_persist_rate"`
	// MaxPersistRate catches the opposite regression: a scoring change
	// that starts persisting almost everything.
	MaxPersistRate float64 `yaml:"max_persist_rate"`
}

// DefaultGates returns the thresholds CI runs with.
func DefaultGates() Gates {
	return Gates{
		MinAutoMergePrecision: 0.95,
		MinRecall:             0.80,
		MinPersistRate:        0.10,
		MaxPersistRate:        0.60,
	}
}

// CheckGates returns an error naming every gate the report fails.
func CheckGates(r *Report, g Gates) error {
	var failures []string

	if r.AutoMergePrecision < g.MinAutoMergePrecision {
		failures = append(failures, fmt.Sprintf(
			"auto-merge precision %.3f is below threshold %.3f",
			r.AutoMergePrecision, g.MinAutoMergePrecision))
	}
	if r.Recall < g.MinRecall {
		failures = append(failures, fmt.Sprintf(
			"recall %.3f is below threshold %.3f",
			r.Recall, g.MinRecall))
	}
	if r.PersistRate < g.MinPersistRate {
		failures = append(failures, fmt.Sprintf(
			"persist rate %.3f is below threshold %.3f",
			r.PersistRate, g.MinPersistRate))
	}
	if g.MaxPersistRate > 0 && r.PersistRate > g.MaxPersistRate {
		failures = append(failures, fmt.Sprintf(
			"persist rate %.3f is above ceiling %.3f",
			r.PersistRate, g.MaxPersistRate))
	}

	if len(failures) > 0 {
		return eris.New("eval gates failed: " + strings.Join(failures, "; "))
	}
	return nil
}

// FormatMarkdown produces a Markdown summary of a suite run, with a
// section listing labeled identities the gate dropped.
func FormatMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("## Evaluation Report\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|:-------|------:|\n")
	fmt.Fprintf(&sb, "| Cases | %d |\n", r.Cases)
	fmt.Fprintf(&sb, "| Findings | %d |\n", r.Findings)
	fmt.Fprintf(&sb, "| Persisted | %d |\n", r.Persisted)
	fmt.Fprintf(&sb, "| Auto-merge precision | %.3f |\n", r.AutoMergePrecision)
	fmt.Fprintf(&sb, "| Recall | %.3f |\n", r.Recall)
	fmt.Fprintf(&sb, "| Persist rate | %.3f |\n", r.PersistRate)
	fmt.Fprintf(&sb, "| Mean persisted confidence | %.3f |\n", r.MeanPersistedConfidence)

	var missed []Outcome
	for _, o := range r.Outcomes {
		if o.Truth && !o.Persisted {
			missed = append(missed, o)
		}
	}
	if len(missed) > 0 {
		sb.WriteString("\n### Missed labeled identities\n\n")
		sb.WriteString("| Case | Identity | Tier | Confidence | Reason |\n")
		sb.WriteString("|:-----|:---------|-----:|-----------:|:-------|\n")
		for _, o := range missed {
			fmt.Fprintf(&sb, "| %s | `%s` | %d | %.2f | %s |\n",
				o.Case, o.Key, o.Tier, o.Confidence, o.Reason)
		}
	}

	return sb.String()
}

// FormatBadgeJSON produces a shields.io endpoint badge JSON for the
// auto-merge precision metric.
func FormatBadgeJSON(r *Report) string {
	color := "red"
	switch {
	case r.AutoMergePrecision >= 0.95:
		color = "brightgreen"
	case r.AutoMergePrecision >= 0.90:
		color = "green"
	case r.AutoMergePrecision >= 0.80:
		color = "yellow"
	}

	return fmt.Sprintf(
		`{"schemaVersion":1,"label":"auto-merge precision","message":"%.1f%%","color":"%s"}`,
		r.AutoMergePrecision*100, color,
	)
}
