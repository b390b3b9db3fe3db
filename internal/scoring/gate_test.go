package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-cli/internal/model"
)

func tierResult(tier model.Tier, conf float64, bd model.ScoreBreakdown) Result {
	bridge := model.BridgeDetection{Tier: tier}
	if tier == model.Tier3 {
		bridge.HadNoSignals = true
		bridge.Signals = []model.Signal{model.SignalNone}
	}
	return Result{Breakdown: bd, Bridge: bridge, Confidence: conf, Bucket: BucketFor(conf)}
}

func TestGate_Tier1AutoMergeEligible(t *testing.T) {
	d := Gate(GateInput{
		Platform: model.PlatformGitHub,
		Result:   tierResult(model.Tier1, 0.93, model.ScoreBreakdown{BridgeWeight: 0.40}),
	})

	assert.True(t, d.Persist)
	assert.Contains(t, d.Reason, "Tier-1 bridge, auto-merge eligible")
}

func TestGate_Tier1BelowMergeThreshold(t *testing.T) {
	d := Gate(GateInput{
		Platform: model.PlatformGitHub,
		Result:   tierResult(model.Tier1, 0.85, model.ScoreBreakdown{BridgeWeight: 0.40}),
	})

	assert.True(t, d.Persist)
	assert.Equal(t, "Tier-1 bridge (0.85)", d.Reason)
}

func TestGate_Tier2UnderCap(t *testing.T) {
	d := Gate(GateInput{
		Platform:  model.PlatformNPM,
		Result:    tierResult(model.Tier2, 0.55, model.ScoreBreakdown{BridgeWeight: 0.25}),
		Tier2Used: 1,
	})

	assert.True(t, d.Persist)
	assert.Equal(t, "Tier-2 bridge (2/3)", d.Reason)
}

func TestGate_Tier2CapExceeded(t *testing.T) {
	d := Gate(GateInput{
		Platform:  model.PlatformNPM,
		Result:    tierResult(model.Tier2, 0.80, model.ScoreBreakdown{BridgeWeight: 0.25}),
		Tier2Used: 3,
	})

	assert.False(t, d.Persist)
	assert.Equal(t, "Cap exceeded (3/3)", d.Reason)
}

func TestGate_Tier3BelowMinimum(t *testing.T) {
	d := Gate(GateInput{
		Platform: model.PlatformMedium,
		Result:   tierResult(model.Tier3, 0.20, model.ScoreBreakdown{NameMatch: 0.20}),
	})

	assert.False(t, d.Persist)
	assert.Contains(t, d.Reason, "Below minimum confidence")
}

func TestGate_GitHubNameOnlyGuard(t *testing.T) {
	bd := model.ScoreBreakdown{NameMatch: 0.30, ProfileCompleteness: 0.06}
	d := Gate(GateInput{
		Platform: model.PlatformGitHub,
		Result:   tierResult(model.Tier3, 0.36, bd),
	})

	assert.False(t, d.Persist)
	assert.Equal(t, "GitHub name-only match without corroboration", d.Reason)
}

func TestGate_GitHubNameWithCompanyPersists(t *testing.T) {
	bd := model.ScoreBreakdown{NameMatch: 0.30, CompanyMatch: 0.15}
	d := Gate(GateInput{
		Platform: model.PlatformGitHub,
		Result:   tierResult(model.Tier3, 0.45, bd),
	})

	assert.True(t, d.Persist)
	assert.Contains(t, d.Reason, "Tier-3 speculative")
}

func TestGate_SpeculativeWithoutCorroboration(t *testing.T) {
	// Non-GitHub platform so only the corroboration rule applies.
	bd := model.ScoreBreakdown{NameMatch: 0.30}
	d := Gate(GateInput{
		Platform: model.PlatformMedium,
		Result:   tierResult(model.Tier3, 0.30, bd),
	})

	assert.False(t, d.Persist)
	assert.Equal(t, "Speculative match without corroboration", d.Reason)
}

func TestGate_HandleMatchCorroborates(t *testing.T) {
	bd := model.ScoreBreakdown{HandleMatch: 0.27, NameMatch: 0.10}
	d := Gate(GateInput{
		Platform: model.PlatformNPM,
		Result:   tierResult(model.Tier3, 0.37, bd),
	})

	assert.True(t, d.Persist)
}

func TestGate_ConfigOverrides(t *testing.T) {
	// Tighter minimum drops what the defaults would keep.
	bd := model.ScoreBreakdown{HandleMatch: 0.27}
	d := Gate(GateInput{
		Platform:      model.PlatformNPM,
		Result:        tierResult(model.Tier3, 0.30, bd),
		MinConfidence: 0.40,
	})
	assert.False(t, d.Persist)

	// Larger Tier-2 cap admits a fourth identity.
	d = Gate(GateInput{
		Platform:  model.PlatformNPM,
		Result:    tierResult(model.Tier2, 0.60, model.ScoreBreakdown{BridgeWeight: 0.25}),
		Tier2Used: 3,
		Tier2Cap:  5,
	})
	assert.True(t, d.Persist)
	assert.Equal(t, "Tier-2 bridge (4/5)", d.Reason)
}
