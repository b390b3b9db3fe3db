package model

// Signal is a single piece of bridge evidence connecting a LinkedIn
// candidate with an external platform profile.
type Signal string

const (
	SignalLinkedInURLInBio      Signal = "linkedin_url_in_bio"
	SignalLinkedInURLInBlog     Signal = "linkedin_url_in_blog"
	SignalLinkedInURLInPage     Signal = "linkedin_url_in_page"
	SignalLinkedInURLInTeamPage Signal = "linkedin_url_in_team_page"
	SignalReverseLinkHintMatch  Signal = "reverse_link_hint_match"
	SignalCommitEmailDomain     Signal = "commit_email_domain"
	SignalCrossPlatformHandle   Signal = "cross_platform_handle"
	SignalMutualReference       Signal = "mutual_reference"
	SignalVerifiedDomain        Signal = "verified_domain"
	SignalEmailInPublicPage     Signal = "email_in_public_page"
	SignalConferenceSpeaker     Signal = "conference_speaker"
	SignalNone                  Signal = "none"
)

// Tier is the bridge tier: 1 auto-merge-eligible, 2 human review,
// 3 speculative.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// BridgeDetection is the classified bridge evidence for one identity.
type BridgeDetection struct {
	Tier              Tier     `json:"tier"`
	Signals           []Signal `json:"signals"`
	BridgeURL         string   `json:"bridge_url,omitempty"`
	ConfidenceFloor   float64  `json:"confidence_floor"`
	AutoMergeEligible bool     `json:"auto_merge_eligible"`
	HadNoSignals      bool     `json:"had_no_signals"`
}

// HasSignal reports whether the detection carries the given signal.
func (b BridgeDetection) HasSignal(s Signal) bool {
	for _, sig := range b.Signals {
		if sig == s {
			return true
		}
	}
	return false
}
