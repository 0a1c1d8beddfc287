package model

// CritiqueResult is the critic's verdict on the current draft
type CritiqueResult struct {
	CompleteEnough bool          `json:"complete_enough"`
	MissingTopics  []string      `json:"missing_topics,omitempty"`
	FollowUps      []SubQuestion `json:"follow_ups,omitempty"` // at most the follow-up bound
	ContinueFlag   bool          `json:"continue"`
}
