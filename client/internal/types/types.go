// Package types holds the wire shapes shared by the SDK's API helpers.
package types

// SessionInfo is the broker's answer to a session request.
type SessionInfo struct {
	SessionID        string `json:"sessionId"`
	ClientSecret     string `json:"clientSecret"`
	Model            string `json:"model"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// UsageSnapshot is the ledger's view after a ping or a read.
type UsageSnapshot struct {
	UsageDate        string `json:"usageDate,omitempty"`
	UsedSeconds      int    `json:"usedSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// Situation is a conversation scenario from the catalogue.
type Situation struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Theme     string   `json:"theme"`
	Prompt    string   `json:"prompt"`
	Links     []string `json:"links"`
	Accent    string   `json:"accent"`
	Ambience  string   `json:"ambience"`
	UpdatedAt string   `json:"updatedAt"`
}

// UpdateSituationRequest carries a partial update; nil fields keep the
// current values.
type UpdateSituationRequest struct {
	Title    *string   `json:"title,omitempty"`
	Theme    *string   `json:"theme,omitempty"`
	Prompt   *string   `json:"prompt,omitempty"`
	Links    *[]string `json:"links,omitempty"`
	Accent   *string   `json:"accent,omitempty"`
	Ambience *string   `json:"ambience,omitempty"`
}

// EventBatch is one fire-and-forget batch for the conversation log.
type EventBatch struct {
	SessionID   string        `json:"sessionId"`
	SituationID string        `json:"situationId,omitempty"`
	Events      []interface{} `json:"events"`
}
